// Package events handles event emission for merge lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/tracing"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/kafka"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes merge outcomes so downstream consumers can invalidate
// caches and reindex. A nil Emitter is valid and emits nothing, which is the
// report-only mode.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitOwnerMerged emits an owner.merged event for a committed merge
func (e *Emitter) EmitOwnerMerged(ctx context.Context, keeper models.Owner, absorbed []string, score float64) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitOwnerMerged")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"score":          score,
		"keeper":         keeper,
	})

	event := &kafka.MergeEvent{
		EventType: "owner.merged",
		KeepID:    keeper.ID,
		Absorbed:  absorbed,
		Data:      data,
	}

	if err := e.producer.PublishMergeEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit owner.merged event")
		return err
	}

	return nil
}

// EmitHousingMerged emits a housing.merged event for a collapsed snapshot group
func (e *Emitter) EmitHousingMerged(ctx context.Context, merged models.Housing, snapshotCount int) error {
	if e == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitHousingMerged")
	defer span.End()

	data, _ := json.Marshal(map[string]any{
		"schema_version": SchemaVersion,
		"snapshot_count": snapshotCount,
		"local_id":       merged.LocalID,
	})

	event := &kafka.MergeEvent{
		EventType: "housing.merged",
		KeepID:    merged.ID,
		Data:      data,
	}

	if err := e.producer.PublishMergeEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit housing.merged event")
		return err
	}

	return nil
}
