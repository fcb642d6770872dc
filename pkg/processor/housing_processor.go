package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/database"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/tracing"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/events"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/merging"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// HousingStore covers the housing persistence a temporal-merge run needs
type HousingStore interface {
	DB() database.DB
	StreamSnapshots(ctx context.Context, fn func(models.Housing) error) error
	GetByLocalID(ctx context.Context, localID string) (*models.Housing, error)
	UpsertTx(ctx context.Context, tx database.Tx, housing models.Housing) error
	DeleteSnapshotsTx(ctx context.Context, tx database.Tx, ids []string) error
}

// HousingProcessor collapses yearly housing snapshots into canonical rows,
// one normalized local id at a time.
type HousingProcessor struct {
	store   HousingStore
	emitter *events.Emitter
	logger  ectologger.Logger
	commit  bool
}

// NewHousingProcessor creates a new HousingProcessor
func NewHousingProcessor(store HousingStore, emitter *events.Emitter, logger ectologger.Logger, commit bool) *HousingProcessor {
	return &HousingProcessor{
		store:   store,
		emitter: emitter,
		logger:  logger,
		commit:  commit,
	}
}

// Run streams snapshots ordered by normalized local id and merges each
// contiguous group. Cancellation drains gracefully after the current group;
// a group failure is logged and the run continues.
func (p *HousingProcessor) Run(ctx context.Context) (models.HousingReport, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.HousingProcessor.Run")
	defer span.End()

	var report models.HousingReport
	var key string
	var pending []models.Housing

	err := p.store.StreamSnapshots(ctx, func(snapshot models.Housing) error {
		if ctx.Err() != nil {
			return errInterrupted
		}

		snapshotKey := snapshot.NormalizedLocalID()
		if snapshotKey != key && len(pending) > 0 {
			p.processGroup(ctx, key, pending, &report)
			pending = pending[:0]
		}
		key = snapshotKey
		pending = append(pending, snapshot)
		report.Snapshots++
		return nil
	})

	if len(pending) > 0 {
		p.processGroup(ctx, key, pending, &report)
	}

	if errors.Is(err, errInterrupted) {
		p.logger.WithContext(ctx).Info("Run interrupted, draining")
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("housing snapshot stream failed: %w", err)
	}
	return report, nil
}

// processGroup folds one local-id group, prepending the persisted canonical
// row when one exists so repeated runs converge, then upserts the result and
// deletes the consumed snapshots in one transaction.
func (p *HousingProcessor) processGroup(ctx context.Context, localID string, snapshots []models.Housing, report *models.HousingReport) {
	report.Groups++

	canonical, err := p.store.GetByLocalID(ctx, localID)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"local_id": localID,
		}).Error("Failed to load canonical housing, skipping group")
		report.Failed++
		return
	}

	merged := merging.MergeHousingGroup(canonical, snapshots)
	merged.LocalID = models.NormalizeLocalID(merged.LocalID)

	if !p.commit {
		report.Merged++
		return
	}

	if err := p.commitGroup(ctx, merged, snapshots); err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"local_id":  localID,
			"snapshots": len(snapshots),
		}).Error("Housing merge transaction failed, continuing with next group")
		report.Failed++
		return
	}
	report.Merged++

	if err := p.emitter.EmitHousingMerged(ctx, merged, len(snapshots)); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to emit merge event")
	}
}

func (p *HousingProcessor) commitGroup(ctx context.Context, merged models.Housing, snapshots []models.Housing) error {
	ctx, tx, err := p.store.DB().GetTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin housing merge transaction: %w", err)
	}

	ids := make([]string, len(snapshots))
	for i, snapshot := range snapshots {
		ids[i] = snapshot.ID
	}

	if err := p.store.UpsertTx(ctx, tx, merged); err != nil {
		tx.Rollback(ctx)
		return err
	}
	if err := p.store.DeleteSnapshotsTx(ctx, tx, ids); err != nil {
		tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
