// Package processor drives the streaming dedup pipelines: one logical cursor
// over the source table feeds discovery, scoring, classification and, in
// commit mode, the transactional merge.
package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gobusters/ectologger"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/tracing"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/audit"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/events"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/matching"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// errInterrupted stops the stream on context cancellation so the run can
// drain and flush instead of dying mid-write.
var errInterrupted = errors.New("run interrupted")

// OwnerStreamer provides the blocking-key-ordered owner cursor
type OwnerStreamer interface {
	Stream(ctx context.Context, fn func(models.Owner) error) error
}

// MergeApplier commits an accepted decision transactionally
type MergeApplier interface {
	Apply(ctx context.Context, decision models.MergeDecision) (models.Owner, error)
}

// OwnerProcessor orchestrates one owner dedup run.
type OwnerProcessor struct {
	streamer   OwnerStreamer
	finder     *matching.Finder
	classifier *matching.Classifier
	committer  MergeApplier
	sink       audit.Sink
	emitter    *events.Emitter
	logger     ectologger.Logger
	commit     bool
}

// NewOwnerProcessor creates a new OwnerProcessor. emitter may be nil when
// event emission is disabled; committer is only used when commit is true.
func NewOwnerProcessor(
	streamer OwnerStreamer,
	finder *matching.Finder,
	classifier *matching.Classifier,
	committer MergeApplier,
	sink audit.Sink,
	emitter *events.Emitter,
	logger ectologger.Logger,
	commit bool,
) *OwnerProcessor {
	return &OwnerProcessor{
		streamer:   streamer,
		finder:     finder,
		classifier: classifier,
		committer:  committer,
		sink:       sink,
		emitter:    emitter,
		logger:     logger,
		commit:     commit,
	}
}

// group holds the mutable state scoped to one blocking key: the undirected
// pairs already scored and the ids absorbed by committed merges. It is reset
// whenever the blocking key changes, never shared across groups.
type group struct {
	key      string
	seen     map[string]struct{}
	absorbed map[string]struct{}
}

func (g *group) reset(key string) {
	g.key = key
	g.seen = make(map[string]struct{})
	g.absorbed = make(map[string]struct{})
}

// pairKey builds an order-independent key so A-vs-B and B-vs-A collapse
func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "|" + b
}

// Run streams every owner and returns the aggregate report. Context
// cancellation drains gracefully and is not an error; only a failing source
// cursor aborts the run, and even then the accumulated report is returned for
// a best-effort flush.
func (p *OwnerProcessor) Run(ctx context.Context) (models.Report, error) {
	ctx, span := tracing.StartSpan(ctx, "processor.OwnerProcessor.Run")
	defer span.End()

	var report models.Report
	var state group
	state.reset("")

	err := p.streamer.Stream(ctx, func(owner models.Owner) error {
		if ctx.Err() != nil {
			return errInterrupted
		}

		if key := owner.NormalizedName(); key != state.key {
			state.reset(key)
		}
		if _, ok := state.absorbed[owner.ID]; ok {
			return nil
		}

		p.process(ctx, owner, &state, &report)
		return nil
	})

	if errors.Is(err, errInterrupted) {
		p.logger.WithContext(ctx).Info("Run interrupted, draining")
		return report, nil
	}
	if err != nil {
		return report, fmt.Errorf("owner stream failed: %w", err)
	}
	return report, nil
}

// process runs the find → score → classify → commit chain for one source
// record. Failures below the stream level are contained here: they are logged
// with the originating record and the run moves on.
func (p *OwnerProcessor) process(ctx context.Context, owner models.Owner, state *group, report *models.Report) {
	duplicates, err := p.finder.FindDuplicates(ctx, owner)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id": owner.ID,
		}).Error("Failed to find duplicates, skipping record")
		return
	}

	fresh := make([]models.Scored[models.Owner], 0, len(duplicates))
	for _, duplicate := range duplicates {
		if _, ok := state.absorbed[duplicate.Value.ID]; ok {
			continue
		}
		key := pairKey(owner.ID, duplicate.Value.ID)
		if _, ok := state.seen[key]; ok {
			continue
		}
		state.seen[key] = struct{}{}
		fresh = append(fresh, duplicate)
	}

	// Every pair already scored earlier in this group: nothing new to say.
	if len(duplicates) > 0 && len(fresh) == 0 {
		return
	}

	comparison := p.classifier.Compare(owner, fresh)
	isMatch := p.classifier.IsMatch(comparison.Score)
	report.Observe(comparison.Score, comparison.NeedsReview, isMatch)

	if isMatch {
		if err := p.sink.Record(comparison); err != nil {
			p.logger.WithContext(ctx).WithError(err).Error("Failed to record comparison")
		}
	}

	if !p.commit || comparison.NeedsReview {
		return
	}
	decision := p.classifier.Decision(comparison)
	if decision == nil {
		return
	}

	merged, err := p.committer.Apply(ctx, *decision)
	if err != nil {
		p.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"owner_id": owner.ID,
			"keep_id":  decision.Keep.ID,
			"absorbed": decision.AbsorbedIDs(),
			"score":    comparison.Score,
		}).Error("Merge transaction failed, continuing with next group")
		return
	}

	for _, id := range decision.AbsorbedIDs() {
		state.absorbed[id] = struct{}{}
	}

	if err := p.emitter.EmitOwnerMerged(ctx, merged, decision.AbsorbedIDs(), comparison.Score); err != nil {
		p.logger.WithContext(ctx).WithError(err).Error("Failed to emit merge event")
	}
}
