package merging

import (
	"context"
	"fmt"
	"reflect"

	"github.com/Gobusters/ectologger"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/database"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// OwnerStore covers the owner-table operations a merge commit performs
type OwnerStore interface {
	DB() database.DB
	UpdateTx(ctx context.Context, tx database.Tx, owner models.Owner) error
	DeleteTx(ctx context.Context, tx database.Tx, ids []string) error
}

// Repointer redirects dependent rows from absorbed owner ids to the keeper
type Repointer interface {
	RepointTx(ctx context.Context, tx database.Tx, keep string, absorb []string) (int64, error)
}

// Committer applies an accepted merge decision to the database: repoint every
// dependent row, back-fill the keeper's scalars, delete the absorbed rows.
// All of it happens in one transaction; a failure at any step rolls the whole
// merge back.
type Committer struct {
	owners OwnerStore
	links  Repointer
	events Repointer
	notes  Repointer
	logger ectologger.Logger
}

// NewCommitter creates a new Committer
func NewCommitter(owners OwnerStore, links, events, notes Repointer, logger ectologger.Logger) *Committer {
	return &Committer{
		owners: owners,
		links:  links,
		events: events,
		notes:  notes,
		logger: logger,
	}
}

// Apply opens a transaction, runs the merge and commits it. The merged keeper
// record is returned on success.
func (c *Committer) Apply(ctx context.Context, decision models.MergeDecision) (models.Owner, error) {
	ctx, tx, err := c.owners.DB().GetTx(ctx, nil)
	if err != nil {
		return models.Owner{}, fmt.Errorf("failed to begin merge transaction: %w", err)
	}

	merged, err := c.ApplyTx(ctx, tx, decision)
	if err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			c.logger.WithContext(ctx).WithError(rollbackErr).Error("Failed to roll back merge transaction")
		}
		return models.Owner{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Owner{}, fmt.Errorf("failed to commit merge transaction: %w", err)
	}
	return merged, nil
}

// ApplyTx runs the merge inside an existing transaction. The caller owns the
// transaction's lifecycle.
func (c *Committer) ApplyTx(ctx context.Context, tx database.Tx, decision models.MergeDecision) (models.Owner, error) {
	absorbed := decision.AbsorbedIDs()

	if _, err := c.links.RepointTx(ctx, tx, decision.Keep.ID, absorbed); err != nil {
		return models.Owner{}, fmt.Errorf("failed to repoint ownership links: %w", err)
	}
	if _, err := c.events.RepointTx(ctx, tx, decision.Keep.ID, absorbed); err != nil {
		return models.Owner{}, fmt.Errorf("failed to repoint owner events: %w", err)
	}
	if _, err := c.notes.RepointTx(ctx, tx, decision.Keep.ID, absorbed); err != nil {
		return models.Owner{}, fmt.Errorf("failed to repoint owner notes: %w", err)
	}

	merged := MergeOwners(decision.Keep, decision.Absorb)
	if !reflect.DeepEqual(merged, decision.Keep) {
		if err := c.owners.UpdateTx(ctx, tx, merged); err != nil {
			return models.Owner{}, fmt.Errorf("failed to update keeper %s: %w", merged.ID, err)
		}
	}

	if err := c.owners.DeleteTx(ctx, tx, absorbed); err != nil {
		return models.Owner{}, fmt.Errorf("failed to delete absorbed owners: %w", err)
	}

	return merged, nil
}
