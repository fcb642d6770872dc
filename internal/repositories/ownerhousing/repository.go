// Package ownerhousing maintains the links between owners and housing units
package ownerhousing

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/database"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/tracing"
)

// Repository handles owners_housing link persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new owner-housing link repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// RepointTx moves every link referencing an absorbed owner onto the keeper,
// inside the given transaction. Links the keeper already holds for the same
// housing unit are dropped first so the (owner_id, housing_id) uniqueness
// constraint survives the update.
func (r *Repository) RepointTx(ctx context.Context, tx database.Tx, keep string, absorb []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "ownerhousing.Repository.RepointTx")
	defer span.End()

	if len(absorb) == 0 {
		return 0, nil
	}

	dedupe := `
		DELETE FROM owners_housing oh
		USING owners_housing keeper
		WHERE oh.owner_id = ANY($1)
		  AND keeper.owner_id = $2
		  AND keeper.housing_id = oh.housing_id
	`
	if _, err := tx.ExecContext(ctx, dedupe, pq.Array(absorb), keep); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to drop colliding housing links")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to drop colliding housing links")
	}

	repoint := `
		UPDATE owners_housing
		SET owner_id = $1
		WHERE owner_id = ANY($2)
	`
	result, err := tx.ExecContext(ctx, repoint, keep, pq.Array(absorb))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to repoint housing links")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to repoint housing links")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
