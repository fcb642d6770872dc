// Package note maintains the notes attached to owner records
package note

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/lib/pq"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/database"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/tracing"
)

// Repository handles owner_notes persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new owner note repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// RepointTx moves every note attached to an absorbed owner onto the keeper,
// inside the given transaction.
func (r *Repository) RepointTx(ctx context.Context, tx database.Tx, keep string, absorb []string) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "note.Repository.RepointTx")
	defer span.End()

	if len(absorb) == 0 {
		return 0, nil
	}

	query := `
		UPDATE owner_notes
		SET owner_id = $1
		WHERE owner_id = ANY($2)
	`
	result, err := tx.ExecContext(ctx, query, keep, pq.Array(absorb))
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to repoint owner notes")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to repoint owner notes")
	}

	rows, _ := result.RowsAffected()
	return rows, nil
}
