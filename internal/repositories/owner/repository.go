// Package owner persists owner records and streams them in blocking-key order
package owner

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/database"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/tracing"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// normalizedNameExpr is the SQL rendition of models.NormalizeName, used both
// for blocking-key equality and for the stream ordering so that records
// sharing a key are contiguous.
const normalizedNameExpr = "trim(regexp_replace(upper(full_name), '\\s+', ' ', 'g'))"

var columns = []string{
	"id", "full_name", "raw_address", "birth_date", "administrator",
	"email", "phone", "kind", "status", "created_at", "updated_at",
}

// Repository handles owner persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new owner repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// DB exposes the underlying database handle for transactional operations.
func (r *Repository) DB() database.DB {
	return r.db
}

// Stream reads every owner ordered by normalized full name and feeds each row
// to fn. A single cursor drives the whole run; fn returning an error stops the
// stream and the error propagates.
func (r *Repository) Stream(ctx context.Context, fn func(models.Owner) error) error {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.Stream")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("owners")
	sb.OrderBy(normalizedNameExpr, "id")

	query, args := sb.Build()
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to open owner stream")
		return fmt.Errorf("failed to open owner stream: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Owner
		if err := rows.StructScan(&o); err != nil {
			return fmt.Errorf("failed to scan owner row: %w", err)
		}
		if err := fn(o); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("owner stream failed: %w", err)
	}
	return nil
}

// Get retrieves an owner by id
func (r *Repository) Get(ctx context.Context, id string) (*models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("owners")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var o models.Owner
	if err := r.db.GetContext(ctx, &o, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "owner %s not found", id)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get owner")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get owner")
	}

	return &o, nil
}

// FindByFullName returns all owners whose normalized full name equals the
// given blocking key, excluding excludeID. This is the only candidate
// discovery mechanism; typo'd names are out of reach.
func (r *Repository) FindByFullName(ctx context.Context, fullName string, excludeID string) ([]models.Owner, error) {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.FindByFullName")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("owners")
	sb.Where(
		sb.Equal(normalizedNameExpr, models.NormalizeName(fullName)),
		sb.NotEqual("id", excludeID),
	)
	sb.OrderBy("id")

	query, args := sb.Build()
	var owners []models.Owner
	if err := r.db.SelectContext(ctx, &owners, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to find owners by full name")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find owners by full name")
	}

	return owners, nil
}

// UpdateTx updates an owner's scalar fields inside the given transaction.
func (r *Repository) UpdateTx(ctx context.Context, tx database.Tx, o models.Owner) error {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.UpdateTx")
	defer span.End()

	now := time.Now().UTC()
	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("owners")
	ub.Set(
		ub.Assign("full_name", o.FullName),
		ub.Assign("raw_address", o.RawAddress),
		ub.Assign("birth_date", o.BirthDate),
		ub.Assign("administrator", o.Administrator),
		ub.Assign("email", o.Email),
		ub.Assign("phone", o.Phone),
		ub.Assign("kind", o.Kind),
		ub.Assign("status", o.Status),
		ub.Assign("updated_at", now),
	)
	ub.Where(ub.Equal("id", o.ID))

	query, args := ub.Build()
	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update owner")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update owner")
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return httperror.NewHTTPErrorf(http.StatusNotFound, "owner %s not found", o.ID)
	}

	return nil
}

// DeleteTx removes the absorbed owner rows inside the given transaction. The
// caller must have repointed every dependent row first.
func (r *Repository) DeleteTx(ctx context.Context, tx database.Tx, ids []string) error {
	ctx, span := tracing.StartSpan(ctx, "owner.Repository.DeleteTx")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("owners")
	db.Where(db.In("id", sqlbuilder.Flatten(ids)...))

	query, args := db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ids": ids}).Error("Failed to delete owners")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete owners")
	}

	return nil
}
