// Package housing persists housing snapshots and the canonical housing table
package housing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/database"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/internal/tracing"
	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// normalizedLocalIDExpr strips the ":n" collision suffix in SQL, mirroring
// models.NormalizeLocalID. Ordering by it keeps snapshot groups contiguous
// even when a longer local id would otherwise sort between a bare id and its
// suffixed variants.
const normalizedLocalIDExpr = "split_part(local_id, ':', 1)"

var columns = []string{
	"id", "local_id", "geo_code", "invariant", "data_years", "mutation_date",
	"raw_address", "latitude", "longitude", "cadastral_classification",
	"cadastral_reference", "uncomfortable", "vacancy_start_year", "housing_kind",
	"rooms_count", "living_area", "building_year", "building_location",
	"rental_value", "beneficiary_count", "taxed", "ownership_kind",
	"status", "sub_status", "precisions", "occupancy", "energy_consumption",
}

// Repository handles housing persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new housing repository
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

// StreamSnapshots reads every yearly snapshot ordered by normalized local id
// so that snapshots of one physical unit are contiguous.
func (r *Repository) StreamSnapshots(ctx context.Context, fn func(models.Housing) error) error {
	ctx, span := tracing.StartSpan(ctx, "housing.Repository.StreamSnapshots")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("housing_snapshots")
	sb.OrderBy(normalizedLocalIDExpr, "local_id", "id")

	query, args := sb.Build()
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to open housing snapshot stream")
		return fmt.Errorf("failed to open housing snapshot stream: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h models.Housing
		if err := rows.StructScan(&h); err != nil {
			return fmt.Errorf("failed to scan housing snapshot row: %w", err)
		}
		if err := fn(h); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("housing snapshot stream failed: %w", err)
	}
	return nil
}

// GetByLocalID retrieves the canonical housing row for a normalized local id,
// or nil when none has been persisted yet.
func (r *Repository) GetByLocalID(ctx context.Context, localID string) (*models.Housing, error) {
	ctx, span := tracing.StartSpan(ctx, "housing.Repository.GetByLocalID")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(columns...)
	sb.From("housing")
	sb.Where(sb.Equal(normalizedLocalIDExpr, models.NormalizeLocalID(localID)))

	query, args := sb.Build()
	var h models.Housing
	if err := r.db.GetContext(ctx, &h, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get housing by local id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get housing by local id")
	}

	return &h, nil
}

// UpsertTx writes the canonical housing row inside the given transaction,
// keyed on local_id so re-running the merge is idempotent.
func (r *Repository) UpsertTx(ctx context.Context, tx database.Tx, h models.Housing) error {
	ctx, span := tracing.StartSpan(ctx, "housing.Repository.UpsertTx")
	defer span.End()

	ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
	ib.InsertInto("housing")
	ib.Cols(columns...)
	ib.Values(
		h.ID, h.LocalID, h.GeoCode, h.Invariant, h.DataYears, h.MutationDate,
		h.RawAddress, h.Latitude, h.Longitude, h.CadastralClassification,
		h.CadastralReference, h.Uncomfortable, h.VacancyStartYear, h.HousingKind,
		h.RoomsCount, h.LivingArea, h.BuildingYear, h.BuildingLocation,
		h.RentalValue, h.BeneficiaryCount, h.Taxed, h.OwnershipKind,
		h.Status, h.SubStatus, h.Precisions, h.Occupancy, h.EnergyConsumption,
	)

	query, args := ib.Build()
	query += ` ON CONFLICT (local_id) DO UPDATE SET
		geo_code = EXCLUDED.geo_code,
		invariant = EXCLUDED.invariant,
		data_years = EXCLUDED.data_years,
		mutation_date = EXCLUDED.mutation_date,
		raw_address = EXCLUDED.raw_address,
		latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		cadastral_classification = EXCLUDED.cadastral_classification,
		cadastral_reference = EXCLUDED.cadastral_reference,
		uncomfortable = EXCLUDED.uncomfortable,
		vacancy_start_year = EXCLUDED.vacancy_start_year,
		housing_kind = EXCLUDED.housing_kind,
		rooms_count = EXCLUDED.rooms_count,
		living_area = EXCLUDED.living_area,
		building_year = EXCLUDED.building_year,
		building_location = EXCLUDED.building_location,
		rental_value = EXCLUDED.rental_value,
		beneficiary_count = EXCLUDED.beneficiary_count,
		taxed = EXCLUDED.taxed,
		ownership_kind = EXCLUDED.ownership_kind,
		status = EXCLUDED.status,
		sub_status = EXCLUDED.sub_status,
		precisions = EXCLUDED.precisions,
		occupancy = EXCLUDED.occupancy,
		energy_consumption = EXCLUDED.energy_consumption`

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"local_id": h.LocalID}).Error("Failed to upsert housing")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert housing")
	}

	return nil
}

// DeleteSnapshotsTx removes consumed snapshot rows inside the given
// transaction.
func (r *Repository) DeleteSnapshotsTx(ctx context.Context, tx database.Tx, ids []string) error {
	ctx, span := tracing.StartSpan(ctx, "housing.Repository.DeleteSnapshotsTx")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	db := sqlbuilder.PostgreSQL.NewDeleteBuilder()
	db.DeleteFrom("housing_snapshots")
	db.Where(db.In("id", sqlbuilder.Flatten(ids)...))

	query, args := db.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"ids": ids}).Error("Failed to delete housing snapshots")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to delete housing snapshots")
	}

	return nil
}
