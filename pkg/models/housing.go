package models

import (
	"strings"
	"time"

	"github.com/lib/pq"
)

// Housing is one housing record, either a yearly snapshot from the
// housing_snapshots table or the canonical row from the housing table.
// LocalID identifies the physical unit; sources that collided on it carry a
// ":n" disambiguator suffix which is stripped before grouping.
type Housing struct {
	ID                      string         `db:"id" json:"id"`
	LocalID                 string         `db:"local_id" json:"localId"`
	GeoCode                 string         `db:"geo_code" json:"geoCode"`
	Invariant               string         `db:"invariant" json:"invariant"`
	DataYears               pq.Int64Array  `db:"data_years" json:"dataYears"`
	MutationDate            *time.Time     `db:"mutation_date" json:"mutationDate,omitempty"`
	RawAddress              pq.StringArray `db:"raw_address" json:"rawAddress"`
	Latitude                *float64       `db:"latitude" json:"latitude,omitempty"`
	Longitude               *float64       `db:"longitude" json:"longitude,omitempty"`
	CadastralClassification *int           `db:"cadastral_classification" json:"cadastralClassification,omitempty"`
	CadastralReference      *string        `db:"cadastral_reference" json:"cadastralReference,omitempty"`
	Uncomfortable           bool           `db:"uncomfortable" json:"uncomfortable"`
	VacancyStartYear        *int           `db:"vacancy_start_year" json:"vacancyStartYear,omitempty"`
	HousingKind             *string        `db:"housing_kind" json:"housingKind,omitempty"`
	RoomsCount              *int           `db:"rooms_count" json:"roomsCount,omitempty"`
	LivingArea              *float64       `db:"living_area" json:"livingArea,omitempty"`
	BuildingYear            *int           `db:"building_year" json:"buildingYear,omitempty"`
	BuildingLocation        *string        `db:"building_location" json:"buildingLocation,omitempty"`
	RentalValue             *float64       `db:"rental_value" json:"rentalValue,omitempty"`
	BeneficiaryCount        *int           `db:"beneficiary_count" json:"beneficiaryCount,omitempty"`
	Taxed                   *bool          `db:"taxed" json:"taxed,omitempty"`
	OwnershipKind           *string        `db:"ownership_kind" json:"ownershipKind,omitempty"`
	Status                  *int           `db:"status" json:"status,omitempty"`
	SubStatus               *string        `db:"sub_status" json:"subStatus,omitempty"`
	Precisions              pq.StringArray `db:"precisions" json:"precisions,omitempty"`
	Occupancy               *string        `db:"occupancy" json:"occupancy,omitempty"`
	EnergyConsumption       *string        `db:"energy_consumption" json:"energyConsumption,omitempty"`
}

// NormalizedLocalID strips the ":n" collision suffix some sources append.
func (h Housing) NormalizedLocalID() string {
	return NormalizeLocalID(h.LocalID)
}

// NormalizeLocalID strips the ":n" collision suffix from a local id.
func NormalizeLocalID(localID string) string {
	if i := strings.IndexByte(localID, ':'); i >= 0 {
		return localID[:i]
	}
	return localID
}

// MaxDataYear returns the most recent year observed for this record, or 0
// when the record carries no data years.
func (h Housing) MaxDataYear() int64 {
	var maxYear int64
	for _, y := range h.DataYears {
		if y > maxYear {
			maxYear = y
		}
	}
	return maxYear
}
