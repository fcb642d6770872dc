package merging

import (
	"sort"

	"github.com/lib/pq"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// YoungestAlways keeps the younger record's value even when it is undefined
// there, discarding any defined older value. The temporal fold runs
// youngest-first, so the younger operand is always on the left. The legacy
// pipeline behaved this way for the descriptive housing attributes; keep it
// as a named policy so the choice stays visible per field.
func YoungestAlways[T any](left, _ T) T {
	return left
}

// YoungestOrFirstDefined prefers the younger record's value when defined and
// falls back to the oldest defined value otherwise. Under the youngest-first
// fold this is FirstDefined with the younger operand on the left. It is the
// softer alternative to YoungestAlways for fields where dropping a defined
// older value is not wanted.
func YoungestOrFirstDefined[T any](left, right *T) *T {
	return FirstDefined(left, right)
}

// MergeHousingGroup collapses every snapshot sharing one normalized local id
// into a single canonical record. The persisted canonical row, when one
// exists, joins the group as an extra candidate so re-running the merge is
// idempotent. Records are ordered youngest-first before folding.
func MergeHousingGroup(canonical *models.Housing, snapshots []models.Housing) models.Housing {
	records := make([]models.Housing, 0, len(snapshots)+1)
	if canonical != nil {
		records = append(records, *canonical)
	}
	records = append(records, snapshots...)

	sortYoungestFirst(records)
	return Reduce(records, mergeHousingPair)
}

// sortYoungestFirst orders records descending by their most recent data year,
// then by mutation date. Records without a mutation date sort last within a
// year. The sort is stable so equal records keep their input order.
func sortYoungestFirst(records []models.Housing) {
	sort.SliceStable(records, func(i, j int) bool {
		yi, yj := records[i].MaxDataYear(), records[j].MaxDataYear()
		if yi != yj {
			return yi > yj
		}
		di, dj := records[i].MutationDate, records[j].MutationDate
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.After(*dj)
		}
	})
}

// mergeHousingPair folds an older record (right) into the younger accumulator
// (left). Descriptive attributes follow YoungestAlways, identity and
// rarely-changing attributes back-fill with FirstDefined or keep the shorter
// truncation-prone value.
func mergeHousingPair(left, right models.Housing) models.Housing {
	merged := left

	merged.ID = First(left.ID, right.ID)
	merged.LocalID = shortestNonEmpty(left.LocalID, right.LocalID)
	merged.GeoCode = firstNonEmpty(left.GeoCode, right.GeoCode)
	merged.Invariant = firstNonEmpty(left.Invariant, right.Invariant)
	merged.DataYears = mergeDataYears(left.DataYears, right.DataYears)
	merged.RawAddress = firstDefinedLines(left.RawAddress, right.RawAddress)
	merged.Latitude = FirstDefined(left.Latitude, right.Latitude)
	merged.Longitude = FirstDefined(left.Longitude, right.Longitude)
	merged.CadastralClassification = FirstDefined(left.CadastralClassification, right.CadastralClassification)
	merged.CadastralReference = FirstDefined(left.CadastralReference, right.CadastralReference)
	merged.VacancyStartYear = FirstDefined(left.VacancyStartYear, right.VacancyStartYear)
	merged.BuildingYear = FirstDefined(left.BuildingYear, right.BuildingYear)
	merged.BuildingLocation = FirstDefined(left.BuildingLocation, right.BuildingLocation)
	merged.RentalValue = FirstDefined(left.RentalValue, right.RentalValue)
	merged.BeneficiaryCount = FirstDefined(left.BeneficiaryCount, right.BeneficiaryCount)
	merged.Taxed = FirstDefined(left.Taxed, right.Taxed)
	merged.OwnershipKind = FirstDefined(left.OwnershipKind, right.OwnershipKind)
	merged.EnergyConsumption = FirstDefined(left.EnergyConsumption, right.EnergyConsumption)

	merged.MutationDate = YoungestAlways(left.MutationDate, right.MutationDate)
	merged.HousingKind = YoungestAlways(left.HousingKind, right.HousingKind)
	merged.RoomsCount = YoungestAlways(left.RoomsCount, right.RoomsCount)
	merged.LivingArea = YoungestAlways(left.LivingArea, right.LivingArea)
	merged.Status = YoungestAlways(left.Status, right.Status)
	merged.SubStatus = YoungestAlways(left.SubStatus, right.SubStatus)
	merged.Precisions = YoungestAlways(left.Precisions, right.Precisions)
	merged.Occupancy = YoungestAlways(left.Occupancy, right.Occupancy)

	return merged
}

// mergeDataYears returns the deduplicated union of both year lists, sorted
// descending.
func mergeDataYears(left, right pq.Int64Array) pq.Int64Array {
	seen := make(map[int64]struct{}, len(left)+len(right))
	union := make(pq.Int64Array, 0, len(left)+len(right))
	for _, years := range [][]int64{left, right} {
		for _, year := range years {
			if _, ok := seen[year]; ok {
				continue
			}
			seen[year] = struct{}{}
			union = append(union, year)
		}
	}
	sort.Slice(union, func(i, j int) bool { return union[i] > union[j] })
	return union
}

func firstNonEmpty(left, right string) string {
	if left != "" {
		return left
	}
	return right
}

func shortestNonEmpty(left, right string) string {
	if left == "" {
		return right
	}
	if right == "" {
		return left
	}
	if len(right) < len(left) {
		return right
	}
	return left
}
