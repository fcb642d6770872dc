package merging

import (
	"github.com/lib/pq"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// MergeOwners back-fills the keeper from the absorbed records: every scalar
// the keeper already carries is preserved, and every field it leaves empty is
// taken from the first absorbed record that defines it, in absorption order.
func MergeOwners(keep models.Owner, absorbed []models.Owner) models.Owner {
	records := make([]models.Owner, 0, len(absorbed)+1)
	records = append(records, keep)
	records = append(records, absorbed...)
	return Reduce(records, mergeOwnerPair)
}

func mergeOwnerPair(left, right models.Owner) models.Owner {
	merged := left
	merged.RawAddress = firstDefinedLines(left.RawAddress, right.RawAddress)
	merged.BirthDate = FirstDefined(left.BirthDate, right.BirthDate)
	merged.Administrator = FirstDefined(left.Administrator, right.Administrator)
	merged.Email = FirstDefined(left.Email, right.Email)
	merged.Phone = FirstDefined(left.Phone, right.Phone)
	merged.Kind = FirstDefined(left.Kind, right.Kind)
	return merged
}

// firstDefinedLines treats an empty address list as undefined
func firstDefinedLines(left, right pq.StringArray) pq.StringArray {
	if len(left) > 0 {
		return left
	}
	return right
}
