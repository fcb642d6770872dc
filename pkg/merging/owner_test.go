package merging

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

func date(value string) *time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestMergeOwners(t *testing.T) {
	keep := models.Owner{
		ID:         "keep",
		FullName:   "JEAN DUPONT",
		RawAddress: []string{"12 RUE DE LA PAIX"},
		Email:      ptr("jean@example.com"),
	}
	absorbed := []models.Owner{
		{
			ID:        "d1",
			FullName:  "JEAN DUPONT",
			BirthDate: date("1950-06-15"),
			Email:     ptr("old@example.com"),
			Phone:     ptr("0102030405"),
		},
		{
			ID:            "d2",
			FullName:      "JEAN DUPONT",
			BirthDate:     date("1960-01-01"),
			Administrator: ptr("SCI FONCIERE"),
		},
	}

	merged := MergeOwners(keep, absorbed)

	// Keeper identity and defined scalars survive untouched.
	assert.Equal(t, "keep", merged.ID)
	assert.Equal(t, "JEAN DUPONT", merged.FullName)
	assert.Equal(t, []string{"12 RUE DE LA PAIX"}, []string(merged.RawAddress))
	assert.Equal(t, "jean@example.com", *merged.Email)

	// Undefined keeper fields back-fill from the first absorbed record that
	// defines them, in absorption order.
	assert.Equal(t, *date("1950-06-15"), *merged.BirthDate)
	assert.Equal(t, "0102030405", *merged.Phone)
	assert.Equal(t, "SCI FONCIERE", *merged.Administrator)
}

func TestMergeOwnersDoesNotMutateInputs(t *testing.T) {
	keep := models.Owner{ID: "keep"}
	absorbed := []models.Owner{{ID: "d1", Email: ptr("a@example.com")}}

	_ = MergeOwners(keep, absorbed)

	assert.Nil(t, keep.Email)
	assert.Equal(t, "a@example.com", *absorbed[0].Email)
}

func TestMergeOwnersWithNothingToAbsorb(t *testing.T) {
	keep := models.Owner{ID: "keep", Email: ptr("jean@example.com")}
	assert.Equal(t, keep, MergeOwners(keep, nil))
}
