package matching

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

type fakeSearcher struct {
	owners []models.Owner
	err    error

	lastFullName  string
	lastExcludeID string
}

func (f *fakeSearcher) FindByFullName(_ context.Context, fullName string, excludeID string) ([]models.Owner, error) {
	f.lastFullName = fullName
	f.lastExcludeID = excludeID
	return f.owners, f.err
}

func TestFindDuplicates(t *testing.T) {
	source := models.Owner{
		ID:         "src",
		FullName:   "JEAN DUPONT",
		RawAddress: []string{"12 RUE DE LA PAIX"},
	}

	t.Run("scores every candidate sharing the blocking key", func(t *testing.T) {
		searcher := &fakeSearcher{owners: []models.Owner{
			{ID: "a", FullName: "JEAN DUPONT", RawAddress: []string{"12 RUE DE LA PAIX"}},
			{ID: "b", FullName: "JEAN DUPONT", RawAddress: []string{"8 AVENUE FOCH"}},
		}}
		finder := NewFinder(searcher, NewScorer())

		duplicates, err := finder.FindDuplicates(context.Background(), source)
		require.NoError(t, err)
		require.Len(t, duplicates, 2)

		assert.Equal(t, "JEAN DUPONT", searcher.lastFullName)
		assert.Equal(t, "src", searcher.lastExcludeID)
		assert.Equal(t, 1.0, duplicates[0].Score)
		assert.Equal(t, 0.0, duplicates[1].Score)
	})

	t.Run("propagates search failures", func(t *testing.T) {
		searcher := &fakeSearcher{err: errors.New("connection refused")}
		finder := NewFinder(searcher, NewScorer())

		_, err := finder.FindDuplicates(context.Background(), source)
		assert.Error(t, err)
	})
}
