package matching

import (
	"context"
	"fmt"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// OwnerSearcher finds owners sharing a blocking key with a source record
type OwnerSearcher interface {
	FindByFullName(ctx context.Context, fullName string, excludeID string) ([]models.Owner, error)
}

// Finder discovers and scores duplicate candidates for a source owner.
// Blocking is exact normalized full-name equality: records whose names differ
// after whitespace collapsing and uppercasing are never compared.
type Finder struct {
	searcher OwnerSearcher
	scorer   *Scorer
}

// NewFinder creates a new Finder
func NewFinder(searcher OwnerSearcher, scorer *Scorer) *Finder {
	return &Finder{
		searcher: searcher,
		scorer:   scorer,
	}
}

// FindDuplicates returns every candidate sharing the source's blocking key,
// each paired with its similarity score. The source itself is excluded.
func (f *Finder) FindDuplicates(ctx context.Context, source models.Owner) ([]models.Scored[models.Owner], error) {
	candidates, err := f.searcher.FindByFullName(ctx, source.FullName, source.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to find candidates for %q: %w", source.FullName, err)
	}

	scored := make([]models.Scored[models.Owner], 0, len(candidates))
	for _, candidate := range candidates {
		scored = append(scored, models.Scored[models.Owner]{
			Value: candidate,
			Score: f.scorer.Score(source, candidate),
		})
	}
	return scored, nil
}
