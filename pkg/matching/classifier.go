package matching

import (
	"time"

	"github.com/Gobusters/ectolinq"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// Classifier partitions scored candidates into match, review and no-match
// bands and derives merge decisions from them.
type Classifier struct {
	reviewThreshold float64
	matchThreshold  float64
}

// NewClassifier creates a new Classifier. reviewThreshold must be strictly
// below matchThreshold; config validation enforces that before we get here.
func NewClassifier(reviewThreshold, matchThreshold float64) *Classifier {
	return &Classifier{
		reviewThreshold: reviewThreshold,
		matchThreshold:  matchThreshold,
	}
}

// IsMatch reports whether a score is a confident automatic match
func (c *Classifier) IsMatch(score float64) bool {
	return score >= c.matchThreshold
}

// IsReviewMatch reports whether a score falls in the manual-review band.
// The two predicates are mutually exclusive over any single score.
func (c *Classifier) IsReviewMatch(score float64) bool {
	return score >= c.reviewThreshold && score < c.matchThreshold
}

// Compare builds the comparison record for a source owner and its scored
// candidates. The comparison score is the best candidate score, or 0 when
// there are no candidates.
func (c *Classifier) Compare(source models.Owner, duplicates []models.Scored[models.Owner]) models.Comparison {
	score := 0.0
	if best := bestOf(duplicates); best != nil {
		score = best.Score
	}

	return models.Comparison{
		Source:      source,
		Duplicates:  duplicates,
		Score:       score,
		NeedsReview: c.needsManualReview(source, duplicates),
	}
}

// needsManualReview flags a comparison for a human when the evidence is
// ambiguous: either the best candidate only lands in the review band, or the
// group carries conflicting birth dates among its relevant records.
func (c *Classifier) needsManualReview(source models.Owner, duplicates []models.Scored[models.Owner]) bool {
	best := bestOf(duplicates)
	if best == nil {
		return false
	}
	if c.IsReviewMatch(best.Score) {
		return true
	}

	dates := make([]time.Time, 0, len(duplicates)+1)
	if source.BirthDate != nil {
		dates = append(dates, *source.BirthDate)
	}
	for _, duplicate := range duplicates {
		if !c.IsMatch(duplicate.Score) && !c.IsReviewMatch(duplicate.Score) {
			continue
		}
		if duplicate.Value.BirthDate != nil {
			dates = append(dates, *duplicate.Value.BirthDate)
		}
	}

	return countDistinctDates(dates) >= 2
}

// Suggest picks the record whose values should survive a merge. It returns
// nil unless the best candidate is a confident match. Among the source and
// that candidate, a defined birth date wins; otherwise the longer raw address
// wins; ties keep the source.
func (c *Classifier) Suggest(source models.Owner, duplicates []models.Scored[models.Owner]) *models.Owner {
	best := bestOf(duplicates)
	if best == nil || !c.IsMatch(best.Score) {
		return nil
	}

	candidates := []models.Owner{source, best.Value}
	withDate := ectolinq.Filter(candidates, func(owner models.Owner) bool {
		return owner.BirthDate != nil
	})
	if len(withDate) == 1 {
		return &withDate[0]
	}

	pick := candidates[0]
	for _, candidate := range candidates[1:] {
		if len(candidate.RawAddress) > len(pick.RawAddress) {
			pick = candidate
		}
	}
	return &pick
}

// Decision turns a comparison into a merge decision: the suggested record is
// kept and every confidently matched record, source included, is absorbed
// into it. It returns nil when the comparison needs review, has no confident
// suggestion, or leaves nothing to absorb.
func (c *Classifier) Decision(comparison models.Comparison) *models.MergeDecision {
	if comparison.NeedsReview {
		return nil
	}

	suggestion := c.Suggest(comparison.Source, comparison.Duplicates)
	if suggestion == nil {
		return nil
	}

	absorb := make([]models.Owner, 0, len(comparison.Duplicates)+1)
	if comparison.Source.ID != suggestion.ID {
		absorb = append(absorb, comparison.Source)
	}
	for _, duplicate := range comparison.Duplicates {
		if c.IsMatch(duplicate.Score) && duplicate.Value.ID != suggestion.ID {
			absorb = append(absorb, duplicate.Value)
		}
	}
	if len(absorb) == 0 {
		return nil
	}

	return &models.MergeDecision{
		Keep:   *suggestion,
		Absorb: absorb,
	}
}

// bestOf returns the highest-scored candidate, keeping the first on ties.
func bestOf(duplicates []models.Scored[models.Owner]) *models.Scored[models.Owner] {
	var best *models.Scored[models.Owner]
	for index := range duplicates {
		if best == nil || duplicates[index].Score > best.Score {
			best = &duplicates[index]
		}
	}
	return best
}

func countDistinctDates(dates []time.Time) int {
	distinct := make(map[time.Time]struct{}, len(dates))
	for _, date := range dates {
		distinct[date.UTC()] = struct{}{}
	}
	return len(distinct)
}
