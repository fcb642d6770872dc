package models

// Scored pairs a record with its similarity score relative to a source record.
// 0 means no comparable signal, 1 a perfect match.
type Scored[T any] struct {
	Value T       `json:"value"`
	Score float64 `json:"score"`
}

// Comparison is the outcome of evaluating one source owner against its
// candidate set. Score is the maximum duplicate score, or 0 when the set is
// empty.
type Comparison struct {
	Source      Owner           `json:"source"`
	Duplicates  []Scored[Owner] `json:"duplicates"`
	Score       float64         `json:"score"`
	NeedsReview bool            `json:"needsReview"`
}

// Best returns the highest-scored duplicate, or nil when there is none.
func (c Comparison) Best() *Scored[Owner] {
	var best *Scored[Owner]
	for i := range c.Duplicates {
		if best == nil || c.Duplicates[i].Score > best.Score {
			best = &c.Duplicates[i]
		}
	}
	return best
}

// MergeDecision names the keeper and the records it absorbs. Invariant:
// exactly one keeper per merge group and Absorb never contains Keep.
type MergeDecision struct {
	Keep   Owner   `json:"keep"`
	Absorb []Owner `json:"absorb"`
}

// AbsorbedIDs returns the ids of the absorbed records
func (d MergeDecision) AbsorbedIDs() []string {
	ids := make([]string, len(d.Absorb))
	for i, owner := range d.Absorb {
		ids[i] = owner.ID
	}
	return ids
}
