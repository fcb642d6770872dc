package models

// ReportScore aggregates comparison scores across a run.
type ReportScore struct {
	Sum  float64 `json:"sum"`
	Mean float64 `json:"mean"`
}

// Report is the running aggregate of a dedup run. It starts empty and is
// updated once per Comparison; counters only ever grow.
type Report struct {
	Overall    int         `json:"overall"`
	Match      int         `json:"match"`
	NonMatch   int         `json:"nonMatch"`
	NeedReview int         `json:"needReview"`
	Score      ReportScore `json:"score"`
}

// HousingReport is the running aggregate of a housing temporal-merge run.
type HousingReport struct {
	Groups    int `json:"groups"`
	Snapshots int `json:"snapshots"`
	Merged    int `json:"merged"`
	Failed    int `json:"failed"`
}

// Observe folds one comparison into the aggregate. A comparison needing
// review counts as needReview even when its score clears the match threshold.
func (r *Report) Observe(score float64, needsReview, isMatch bool) {
	r.Overall++
	switch {
	case needsReview:
		r.NeedReview++
	case isMatch:
		r.Match++
	default:
		r.NonMatch++
	}
	r.Score.Sum += score
	r.Score.Mean = r.Score.Sum / float64(r.Overall)
}
