package models

import (
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"uppercases", "Jean Dupont", "JEAN DUPONT"},
		{"collapses inner whitespace", "JEAN   DUPONT", "JEAN DUPONT"},
		{"trims", "  JEAN DUPONT \t", "JEAN DUPONT"},
		{"tabs and newlines", "JEAN\tDUPONT\n", "JEAN DUPONT"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeName(tt.input))
		})
	}
}

func TestNormalizeLocalID(t *testing.T) {
	assert.Equal(t, "ABC123", NormalizeLocalID("ABC123"))
	assert.Equal(t, "ABC123", NormalizeLocalID("ABC123:1"))
	assert.Equal(t, "ABC123", NormalizeLocalID("ABC123:1:2"))
	assert.Equal(t, "", NormalizeLocalID(":1"))
}

func TestOwnerStatusFromRank(t *testing.T) {
	assert.Equal(t, OwnerStatusIncorrect, OwnerStatusFromRank(-1))
	assert.Equal(t, OwnerStatusAwaiting, OwnerStatusFromRank(-2))
	assert.Equal(t, OwnerStatusDeceased, OwnerStatusFromRank(-3))
	assert.Equal(t, OwnerStatusPrevious, OwnerStatusFromRank(-4))
	assert.Equal(t, OwnerStatusValid, OwnerStatusFromRank(0))
	assert.Equal(t, OwnerStatusValid, OwnerStatusFromRank(1))
	assert.Equal(t, OwnerStatusValid, OwnerStatusFromRank(-99))
}

func TestMaxDataYear(t *testing.T) {
	assert.Equal(t, int64(0), Housing{}.MaxDataYear())
	assert.Equal(t, int64(2021), Housing{DataYears: pq.Int64Array{2019, 2021, 2020}}.MaxDataYear())
}

func TestComparisonBest(t *testing.T) {
	assert.Nil(t, Comparison{}.Best())

	comparison := Comparison{Duplicates: []Scored[Owner]{
		{Value: Owner{ID: "a"}, Score: 0.3},
		{Value: Owner{ID: "b"}, Score: 0.9},
		{Value: Owner{ID: "c"}, Score: 0.9},
	}}
	best := comparison.Best()
	assert.Equal(t, "b", best.Value.ID)
}

func TestReportObserve(t *testing.T) {
	var report Report

	report.Observe(0.9, false, true)
	report.Observe(0.3, false, false)
	report.Observe(0.8, true, false)
	// Review takes priority even when the score clears the match threshold.
	report.Observe(0.95, true, true)

	assert.Equal(t, 4, report.Overall)
	assert.Equal(t, 1, report.Match)
	assert.Equal(t, 1, report.NonMatch)
	assert.Equal(t, 2, report.NeedReview)
	assert.InDelta(t, (0.9+0.3+0.8+0.95)/4, report.Score.Mean, 1e-9)
}
