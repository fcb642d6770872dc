// Package matching implements duplicate discovery, similarity scoring and
// match classification for owner records.
package matching

import (
	"regexp"
	"strings"

	"github.com/MTES-MCT/zero-logement-vacant-sub004/pkg/models"
)

// streetNumberRe matches the 4-digit street-number codes carried by some
// extract sources. Their zero padding is inconsistent between sources, so the
// canonical side strips leading zeros before comparing.
var streetNumberRe = regexp.MustCompile(`^[0-9]{4}$`)

// Scorer computes a normalized similarity score between two owner records.
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

// Score returns a similarity in [0, 1] between a source owner and a
// candidate. The function is pure, deterministic and total: missing data
// lowers the score instead of erroring. It is not literally commutative
// because street-number zero stripping is applied to the source side only.
func (s *Scorer) Score(source, candidate models.Owner) float64 {
	if len(source.RawAddress) == 0 || len(candidate.RawAddress) == 0 {
		return 0
	}

	src := addressTokens(source.RawAddress, true)
	cand := addressTokens(candidate.RawAddress, false)
	score := jaccard(src, cand)

	// An exactly equal birth date is strong identity signal: blend the
	// address score toward 1. Near-miss dates get nothing here; they are
	// the classifier's conflict check instead.
	if source.BirthDate != nil && candidate.BirthDate != nil && source.BirthDate.Equal(*candidate.BirthDate) {
		score = (score + 1) / 2
	}

	return score
}

// addressTokens joins the address lines into one normalized string and
// returns its token set. stripZeros additionally removes leading zeros from
// 4-digit street-number codes.
func addressTokens(lines []string, stripZeros bool) map[string]struct{} {
	joined := strings.ToLower(strings.Join(lines, " "))
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(joined) {
		if stripZeros && streetNumberRe.MatchString(tok) {
			if trimmed := strings.TrimLeft(tok, "0"); trimmed != "" {
				tok = trimmed
			}
		}
		tokens[tok] = struct{}{}
	}
	return tokens
}

// jaccard returns the token-set similarity |a∩b| / |a∪b|.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}

	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}
