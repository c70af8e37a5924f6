// Package match picks the search result that best resembles a student name.
package match

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// DefaultThreshold is the score a candidate must strictly exceed to be accepted.
const DefaultThreshold = 0.5

// Result describes the highest-scoring candidate.
type Result struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Ratio returns the similarity of a and b as 2*M/T, where M counts the
// characters in matching blocks and T is the combined length. Two empty
// strings are identical.
func Ratio(a, b string) float64 {
	return difflib.NewMatcher(runes(a), runes(b)).Ratio()
}

// Best compares every candidate, trimmed and lowercased, against the
// lowercased target. Ties keep the earliest candidate. The result is returned
// even when no candidate clears threshold so callers can report the best score;
// ok is true only when the best score is strictly greater than threshold.
func Best(candidates []string, target string, threshold float64) (Result, bool) {
	best := Result{Index: -1}
	want := runes(strings.ToLower(target))
	for i, candidate := range candidates {
		score := difflib.NewMatcher(runes(strings.ToLower(strings.TrimSpace(candidate))), want).Ratio()
		if best.Index < 0 || score > best.Score {
			best = Result{Index: i, Text: candidate, Score: score}
		}
	}
	if best.Index < 0 {
		return best, false
	}
	return best, best.Score > threshold
}

func runes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
