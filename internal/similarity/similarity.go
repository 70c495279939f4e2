// Package similarity scores how alike two pieces of collector-supplied text
// are, normalized to [0,1].
package similarity

import (
	"strings"

	"github.com/agext/levenshtein"
)

// Fixed thresholds from the matching rules. Content-level comparisons
// (document forewords) require a higher score than name-like comparisons
// (committee names).
const (
	ContentThreshold = 0.8
	NameThreshold    = 0.66
)

// Score returns the normalized similarity of a and b. Case and runs of
// whitespace are ignored; 1 means equal after normalization.
func Score(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" && nb == "" {
		return 1
	}
	if na == "" || nb == "" {
		return 0
	}
	return levenshtein.Match(na, nb, nil)
}

func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
