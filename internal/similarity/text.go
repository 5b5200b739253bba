// Package similarity provides the pure field-comparison primitives used
// by the consensus resolver and the drift tracker. All functions return
// a normalized score in [0,1] and treat absent values as data, never as
// an error.
package similarity

import (
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

var textParams = levenshtein.NewParams()

// Text compares two free-text values token-order-insensitively. It
// returns 0.0 when either side is empty, 1.0 for strings identical
// after normalization, and is symmetric in its arguments.
func Text(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	na := tokenSort(a)
	nb := tokenSort(b)
	if na == nb {
		return 1.0
	}
	return levenshtein.Similarity(na, nb, textParams)
}

// tokenSort lowercases, splits on non-alphanumeric runs, sorts the
// tokens and rejoins them, so word order and punctuation don't count
// against the match.
func tokenSort(s string) string {
	tokens := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
