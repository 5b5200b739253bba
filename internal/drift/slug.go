package drift

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent strips combining marks so accented provider names slug the
// same as their plain-ASCII spellings.
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slug derives the stable history key for a provider name: lowercase,
// accents folded, non-alphanumeric runs collapsed to single hyphens,
// truncated to maxLen runes. An empty or fully-unusable name maps to
// "unknown".
func Slug(name string, maxLen int) string {
	if folded, _, err := transform.String(deaccent, name); err == nil {
		name = folded
	}

	var b strings.Builder
	count := 0
	prevHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(name) {
		if maxLen > 0 && count >= maxLen {
			break
		}
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			count++
			prevHyphen = false
		} else if !prevHyphen {
			b.WriteRune('-')
			count++
			prevHyphen = true
		}
	}

	s := strings.TrimRight(b.String(), "-")
	if s == "" {
		return "unknown"
	}
	return s
}
