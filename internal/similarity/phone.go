package similarity

import "strings"

// validSTDCodes are the landline area codes accepted by NormalizePhone.
var validSTDCodes = []string{"040", "044", "022", "080", "011", "020", "033"}

// Phone compares two phone values on their digit sequences alone.
// Exact non-empty equality scores 1.0; agreement on the last six digits
// (both sides having at least six) scores 0.8, which tolerates
// country-code and STD-prefix variance; anything else scores 0.0.
func Phone(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	na := Digits(a)
	nb := Digits(b)
	if na == nb && na != "" {
		return 1.0
	}
	if len(na) >= 6 && len(nb) >= 6 && na[len(na)-6:] == nb[len(nb)-6:] {
		return 0.8
	}
	return 0.0
}

// PhoneExact reports whether two phone values have identical non-empty
// digit sequences. The drift tracker gives no partial credit.
func PhoneExact(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}
	na := Digits(a)
	nb := Digits(b)
	if na != "" && nb != "" && na == nb {
		return 1.0
	}
	return 0.0
}

// Digits strips every non-digit character.
func Digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizePhone validates raw input against the Indian number formats
// the scrapers produce. The second return is false when the input is
// not a recognizable number; that signals "unknown", not a failure.
//
// Accepted forms:
//   - 10-digit mobile starting with 6-9
//   - +91 prefixed 13-character mobile
//   - 0-prefixed landline with a whitelisted STD code (10 or 11 digits)
//   - 1800 toll-free, truncated to 11 digits
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '+' {
			b.WriteRune(r)
		}
	}
	p := b.String()

	if len(p) == 10 && p[0] >= '6' && p[0] <= '9' {
		return p, true
	}
	if strings.HasPrefix(p, "+91") && len(p) == 13 {
		return p, true
	}
	if strings.HasPrefix(p, "0") && (len(p) == 10 || len(p) == 11) {
		for _, code := range validSTDCodes {
			if strings.HasPrefix(p, code) {
				return p, true
			}
		}
	}
	if strings.HasPrefix(p, "1800") && len(p) >= 11 {
		return p[:11], true
	}
	return "", false
}
