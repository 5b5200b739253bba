package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone_ExactMatch(t *testing.T) {
	assert.Equal(t, 1.0, Phone("9876543210", "9876543210"))
	// Formatting doesn't matter, digits do.
	assert.Equal(t, 1.0, Phone("98765 43210", "98765-43210"))
}

func TestPhone_LastSixDigits(t *testing.T) {
	// Country-code variance: same subscriber number.
	assert.Equal(t, 0.8, Phone("+919876543210", "09876543210"))
	assert.Equal(t, 0.8, Phone("04023552337", "23552337"))
}

func TestPhone_NoMatch(t *testing.T) {
	assert.Equal(t, 0.0, Phone("9876543210", "9123456789"))
	assert.Equal(t, 0.0, Phone("12345", "12346"))
}

func TestPhone_EmptySides(t *testing.T) {
	assert.Equal(t, 0.0, Phone("", "9876543210"))
	assert.Equal(t, 0.0, Phone("9876543210", ""))
}

func TestPhone_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"+919876543210", "9876543210"},
		{"04023552337", "23552337"},
		{"9876543210", "9123456789"},
		{"", "9876543210"},
	}
	for _, p := range pairs {
		assert.Equal(t, Phone(p[0], p[1]), Phone(p[1], p[0]), "symmetry for %q vs %q", p[0], p[1])
	}
}

func TestPhoneExact_NoPartialCredit(t *testing.T) {
	assert.Equal(t, 1.0, PhoneExact("98765 43210", "9876543210"))
	// Last-six agreement is not enough here.
	assert.Equal(t, 0.0, PhoneExact("+919876543210", "9876543210"))
	assert.Equal(t, 0.0, PhoneExact("", ""))
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{"mobile", "9876543210", "9876543210", true},
		{"mobile with formatting", "98765-43210", "9876543210", true},
		{"mobile bad leading digit", "5876543210", "", false},
		{"plus91", "+91 98765 43210", "+919876543210", true},
		{"plus91 short", "+919876", "", false},
		{"landline hyderabad", "040-2355-2337", "04023552337", true},
		{"landline mumbai", "022 6789 0123", "02267890123", true},
		{"landline unknown std", "0999123456", "", false},
		{"tollfree", "1800-425-3424", "18004253424", true},
		{"tollfree extra digits truncated", "180042534249", "18004253424", true},
		{"garbage", "call us", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizePhone(tt.raw)
			assert.Equal(t, tt.valid, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
