package similarity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText_Identical(t *testing.T) {
	assert.Equal(t, 1.0, Text("ABC Clinic", "ABC Clinic"))
}

func TestText_TokenOrderInsensitive(t *testing.T) {
	// Same tokens, different order — identical after normalization.
	assert.Equal(t, 1.0, Text("Clinic ABC", "ABC Clinic"))
	assert.Equal(t, 1.0, Text("Apollo Hospitals, Jubilee Hills", "jubilee hills apollo hospitals"))
}

func TestText_EmptySides(t *testing.T) {
	assert.Equal(t, 0.0, Text("", "ABC Clinic"))
	assert.Equal(t, 0.0, Text("ABC Clinic", ""))
	assert.Equal(t, 0.0, Text("", ""))
}

func TestText_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"ABC Clinic", "ABC Medical Clinic"},
		{"Rainbow Hospital", "Rainbow Childrens Hospital"},
		{"Yashoda", "Yashoda Hospitals Secunderabad"},
	}
	for _, p := range pairs {
		assert.Equal(t, Text(p[0], p[1]), Text(p[1], p[0]), "symmetry for %q vs %q", p[0], p[1])
	}
}

func TestText_Range(t *testing.T) {
	got := Text("Continental Hospitals", "Basavatarakam Cancer Institute")
	assert.GreaterOrEqual(t, got, 0.0)
	assert.LessOrEqual(t, got, 1.0)
	assert.Less(t, got, 0.6, "unrelated names should score low")
}

func TestText_PartialOverlap(t *testing.T) {
	got := Text("ABC Clinic", "ABC Clinic Hyderabad")
	assert.Greater(t, got, 0.5)
	assert.Less(t, got, 1.0)
}
