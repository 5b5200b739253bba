package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidate_FieldValue(t *testing.T) {
	c := Candidate{
		Source:  "registry",
		Name:    "ABC Clinic",
		Address: "12 Main Rd",
		Phone:   "9876543210",
		Website: "https://abc.example",
	}
	assert.Equal(t, "ABC Clinic", c.FieldValue(FieldName))
	assert.Equal(t, "12 Main Rd", c.FieldValue(FieldAddress))
	assert.Equal(t, "9876543210", c.FieldValue(FieldPhone))
	assert.Equal(t, "https://abc.example", c.FieldValue(FieldWebsite))
	assert.Equal(t, "", c.FieldValue("unknown"))
}

func TestConsensusCandidate(t *testing.T) {
	chosen := map[string]ChosenField{
		FieldName:    {Value: "ABC Clinic", Weight: 1.2},
		FieldAddress: {Value: "12 Main Rd", Weight: 0.9},
	}
	c := ConsensusCandidate(chosen, 1748779200)

	assert.Equal(t, "consensus", c.Source)
	assert.Equal(t, "ABC Clinic", c.Name)
	assert.Equal(t, "12 Main Rd", c.Address)
	assert.Equal(t, "", c.Phone) // no winner for phone
	assert.Equal(t, int64(1748779200), c.RetrievedAt)
}

func TestChosenField_MarshalJSON(t *testing.T) {
	voted, err := json.Marshal(ChosenField{Value: "ABC Clinic", Weight: 1.2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":"ABC Clinic","weight":1.2}`, string(voted))

	// No votes serializes as null, not the empty string.
	unvoted, err := json.Marshal(ChosenField{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"value":null,"weight":0}`, string(unvoted))

	var back ChosenField
	require.NoError(t, json.Unmarshal(unvoted, &back))
	assert.Equal(t, ChosenField{}, back)
}

func TestEntityHistory_Last(t *testing.T) {
	var h *EntityHistory
	assert.Nil(t, h.Last())
	assert.Nil(t, (&EntityHistory{}).Last())

	h = &EntityHistory{Snapshots: []Snapshot{
		{TS: 1, Candidate: Candidate{Name: "first"}},
		{TS: 2, Candidate: Candidate{Name: "second"}},
	}}
	last := h.Last()
	assert.Equal(t, int64(2), last.TS)
	assert.Equal(t, "second", last.Candidate.Name)
}

func TestNoDrift(t *testing.T) {
	info := NoDrift()
	assert.Equal(t, 0.0, info.DriftScore)
	assert.Empty(t, info.ChangedFields)
	assert.Equal(t, 1.0, info.FieldDiffs.NameSimilarity)
	assert.Equal(t, 1.0, info.FieldDiffs.AddressSimilarity)
	assert.Equal(t, 1.0, info.FieldDiffs.PhoneMatch)
}
