package consensus

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/provider-verify/internal/model"
)

func scoresOf(name, addr, phone, website float64) map[string]float64 {
	return map[string]float64{
		model.FieldName:    name,
		model.FieldAddress: addr,
		model.FieldPhone:   phone,
		model.FieldWebsite: website,
	}
}

func TestScore_PerfectMatchWithDominantVote(t *testing.T) {
	chosen := map[string]model.ChosenField{
		model.FieldName:    {Value: "ABC Clinic", Weight: 0.9},
		model.FieldAddress: {Value: "", Weight: 0},
		model.FieldPhone:   {Value: "9876543210", Weight: 0.9},
		model.FieldWebsite: {Value: "", Weight: 0},
	}
	// base = 0.45*1 + 0.30*0.5 + 0.20*1 + 0.05*0 = 0.80
	// boost = 0.10 * (0.9/1.8) = 0.05 → 85.00
	percent, flag := Score(DefaultVerifyConfig(), chosen, scoresOf(1.0, 0.5, 1.0, 0.0))
	assert.InDelta(t, 85.0, percent, 0.01)
	assert.False(t, flag)
}

func TestScore_FullAgreement(t *testing.T) {
	chosen := map[string]model.ChosenField{
		model.FieldName:    {Value: "ABC Clinic", Weight: 1.8},
		model.FieldAddress: {Value: "12 Main Rd", Weight: 0.2},
		model.FieldPhone:   {Value: "9876543210", Weight: 0.2},
		model.FieldWebsite: {Value: "", Weight: 0},
	}
	// base = 1.0; boost would exceed the cap, so final clamps at 100.
	percent, flag := Score(DefaultVerifyConfig(), chosen, scoresOf(1.0, 1.0, 1.0, 1.0))
	assert.Equal(t, 100.0, percent)
	assert.False(t, flag)
}

func TestScore_NoVotes(t *testing.T) {
	chosen := map[string]model.ChosenField{
		model.FieldName:    {},
		model.FieldAddress: {},
		model.FieldPhone:   {},
		model.FieldWebsite: {},
	}
	// Nothing chosen: no boost, neutral address/phone only.
	// base = 0.45*0 + 0.30*0.5 + 0.20*0.5 + 0.05*0 = 0.25 → 25.00, flagged.
	percent, flag := Score(DefaultVerifyConfig(), chosen, scoresOf(0.0, 0.5, 0.5, 0.0))
	assert.InDelta(t, 25.0, percent, 0.01)
	assert.True(t, flag)
}

func TestScore_FlagThreshold(t *testing.T) {
	chosen := map[string]model.ChosenField{
		model.FieldName: {Value: "x", Weight: 1.0},
	}
	// base = 0.45*0.8 + 0.30*0.5 + 0.20*0.5 = 0.61, boost = 0.10 → 71.00
	percent, flag := Score(DefaultVerifyConfig(), chosen, scoresOf(0.8, 0.5, 0.5, 0.0))
	assert.InDelta(t, 71.0, percent, 0.01)
	assert.False(t, flag)

	// Slightly weaker name match dips under the review threshold.
	percent, flag = Score(DefaultVerifyConfig(), chosen, scoresOf(0.7, 0.5, 0.5, 0.0))
	assert.InDelta(t, 66.5, percent, 0.01)
	assert.True(t, flag)
}

func TestScore_MonotoneInFieldScores(t *testing.T) {
	chosen := map[string]model.ChosenField{
		model.FieldName: {Value: "x", Weight: 0.5},
	}
	base := scoresOf(0.3, 0.5, 0.5, 0.0)
	basePercent, _ := Score(DefaultVerifyConfig(), chosen, base)

	for _, field := range model.TrackedFields {
		bumped := scoresOf(base[model.FieldName], base[model.FieldAddress], base[model.FieldPhone], base[model.FieldWebsite])
		bumped[field] += 0.2
		percent, _ := Score(DefaultVerifyConfig(), chosen, bumped)
		assert.GreaterOrEqual(t, percent, basePercent, "raising %s must not lower confidence", field)
	}
}

func TestScore_BoostRewardsSingleDominantField(t *testing.T) {
	scores := scoresOf(1.0, 0.5, 0.5, 0.0)

	// All vote mass on one field — maximum boost.
	dominant := map[string]model.ChosenField{
		model.FieldName: {Value: "x", Weight: 2.0},
	}
	dominantPercent, _ := Score(DefaultVerifyConfig(), dominant, scores)

	// Same total mass spread evenly — smaller boost. This is designed
	// behavior: the boost measures dominance, not cross-field agreement.
	spread := map[string]model.ChosenField{
		model.FieldName:    {Value: "x", Weight: 0.5},
		model.FieldAddress: {Value: "y", Weight: 0.5},
		model.FieldPhone:   {Value: "z", Weight: 0.5},
		model.FieldWebsite: {Value: "w", Weight: 0.5},
	}
	spreadPercent, _ := Score(DefaultVerifyConfig(), spread, scores)

	assert.Greater(t, dominantPercent, spreadPercent)
}

func TestValidateConfig(t *testing.T) {
	assert.NoError(t, ValidateConfig(DefaultVerifyConfig()))

	bad := DefaultVerifyConfig()
	bad.NameWeight = 0.9
	assert.Error(t, ValidateConfig(bad))

	neg := DefaultVerifyConfig()
	neg.PhoneWeight = -0.2
	neg.NameWeight = 0.65
	assert.Error(t, ValidateConfig(neg))
}
