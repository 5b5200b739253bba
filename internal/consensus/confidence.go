package consensus

import (
	"math"

	"github.com/sells-group/provider-verify/internal/config"
	"github.com/sells-group/provider-verify/internal/model"
)

// Score combines per-field similarity into one confidence percentage
// plus a manual-review flag.
//
// The consensus boost rewards a single field's vote mass dominating the
// total, not cross-field agreement between sources. That asymmetry is
// intended: a unanimous name vote should lift confidence even when
// secondary fields are thin.
func Score(cfg config.VerifyConfig, chosen map[string]model.ChosenField, fieldScores map[string]float64) (float64, bool) {
	base := cfg.NameWeight*fieldScores[model.FieldName] +
		cfg.AddressWeight*fieldScores[model.FieldAddress] +
		cfg.PhoneWeight*fieldScores[model.FieldPhone] +
		cfg.WebsiteWeight*fieldScores[model.FieldWebsite]

	var totalW, maxW float64
	for _, cf := range chosen {
		totalW += cf.Weight
		if cf.Weight > maxW {
			maxW = cf.Weight
		}
	}

	boost := 0.0
	if totalW > 0 {
		boost = cfg.ConsensusBoost * (maxW / totalW)
	}

	final := math.Min(1.0, base+boost)
	percent := round2(final * 100)
	flag := percent < cfg.ReviewThreshold

	return percent, flag
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
