package consensus

import (
	"fmt"
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/provider-verify/internal/config"
)

// DefaultVerifyConfig returns a config.VerifyConfig with the production
// weighting. Field weights sum to 1.0.
func DefaultVerifyConfig() config.VerifyConfig {
	return config.VerifyConfig{
		NameWeight:    0.45,
		AddressWeight: 0.30,
		PhoneWeight:   0.20,
		WebsiteWeight: 0.05,

		DecayPerDay:             0.05,
		ConsensusBoost:          0.10,
		NeutralScore:            0.5,
		ReviewThreshold:         70,
		DefaultCandidateAgeDays: 7,
	}
}

// ValidateConfig checks that a VerifyConfig is internally consistent.
func ValidateConfig(c config.VerifyConfig) error {
	var errs []string

	weights := map[string]float64{
		"name_weight":    c.NameWeight,
		"address_weight": c.AddressWeight,
		"phone_weight":   c.PhoneWeight,
		"website_weight": c.WebsiteWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	sum := c.NameWeight + c.AddressWeight + c.PhoneWeight + c.WebsiteWeight
	if math.Abs(sum-1.0) > 1e-9 {
		errs = append(errs, fmt.Sprintf("field weights must sum to 1.0, got %.4f", sum))
	}
	if c.DecayPerDay < 0 {
		errs = append(errs, "decay_per_day must be >= 0")
	}
	if c.ConsensusBoost < 0 {
		errs = append(errs, "consensus_boost must be >= 0")
	}
	if c.ReviewThreshold < 0 || c.ReviewThreshold > 100 {
		errs = append(errs, "review_threshold must be in [0,100]")
	}

	if len(errs) > 0 {
		return eris.New("consensus: invalid config: " + joinErrs(errs))
	}
	return nil
}

func joinErrs(errs []string) string {
	out := errs[0]
	for _, e := range errs[1:] {
		out += "; " + e
	}
	return out
}
