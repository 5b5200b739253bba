package resolver

import (
	"github.com/sells-group/provider-verify/internal/model"
	"github.com/sells-group/provider-verify/internal/similarity"
)

// FeatureDim is the length of every feature vector produced here. The
// trained scoring artifact records the dimension it was fitted on and
// refuses vectors of any other length.
const FeatureDim = 6

// placeholderConsensus fills the last feature slot. This path scores
// one candidate at a time, so no multi-candidate consensus value exists
// to feed the model; 0.5 keeps the slot neutral.
const placeholderConsensus = 0.5

// Features builds the per-candidate feature vector:
//
//	[0] name similarity against the listed name
//	[1] address similarity against the listed address
//	[2] phone similarity against the listed phone
//	[3] credibility weight of the candidate's source
//	[4] candidate name length normalized by 100
//	[5] placeholder consensus value
func Features(listed model.Listed, c model.Candidate, sourceWeight float64) []float64 {
	return []float64{
		similarity.Text(listed.Name, c.Name),
		similarity.Text(listed.ListedAddress, c.Address),
		similarity.Phone(listed.ListedPhone, c.Phone),
		sourceWeight,
		float64(len(c.Name)) / 100.0,
		placeholderConsensus,
	}
}
