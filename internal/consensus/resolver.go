// Package consensus implements the weighted-voting field resolver and
// the confidence scorer. Candidates vote per field with a weight that
// combines source credibility and observation recency; the winning
// value per field is compared against the listed input to produce field
// scores, which the scorer folds into one confidence percentage.
package consensus

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/provider-verify/internal/config"
	"github.com/sells-group/provider-verify/internal/credibility"
	"github.com/sells-group/provider-verify/internal/model"
	"github.com/sells-group/provider-verify/internal/similarity"
)

// Resolution is the output of one consensus pass.
type Resolution struct {
	Chosen      map[string]model.ChosenField
	FieldScores map[string]float64
	SourceVotes map[string][]model.SourceVote
}

// Resolver computes per-field consensus over a candidate set.
type Resolver struct {
	credibility *credibility.Store
	cfg         config.VerifyConfig
	now         time.Time // injectable for testing
}

// NewResolver creates a consensus resolver.
func NewResolver(cred *credibility.Store, cfg config.VerifyConfig) *Resolver {
	return &Resolver{credibility: cred, cfg: cfg, now: time.Now()}
}

// WithNow sets a fixed time for testing.
func (r *Resolver) WithNow(t time.Time) *Resolver {
	r.now = t
	return r
}

// tally accumulates vote weight for one distinct field value. Tallies
// are kept in first-seen order so ties resolve deterministically.
type tally struct {
	value  string
	weight float64
}

// Resolve runs the weighted vote and scores the winners against the
// listed input. An empty candidate set yields empty winners with zero
// weight and the same neutral/zero field scores missing data would.
func (r *Resolver) Resolve(ctx context.Context, listed model.Listed, candidates []model.Candidate) (*Resolution, error) {
	votes := make(map[string][]tally, len(model.TrackedFields))
	sourceVotes := make(map[string][]model.SourceVote, len(model.TrackedFields))
	for _, field := range model.TrackedFields {
		sourceVotes[field] = []model.SourceVote{}
	}

	for _, c := range candidates {
		src := c.Source
		if src == "" {
			src = "Unknown"
		}
		cred, err := r.credibility.Weight(ctx, src)
		if err != nil {
			return nil, eris.Wrapf(err, "consensus: weight for %s", src)
		}
		weight := cred * r.timeWeight(c.RetrievedAt)

		for _, field := range model.TrackedFields {
			val := c.FieldValue(field)
			if val == "" {
				continue
			}
			votes[field] = accumulate(votes[field], val, weight)
			sourceVotes[field] = append(sourceVotes[field], model.SourceVote{
				Source: src,
				Value:  val,
				Weight: weight,
			})
		}
	}

	chosen := make(map[string]model.ChosenField, len(model.TrackedFields))
	for _, field := range model.TrackedFields {
		chosen[field] = pickWinner(votes[field])
	}

	scores := r.fieldScores(listed, chosen)

	zap.L().Debug("consensus: resolved",
		zap.String("name", listed.Name),
		zap.Int("candidates", len(candidates)),
		zap.String("chosen_name", chosen[model.FieldName].Value),
	)

	return &Resolution{
		Chosen:      chosen,
		FieldScores: scores,
		SourceVotes: sourceVotes,
	}, nil
}

// timeWeight discounts older observations: 1/(1 + ageDays*decay).
// A missing timestamp gets full weight.
func (r *Resolver) timeWeight(retrievedAt int64) float64 {
	if retrievedAt == 0 {
		return 1.0
	}
	ageSeconds := r.now.Unix() - retrievedAt
	if ageSeconds < 0 {
		ageSeconds = 0
	}
	ageDays := float64(ageSeconds) / 86400.0
	return 1.0 / (1.0 + ageDays*r.cfg.DecayPerDay)
}

func accumulate(tallies []tally, value string, weight float64) []tally {
	for i := range tallies {
		if tallies[i].value == value {
			tallies[i].weight += weight
			return tallies
		}
	}
	return append(tallies, tally{value: value, weight: weight})
}

// pickWinner selects the maximum-weight tally. Strict comparison keeps
// the first-seen value on ties.
func pickWinner(tallies []tally) model.ChosenField {
	if len(tallies) == 0 {
		return model.ChosenField{Value: "", Weight: 0}
	}
	best := tallies[0]
	for _, tl := range tallies[1:] {
		if tl.weight > best.weight {
			best = tl
		}
	}
	return model.ChosenField{Value: best.value, Weight: best.weight}
}

// fieldScores compares winners against the listed input. A field the
// user never supplied scores neutral rather than penalizing the result;
// the website similarity is a reserved signal and always scores zero.
func (r *Resolver) fieldScores(listed model.Listed, chosen map[string]model.ChosenField) map[string]float64 {
	scores := make(map[string]float64, len(model.TrackedFields))

	scores[model.FieldName] = similarity.Text(listed.Name, chosen[model.FieldName].Value)

	if listed.ListedAddress != "" {
		scores[model.FieldAddress] = similarity.Text(listed.ListedAddress, chosen[model.FieldAddress].Value)
	} else {
		scores[model.FieldAddress] = r.cfg.NeutralScore
	}

	if listed.ListedPhone != "" {
		scores[model.FieldPhone] = similarity.Phone(listed.ListedPhone, chosen[model.FieldPhone].Value)
	} else {
		scores[model.FieldPhone] = r.cfg.NeutralScore
	}

	scores[model.FieldWebsite] = 0.0

	return scores
}
