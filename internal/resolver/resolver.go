// Package resolver is the learned entity-resolution path: it scores
// each candidate independently with a rule-based weighted sum over a
// feature vector and, when a trained model is present, blends in the
// model's match probability. It shares the Candidate vocabulary with
// the consensus resolver but never computes cross-candidate votes.
package resolver

import (
	"context"
	"math"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/provider-verify/internal/config"
	"github.com/sells-group/provider-verify/internal/credibility"
	"github.com/sells-group/provider-verify/internal/model"
)

// Match is the outcome of resolving one listed record against a
// candidate set. Best is nil when no candidates were supplied.
type Match struct {
	Best         *model.Candidate   `json:"best"`
	FieldScores  map[string]float64 `json:"field_scores"`
	FinalPercent float64            `json:"final_percent"`
	MLScore      *float64           `json:"ml_score,omitempty"`
}

// Resolver scores candidates one at a time. The scorer may be nil;
// rule-based scoring then stands alone.
type Resolver struct {
	credibility *credibility.Store
	scorer      Scorer
	cfg         config.ResolverConfig
}

// NewResolver creates a learned resolver over the credibility store.
func NewResolver(cred *credibility.Store, scorer Scorer, cfg config.ResolverConfig) *Resolver {
	return &Resolver{credibility: cred, scorer: scorer, cfg: cfg}
}

// MLEnabled reports whether a trained scorer is loaded and blending is
// switched on.
func (r *Resolver) MLEnabled() bool {
	return r.cfg.UseML && r.scorer != nil
}

// Resolve picks the candidate with the highest rule score, breaking
// ties by encounter order, and optionally blends the winner's rule
// score with the model probability by arithmetic mean. An empty
// candidate set yields a nil Best with zero confidence.
func (r *Resolver) Resolve(ctx context.Context, listed model.Listed, candidates []model.Candidate) (*Match, error) {
	if len(candidates) == 0 {
		return &Match{FieldScores: map[string]float64{}}, nil
	}

	var (
		best      *model.Candidate
		bestScore float64
		bestFeats []float64
	)
	for i := range candidates {
		c := &candidates[i]
		src := c.Source
		if src == "" {
			src = "Unknown"
		}
		w, err := r.credibility.Weight(ctx, src)
		if err != nil {
			return nil, eris.Wrapf(err, "resolver: weight for %s", src)
		}
		feats := Features(listed, *c, w)
		score := r.ruleScore(feats)
		if best == nil || score > bestScore {
			best, bestScore, bestFeats = c, score, feats
		}
	}

	match := &Match{
		Best: best,
		FieldScores: map[string]float64{
			model.FieldName:    bestFeats[0],
			model.FieldAddress: bestFeats[1],
			model.FieldPhone:   bestFeats[2],
			"source_weight":    bestFeats[3],
		},
	}

	final := bestScore
	if r.MLEnabled() {
		prob := r.scorer.PredictProbability(bestFeats)
		match.MLScore = &prob
		final = (bestScore + prob) / 2.0
		zap.L().Debug("resolver: blended score",
			zap.Float64("rule", bestScore),
			zap.Float64("ml", prob),
		)
	}
	match.FinalPercent = round2(clamp01(final) * 100)
	return match, nil
}

func (r *Resolver) ruleScore(feats []float64) float64 {
	return r.cfg.NameWeight*feats[0] +
		r.cfg.AddressWeight*feats[1] +
		r.cfg.PhoneWeight*feats[2] +
		r.cfg.SourceWeight*feats[3]
}

func clamp01(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
