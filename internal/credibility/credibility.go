// Package credibility maintains per-source trust weights and applies
// the approve/reject feedback signal to them. All mutation goes through
// Adjust; the weights live in the shared store so they survive restarts.
package credibility

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/provider-verify/internal/config"
	"github.com/sells-group/provider-verify/internal/store"
)

// Feedback decisions accepted by Adjust.
const (
	DecisionApprove = "approve"
	DecisionReject  = "reject"
)

// ErrInvalidDecision is returned for a feedback decision that is
// neither "approve" nor "reject". No weight is mutated in that case.
var ErrInvalidDecision = eris.New(`credibility: decision must be "approve" or "reject"`)

// Store resolves and adjusts source credibility weights.
type Store struct {
	store store.Store
	cfg   config.CredibilityConfig
}

// New creates a credibility store over the given persistence backend.
func New(st store.Store, cfg config.CredibilityConfig) *Store {
	return &Store{store: st, cfg: cfg}
}

// Weight returns the credibility of a source: the persisted weight if
// feedback has touched it, else the configured seed, else the unknown
// default.
func (s *Store) Weight(ctx context.Context, source string) (float64, error) {
	w, ok, err := s.store.GetSourceWeight(ctx, source)
	if err != nil {
		return 0, eris.Wrapf(err, "credibility: lookup %s", source)
	}
	if ok {
		return w, nil
	}
	if seed, ok := s.cfg.Seeds[source]; ok {
		return seed, nil
	}
	return s.cfg.DefaultWeight, nil
}

// Adjust applies one feedback decision to a source's weight using a
// multiplicative update with learning rate cfg.LearningRate, clamps the
// result to [MinWeight, MaxWeight], persists it, and returns it.
//
// This is an exponential reputation update, not a calibrated estimator;
// callers needing statistical rigor should layer Bayesian updating on
// top.
func (s *Store) Adjust(ctx context.Context, source, decision string) (float64, error) {
	if decision != DecisionApprove && decision != DecisionReject {
		return 0, ErrInvalidDecision
	}

	current, err := s.Weight(ctx, source)
	if err != nil {
		return 0, err
	}

	lr := s.cfg.LearningRate
	next := current * (1 + lr)
	if decision == DecisionReject {
		next = current * (1 - lr)
	}
	next = clamp(next, s.cfg.MinWeight, s.cfg.MaxWeight)

	if err := s.store.SetSourceWeight(ctx, source, next); err != nil {
		return 0, eris.Wrapf(err, "credibility: persist %s", source)
	}

	zap.L().Info("credibility: weight adjusted",
		zap.String("source", source),
		zap.String("decision", decision),
		zap.Float64("old", current),
		zap.Float64("new", next),
	)
	return next, nil
}

// All returns the effective weight per known source: configured seeds
// overlaid with any persisted feedback adjustments.
func (s *Store) All(ctx context.Context) (map[string]float64, error) {
	weights, err := s.store.ListSourceWeights(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "credibility: list")
	}
	out := make(map[string]float64, len(weights)+len(s.cfg.Seeds))
	for src, w := range s.cfg.Seeds {
		out[src] = w
	}
	for src, w := range weights {
		out[src] = w
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
