// Package verify is the orchestration layer: it runs the consensus
// resolver and confidence scorer over a candidate set, records the
// winning composite as a drift snapshot, persists an audit record, and
// applies reviewer feedback to source credibility.
package verify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/provider-verify/internal/config"
	"github.com/sells-group/provider-verify/internal/consensus"
	"github.com/sells-group/provider-verify/internal/credibility"
	"github.com/sells-group/provider-verify/internal/drift"
	"github.com/sells-group/provider-verify/internal/model"
	"github.com/sells-group/provider-verify/internal/store"
)

// Service wires the engine components behind one call surface shared by
// the CLI commands and the HTTP server.
type Service struct {
	store       store.Store
	credibility *credibility.Store
	resolver    *consensus.Resolver
	tracker     *drift.Tracker
	cfg         config.VerifyConfig
	now         func() time.Time
}

// New builds the service over a single store handle.
func New(st store.Store, cred *credibility.Store, res *consensus.Resolver, tr *drift.Tracker, cfg config.VerifyConfig) *Service {
	return &Service{
		store:       st,
		credibility: cred,
		resolver:    res,
		tracker:     tr,
		cfg:         cfg,
		now:         time.Now,
	}
}

// WithNow sets a fixed clock for testing.
func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Verify reconciles the candidate set against the listed record and
// returns the combined verification and drift response. Candidates
// without a retrieval timestamp are backdated by the configured default
// age so they still decay instead of counting as perfectly fresh.
func (s *Service) Verify(ctx context.Context, listed model.Listed, candidates []model.Candidate) (*model.VerificationResult, error) {
	nowTS := s.now().Unix()
	backdated := nowTS - int64(s.cfg.DefaultCandidateAgeDays)*86400
	cands := make([]model.Candidate, len(candidates))
	copy(cands, candidates)
	for i := range cands {
		if cands[i].RetrievedAt == 0 {
			cands[i].RetrievedAt = backdated
		}
	}

	res, err := s.resolver.Resolve(ctx, listed, cands)
	if err != nil {
		return nil, eris.Wrap(err, "verify: resolve")
	}
	percent, flagged := consensus.Score(s.cfg, res.Chosen, res.FieldScores)

	result := &model.VerificationResult{
		Chosen:              res.Chosen,
		FieldScores:         res.FieldScores,
		FinalConfidence:     percent,
		FlagForManualReview: flagged,
		SourceVotes:         res.SourceVotes,
		Candidate:           model.ConsensusCandidate(res.Chosen, nowTS),
	}

	driftRes, err := s.tracker.RecordSnapshot(ctx, listed.Name, *result.Candidate)
	if err != nil {
		return nil, eris.Wrap(err, "verify: record snapshot")
	}
	result.Drift = driftRes

	rec := &model.VerificationRecord{
		ID:         uuid.NewString(),
		Slug:       s.tracker.SlugFor(listed.Name),
		Listed:     listed,
		Result:     result,
		Confidence: percent,
		Flagged:    flagged,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.store.SaveVerification(ctx, rec); err != nil {
		return nil, eris.Wrap(err, "verify: save record")
	}

	zap.L().Info("verification complete",
		zap.String("provider", listed.Name),
		zap.String("run_id", rec.ID),
		zap.Float64("confidence", percent),
		zap.Bool("flagged", flagged),
		zap.Int("candidates", len(candidates)),
	)
	return result, nil
}

// Feedback is a reviewer's approve/reject verdict, optionally carrying
// corrected field values and the source the verdict applies to.
type Feedback struct {
	ProviderName            string `json:"provider_name"`
	CorrectedName           string `json:"corrected_name,omitempty"`
	CorrectedAddress        string `json:"corrected_address,omitempty"`
	CorrectedPhone          string `json:"corrected_phone,omitempty"`
	AcceptedCandidateSource string `json:"accepted_candidate_source,omitempty"`
	Decision                string `json:"decision"`
	AdminUser               string `json:"admin_user,omitempty"`
}

// FeedbackResult reports the credibility update and the correction
// snapshot appended to the provider's history.
type FeedbackResult struct {
	WeightsUpdated bool               `json:"weights_updated"`
	NewWeight      float64            `json:"new_weight,omitempty"`
	Snapshot       *model.DriftResult `json:"new_snapshot"`
}

// ApplyFeedback validates the decision, adjusts the named source's
// credibility, and appends the corrected record as a snapshot so the
// correction participates in future drift comparisons.
func (s *Service) ApplyFeedback(ctx context.Context, fb Feedback) (*FeedbackResult, error) {
	if fb.Decision != credibility.DecisionApprove && fb.Decision != credibility.DecisionReject {
		return nil, credibility.ErrInvalidDecision
	}

	out := &FeedbackResult{}
	if fb.AcceptedCandidateSource != "" {
		w, err := s.credibility.Adjust(ctx, fb.AcceptedCandidateSource, fb.Decision)
		if err != nil {
			return nil, eris.Wrap(err, "feedback: adjust weight")
		}
		out.WeightsUpdated = true
		out.NewWeight = w
	}

	name := fb.CorrectedName
	if name == "" {
		name = fb.ProviderName
	}
	correction := model.Candidate{
		Source:      "admin-correction",
		Name:        name,
		Address:     fb.CorrectedAddress,
		Phone:       fb.CorrectedPhone,
		RetrievedAt: s.now().Unix(),
	}
	snap, err := s.tracker.RecordSnapshot(ctx, fb.ProviderName, correction)
	if err != nil {
		return nil, eris.Wrap(err, "feedback: record correction")
	}
	out.Snapshot = snap

	zap.L().Info("feedback applied",
		zap.String("provider", fb.ProviderName),
		zap.String("decision", fb.Decision),
		zap.String("source", fb.AcceptedCandidateSource),
		zap.String("admin", fb.AdminUser),
	)
	return out, nil
}

// History returns the snapshot history for a provider name, or
// store.ErrNotFound when no snapshots exist.
func (s *Service) History(ctx context.Context, providerName string) (*model.EntityHistory, error) {
	slug := s.tracker.SlugFor(providerName)
	h, err := s.store.GetHistory(ctx, slug)
	if err != nil {
		return nil, eris.Wrapf(err, "verify: history %s", slug)
	}
	if h == nil {
		return nil, store.ErrNotFound
	}
	return h, nil
}

// Histories returns every recorded entity history.
func (s *Service) Histories(ctx context.Context) ([]model.EntityHistory, error) {
	return s.store.ListHistories(ctx)
}

// Runs lists persisted verification records for a provider, most recent
// first. An empty name lists runs across all providers.
func (s *Service) Runs(ctx context.Context, providerName string, limit int) ([]model.VerificationRecord, error) {
	slug := ""
	if providerName != "" {
		slug = s.tracker.SlugFor(providerName)
	}
	return s.store.ListVerifications(ctx, slug, limit)
}
