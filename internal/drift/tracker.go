// Package drift persists the per-provider snapshot history and measures
// how a provider's attributes change between consecutive observations.
package drift

import (
	"context"
	"math"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/provider-verify/internal/config"
	"github.com/sells-group/provider-verify/internal/model"
	"github.com/sells-group/provider-verify/internal/similarity"
)

// Tracker records snapshots and computes drift against the immediately
// preceding snapshot. It never edits or removes persisted snapshots.
type Tracker struct {
	store stateStore
	cfg   config.DriftConfig
	now   func() time.Time
}

// stateStore is the slice of the persistence interface the tracker uses.
type stateStore interface {
	GetHistory(ctx context.Context, slug string) (*model.EntityHistory, error)
	AppendSnapshot(ctx context.Context, slug, name string, snap model.Snapshot) (*model.EntityHistory, error)
}

// NewTracker creates a drift tracker over the given store.
func NewTracker(st stateStore, cfg config.DriftConfig) *Tracker {
	return &Tracker{store: st, cfg: cfg, now: time.Now}
}

// WithNow sets a fixed clock for testing.
func (t *Tracker) WithNow(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// SlugFor returns the history key used for a provider name.
func (t *Tracker) SlugFor(providerName string) string {
	return Slug(providerName, t.cfg.MaxSlugLength)
}

// RecordSnapshot appends a new snapshot for the named provider and
// returns the drift against the previous one. The first snapshot for a
// slug reports zero drift with all similarities at 1.0.
func (t *Tracker) RecordSnapshot(ctx context.Context, providerName string, candidate model.Candidate) (*model.DriftResult, error) {
	slug := t.SlugFor(providerName)
	nowTS := t.now().Unix()

	if candidate.RetrievedAt == 0 {
		candidate.RetrievedAt = nowTS
	}
	snap := model.Snapshot{TS: nowTS, Candidate: candidate}

	prior, err := t.store.GetHistory(ctx, slug)
	if err != nil {
		return nil, eris.Wrapf(err, "drift: load history %s", slug)
	}

	info := model.NoDrift()
	if last := prior.Last(); last != nil {
		info = t.CompareSnapshots(last.Candidate, snap.Candidate)
	}

	updated, err := t.store.AppendSnapshot(ctx, slug, providerName, snap)
	if err != nil {
		return nil, eris.Wrapf(err, "drift: append snapshot %s", slug)
	}

	latest := updated.Last()
	zap.L().Info("drift: snapshot recorded",
		zap.String("slug", slug),
		zap.Int("history_count", len(updated.Snapshots)),
		zap.Float64("drift_score", info.DriftScore),
		zap.Strings("changed_fields", info.ChangedFields),
	)

	return &model.DriftResult{
		HistoryCount:   len(updated.Snapshots),
		LastSnapshotTS: latest.TS,
		DriftInfo:      info,
		LatestSnapshot: latest.Candidate,
	}, nil
}

// CompareSnapshots measures change between two snapshots. Name and
// address use token-sort text similarity; phone is exact digit match
// with no partial credit. The combined score is a 0-100 percentage;
// higher means more change.
func (t *Tracker) CompareSnapshots(old, new model.Candidate) model.DriftInfo {
	sName := textSim(old.Name, new.Name)
	sAddr := textSim(old.Address, new.Address)
	sPhone := phoneSim(old.Phone, new.Phone)

	dName := 1.0 - sName
	dAddr := 1.0 - sAddr
	dPhone := 1.0 - sPhone

	frac := t.cfg.NameWeight*dName + t.cfg.AddressWeight*dAddr + t.cfg.PhoneWeight*dPhone

	changed := []string{}
	if dName > t.cfg.TextThreshold {
		changed = append(changed, model.FieldName)
	}
	if dAddr > t.cfg.TextThreshold {
		changed = append(changed, model.FieldAddress)
	}
	// Any phone mismatch counts; there is no tolerance band.
	if dPhone > 0 {
		changed = append(changed, model.FieldPhone)
	}

	return model.DriftInfo{
		DriftScore:    round2(frac * 100),
		ChangedFields: changed,
		FieldDiffs: model.FieldDiffs{
			NameSimilarity:    round3(sName),
			AddressSimilarity: round3(sAddr),
			PhoneMatch:        round3(sPhone),
			NameChanged:       dName > t.cfg.TextThreshold,
			AddressChanged:    dAddr > t.cfg.TextThreshold,
			PhoneChanged:      dPhone > 0,
		},
	}
}

// DefaultDriftConfig returns the production drift weighting.
func DefaultDriftConfig() config.DriftConfig {
	return config.DriftConfig{
		NameWeight:    0.40,
		AddressWeight: 0.35,
		PhoneWeight:   0.25,
		TextThreshold: 0.1,
		MaxSlugLength: 200,
	}
}

// A field absent on both sides is unchanged, not drifted; that keeps
// self-comparison at exactly zero drift.
func textSim(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	return similarity.Text(a, b)
}

func phoneSim(a, b string) float64 {
	if a == "" && b == "" {
		return 1.0
	}
	return similarity.PhoneExact(a, b)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
