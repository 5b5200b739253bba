package store

import (
	"context"
	"sort"
	"sync"

	"github.com/sells-group/provider-verify/internal/model"
)

// MemoryStore is an in-memory Store used by tests and ephemeral runs.
// A single mutex serializes all access, which satisfies the per-key
// single-writer requirement trivially.
type MemoryStore struct {
	mu        sync.Mutex
	histories map[string]*model.EntityHistory
	weights   map[string]float64
	records   []model.VerificationRecord
}

// NewMemory creates an empty MemoryStore.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		histories: make(map[string]*model.EntityHistory),
		weights:   make(map[string]float64),
	}
}

func (s *MemoryStore) Migrate(ctx context.Context) error { return nil }
func (s *MemoryStore) Close() error                      { return nil }

func (s *MemoryStore) GetHistory(ctx context.Context, slug string) (*model.EntityHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[slug]
	if !ok {
		return nil, nil
	}
	return copyHistory(h), nil
}

func (s *MemoryStore) AppendSnapshot(ctx context.Context, slug, name string, snap model.Snapshot) (*model.EntityHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.histories[slug]
	if !ok {
		h = &model.EntityHistory{Slug: slug, Name: name}
		s.histories[slug] = h
	}
	h.Snapshots = append(h.Snapshots, snap)
	return copyHistory(h), nil
}

func (s *MemoryStore) ListHistories(ctx context.Context) ([]model.EntityHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slugs := make([]string, 0, len(s.histories))
	for slug := range s.histories {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	out := make([]model.EntityHistory, 0, len(slugs))
	for _, slug := range slugs {
		out = append(out, *copyHistory(s.histories[slug]))
	}
	return out, nil
}

func (s *MemoryStore) GetSourceWeight(ctx context.Context, source string) (float64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.weights[source]
	return w, ok, nil
}

func (s *MemoryStore) SetSourceWeight(ctx context.Context, source string, weight float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weights[source] = weight
	return nil
}

func (s *MemoryStore) ListSourceWeights(ctx context.Context) (map[string]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.weights))
	for k, v := range s.weights {
		out[k] = v
	}
	return out, nil
}

func (s *MemoryStore) SaveVerification(ctx context.Context, rec *model.VerificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, *rec)
	return nil
}

func (s *MemoryStore) ListVerifications(ctx context.Context, slug string, limit int) ([]model.VerificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if limit <= 0 {
		limit = 50
	}
	var out []model.VerificationRecord
	for i := len(s.records) - 1; i >= 0 && len(out) < limit; i-- {
		if slug == "" || s.records[i].Slug == slug {
			out = append(out, s.records[i])
		}
	}
	return out, nil
}

func copyHistory(h *model.EntityHistory) *model.EntityHistory {
	cp := &model.EntityHistory{Slug: h.Slug, Name: h.Name}
	cp.Snapshots = append(cp.Snapshots, h.Snapshots...)
	return cp
}
