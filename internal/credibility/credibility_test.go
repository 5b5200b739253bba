package credibility

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/provider-verify/internal/config"
	"github.com/sells-group/provider-verify/internal/store"
)

func testConfig() config.CredibilityConfig {
	return config.CredibilityConfig{
		LearningRate:  0.05,
		MinWeight:     0.05,
		MaxWeight:     0.99,
		DefaultWeight: 0.5,
		Seeds: map[string]float64{
			"Public Registry": 1.0,
		},
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return New(store.NewMemory(), testConfig())
}

func TestWeight_Default(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Weight(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Equal(t, 0.5, w)
}

func TestWeight_Seed(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Weight(context.Background(), "Public Registry")
	require.NoError(t, err)
	// Seeds are clamped only once feedback touches them.
	assert.Equal(t, 1.0, w)
}

func TestAdjust_ApproveIncreases(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	w, err := s.Adjust(ctx, "hospital-site", DecisionApprove)
	require.NoError(t, err)
	assert.InDelta(t, 0.525, w, 1e-9) // 0.5 * 1.05

	// Persisted value feeds the next adjustment.
	w2, err := s.Adjust(ctx, "hospital-site", DecisionApprove)
	require.NoError(t, err)
	assert.Greater(t, w2, w)
}

func TestAdjust_RejectDecreases(t *testing.T) {
	s := newTestStore(t)
	w, err := s.Adjust(context.Background(), "hospital-site", DecisionReject)
	require.NoError(t, err)
	assert.InDelta(t, 0.475, w, 1e-9) // 0.5 * 0.95
}

func TestAdjust_ClampUpper(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Seeded at 1.0, approve would push past the cap.
	w, err := s.Adjust(ctx, "Public Registry", DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, 0.99, w)

	// Already at the cap — approve holds it there.
	w, err = s.Adjust(ctx, "Public Registry", DecisionApprove)
	require.NoError(t, err)
	assert.Equal(t, 0.99, w)
}

func TestAdjust_ClampLower(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 60; i++ {
		_, err := s.Adjust(ctx, "bad-source", DecisionReject)
		require.NoError(t, err)
	}
	w, err := s.Weight(ctx, "bad-source")
	require.NoError(t, err)
	assert.Equal(t, 0.05, w)
}

func TestAdjust_InvalidDecision(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Adjust(ctx, "hospital-site", "maybe")
	assert.ErrorIs(t, err, ErrInvalidDecision)

	// Rejected before any mutation.
	w, err := s.Weight(ctx, "hospital-site")
	require.NoError(t, err)
	assert.Equal(t, 0.5, w)
}
