package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/provider-verify/internal/model"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStore_GetHistory_Unknown(t *testing.T) {
	s := newTestSQLite(t)

	h, err := s.GetHistory(context.Background(), "no-such-entity")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestSQLiteStore_AppendSnapshot_CreatesHistory(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	snap := model.Snapshot{
		TS: 1700000000,
		Candidate: model.Candidate{
			Name:        "ABC Clinic",
			Address:     "12 Main Rd",
			Phone:       "9876543210",
			RetrievedAt: 1700000000,
		},
	}
	h, err := s.AppendSnapshot(ctx, "abc-clinic", "ABC Clinic", snap)
	require.NoError(t, err)
	require.Len(t, h.Snapshots, 1)
	assert.Equal(t, "ABC Clinic", h.Name)
	assert.Equal(t, "9876543210", h.Snapshots[0].Candidate.Phone)

	got, err := s.GetHistory(ctx, "abc-clinic")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, h.Snapshots, got.Snapshots)
}

func TestSQLiteStore_AppendSnapshot_Ordered(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	for i, ts := range []int64{100, 200, 300} {
		_, err := s.AppendSnapshot(ctx, "abc-clinic", "ABC Clinic", model.Snapshot{
			TS:        ts,
			Candidate: model.Candidate{Name: "ABC Clinic", Phone: "111"},
		})
		require.NoError(t, err, "append %d", i)
	}

	h, err := s.GetHistory(ctx, "abc-clinic")
	require.NoError(t, err)
	require.Len(t, h.Snapshots, 3)
	assert.Equal(t, int64(100), h.Snapshots[0].TS)
	assert.Equal(t, int64(300), h.Snapshots[2].TS)
	assert.Equal(t, int64(300), h.Last().TS)
}

func TestSQLiteStore_ListHistories(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, err := s.AppendSnapshot(ctx, "b-clinic", "B Clinic", model.Snapshot{TS: 1})
	require.NoError(t, err)
	_, err = s.AppendSnapshot(ctx, "a-clinic", "A Clinic", model.Snapshot{TS: 2})
	require.NoError(t, err)

	histories, err := s.ListHistories(ctx)
	require.NoError(t, err)
	require.Len(t, histories, 2)
	assert.Equal(t, "a-clinic", histories[0].Slug)
	assert.Equal(t, "b-clinic", histories[1].Slug)
}

func TestSQLiteStore_SourceWeights(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	_, ok, err := s.GetSourceWeight(ctx, "registry")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.SetSourceWeight(ctx, "registry", 0.9))
	w, ok, err := s.GetSourceWeight(ctx, "registry")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 0.9, w)

	// Upsert overwrites.
	require.NoError(t, s.SetSourceWeight(ctx, "registry", 0.85))
	w, _, err = s.GetSourceWeight(ctx, "registry")
	require.NoError(t, err)
	assert.Equal(t, 0.85, w)

	weights, err := s.ListSourceWeights(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"registry": 0.85}, weights)
}

func TestSQLiteStore_Verifications(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	rec := &model.VerificationRecord{
		ID:   uuid.New().String(),
		Slug: "abc-clinic",
		Listed: model.Listed{
			Name:        "ABC Clinic",
			ListedPhone: "9876543210",
		},
		Result: &model.VerificationResult{
			FinalConfidence:     96.5,
			FlagForManualReview: false,
		},
		Confidence: 96.5,
		Flagged:    false,
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, s.SaveVerification(ctx, rec))

	recs, err := s.ListVerifications(ctx, "abc-clinic", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, rec.ID, recs[0].ID)
	assert.Equal(t, 96.5, recs[0].Result.FinalConfidence)
	assert.Equal(t, "ABC Clinic", recs[0].Listed.Name)

	other, err := s.ListVerifications(ctx, "other-slug", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}
