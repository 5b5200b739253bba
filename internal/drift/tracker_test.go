package drift

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/provider-verify/internal/model"
	"github.com/sells-group/provider-verify/internal/store"
)

func newTestTracker(t *testing.T) *Tracker {
	t.Helper()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return NewTracker(store.NewMemory(), DefaultDriftConfig()).
		WithNow(func() time.Time { return now })
}

func TestCompareSnapshots_Identical(t *testing.T) {
	tr := newTestTracker(t)
	cand := model.Candidate{Name: "ABC Clinic", Address: "12 Main Rd", Phone: "9876543210"}

	info := tr.CompareSnapshots(cand, cand)
	assert.Equal(t, 0.0, info.DriftScore)
	assert.Empty(t, info.ChangedFields)
	assert.Equal(t, 1.0, info.FieldDiffs.NameSimilarity)
	assert.Equal(t, 1.0, info.FieldDiffs.AddressSimilarity)
	assert.Equal(t, 1.0, info.FieldDiffs.PhoneMatch)
}

func TestCompareSnapshots_SelfWithMissingFields(t *testing.T) {
	tr := newTestTracker(t)
	cand := model.Candidate{Name: "ABC Clinic"} // no address, no phone

	info := tr.CompareSnapshots(cand, cand)
	assert.Equal(t, 0.0, info.DriftScore)
	assert.Empty(t, info.ChangedFields)
}

func TestCompareSnapshots_PhoneChange(t *testing.T) {
	tr := newTestTracker(t)
	old := model.Candidate{Name: "X", Phone: "111"}
	new := model.Candidate{Name: "X", Phone: "222"}

	info := tr.CompareSnapshots(old, new)
	assert.Contains(t, info.ChangedFields, model.FieldPhone)
	assert.NotContains(t, info.ChangedFields, model.FieldName)
	assert.Greater(t, info.DriftScore, 0.0)
	// Phone drift alone: 0.25 * 1.0 = 25%.
	assert.InDelta(t, 25.0, info.DriftScore, 0.01)
	assert.True(t, info.FieldDiffs.PhoneChanged)
}

func TestCompareSnapshots_PhoneNoPartialCredit(t *testing.T) {
	tr := newTestTracker(t)
	// Last-six agreement would score 0.8 in consensus, but drift treats
	// any digit mismatch as a full change.
	old := model.Candidate{Name: "X", Phone: "+919876543210"}
	new := model.Candidate{Name: "X", Phone: "9876543210"}

	info := tr.CompareSnapshots(old, new)
	assert.Equal(t, 0.0, info.FieldDiffs.PhoneMatch)
	assert.Contains(t, info.ChangedFields, model.FieldPhone)
}

func TestCompareSnapshots_SmallNameEditBelowThreshold(t *testing.T) {
	tr := newTestTracker(t)
	old := model.Candidate{Name: "ABC Clinic Hyderabad Telangana"}
	new := model.Candidate{Name: "ABC Clinic Hyderabad Telangana India"}

	info := tr.CompareSnapshots(old, new)
	// Token overlap keeps the drift under the 0.1 change threshold.
	assert.NotContains(t, info.ChangedFields, model.FieldName)
	assert.False(t, info.FieldDiffs.NameChanged)
}

func TestRecordSnapshot_First(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	res, err := tr.RecordSnapshot(ctx, "ABC Clinic", model.Candidate{
		Name:  "ABC Clinic",
		Phone: "9876543210",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.HistoryCount)
	assert.Equal(t, 0.0, res.DriftInfo.DriftScore)
	assert.Empty(t, res.DriftInfo.ChangedFields)
	assert.Equal(t, 1.0, res.DriftInfo.FieldDiffs.NameSimilarity)
	assert.Equal(t, "ABC Clinic", res.LatestSnapshot.Name)
	// Missing retrieved_at is stamped with the recording time.
	assert.Equal(t, res.LastSnapshotTS, res.LatestSnapshot.RetrievedAt)
}

func TestRecordSnapshot_DriftAgainstPreviousOnly(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordSnapshot(ctx, "X Clinic", model.Candidate{Name: "X", Phone: "111"})
	require.NoError(t, err)

	res, err := tr.RecordSnapshot(ctx, "X Clinic", model.Candidate{Name: "X", Phone: "222"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.HistoryCount)
	assert.Contains(t, res.DriftInfo.ChangedFields, model.FieldPhone)
	assert.Greater(t, res.DriftInfo.DriftScore, 0.0)

	// Reverting to the original phone drifts against the middle
	// snapshot, not the full history.
	res, err = tr.RecordSnapshot(ctx, "X Clinic", model.Candidate{Name: "X", Phone: "111"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.HistoryCount)
	assert.Contains(t, res.DriftInfo.ChangedFields, model.FieldPhone)
}

func TestRecordSnapshot_SameNameDifferentSpellingSharesHistory(t *testing.T) {
	tr := newTestTracker(t)
	ctx := context.Background()

	_, err := tr.RecordSnapshot(ctx, "ABC Clinic", model.Candidate{Name: "ABC Clinic"})
	require.NoError(t, err)

	res, err := tr.RecordSnapshot(ctx, "abc   clinic", model.Candidate{Name: "ABC Clinic"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.HistoryCount)
}
