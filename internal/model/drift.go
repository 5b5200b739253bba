package model

import "time"

// Snapshot is one persisted, timestamped record of a provider's resolved
// attributes. Immutable once appended.
type Snapshot struct {
	TS        int64     `json:"ts"`
	Candidate Candidate `json:"candidate"`
}

// EntityHistory is the append-only snapshot sequence for one provider,
// keyed by the normalized slug of its name. Snapshots are strictly
// ordered by TS ascending.
type EntityHistory struct {
	Slug      string     `json:"slug"`
	Name      string     `json:"name"`
	Snapshots []Snapshot `json:"snapshots"`
}

// Last returns the most recent snapshot, or nil for an empty history.
func (h *EntityHistory) Last() *Snapshot {
	if h == nil || len(h.Snapshots) == 0 {
		return nil
	}
	return &h.Snapshots[len(h.Snapshots)-1]
}

// FieldDiffs holds per-field similarity and change flags between two
// consecutive snapshots.
type FieldDiffs struct {
	NameSimilarity    float64 `json:"name_similarity"`
	AddressSimilarity float64 `json:"address_similarity"`
	PhoneMatch        float64 `json:"phone_match"`
	NameChanged       bool    `json:"name_changed"`
	AddressChanged    bool    `json:"address_changed"`
	PhoneChanged      bool    `json:"phone_changed"`
}

// DriftInfo is the comparison of a snapshot against its immediate
// predecessor. DriftScore is a 0-100 percentage; 0 means identical.
type DriftInfo struct {
	DriftScore    float64    `json:"drift_score"`
	ChangedFields []string   `json:"changed_fields"`
	FieldDiffs    FieldDiffs `json:"field_diffs"`
}

// NoDrift is the DriftInfo reported for a first observation: all
// similarities at 1.0 and nothing changed.
func NoDrift() DriftInfo {
	return DriftInfo{
		DriftScore:    0.0,
		ChangedFields: []string{},
		FieldDiffs: FieldDiffs{
			NameSimilarity:    1.0,
			AddressSimilarity: 1.0,
			PhoneMatch:        1.0,
		},
	}
}

// DriftResult is returned after recording a snapshot.
type DriftResult struct {
	HistoryCount   int       `json:"history_count"`
	LastSnapshotTS int64     `json:"last_snapshot_ts"`
	DriftInfo      DriftInfo `json:"drift_info"`
	LatestSnapshot Candidate `json:"latest_snapshot"`
}

// VerificationRecord is the persisted audit row for one verification run.
type VerificationRecord struct {
	ID         string              `json:"id"`
	Slug       string              `json:"slug"`
	Listed     Listed              `json:"listed"`
	Result     *VerificationResult `json:"result"`
	Confidence float64             `json:"confidence"`
	Flagged    bool                `json:"flagged"`
	CreatedAt  time.Time           `json:"created_at"`
}
