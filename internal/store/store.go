// Package store defines the persistence interface behind the drift
// tracker, the credibility store, and the verification audit trail,
// with SQLite, Postgres, and in-memory implementations.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/provider-verify/internal/model"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = eris.New("store: not found")

// Store is the persistence interface for the verification engine.
// Append operations are transactional per entity slug, so last-writer
// races on the old whole-document model cannot drop snapshots.
type Store interface {
	// Entity histories. GetHistory returns (nil, nil) for an unknown
	// slug; AppendSnapshot creates the history on first use and returns
	// the updated history including the new snapshot.
	GetHistory(ctx context.Context, slug string) (*model.EntityHistory, error)
	AppendSnapshot(ctx context.Context, slug, name string, snap model.Snapshot) (*model.EntityHistory, error)
	ListHistories(ctx context.Context) ([]model.EntityHistory, error)

	// Source credibility weights.
	GetSourceWeight(ctx context.Context, source string) (float64, bool, error)
	SetSourceWeight(ctx context.Context, source string, weight float64) error
	ListSourceWeights(ctx context.Context) (map[string]float64, error)

	// Verification run audit trail.
	SaveVerification(ctx context.Context, rec *model.VerificationRecord) error
	ListVerifications(ctx context.Context, slug string, limit int) ([]model.VerificationRecord, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}
