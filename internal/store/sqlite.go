package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/provider-verify/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS entities (
	slug       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS snapshots (
	id        INTEGER PRIMARY KEY AUTOINCREMENT,
	slug      TEXT NOT NULL REFERENCES entities(slug),
	ts        INTEGER NOT NULL,
	candidate TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS source_weights (
	source     TEXT PRIMARY KEY,
	weight     REAL NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS verifications (
	id         TEXT PRIMARY KEY,
	slug       TEXT NOT NULL,
	listed     TEXT NOT NULL,
	result     TEXT NOT NULL,
	confidence REAL NOT NULL,
	flagged    INTEGER NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_slug_ts ON snapshots(slug, ts);
CREATE INDEX IF NOT EXISTS idx_verifications_slug ON verifications(slug, created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetHistory(ctx context.Context, slug string) (*model.EntityHistory, error) {
	var name string
	err := s.db.QueryRowContext(ctx, `SELECT name FROM entities WHERE slug = ?`, slug).Scan(&name)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get entity %s", slug)
	}

	snaps, err := s.querySnapshots(ctx, s.db, slug)
	if err != nil {
		return nil, err
	}

	return &model.EntityHistory{Slug: slug, Name: name, Snapshots: snaps}, nil
}

func (s *SQLiteStore) AppendSnapshot(ctx context.Context, slug, name string, snap model.Snapshot) (*model.EntityHistory, error) {
	candJSON, err := json.Marshal(snap.Candidate)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal candidate")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: begin append")
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO entities (slug, name) VALUES (?, ?) ON CONFLICT(slug) DO NOTHING`,
		slug, name,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert entity %s", slug)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snapshots (slug, ts, candidate) VALUES (?, ?, ?)`,
		slug, snap.TS, string(candJSON),
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert snapshot %s", slug)
	}

	snaps, err := s.querySnapshots(ctx, tx, slug)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, eris.Wrap(err, "sqlite: commit append")
	}

	return &model.EntityHistory{Slug: slug, Name: name, Snapshots: snaps}, nil
}

// querier covers both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func (s *SQLiteStore) querySnapshots(ctx context.Context, q querier, slug string) ([]model.Snapshot, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT ts, candidate FROM snapshots WHERE slug = ? ORDER BY ts ASC, id ASC`, slug)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query snapshots %s", slug)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var candJSON string
		if err := rows.Scan(&snap.TS, &candJSON); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		if err := json.Unmarshal([]byte(candJSON), &snap.Candidate); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal candidate")
		}
		snaps = append(snaps, snap)
	}
	return snaps, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}

func (s *SQLiteStore) ListHistories(ctx context.Context) ([]model.EntityHistory, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug, name FROM entities ORDER BY slug`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list entities")
	}
	defer rows.Close()

	var histories []model.EntityHistory
	for rows.Next() {
		var h model.EntityHistory
		if err := rows.Scan(&h.Slug, &h.Name); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan entity")
		}
		histories = append(histories, h)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate entities")
	}

	for i := range histories {
		snaps, err := s.querySnapshots(ctx, s.db, histories[i].Slug)
		if err != nil {
			return nil, err
		}
		histories[i].Snapshots = snaps
	}
	return histories, nil
}

func (s *SQLiteStore) GetSourceWeight(ctx context.Context, source string) (float64, bool, error) {
	var w float64
	err := s.db.QueryRowContext(ctx, `SELECT weight FROM source_weights WHERE source = ?`, source).Scan(&w)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrapf(err, "sqlite: get source weight %s", source)
	}
	return w, true, nil
}

func (s *SQLiteStore) SetSourceWeight(ctx context.Context, source string, weight float64) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO source_weights (source, weight, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(source) DO UPDATE SET weight = excluded.weight, updated_at = excluded.updated_at`,
		source, weight, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: set source weight %s", source)
}

func (s *SQLiteStore) ListSourceWeights(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, weight FROM source_weights`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list source weights")
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var source string
		var w float64
		if err := rows.Scan(&source, &w); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source weight")
		}
		weights[source] = w
	}
	return weights, eris.Wrap(rows.Err(), "sqlite: iterate source weights")
}

func (s *SQLiteStore) SaveVerification(ctx context.Context, rec *model.VerificationRecord) error {
	listedJSON, err := json.Marshal(rec.Listed)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal listed")
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO verifications (id, slug, listed, result, confidence, flagged, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Slug, string(listedJSON), string(resultJSON),
		rec.Confidence, boolToInt(rec.Flagged), rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: insert verification %s", rec.ID)
}

func (s *SQLiteStore) ListVerifications(ctx context.Context, slug string, limit int) ([]model.VerificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, slug, listed, result, confidence, flagged, created_at
		 FROM verifications WHERE (? = '' OR slug = ?)
		 ORDER BY created_at DESC LIMIT ?`,
		slug, slug, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list verifications %s", slug)
	}
	defer rows.Close()

	var recs []model.VerificationRecord
	for rows.Next() {
		rec, err := scanVerification(rows)
		if err != nil {
			return nil, err
		}
		recs = append(recs, *rec)
	}
	return recs, eris.Wrap(rows.Err(), "sqlite: iterate verifications")
}

func scanVerification(rows *sql.Rows) (*model.VerificationRecord, error) {
	var rec model.VerificationRecord
	var listedJSON, resultJSON string
	var flagged int
	if err := rows.Scan(&rec.ID, &rec.Slug, &listedJSON, &resultJSON, &rec.Confidence, &flagged, &rec.CreatedAt); err != nil {
		return nil, eris.Wrap(err, "sqlite: scan verification")
	}
	rec.Flagged = flagged != 0
	if err := json.Unmarshal([]byte(listedJSON), &rec.Listed); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal listed")
	}
	if err := json.Unmarshal([]byte(resultJSON), &rec.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
