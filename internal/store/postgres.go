package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/provider-verify/internal/db"
	"github.com/sells-group/provider-verify/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot paths of the verification engine.
var preparedStatements = map[string]string{
	"get_entity":          `SELECT name FROM entities WHERE slug = $1`,
	"insert_entity":       `INSERT INTO entities (slug, name) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING`,
	"insert_snapshot":     `INSERT INTO snapshots (slug, ts, candidate) VALUES ($1, $2, $3)`,
	"get_snapshots":       `SELECT ts, candidate FROM snapshots WHERE slug = $1 ORDER BY ts ASC, id ASC`,
	"get_source_weight":   `SELECT weight FROM source_weights WHERE source = $1`,
	"set_source_weight":   `INSERT INTO source_weights (source, weight, updated_at) VALUES ($1, $2, $3) ON CONFLICT (source) DO UPDATE SET weight = EXCLUDED.weight, updated_at = EXCLUDED.updated_at`,
	"insert_verification": `INSERT INTO verifications (id, slug, listed, result, confidence, flagged, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS entities (
	slug       TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS snapshots (
	id        BIGSERIAL PRIMARY KEY,
	slug      TEXT NOT NULL REFERENCES entities(slug),
	ts        BIGINT NOT NULL,
	candidate JSONB NOT NULL
);

CREATE TABLE IF NOT EXISTS source_weights (
	source     TEXT PRIMARY KEY,
	weight     DOUBLE PRECISION NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS verifications (
	id         TEXT PRIMARY KEY,
	slug       TEXT NOT NULL,
	listed     JSONB NOT NULL,
	result     JSONB NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	flagged    BOOLEAN NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_snapshots_slug_ts ON snapshots(slug, ts);
CREATE INDEX IF NOT EXISTS idx_verifications_slug ON verifications(slug, created_at DESC);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) GetHistory(ctx context.Context, slug string) (*model.EntityHistory, error) {
	var name string
	err := s.pool.QueryRow(ctx, `SELECT name FROM entities WHERE slug = $1`, slug).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get entity %s", slug)
	}

	snaps, err := s.querySnapshots(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &model.EntityHistory{Slug: slug, Name: name, Snapshots: snaps}, nil
}

func (s *PostgresStore) AppendSnapshot(ctx context.Context, slug, name string, snap model.Snapshot) (*model.EntityHistory, error) {
	candJSON, err := json.Marshal(snap.Candidate)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal candidate")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: begin append")
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`INSERT INTO entities (slug, name) VALUES ($1, $2) ON CONFLICT (slug) DO NOTHING`,
		slug, name,
	); err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert entity %s", slug)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO snapshots (slug, ts, candidate) VALUES ($1, $2, $3)`,
		slug, snap.TS, candJSON,
	); err != nil {
		return nil, eris.Wrapf(err, "postgres: insert snapshot %s", slug)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, eris.Wrap(err, "postgres: commit append")
	}

	snaps, err := s.querySnapshots(ctx, slug)
	if err != nil {
		return nil, err
	}
	return &model.EntityHistory{Slug: slug, Name: name, Snapshots: snaps}, nil
}

func (s *PostgresStore) querySnapshots(ctx context.Context, slug string) ([]model.Snapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT ts, candidate FROM snapshots WHERE slug = $1 ORDER BY ts ASC, id ASC`, slug)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query snapshots %s", slug)
	}
	defer rows.Close()

	var snaps []model.Snapshot
	for rows.Next() {
		var snap model.Snapshot
		var candJSON []byte
		if err := rows.Scan(&snap.TS, &candJSON); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		if err := json.Unmarshal(candJSON, &snap.Candidate); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal candidate")
		}
		snaps = append(snaps, snap)
	}
	return snaps, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}

func (s *PostgresStore) ListHistories(ctx context.Context) ([]model.EntityHistory, error) {
	rows, err := s.pool.Query(ctx, `SELECT slug, name FROM entities ORDER BY slug`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list entities")
	}
	defer rows.Close()

	var histories []model.EntityHistory
	for rows.Next() {
		var h model.EntityHistory
		if err := rows.Scan(&h.Slug, &h.Name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan entity")
		}
		histories = append(histories, h)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate entities")
	}

	for i := range histories {
		snaps, err := s.querySnapshots(ctx, histories[i].Slug)
		if err != nil {
			return nil, err
		}
		histories[i].Snapshots = snaps
	}
	return histories, nil
}

func (s *PostgresStore) GetSourceWeight(ctx context.Context, source string) (float64, bool, error) {
	var w float64
	err := s.pool.QueryRow(ctx, `SELECT weight FROM source_weights WHERE source = $1`, source).Scan(&w)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, eris.Wrapf(err, "postgres: get source weight %s", source)
	}
	return w, true, nil
}

func (s *PostgresStore) SetSourceWeight(ctx context.Context, source string, weight float64) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO source_weights (source, weight, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (source) DO UPDATE SET weight = EXCLUDED.weight, updated_at = EXCLUDED.updated_at`,
		source, weight, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: set source weight %s", source)
}

func (s *PostgresStore) ListSourceWeights(ctx context.Context) (map[string]float64, error) {
	rows, err := s.pool.Query(ctx, `SELECT source, weight FROM source_weights`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list source weights")
	}
	defer rows.Close()

	weights := make(map[string]float64)
	for rows.Next() {
		var source string
		var w float64
		if err := rows.Scan(&source, &w); err != nil {
			return nil, eris.Wrap(err, "postgres: scan source weight")
		}
		weights[source] = w
	}
	return weights, eris.Wrap(rows.Err(), "postgres: iterate source weights")
}

func (s *PostgresStore) SaveVerification(ctx context.Context, rec *model.VerificationRecord) error {
	listedJSON, err := json.Marshal(rec.Listed)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal listed")
	}
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO verifications (id, slug, listed, result, confidence, flagged, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Slug, listedJSON, resultJSON, rec.Confidence, rec.Flagged, rec.CreatedAt.UTC(),
	)
	return eris.Wrapf(err, "postgres: insert verification %s", rec.ID)
}

func (s *PostgresStore) ListVerifications(ctx context.Context, slug string, limit int) ([]model.VerificationRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, slug, listed, result, confidence, flagged, created_at
		 FROM verifications WHERE ($1 = '' OR slug = $1)
		 ORDER BY created_at DESC LIMIT $2`,
		slug, limit,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list verifications %s", slug)
	}
	defer rows.Close()

	var recs []model.VerificationRecord
	for rows.Next() {
		var rec model.VerificationRecord
		var listedJSON, resultJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Slug, &listedJSON, &resultJSON, &rec.Confidence, &rec.Flagged, &rec.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan verification")
		}
		if err := json.Unmarshal(listedJSON, &rec.Listed); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal listed")
		}
		if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		recs = append(recs, rec)
	}
	return recs, eris.Wrap(rows.Err(), "postgres: iterate verifications")
}
