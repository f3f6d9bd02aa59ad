package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/gmgolfo/sales-analyst/internal/model"
	"github.com/gmgolfo/sales-analyst/internal/report"
)

// Pool is the subset of pgxpool.Pool the store uses; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	run_at     TIMESTAMPTZ NOT NULL,
	lead_count INTEGER NOT NULL,
	summary    JSONB NOT NULL,
	leads      JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_snapshots_run_at ON snapshots(run_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, snap *Snapshot) (string, error) {
	id := snap.ID
	if id == "" {
		id = uuid.NewString()
	}
	summaryJSON, err := json.Marshal(snap.Summary)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal summary")
	}
	leadsJSON, err := json.Marshal(snap.Leads)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal leads")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO snapshots (id, run_at, lead_count, summary, leads, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		id, snap.RunAt.UTC(), len(snap.Leads), summaryJSON, leadsJSON, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert snapshot")
	}
	return id, nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, run_at, lead_count, summary, leads, created_at FROM snapshots WHERE id = $1`, id)

	var snap Snapshot
	var summaryJSON, leadsJSON []byte
	if err := row.Scan(&snap.ID, &snap.RunAt, &snap.LeadCount, &summaryJSON, &leadsJSON, &snap.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("postgres: snapshot %s not found", id)
		}
		return nil, eris.Wrap(err, "postgres: get snapshot")
	}

	snap.Summary = report.Summary{}
	if err := json.Unmarshal(summaryJSON, &snap.Summary); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal summary")
	}
	snap.Leads = []model.EnrichedLead{}
	if err := json.Unmarshal(leadsJSON, &snap.Leads); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal leads")
	}
	return &snap, nil
}

func (s *PostgresStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]SnapshotMeta, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, run_at, lead_count, created_at FROM snapshots ORDER BY run_at DESC LIMIT $1 OFFSET $2`,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var metas []SnapshotMeta
	for rows.Next() {
		var m SnapshotMeta
		if err := rows.Scan(&m.ID, &m.RunAt, &m.LeadCount, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		metas = append(metas, m)
	}
	return metas, eris.Wrap(rows.Err(), "postgres: iterate snapshots")
}
