package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/gmgolfo/sales-analyst/internal/model"
	"github.com/gmgolfo/sales-analyst/internal/report"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS snapshots (
	id         TEXT PRIMARY KEY,
	run_at     DATETIME NOT NULL,
	lead_count INTEGER NOT NULL,
	summary    TEXT NOT NULL,
	leads      TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_snapshots_run_at ON snapshots(run_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, snap *Snapshot) (string, error) {
	id := snap.ID
	if id == "" {
		id = uuid.NewString()
	}
	summaryJSON, err := json.Marshal(snap.Summary)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal summary")
	}
	leadsJSON, err := json.Marshal(snap.Leads)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal leads")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, run_at, lead_count, summary, leads, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, snap.RunAt.UTC(), len(snap.Leads), string(summaryJSON), string(leadsJSON), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert snapshot")
	}
	return id, nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, run_at, lead_count, summary, leads, created_at FROM snapshots WHERE id = ?`, id)

	var snap Snapshot
	var summaryJSON, leadsJSON string
	if err := row.Scan(&snap.ID, &snap.RunAt, &snap.LeadCount, &summaryJSON, &leadsJSON, &snap.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, eris.Errorf("sqlite: snapshot %s not found", id)
		}
		return nil, eris.Wrap(err, "sqlite: get snapshot")
	}

	snap.Summary = report.Summary{}
	if err := json.Unmarshal([]byte(summaryJSON), &snap.Summary); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal summary")
	}
	snap.Leads = []model.EnrichedLead{}
	if err := json.Unmarshal([]byte(leadsJSON), &snap.Leads); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal leads")
	}
	return &snap, nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]SnapshotMeta, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_at, lead_count, created_at FROM snapshots ORDER BY run_at DESC LIMIT ? OFFSET ?`,
		limit, filter.Offset,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var metas []SnapshotMeta
	for rows.Next() {
		var m SnapshotMeta
		if err := rows.Scan(&m.ID, &m.RunAt, &m.LeadCount, &m.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		metas = append(metas, m)
	}
	return metas, eris.Wrap(rows.Err(), "sqlite: iterate snapshots")
}
