// Package store persists enrichment-run snapshots so past runs can be
// listed and compared.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/gmgolfo/sales-analyst/internal/config"
	"github.com/gmgolfo/sales-analyst/internal/model"
	"github.com/gmgolfo/sales-analyst/internal/report"
)

// Snapshot is one persisted enrichment run: the reference time the run
// used, its aggregate summary, and the full enriched table.
type Snapshot struct {
	ID        string               `json:"id"`
	RunAt     time.Time            `json:"run_at"`
	LeadCount int                  `json:"lead_count"`
	Summary   report.Summary       `json:"summary"`
	Leads     []model.EnrichedLead `json:"leads"`
	CreatedAt time.Time            `json:"created_at"`
}

// SnapshotMeta is the listing view of a snapshot, without the lead
// payload.
type SnapshotMeta struct {
	ID        string    `json:"id"`
	RunAt     time.Time `json:"run_at"`
	LeadCount int       `json:"lead_count"`
	CreatedAt time.Time `json:"created_at"`
}

// SnapshotFilter specifies criteria for listing snapshots.
type SnapshotFilter struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Store defines snapshot persistence.
type Store interface {
	SaveSnapshot(ctx context.Context, snap *Snapshot) (string, error)
	GetSnapshot(ctx context.Context, id string) (*Snapshot, error)
	ListSnapshots(ctx context.Context, filter SnapshotFilter) ([]SnapshotMeta, error)
	Migrate(ctx context.Context) error
	Close() error
}

// New opens the store backend selected by config.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
