package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmgolfo/sales-analyst/internal/model"
	"github.com/gmgolfo/sales-analyst/internal/report"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func testSnapshot() *Snapshot {
	price := int64(30000)
	leads := []model.EnrichedLead{
		{
			ID: 1, Name: "Grúa 50T", Price: &price,
			ResponsibleName: "Ana", PipelineName: "Ventas",
			StageName: "Cotizacion Enviada", State: model.StateInProgress,
			LossReasonName: model.UnspecifiedReason,
			Tags:           []string{"renta"},
			Health:         model.HealthHealthy,
		},
	}
	return &Snapshot{
		RunAt:   time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		Summary: report.Summarize(leads),
		Leads:   leads,
	}
}

func TestSQLiteSnapshotRoundTrip(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	id, err := s.SaveSnapshot(ctx, testSnapshot())
	require.NoError(t, err)
	require.NotEmpty(t, id)

	got, err := s.GetSnapshot(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, got.ID)
	assert.Equal(t, 1, got.LeadCount)
	require.Len(t, got.Leads, 1)
	assert.Equal(t, "Grúa 50T", got.Leads[0].Name)
	assert.Equal(t, model.StateInProgress, got.Leads[0].State)
	assert.Equal(t, []string{"renta"}, got.Leads[0].Tags)
	assert.Equal(t, 1, got.Summary.TotalLeads)
	assert.True(t, got.RunAt.Equal(time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)))
}

func TestSQLiteGetSnapshotNotFound(t *testing.T) {
	s := newTestSQLite(t)

	_, err := s.GetSnapshot(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLiteListSnapshots(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	first := testSnapshot()
	second := testSnapshot()
	second.RunAt = first.RunAt.Add(24 * time.Hour)

	_, err := s.SaveSnapshot(ctx, first)
	require.NoError(t, err)
	secondID, err := s.SaveSnapshot(ctx, second)
	require.NoError(t, err)

	metas, err := s.ListSnapshots(ctx, SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, metas, 2)
	// Newest run first.
	assert.Equal(t, secondID, metas[0].ID)

	limited, err := s.ListSnapshots(ctx, SnapshotFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteListEmpty(t *testing.T) {
	s := newTestSQLite(t)

	metas, err := s.ListSnapshots(context.Background(), SnapshotFilter{})
	require.NoError(t, err)
	assert.Empty(t, metas)
}
