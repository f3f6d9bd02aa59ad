package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gmgolfo/sales-analyst/internal/model"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &PostgresStore{pool: mock}, mock
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS snapshots").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), 1, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.SaveSnapshot(context.Background(), testSnapshot())
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSaveSnapshotKeepsID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	snap := testSnapshot()
	snap.ID = "snap-1"

	mock.ExpectExec("INSERT INTO snapshots").
		WithArgs("snap-1", pgxmock.AnyArg(), 1, pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.SaveSnapshot(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, "snap-1", id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSnapshot(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	snap := testSnapshot()
	summaryJSON, err := json.Marshal(snap.Summary)
	require.NoError(t, err)
	leadsJSON, err := json.Marshal(snap.Leads)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, run_at, lead_count, summary, leads, created_at FROM snapshots").
		WithArgs("snap-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "run_at", "lead_count", "summary", "leads", "created_at"}).
			AddRow("snap-1", snap.RunAt, 1, summaryJSON, leadsJSON, now))

	got, err := s.GetSnapshot(context.Background(), "snap-1")
	require.NoError(t, err)
	assert.Equal(t, "snap-1", got.ID)
	assert.Equal(t, 1, got.LeadCount)
	require.Len(t, got.Leads, 1)
	assert.Equal(t, model.StateInProgress, got.Leads[0].State)
	assert.Equal(t, 1, got.Summary.TotalLeads)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetSnapshotNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery("SELECT id, run_at, lead_count, summary, leads, created_at FROM snapshots").
		WithArgs("missing").
		WillReturnRows(pgxmock.NewRows([]string{"id", "run_at", "lead_count", "summary", "leads", "created_at"}))

	_, err := s.GetSnapshot(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListSnapshots(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, run_at, lead_count, created_at FROM snapshots").
		WithArgs(50, 0).
		WillReturnRows(pgxmock.NewRows([]string{"id", "run_at", "lead_count", "created_at"}).
			AddRow("snap-2", now, 4, now).
			AddRow("snap-1", now.Add(-24*time.Hour), 3, now))

	metas, err := s.ListSnapshots(context.Background(), SnapshotFilter{})
	require.NoError(t, err)
	require.Len(t, metas, 2)
	assert.Equal(t, "snap-2", metas[0].ID)
	assert.Equal(t, 3, metas[1].LeadCount)
	require.NoError(t, mock.ExpectationsWereMet())
}
