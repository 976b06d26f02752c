package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/audience-sync/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteRoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	records := []model.RunRecord{
		{
			ID: "rec-1", RunID: "run-1", Brand: "ACME", Segment: model.SegmentAll,
			ListID: "100", Description: "ACME_ALL delta upload",
			RowsAttempted: 50, RowsConfirmed: 50, Success: true, CreatedAt: now.Add(-time.Minute),
		},
		{
			ID: "rec-2", RunID: "run-1", Brand: "ACME", Segment: model.SegmentTire,
			ListID: "111", Description: "ACME_TIRE delta upload",
			RowsAttempted: 20, RowsConfirmed: 0, Success: false, CreatedAt: now,
		},
		{
			ID: "rec-3", RunID: "run-2", Brand: "ZENITH", Segment: model.SegmentAll,
			ListID: "200", Description: "ZENITH_ALL full upload",
			RowsAttempted: 5, RowsConfirmed: 5, Success: true, CreatedAt: now.Add(time.Minute),
		},
	}
	require.NoError(t, s.InsertRunRecords(ctx, records))

	all, err := s.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, "rec-3", all[0].ID)
	assert.Equal(t, "rec-2", all[1].ID)
	assert.Equal(t, "rec-1", all[2].ID)
	assert.Equal(t, model.SegmentTire, all[1].Segment)
	assert.False(t, all[1].Success)

	byRun, err := s.ListRuns(ctx, RunFilter{RunID: "run-1"})
	require.NoError(t, err)
	assert.Len(t, byRun, 2)

	byBrand, err := s.ListRuns(ctx, RunFilter{Brand: "ZENITH"})
	require.NoError(t, err)
	require.Len(t, byBrand, 1)
	assert.Equal(t, "rec-3", byBrand[0].ID)

	limited, err := s.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "rec-3", limited[0].ID)
}

func TestSQLiteFetchCustomersUnsupported(t *testing.T) {
	s := newTestSQLiteStore(t)

	_, err := s.FetchCustomers(context.Background(), FetchOptions{Mode: model.ModeDelta})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres")
}
