package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/movierank/internal/testutil"
)

func openTestStore(t *testing.T, path string) *Store {
	t.Helper()
	s, err := Open(context.Background(), path, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func pc1(v float64) *float64 { return &v }

func sampleRun(id string, started time.Time) *Run {
	return &Run{
		ID:             id,
		StartedAt:      started,
		ElapsedMS:      42,
		Status:         RunStatusCompleted,
		PopularityPath: "pop.csv",
		RevenuePath:    "rev.csv",
		RatingsPath:    "imdb.csv",
		OutputPath:     "out.csv",
		PopularityRows: 8,
		RevenueRows:    8,
		RatingsRows:    8,
		JoinedByID:     7,
		JoinedByTitle:  7,
		FilteredRows:   5,
		RankedRows:     5,
		PC1Variance:    pc1(0.71),
		TopTitle:       "Delta",
		Warnings:       1,
	}
}

func TestOpenMigrates(t *testing.T) {
	s := openTestStore(t, ":memory:")

	version, err := s.MigrationVersion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".movierank", "history.db")
	s := openTestStore(t, path)

	assert.Equal(t, path, s.Path())
	assert.FileExists(t, path)
}

func TestRecordAndGetRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, ":memory:")
	started := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)

	want := sampleRun("3f1c2b9a-0000-4000-8000-000000000001", started)
	require.NoError(t, s.RecordRun(ctx, want))

	got, err := s.GetRun(ctx, want.ID)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	short, err := s.GetRun(ctx, "3f1c")
	require.NoError(t, err)
	assert.Equal(t, want.ID, short.ID, "id prefixes resolve")
}

func TestRecordFailedRun(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, ":memory:")

	run := &Run{ID: "failed-1", StartedAt: time.Now(), Status: RunStatusFailed, Error: "ratings file not found: x.csv"}
	require.NoError(t, s.RecordRun(ctx, run))

	got, err := s.GetRun(ctx, "failed-1")
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "ratings file not found: x.csv", got.Error)
	assert.Nil(t, got.PC1Variance)
	assert.Empty(t, got.TopTitle)
}

func TestRecordRunReplaces(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, ":memory:")
	run := sampleRun("r1", time.Now())

	require.NoError(t, s.RecordRun(ctx, run))
	run.RankedRows = 9
	require.NoError(t, s.RecordRun(ctx, run))

	runs, err := s.ListRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, int64(9), runs[0].RankedRows)
}

func TestGetRunErrors(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, ":memory:")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordRun(ctx, sampleRun("abc-1", base)))
	require.NoError(t, s.RecordRun(ctx, sampleRun("abc-2", base.Add(time.Minute))))

	_, err := s.GetRun(ctx, "zzz")
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = s.GetRun(ctx, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t, filepath.Join(t.TempDir(), "history.db"))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, s.RecordRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour))))
	}

	runs, err := s.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "c", runs[0].ID)
	assert.Equal(t, "b", runs[1].ID)

	empty := openTestStore(t, ":memory:")
	none, err := empty.ListRuns(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRecordRunDatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec("INSERT OR REPLACE INTO runs").WillReturnError(errors.New("disk I/O error"))

	s := newStore(db, "mock", testutil.NewTestLogger(t))
	err = s.RecordRun(context.Background(), sampleRun("r1", time.Now()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record run")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRunsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("SELECT .* FROM runs").WillReturnError(errors.New("no such table: runs"))

	s := newStore(db, "mock", nil)
	_, err = s.ListRuns(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list runs")
}
