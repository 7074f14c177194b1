package engine

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/leapstack-labs/movierank/internal/movie"
	"github.com/leapstack-labs/movierank/internal/testutil"
	"github.com/leapstack-labs/movierank/pkg/adapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/movierank/pkg/adapters/duckdb"
)

// mockAdapter routes every call through sqlmock.
type mockAdapter struct {
	adapter.BaseSQLAdapter
}

func (m *mockAdapter) Connect(context.Context, adapter.Config) error { return nil }

func (m *mockAdapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return m.DescribeTable(ctx, table)
}

func (m *mockAdapter) LoadCSV(ctx context.Context, table, _ string, _ adapter.CSVOptions) error {
	return m.Exec(ctx, "LOAD "+table)
}

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	e := New(Config{Logger: testutil.NewTestLogger(t)})
	e.db = &mockAdapter{BaseSQLAdapter: adapter.BaseSQLAdapter{DB: db}}
	e.dbConnected = true
	return e, mock
}

func newDuckEngine(t *testing.T) *Engine {
	t.Helper()
	e := New(Config{
		AdapterConfig: adapter.Config{Path: ":memory:"},
		Logger:        testutil.NewTestLogger(t),
	})
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestNew_Defaults(t *testing.T) {
	e := New(Config{})
	assert.Equal(t, "duckdb", e.dbConfig.Type)
	assert.Equal(t, movie.DefaultColumns(), e.Columns())
	assert.False(t, e.dbConnected)
	assert.NoError(t, e.Close())
}

func TestEnsureDBConnected_UnknownAdapter(t *testing.T) {
	e := New(Config{AdapterConfig: adapter.Config{Type: "oracle"}})
	err := e.ensureDBConnected(context.Background())
	require.Error(t, err)

	var unknown *adapter.UnknownAdapterError
	assert.ErrorAs(t, err, &unknown)
}

func TestJoin_Mock(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      *JoinStats
		errMsg    string
	}{
		{
			name: "counts both steps",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE OR REPLACE TABLE joined_by_id").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "joined_by_id"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
				mock.ExpectExec("CREATE OR REPLACE TABLE joined").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "joined"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
			},
			want: &JoinStats{ByID: 5, ByTitle: 2},
		},
		{
			name: "identifier join fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE OR REPLACE TABLE joined_by_id").WillReturnError(assert.AnError)
			},
			errMsg: "failed to join popularity and revenue",
		},
		{
			name: "title join fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("CREATE OR REPLACE TABLE joined_by_id").WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "joined_by_id"`)).
					WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))
				mock.ExpectExec("CREATE OR REPLACE TABLE joined").WillReturnError(assert.AnError)
			},
			errMsg: "failed to join ratings on title",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, mock := newMockEngine(t)
			tt.setupMock(mock)

			stats, err := e.Join(context.Background())
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, stats)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRecords_Mock(t *testing.T) {
	e, mock := newMockEngine(t)

	mock.ExpectQuery(`SELECT tmdb_id, title, "year", rating, popularity, revenue FROM joined ORDER BY _row`).
		WillReturnRows(sqlmock.NewRows([]string{"tmdb_id", "title", "year", "rating", "popularity", "revenue"}).
			AddRow(int64(7), "Alpha", int64(2001), 7.5, 12.0, 1000.0).
			AddRow(int64(8), "Beta", nil, nil, 3.0, nil))

	records, err := e.Records(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(7), records[0].TMDBID)
	assert.Equal(t, "Alpha", records[0].Title)
	assert.Equal(t, int64(2001), records[0].Year.V)
	assert.True(t, records[0].Rating.Valid)
	assert.InDelta(t, 1000.0, records[0].Revenue.V, 1e-9)

	assert.False(t, records[1].Year.Valid)
	assert.False(t, records[1].Rating.Valid)
	assert.False(t, records[1].Revenue.Valid)
	assert.True(t, records[1].Popularity.Valid)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_MissingColumn_Mock(t *testing.T) {
	e, mock := newMockEngine(t)
	dir := t.TempDir()
	in := Inputs{
		Popularity: writeFile(t, dir, "p.csv", "x"),
		Revenue:    writeFile(t, dir, "r.csv", "x"),
		Ratings:    writeFile(t, dir, "i.csv", "x"),
	}

	mock.ExpectExec("LOAD popularity").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("FROM information_schema.columns").
		WithArgs("main", "popularity").
		WillReturnRows(sqlmock.NewRows([]string{"column_name", "data_type", "is_nullable", "ordinal_position"}).
			AddRow("_row", "BIGINT", "YES", 1).
			AddRow("tmdb_id", "BIGINT", "YES", 2).
			AddRow("title", "VARCHAR", "YES", 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "main"."popularity"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	_, err := e.Load(context.Background(), in)
	require.Error(t, err)

	var missing *MissingColumnError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, "popularity", missing.Table)
	assert.Equal(t, "popularity", missing.Column)
	assert.Equal(t, []string{"tmdb_id", "title"}, missing.Available)
	assert.ErrorIs(t, err, ErrMissingColumn)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFrame_Records(t *testing.T) {
	f := &Frame{
		Columns: []string{"a", "b"},
		Rows: [][]sql.NullString{
			{{String: "1", Valid: true}, {}},
		},
	}
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, [][]string{{"1", ""}}, f.Records())
}
