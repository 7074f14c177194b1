package engine

// join.go - identifier and title joins over the loaded tables

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/movierank/internal/movie"
	"github.com/leapstack-labs/movierank/pkg/adapter"
)

const (
	tableByID    = "joined_by_id"
	tableByTitle = "joined"
)

// JoinStats reports row counts of the join inputs and of each join step.
type JoinStats struct {
	LoadStats
	ByID    int64 `json:"joined_by_id"`
	ByTitle int64 `json:"joined_by_title"`
}

// Join runs both inner joins over the loaded tables.
// The identifier join keeps popularity order, then revenue order.
// The title join compares raw strings and keeps the previous order, then
// rating order. The source tables are left untouched.
func (e *Engine) Join(ctx context.Context) (*JoinStats, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	stats := &JoinStats{}

	if err := e.db.Exec(ctx, e.joinByIDSQL()); err != nil {
		return nil, fmt.Errorf("failed to join popularity and revenue: %w", err)
	}
	n, err := e.count(ctx, tableByID)
	if err != nil {
		return nil, err
	}
	stats.ByID = n

	if err := e.db.Exec(ctx, e.joinByTitleSQL()); err != nil {
		return nil, fmt.Errorf("failed to join ratings on title: %w", err)
	}
	n, err = e.count(ctx, tableByTitle)
	if err != nil {
		return nil, err
	}
	stats.ByTitle = n

	e.logger.Info("joined tables", "joined_by_id", stats.ByID, "joined_by_title", stats.ByTitle)
	return stats, nil
}

// Records returns the joined rows in join order.
func (e *Engine) Records(ctx context.Context) ([]movie.Record, error) {
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT tmdb_id, title, "year", rating, popularity, revenue FROM %s ORDER BY %s`,
		tableByTitle, rowColumn)

	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read joined rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []movie.Record
	for rows.Next() {
		var r movie.Record
		if err := rows.Scan(&r.TMDBID, &r.Title, &r.Year, &r.Rating, &r.Popularity, &r.Revenue); err != nil {
			return nil, fmt.Errorf("failed to scan joined row: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating joined rows: %w", err)
	}

	return records, nil
}

// Merge loads the inputs, joins them and returns the merged records.
func (e *Engine) Merge(ctx context.Context, in Inputs) ([]movie.Record, *JoinStats, error) {
	loaded, err := e.Load(ctx, in)
	if err != nil {
		return nil, nil, err
	}

	stats, err := e.Join(ctx)
	if err != nil {
		return nil, nil, err
	}
	stats.LoadStats = *loaded

	records, err := e.Records(ctx)
	if err != nil {
		return nil, nil, err
	}
	return records, stats, nil
}

func (e *Engine) joinByIDSQL() string {
	c := e.columns
	return fmt.Sprintf(`CREATE OR REPLACE TABLE %[1]s AS
SELECT
	row_number() OVER (ORDER BY p.%[2]s, r.%[2]s) AS %[2]s,
	TRY_CAST(p.%[5]s AS BIGINT) AS tmdb_id,
	CAST(p.%[6]s AS VARCHAR) AS title,
	TRY_CAST(p.%[7]s AS DOUBLE) AS popularity,
	TRY_CAST(r.%[8]s AS DOUBLE) AS revenue
FROM %[3]s p
JOIN %[4]s r ON TRY_CAST(p.%[5]s AS BIGINT) = TRY_CAST(r.%[5]s AS BIGINT)`,
		tableByID,
		rowColumn,
		TablePopularity,
		TableRevenue,
		adapter.QuoteIdent(c.ID),
		adapter.QuoteIdent(c.Title),
		adapter.QuoteIdent(c.Popularity),
		adapter.QuoteIdent(c.Revenue),
	)
}

func (e *Engine) joinByTitleSQL() string {
	c := e.columns
	return fmt.Sprintf(`CREATE OR REPLACE TABLE %[1]s AS
SELECT
	row_number() OVER (ORDER BY m.%[2]s, i.%[2]s) AS %[2]s,
	m.tmdb_id,
	m.title,
	TRY_CAST(TRY_CAST(i.%[5]s AS DOUBLE) AS BIGINT) AS "year",
	TRY_CAST(i.%[6]s AS DOUBLE) AS rating,
	m.popularity,
	m.revenue
FROM %[3]s m
JOIN %[4]s i ON m.title = CAST(i.%[7]s AS VARCHAR)`,
		tableByTitle,
		rowColumn,
		tableByID,
		TableRatings,
		adapter.QuoteIdent(c.Year),
		adapter.QuoteIdent(c.Rating),
		adapter.QuoteIdent(c.Title),
	)
}

// count returns the number of rows in table.
func (e *Engine) count(ctx context.Context, table string) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", adapter.QuoteIdent(table))
	if err := e.db.QueryRow(ctx, query, []any{&n}); err != nil {
		return 0, fmt.Errorf("failed to count %s rows: %w", table, err)
	}
	return n, nil
}
