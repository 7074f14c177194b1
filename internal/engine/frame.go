package engine

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/leapstack-labs/movierank/pkg/adapter"
)

// Frame is a materialized query result with every cell rendered as text.
// A null cell has Valid set to false.
type Frame struct {
	Columns []string
	Rows    [][]sql.NullString
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	return len(f.Rows)
}

// Records renders the rows as strings, nulls becoming empty cells.
func (f *Frame) Records() [][]string {
	out := make([][]string, len(f.Rows))
	for i, row := range f.Rows {
		rec := make([]string, len(row))
		for j, cell := range row {
			if cell.Valid {
				rec[j] = cell.String
			}
		}
		out[i] = rec
	}
	return out
}

// selectFrame reads columns from table as text, filtered and ordered by the
// given SQL fragments.
func (e *Engine) selectFrame(ctx context.Context, table string, columns []string, tail string) (*Frame, error) {
	exprs := make([]string, len(columns))
	for i, col := range columns {
		q := adapter.QuoteIdent(col)
		exprs[i] = fmt.Sprintf("CAST(%s AS VARCHAR) AS %s", q, q)
	}

	query := fmt.Sprintf("SELECT %s FROM %s %s", strings.Join(exprs, ", "), adapter.QuoteIdent(table), tail)

	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", table, err)
	}
	defer func() { _ = rows.Close() }()

	frame := &Frame{Columns: append([]string(nil), columns...)}
	for rows.Next() {
		row := make([]sql.NullString, len(columns))
		dest := make([]any, len(columns))
		for i := range row {
			dest[i] = &row[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", table, err)
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", table, err)
	}

	return frame, nil
}
