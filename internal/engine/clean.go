package engine

// clean.go - TMDb export cleaning and identifier extraction

import (
	"context"
	"fmt"

	"github.com/leapstack-labs/movierank/pkg/adapter"
)

const tableRaw = "raw"

// CleanStats reports the row counts before and after cleaning.
type CleanStats struct {
	RowsIn  int64 `json:"rows_in"`
	RowsOut int64 `json:"rows_out"`
}

// CleanTMDB reads a raw TMDb export, drops rows without an identifier and
// keeps the first row of every identifier. File order and all columns are
// preserved.
func (e *Engine) CleanTMDB(ctx context.Context, path string) (*Frame, *CleanStats, error) {
	if err := checkFile("tmdb", path); err != nil {
		return nil, nil, err
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, nil, err
	}

	meta, err := e.loadTable(ctx, tableRaw, path, adapter.CSVOptions{RowNumberColumn: rowColumn}, []string{e.columns.ID})
	if err != nil {
		return nil, nil, err
	}

	id := adapter.QuoteIdent(e.columns.ID)
	tail := fmt.Sprintf("WHERE %[1]s IS NOT NULL QUALIFY row_number() OVER (PARTITION BY %[1]s ORDER BY %[2]s) = 1 ORDER BY %[2]s",
		id, rowColumn)

	frame, err := e.selectFrame(ctx, tableRaw, visibleColumns(meta), tail)
	if err != nil {
		return nil, nil, err
	}

	stats := &CleanStats{RowsIn: meta.RowCount, RowsOut: int64(frame.Len())}
	e.logger.Info("cleaned tmdb export", "path", path, "rows_in", stats.RowsIn, "rows_out", stats.RowsOut)
	return frame, stats, nil
}

// ReadIDs returns the distinct non-null identifiers of a CSV file in file order.
func (e *Engine) ReadIDs(ctx context.Context, path string) ([]int64, error) {
	if err := checkFile("ids", path); err != nil {
		return nil, err
	}
	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	if _, err := e.loadTable(ctx, tableRaw, path, adapter.CSVOptions{RowNumberColumn: rowColumn}, []string{e.columns.ID}); err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT id FROM (
	SELECT TRY_CAST(TRY_CAST(%[1]s AS DOUBLE) AS BIGINT) AS id, %[2]s FROM %[3]s
) WHERE id IS NOT NULL
QUALIFY row_number() OVER (PARTITION BY id ORDER BY %[2]s) = 1
ORDER BY %[2]s`, adapter.QuoteIdent(e.columns.ID), rowColumn, tableRaw)

	rows, err := e.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to read identifiers: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan identifier: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating identifiers: %w", err)
	}

	return ids, nil
}
