package engine

// load.go - source file ingestion and column validation

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/leapstack-labs/movierank/pkg/adapter"
)

// Table names of the loaded sources.
const (
	TablePopularity = "popularity"
	TableRevenue    = "revenue"
	TableRatings    = "ratings"

	// rowColumn carries the 1-based file order of every loaded row.
	rowColumn = "_row"
)

// Inputs holds the paths of the three source tables.
type Inputs struct {
	Popularity string
	Revenue    string
	Ratings    string
}

// LoadStats reports the row count of every loaded table.
type LoadStats struct {
	Popularity int64 `json:"popularity"`
	Revenue    int64 `json:"revenue"`
	Ratings    int64 `json:"ratings"`
}

// Load reads the three source files and validates their required columns.
// Every file is checked for existence before anything is loaded.
func (e *Engine) Load(ctx context.Context, in Inputs) (*LoadStats, error) {
	sources := []struct {
		table    string
		path     string
		required []string
	}{
		{TablePopularity, in.Popularity, []string{e.columns.ID, e.columns.Title, e.columns.Popularity}},
		{TableRevenue, in.Revenue, []string{e.columns.ID, e.columns.Revenue}},
		{TableRatings, in.Ratings, []string{e.columns.Title, e.columns.Year, e.columns.Rating}},
	}

	for _, src := range sources {
		if err := checkFile(src.table, src.path); err != nil {
			return nil, err
		}
	}

	if err := e.ensureDBConnected(ctx); err != nil {
		return nil, err
	}

	counts := make([]int64, len(sources))
	for i, src := range sources {
		meta, err := e.loadTable(ctx, src.table, src.path, adapter.CSVOptions{RowNumberColumn: rowColumn}, src.required)
		if err != nil {
			return nil, err
		}
		counts[i] = meta.RowCount
	}

	stats := &LoadStats{Popularity: counts[0], Revenue: counts[1], Ratings: counts[2]}

	e.logger.Info("loaded source tables",
		"popularity_rows", stats.Popularity,
		"revenue_rows", stats.Revenue,
		"ratings_rows", stats.Ratings)

	return stats, nil
}

// loadTable loads one file and checks that every required column exists.
func (e *Engine) loadTable(ctx context.Context, table, path string, opts adapter.CSVOptions, required []string) (*adapter.Metadata, error) {
	e.logger.Debug("loading table", "table", table, "path", path)

	if err := e.db.LoadCSV(ctx, table, path, opts); err != nil {
		return nil, fmt.Errorf("failed to load %s table: %w", table, err)
	}

	meta, err := e.db.GetTableMetadata(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect %s table: %w", table, err)
	}

	for _, col := range required {
		if !meta.HasColumn(col) {
			return nil, &MissingColumnError{Table: table, Column: col, Available: visibleColumns(meta)}
		}
	}

	return meta, nil
}

// checkFile verifies that path names an existing regular file.
func checkFile(table, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &MissingFileError{Table: table, Path: path}
		}
		return fmt.Errorf("failed to stat %s file %s: %w", table, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s path %s is a directory", table, path)
	}
	return nil
}

// visibleColumns returns the table's column names without the row ordinal.
func visibleColumns(meta *adapter.Metadata) []string {
	names := make([]string, 0, len(meta.Columns))
	for _, name := range meta.ColumnNames() {
		if name != rowColumn {
			names = append(names, name)
		}
	}
	return names
}
