// Package duckdb provides a DuckDB database adapter for movierank.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"

	"github.com/leapstack-labs/movierank/pkg/adapter"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// Adapter implements the adapter.Adapter interface for DuckDB.
type Adapter struct {
	adapter.BaseSQLAdapter
}

// New creates a new DuckDB adapter instance.
// A nil logger discards all output.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Adapter{BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger}}
}

// Connect establishes a connection to DuckDB.
// Use ":memory:" (or an empty path) for an in-memory database.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	params, err := parseParams(cfg.Params)
	if err != nil {
		return err
	}

	path := cfg.Path
	if path == "" {
		path = ":memory:"
	}

	a.Logger.Debug("opening duckdb", "path", path)

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return fmt.Errorf("failed to open duckdb connection: %w", err)
	}

	// A single connection keeps session settings and in-memory tables visible
	// to every statement.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping duckdb: %w", err)
	}

	a.DB = db
	a.Cfg = cfg

	if err := a.applyParams(ctx, params); err != nil {
		_ = db.Close()
		a.DB = nil
		return err
	}

	return nil
}

// applyParams installs extensions and applies session settings.
func (a *Adapter) applyParams(ctx context.Context, params *Params) error {
	for _, ext := range params.Extensions {
		a.Logger.Debug("loading duckdb extension", "extension", ext)
		if err := a.Exec(ctx, "INSTALL "+ext); err != nil {
			return fmt.Errorf("failed to install extension %s: %w", ext, err)
		}
		if err := a.Exec(ctx, "LOAD "+ext); err != nil {
			return fmt.Errorf("failed to load extension %s: %w", ext, err)
		}
	}

	names := make([]string, 0, len(params.Settings))
	for name := range params.Settings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := params.Settings[name]
		a.Logger.Debug("applying duckdb setting", "name", name, "value", value)
		if err := a.Exec(ctx, fmt.Sprintf("SET %s = %s", name, adapter.QuoteLiteral(value))); err != nil {
			return fmt.Errorf("failed to apply setting %s: %w", name, err)
		}
	}
	return nil
}

// GetTableMetadata retrieves metadata for a specified table.
func (a *Adapter) GetTableMetadata(ctx context.Context, table string) (*adapter.Metadata, error) {
	return a.DescribeTable(ctx, table)
}

// LoadCSV loads data from a delimited file into a table.
// DuckDB infers the schema unless opts.AllVarchar is set.
func (a *Adapter) LoadCSV(ctx context.Context, tableName string, filePath string, opts adapter.CSVOptions) error {
	if a.DB == nil {
		return fmt.Errorf("database connection not established")
	}

	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	query := buildLoadCSVSQL(tableName, absPath, opts)
	a.Logger.Debug("loading csv", "table", tableName, "path", absPath)

	if err := a.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to load CSV %s: %w", filePath, err)
	}

	return nil
}

// buildLoadCSVSQL renders the CREATE TABLE ... AS SELECT over read_csv_auto.
func buildLoadCSVSQL(tableName, absPath string, opts adapter.CSVOptions) string {
	args := []string{adapter.QuoteLiteral(absPath), "header=true"}
	if opts.Delimiter != "" {
		args = append(args, "delim="+adapter.QuoteLiteral(opts.Delimiter))
	}
	if opts.NullString != "" {
		args = append(args, "nullstr="+adapter.QuoteLiteral(opts.NullString))
	}
	if opts.AllVarchar {
		args = append(args, "all_varchar=true")
	}
	if opts.DisableQuoting {
		args = append(args, "quote=''")
	}

	projection := "*"
	if opts.RowNumberColumn != "" {
		projection = fmt.Sprintf("row_number() OVER () AS %s, *", adapter.QuoteIdent(opts.RowNumberColumn))
	}

	return fmt.Sprintf(
		"CREATE OR REPLACE TABLE %s AS SELECT %s FROM read_csv_auto(%s)",
		adapter.QuoteIdent(tableName),
		projection,
		strings.Join(args, ", "),
	)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
