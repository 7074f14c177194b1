// Package adapter provides the database adapter contract used by the
// movierank table engine.
//
// Concrete adapter implementations are in pkg/adapters/ subdirectories and
// register themselves through Register in their init() functions.
package adapter

import (
	"context"

	"github.com/leapstack-labs/movierank/pkg/core"
)

// Type aliases so callers only need to import this package.
type (
	// Config is an alias for core.AdapterConfig.
	Config = core.AdapterConfig

	// Column is an alias for core.Column.
	Column = core.Column

	// Metadata is an alias for core.TableMetadata.
	Metadata = core.TableMetadata

	// Rows is an alias for core.Rows.
	Rows = core.Rows

	// CSVOptions is an alias for core.CSVOptions.
	CSVOptions = core.CSVOptions
)

// Adapter defines the interface that all database adapters must implement.
// It provides methods for connecting to databases, executing SQL, and
// retrieving metadata.
type Adapter interface {
	// Connect establishes a connection to the database using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the database connection and releases resources.
	Close() error

	// Exec executes a SQL statement that doesn't return rows (e.g. CREATE TABLE AS).
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a SQL statement that returns rows.
	// The caller must close the returned rows and check rows.Err().
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// QueryRow executes a SQL statement that returns at most one row.
	QueryRow(ctx context.Context, sql string, dest []any, args ...any) error

	// GetTableMetadata retrieves metadata for a specified table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV loads a delimited file into a table, replacing it if it exists.
	// The schema is inferred from the file.
	LoadCSV(ctx context.Context, tableName string, filePath string, opts CSVOptions) error
}
