package adapter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/movierank/pkg/core"
)

// DefaultSchema is the schema of an unqualified table reference.
const DefaultSchema = "main"

// ErrNotConnected is returned by every BaseSQLAdapter method called before
// Connect.
var ErrNotConnected = errors.New("database connection not established")

// BaseSQLAdapter implements the database/sql half of Adapter. Concrete
// adapters embed it and add Connect, LoadCSV and GetTableMetadata.
type BaseSQLAdapter struct {
	DB     *sql.DB
	Cfg    core.AdapterConfig
	Logger *slog.Logger
}

func (b *BaseSQLAdapter) conn() (*sql.DB, error) {
	if b.DB == nil {
		return nil, ErrNotConnected
	}
	return b.DB, nil
}

// Close closes the connection. Closing an unconnected adapter is a no-op.
func (b *BaseSQLAdapter) Close() error {
	if b.DB == nil {
		return nil
	}
	if b.Logger != nil {
		b.Logger.Debug("closing database connection")
	}
	return b.DB.Close()
}

// Exec runs a statement that returns no rows.
func (b *BaseSQLAdapter) Exec(ctx context.Context, query string, args ...any) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to execute SQL: %w", err)
	}
	return nil
}

// Query runs a statement that returns rows.
func (b *BaseSQLAdapter) Query(ctx context.Context, query string, args ...any) (*core.Rows, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}
	//nolint:rowserrcheck // checked by the caller after iteration
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return &core.Rows{Rows: rows}, nil
}

// QueryRow runs a single-row query and scans the row into dest.
func (b *BaseSQLAdapter) QueryRow(ctx context.Context, query string, dest []any, args ...any) error {
	db, err := b.conn()
	if err != nil {
		return err
	}
	if err := db.QueryRowContext(ctx, query, args...).Scan(dest...); err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	return nil
}

// IsConnected reports whether Connect has succeeded.
func (b *BaseSQLAdapter) IsConnected() bool {
	return b.DB != nil
}

// ParseQualifiedName splits "schema.table", defaulting the schema.
func ParseQualifiedName(table string) (schema, name string) {
	if s, n, ok := strings.Cut(table, "."); ok && !strings.Contains(n, ".") {
		return s, n
	}
	return DefaultSchema, table
}

const columnsQuery = `
	SELECT column_name, data_type, is_nullable, ordinal_position
	FROM information_schema.columns
	WHERE table_schema = ? AND table_name = ?
	ORDER BY ordinal_position`

// DescribeTable reads the columns of a table from information_schema and
// counts its rows. A failed count leaves RowCount at 0.
func (b *BaseSQLAdapter) DescribeTable(ctx context.Context, table string) (*core.TableMetadata, error) {
	db, err := b.conn()
	if err != nil {
		return nil, err
	}

	schema, name := ParseQualifiedName(table)
	rows, err := db.QueryContext(ctx, columnsQuery, schema, name)
	if err != nil {
		return nil, fmt.Errorf("failed to query column metadata: %w", err)
	}
	defer func() { _ = rows.Close() }()

	meta := &core.TableMetadata{Schema: schema, Name: name}
	for rows.Next() {
		var col core.Column
		var nullable string
		if err := rows.Scan(&col.Name, &col.Type, &nullable, &col.Position); err != nil {
			return nil, fmt.Errorf("failed to scan column metadata: %w", err)
		}
		col.Nullable = nullable == "YES"
		meta.Columns = append(meta.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating column metadata: %w", err)
	}
	if len(meta.Columns) == 0 {
		return nil, fmt.Errorf("table %s not found", table)
	}

	count := fmt.Sprintf("SELECT COUNT(*) FROM %s.%s", QuoteIdent(schema), QuoteIdent(name)) //nolint:gosec // quoted identifiers
	if err := db.QueryRowContext(ctx, count).Scan(&meta.RowCount); err != nil {
		meta.RowCount = 0
	}
	return meta, nil
}

// QuoteIdent quotes a SQL identifier.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral quotes a SQL string literal.
func QuoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
