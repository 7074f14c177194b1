package core

import (
	"database/sql"
)

// AdapterConfig holds configuration for connecting to a database.
type AdapterConfig struct {
	Type string
	Path string

	// Params holds adapter-specific configuration (e.g. DuckDB settings, extensions).
	Params map[string]any
}

// Column represents a column in a database table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Position int
}

// TableMetadata holds metadata about a database table.
type TableMetadata struct {
	Schema   string
	Name     string
	Columns  []Column
	RowCount int64
}

// HasColumn reports whether the table has a column with exactly this name.
// Matching is case-sensitive, the same way the CSV header was written.
func (m *TableMetadata) HasColumn(name string) bool {
	for _, c := range m.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in ordinal order.
func (m *TableMetadata) ColumnNames() []string {
	names := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		names[i] = c.Name
	}
	return names
}

// Rows wraps sql.Rows to provide a consistent interface.
type Rows struct {
	*sql.Rows
}

// CSVOptions controls how a delimited file is read into a table.
type CSVOptions struct {
	// Delimiter overrides the sniffed delimiter (e.g. "\t" for TSV dumps).
	Delimiter string

	// NullString is the literal that denotes NULL (e.g. `\N` in IMDb dumps).
	NullString string

	// AllVarchar disables type inference; every column is read as text.
	AllVarchar bool

	// DisableQuoting treats quote characters as ordinary data.
	DisableQuoting bool

	// RowNumberColumn, when set, prepends a 1-based ordinal column that
	// records the file order of each row.
	RowNumberColumn string
}
