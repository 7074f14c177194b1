package engine

import (
	"errors"
	"fmt"
	"io/fs"
)

// Sentinel errors for errors.Is checks.
var (
	// ErrMissingColumn is wrapped by MissingColumnError.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyJoin reports that a join produced no rows.
	ErrEmptyJoin = errors.New("join produced no rows")
)

// MissingFileError reports a source file that does not exist.
type MissingFileError struct {
	Table string
	Path  string
}

func (e *MissingFileError) Error() string {
	return fmt.Sprintf("%s file not found: %s", e.Table, e.Path)
}

// Unwrap lets errors.Is match fs.ErrNotExist.
func (e *MissingFileError) Unwrap() error {
	return fs.ErrNotExist
}

// MissingColumnError reports a required column absent from a loaded table.
type MissingColumnError struct {
	Table     string
	Column    string
	Available []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("table %s is missing required column %q (available: %v)", e.Table, e.Column, e.Available)
}

// Unwrap returns ErrMissingColumn.
func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}
