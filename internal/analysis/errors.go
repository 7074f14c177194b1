package analysis

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks.
var (
	ErrZeroVariance     = errors.New("zero variance")
	ErrInsufficientRows = errors.New("insufficient rows")
)

// ZeroVarianceError reports a feature column whose minimum equals its maximum.
type ZeroVarianceError struct {
	Column string
	Value  float64
}

func (e *ZeroVarianceError) Error() string {
	return fmt.Sprintf("cannot normalize %s: every row has value %g (zero variance)", e.Column, e.Value)
}

// Unwrap returns ErrZeroVariance.
func (e *ZeroVarianceError) Unwrap() error {
	return ErrZeroVariance
}

// InsufficientRowsError reports too few rows for a principal component fit.
type InsufficientRowsError struct {
	Rows int
	Min  int
}

func (e *InsufficientRowsError) Error() string {
	return fmt.Sprintf("need at least %d rows to rank, got %d", e.Min, e.Rows)
}

// Unwrap returns ErrInsufficientRows.
func (e *InsufficientRowsError) Unwrap() error {
	return ErrInsufficientRows
}
