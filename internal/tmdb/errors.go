package tmdb

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for a 404 response.
	ErrNotFound = errors.New("tmdb: not found")
	// ErrMissingAPIKey is returned by New when no API key is configured.
	ErrMissingAPIKey = errors.New("tmdb: API key not set (use tmdb.api_key in movierank.yaml, MOVIERANK_TMDB__API_KEY or TMDB_API_KEY)")
)

// StatusError is a non-success HTTP response.
type StatusError struct {
	StatusCode int
	Path       string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb: %s returned HTTP %d: %s", e.Path, e.StatusCode, e.Body)
}

// Temporary reports whether the request may succeed when retried.
func (e *StatusError) Temporary() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}
