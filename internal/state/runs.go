package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// RunStatus is the outcome of a ranking run.
type RunStatus string

// Run statuses.
const (
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded ranking run.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	ElapsedMS int64     `json:"elapsed_ms"`
	Status    RunStatus `json:"status"`
	Error     string    `json:"error,omitempty"`

	PopularityPath string `json:"popularity_path"`
	RevenuePath    string `json:"revenue_path"`
	RatingsPath    string `json:"ratings_path"`
	OutputPath     string `json:"output_path"`

	PopularityRows int64 `json:"popularity_rows"`
	RevenueRows    int64 `json:"revenue_rows"`
	RatingsRows    int64 `json:"ratings_rows"`
	JoinedByID     int64 `json:"joined_by_id"`
	JoinedByTitle  int64 `json:"joined_by_title"`
	FilteredRows   int64 `json:"filtered_rows"`
	RankedRows     int64 `json:"ranked_rows"`

	// PC1Variance is the explained variance ratio of the first component,
	// nil when nothing was ranked.
	PC1Variance *float64 `json:"pc1_variance,omitempty"`
	TopTitle    string   `json:"top_title,omitempty"`
	Warnings    int      `json:"warnings"`
}

const runColumns = `id, started_at, elapsed_ms, status, error,
	popularity_path, revenue_path, ratings_path, output_path,
	popularity_rows, revenue_rows, ratings_rows, joined_by_id, joined_by_title,
	filtered_rows, ranked_rows, pc1_variance, top_title, warnings`

// RecordRun stores a run, replacing any run with the same id.
func (s *Store) RecordRun(ctx context.Context, run *Run) error {
	s.logger.Debug("recording run", slog.String("id", run.ID), slog.String("status", string(run.Status)))

	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt.UTC().UnixMilli(), run.ElapsedMS, string(run.Status), nullString(run.Error),
		run.PopularityPath, run.RevenuePath, run.RatingsPath, run.OutputPath,
		run.PopularityRows, run.RevenueRows, run.RatingsRows, run.JoinedByID, run.JoinedByTitle,
		run.FilteredRows, run.RankedRows, run.PC1Variance, nullString(run.TopTitle), run.Warnings,
	)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}

// GetRun returns the run whose id starts with prefix. A prefix matching
// more than one run is an error.
func (s *Store) GetRun(ctx context.Context, prefix string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? || '%' ORDER BY started_at DESC LIMIT 2`,
		prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	runs, err := scanRuns(rows)
	if err != nil {
		return nil, err
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, prefix)
	case 1:
		return runs[0], nil
	default:
		return nil, fmt.Errorf("run id %q is ambiguous", prefix)
	}
}

// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]*Run, error) {
	defer func() { _ = rows.Close() }()

	var runs []*Run
	for rows.Next() {
		var (
			run       Run
			startedAt int64
			status    string
			errMsg    sql.NullString
			pc1       sql.NullFloat64
			topTitle  sql.NullString
		)
		if err := rows.Scan(&run.ID, &startedAt, &run.ElapsedMS, &status, &errMsg,
			&run.PopularityPath, &run.RevenuePath, &run.RatingsPath, &run.OutputPath,
			&run.PopularityRows, &run.RevenueRows, &run.RatingsRows, &run.JoinedByID, &run.JoinedByTitle,
			&run.FilteredRows, &run.RankedRows, &pc1, &topTitle, &run.Warnings); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		run.StartedAt = time.UnixMilli(startedAt).UTC()
		run.Status = RunStatus(status)
		run.Error = errMsg.String
		run.TopTitle = topTitle.String
		if pc1.Valid {
			run.PC1Variance = &pc1.Float64
		}
		runs = append(runs, &run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}
	return runs, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
