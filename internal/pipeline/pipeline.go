// Package pipeline runs the ranking pipeline end to end:
// load, join, build features, rank and write the ranked table.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/leapstack-labs/movierank/internal/analysis"
	"github.com/leapstack-labs/movierank/internal/engine"
	"github.com/leapstack-labs/movierank/internal/movie"
	"github.com/leapstack-labs/movierank/internal/report"
	"github.com/leapstack-labs/movierank/internal/state"
)

// ErrEmptyResult reports that no joined row survived filtering.
var ErrEmptyResult = errors.New("no rows left after filtering")

// Config holds everything one pipeline run needs.
type Config struct {
	// Inputs are the three source files.
	Inputs engine.Inputs
	// OutputPath is the ranked table file.
	OutputPath string
	// BOM prefixes the ranked table with a UTF-8 byte order mark.
	BOM bool
	// TopN is the number of rows in the summary.
	TopN int
	// FailOnEmpty turns an empty join or filter result into an error.
	FailOnEmpty bool
	// Analysis configures feature building and ranking.
	Analysis analysis.Options
	// Engine configures the table engine.
	Engine engine.Config
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
	// History records the outcome of the run (optional).
	History Recorder
}

// Recorder stores the outcome of every run.
type Recorder interface {
	RecordRun(ctx context.Context, run *state.Run) error
}

// Result is the outcome of a run.
type Result struct {
	Summary report.Summary
	Rows    []movie.Ranked
}

// Run executes the pipeline. Every stage gets its configuration from cfg.
// Successful and failed runs are both recorded in cfg.History; a history
// write failure is logged and does not fail the run.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	start := time.Now()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	runID := uuid.NewString()
	logger = logger.With("run_id", runID)

	res, err := run(ctx, cfg, runID, logger, start)
	if cfg.History != nil {
		rec := historyRecord(cfg, runID, start, res, err)
		if herr := cfg.History.RecordRun(ctx, rec); herr != nil {
			logger.Warn("failed to record run history", "error", herr)
		}
	}
	return res, err
}

func run(ctx context.Context, cfg Config, runID string, logger *slog.Logger, start time.Time) (*Result, error) {
	logger.Info("starting pipeline",
		"popularity", cfg.Inputs.Popularity,
		"revenue", cfg.Inputs.Revenue,
		"ratings", cfg.Inputs.Ratings,
		"output", cfg.OutputPath)

	engCfg := cfg.Engine
	engCfg.Logger = logger
	eng := engine.New(engCfg)
	defer func() { _ = eng.Close() }()

	records, stats, err := eng.Merge(ctx, cfg.Inputs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Summary: report.Summary{
			RunID:      runID,
			OutputPath: cfg.OutputPath,
			Counts: report.Counts{
				Popularity:    stats.Popularity,
				Revenue:       stats.Revenue,
				Ratings:       stats.Ratings,
				JoinedByID:    stats.ByID,
				JoinedByTitle: stats.ByTitle,
			},
			Top: []report.TopRow{},
		},
	}

	if len(records) == 0 {
		logger.Warn("join produced no rows",
			"popularity_rows", stats.Popularity,
			"revenue_rows", stats.Revenue,
			"ratings_rows", stats.Ratings,
			"joined_by_id", stats.ByID)
		if cfg.FailOnEmpty {
			return nil, fmt.Errorf("%w: %d rows after identifier join, 0 after title join", engine.ErrEmptyJoin, stats.ByID)
		}
		res.Summary.Warnings = append(res.Summary.Warnings,
			fmt.Sprintf("title join produced no rows (%d rows after identifier join)", stats.ByID))
		return finish(res, cfg, logger, start)
	}

	aopts := cfg.Analysis
	aopts.Logger = logger

	scored, err := analysis.BuildFeatures(records, aopts)
	if err != nil {
		return nil, err
	}
	res.Summary.Counts.Filtered = int64(len(scored))

	if len(scored) == 0 {
		logger.Warn("no rows left after filtering", "joined", len(records))
		if cfg.FailOnEmpty {
			return nil, fmt.Errorf("%w: %d joined rows", ErrEmptyResult, len(records))
		}
		res.Summary.Warnings = append(res.Summary.Warnings,
			fmt.Sprintf("no rows with positive revenue, rating and popularity (%d joined rows)", len(records)))
		return finish(res, cfg, logger, start)
	}

	ranked, err := analysis.Rank(scored, aopts)
	if err != nil {
		return nil, err
	}

	res.Rows = ranked.Rows
	res.Summary.Counts.Ranked = int64(len(ranked.Rows))
	res.Summary.Top = report.TopRows(ranked.Rows, cfg.TopN)
	res.Summary.Diagnostics = &ranked.Diagnostics

	return finish(res, cfg, logger, start)
}

// finish writes the ranked table and stamps the elapsed time.
func finish(res *Result, cfg Config, logger *slog.Logger, start time.Time) (*Result, error) {
	if err := report.WriteRanked(cfg.OutputPath, res.Rows, report.WriteOptions{BOM: cfg.BOM}); err != nil {
		return nil, err
	}

	res.Summary.ElapsedMS = time.Since(start).Milliseconds()
	logger.Info("pipeline finished",
		"rows", len(res.Rows),
		"output", cfg.OutputPath,
		"elapsed_ms", res.Summary.ElapsedMS)
	return res, nil
}

// historyRecord flattens the outcome of a run into a history row.
func historyRecord(cfg Config, runID string, start time.Time, res *Result, err error) *state.Run {
	rec := &state.Run{
		ID:             runID,
		StartedAt:      start,
		ElapsedMS:      time.Since(start).Milliseconds(),
		Status:         state.RunStatusCompleted,
		PopularityPath: cfg.Inputs.Popularity,
		RevenuePath:    cfg.Inputs.Revenue,
		RatingsPath:    cfg.Inputs.Ratings,
		OutputPath:     cfg.OutputPath,
	}
	if err != nil {
		rec.Status = state.RunStatusFailed
		rec.Error = err.Error()
		return rec
	}

	s := res.Summary
	rec.ElapsedMS = s.ElapsedMS
	rec.PopularityRows = s.Counts.Popularity
	rec.RevenueRows = s.Counts.Revenue
	rec.RatingsRows = s.Counts.Ratings
	rec.JoinedByID = s.Counts.JoinedByID
	rec.JoinedByTitle = s.Counts.JoinedByTitle
	rec.FilteredRows = s.Counts.Filtered
	rec.RankedRows = s.Counts.Ranked
	rec.Warnings = len(s.Warnings)
	if d := s.Diagnostics; d != nil && len(d.ExplainedVarianceRatio) > 0 {
		v := d.ExplainedVarianceRatio[0]
		rec.PC1Variance = &v
	}
	if len(s.Top) > 0 {
		rec.TopTitle = s.Top[0].Title
	}
	return rec
}
