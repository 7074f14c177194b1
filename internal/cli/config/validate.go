package config

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/movierank/internal/analysis"
	"github.com/leapstack-labs/movierank/internal/cli/output"
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if _, err := output.ParseMode(c.OutputFormat); err != nil {
		errs = append(errs, fmt.Errorf("output_format: %w", err))
	}
	switch c.LogFormat {
	case "", "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format: unknown format %q (want text or json)", c.LogFormat))
	}
	if _, err := analysis.ParseZeroVariancePolicy(c.Analysis.ZeroVariance); err != nil {
		errs = append(errs, fmt.Errorf("analysis.zero_variance: %w", err))
	}
	if c.Analysis.MinRows < analysis.MinRowsFloor {
		errs = append(errs, fmt.Errorf("analysis.min_rows must be at least %d, got %d", analysis.MinRowsFloor, c.Analysis.MinRows))
	}
	if c.Report.TopN < 0 {
		errs = append(errs, fmt.Errorf("report.top_n must not be negative, got %d", c.Report.TopN))
	}
	if c.Output.Path == "" {
		errs = append(errs, errors.New("output.path is required"))
	}
	if c.IMDb.MinVotes < 0 {
		errs = append(errs, fmt.Errorf("imdb.min_votes must not be negative, got %d", c.IMDb.MinVotes))
	}
	if c.TMDB.Pages < 1 {
		errs = append(errs, fmt.Errorf("tmdb.pages must be at least 1, got %d", c.TMDB.Pages))
	}
	if c.TMDB.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("tmdb.concurrency must be at least 1, got %d", c.TMDB.Concurrency))
	}
	if c.TMDB.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("tmdb.max_retries must not be negative, got %d", c.TMDB.MaxRetries))
	}
	if c.History.Enabled && c.History.Path == "" {
		errs = append(errs, errors.New("history.path is required when history.enabled is set"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
