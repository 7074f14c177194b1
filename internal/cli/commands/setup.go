package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/movierank/internal/analysis"
	"github.com/leapstack-labs/movierank/internal/cli/config"
	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/engine"
	"github.com/leapstack-labs/movierank/internal/pipeline"
	"github.com/leapstack-labs/movierank/internal/state"
	"github.com/leapstack-labs/movierank/internal/tmdb"
	"github.com/leapstack-labs/movierank/pkg/adapter"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Engine   *engine.Engine
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext with engine and renderer.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return nil, nil, err
	}

	eng := engine.New(engineConfig(cmdCtx.Cfg, cmdCtx.Logger))
	cmdCtx.Engine = eng

	cleanup := func() {
		_ = eng.Close()
	}
	return cmdCtx, cleanup, nil
}

// NewCommandContextWithoutEngine creates a CommandContext without an engine.
// Useful for commands that don't need database access.
func NewCommandContextWithoutEngine(cmd *cobra.Command) (*CommandContext, error) {
	cfg, err := getConfig()
	if err != nil {
		return nil, err
	}
	logger := config.GetLogger(cmd.Context())
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}, nil
}

// Helper functions shared across commands

// getConfig returns the configuration loaded by the root command, loading
// defaults, the nearest config file and the environment when a command runs
// on its own.
func getConfig() (*config.Config, error) {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg, nil
	}
	return config.LoadConfig("", nil)
}

// engineConfig maps the CLI configuration onto the table engine.
func engineConfig(cfg *config.Config, logger *slog.Logger) engine.Config {
	params := map[string]any{}
	if len(cfg.Engine.Extensions) > 0 {
		params["extensions"] = cfg.Engine.Extensions
	}
	if len(cfg.Engine.Settings) > 0 {
		params["settings"] = cfg.Engine.Settings
	}

	return engine.Config{
		AdapterConfig: adapter.Config{
			Type:   "duckdb",
			Path:   cfg.Database,
			Params: params,
		},
		Columns: cfg.Columns,
		Logger:  logger,
	}
}

// pipelineConfig maps the CLI configuration onto one pipeline run.
func pipelineConfig(cfg *config.Config, logger *slog.Logger) (pipeline.Config, error) {
	policy, err := analysis.ParseZeroVariancePolicy(cfg.Analysis.ZeroVariance)
	if err != nil {
		return pipeline.Config{}, err
	}

	return pipeline.Config{
		Inputs: engine.Inputs{
			Popularity: cfg.Inputs.Popularity,
			Revenue:    cfg.Inputs.Revenue,
			Ratings:    cfg.Inputs.Ratings,
		},
		OutputPath:  cfg.Output.Path,
		BOM:         cfg.Output.BOM,
		TopN:        cfg.Report.TopN,
		FailOnEmpty: cfg.Analysis.FailOnEmpty,
		Analysis: analysis.Options{
			ZeroVariance: policy,
			MinRows:      cfg.Analysis.MinRows,
			Seed:         cfg.Analysis.Seed,
		},
		Engine: engineConfig(cfg, logger),
		Logger: logger,
	}, nil
}

// openHistory opens the run history database when it is enabled. A
// history that cannot be opened is reported as a warning and the command
// continues without it.
func openHistory(ctx context.Context, cmdCtx *CommandContext) (*state.Store, func()) {
	cfg := cmdCtx.Cfg
	if !cfg.History.Enabled {
		return nil, func() {}
	}
	store, err := state.Open(ctx, cfg.History.Path, cmdCtx.Logger)
	if err != nil {
		cmdCtx.Renderer.Warning("run history disabled: " + err.Error())
		return nil, func() {}
	}
	return store, func() { _ = store.Close() }
}

// tmdbClient builds a TMDb client from the configuration.
func tmdbClient(cfg *config.Config, logger *slog.Logger) (*tmdb.Client, error) {
	return tmdb.New(tmdb.Config{
		APIKey:            cfg.TMDB.APIKey,
		BaseURL:           cfg.TMDB.BaseURL,
		Language:          cfg.TMDB.Language,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		MaxRetries:        uint64(cfg.TMDB.MaxRetries), //nolint:gosec // validated non-negative
		Timeout:           cfg.TMDB.Timeout,
		Logger:            logger,
	})
}
