package commands

import (
	"github.com/leapstack-labs/movierank/internal/analysis"
	"github.com/leapstack-labs/movierank/internal/cli/config"
	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/pipeline"
	"github.com/spf13/cobra"
)

// NewRunCommand creates the run command.
func NewRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Rank movies by their PCA performance index",
		Long: `Join the cleaned TMDb popularity, TMDb revenue and IMDb ratings tables,
build normalized features and rank every movie by its first principal
component.

Popularity and revenue are joined on the TMDb identifier, the result is
joined with the ratings on the exact title. Movies without a positive
revenue, a rating or a popularity are dropped. The full ranked table is
written to the output file; the top rows, the PCA diagnostics and the row
counts of every stage are printed. Every run is recorded in the run
history (see 'movierank history').`,
		Example: `  # Rank with paths from movierank.yaml
  movierank run

  # Explicit inputs, top 10 as JSON
  movierank run --popularity pop.csv --revenue rev.csv --ratings imdb.csv --top 10 -o json

  # Map constant columns to 0.5 instead of failing
  movierank run --zero-variance midpoint`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runRun(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("popularity", "", "Cleaned TMDb popularity CSV")
	flags.String("revenue", "", "Cleaned TMDb revenue CSV")
	flags.String("ratings", "", "IMDb ratings CSV")
	flags.String("out", "", "Ranked table output CSV")
	flags.Int("top", 0, "Number of rows to print")
	flags.Int64("seed", 0, "Seed recorded in the diagnostics")
	flags.Int("min-rows", 0, "Minimum rows required to rank (at least 3)")
	flags.String("zero-variance", "", "Constant feature policy (error|midpoint)")
	flags.Bool("fail-on-empty", false, "Fail when the joins or filters leave no rows")

	config.BindFlag(flags, "popularity", "inputs.popularity")
	config.BindFlag(flags, "revenue", "inputs.revenue")
	config.BindFlag(flags, "ratings", "inputs.ratings")
	config.BindFlag(flags, "out", "output.path")
	config.BindFlag(flags, "top", "report.top_n")
	config.BindFlag(flags, "seed", "analysis.seed")
	config.BindFlag(flags, "min-rows", "analysis.min_rows")
	config.BindFlag(flags, "zero-variance", "analysis.zero_variance")
	config.BindFlag(flags, "fail-on-empty", "analysis.fail_on_empty")

	_ = cmd.RegisterFlagCompletionFunc("zero-variance", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{string(analysis.ZeroVarianceFail), string(analysis.ZeroVarianceMidpoint)}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func runRun(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	r := cmdCtx.Renderer

	pcfg, err := pipelineConfig(cmdCtx.Cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}

	history, closeHistory := openHistory(cmd.Context(), cmdCtx)
	defer closeHistory()
	if history != nil {
		pcfg.History = history
	}

	spinner := startSpinner(r, "Ranking movies...")
	res, err := pipeline.Run(cmd.Context(), pcfg)
	if err != nil {
		failSpinner(spinner, "Ranking failed")
		return err
	}
	stopSpinner(spinner)

	for _, w := range res.Summary.Warnings {
		r.Warning(w)
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(res.Summary)
	case output.ModeMarkdown:
		renderRunMarkdown(r, &res.Summary)
	default:
		renderRunText(r, &res.Summary)
	}
	return nil
}
