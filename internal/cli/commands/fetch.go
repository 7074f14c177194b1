package commands

import (
	"fmt"

	"github.com/leapstack-labs/movierank/internal/cli/config"
	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/report"
	"github.com/leapstack-labs/movierank/internal/tmdb"
	"github.com/spf13/cobra"
)

// FetchOutput is the JSON output of the fetch commands.
type FetchOutput struct {
	Source    string `json:"source"`
	Requested int    `json:"requested"`
	Rows      int    `json:"rows"`
	Path      string `json:"path"`
}

// NewFetchCommand creates the fetch command group.
func NewFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download raw TMDb data",
		Long: `Download raw TMDb exports. Rows are written as returned by the API; run
'movierank clean' afterwards.

The API key is read from tmdb.api_key in movierank.yaml,
MOVIERANK_TMDB__API_KEY or TMDB_API_KEY.`,
	}

	cmd.AddCommand(newFetchPopularityCommand())
	cmd.AddCommand(newFetchRevenueCommand())
	return cmd
}

func newFetchPopularityCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "popularity",
		Short: "Download pages of popular movies",
		Example: `  # Fetch the default 50 pages (about 1000 movies)
  movierank fetch popularity

  # Fetch 5 pages into a custom file
  movierank fetch popularity --pages 5 --out pop_raw.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetchPopularity(cmd)
		},
	}

	flags := cmd.Flags()
	flags.Int("pages", 0, "Number of /movie/popular pages (20 movies each)")
	flags.String("language", "", "Response language (e.g. en-US)")
	flags.String("out", "", "Raw popularity CSV")
	config.BindFlag(flags, "pages", "tmdb.pages")
	config.BindFlag(flags, "language", "tmdb.language")
	config.BindFlag(flags, "out", "tmdb.popularity_raw")

	return cmd
}

func runFetchPopularity(cmd *cobra.Command) error {
	cmdCtx, err := NewCommandContextWithoutEngine(cmd)
	if err != nil {
		return err
	}
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	client, err := tmdbClient(cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}

	spinner := startSpinner(r, fmt.Sprintf("Fetching %d popular pages...", cfg.TMDB.Pages))
	movies, err := client.FetchPopular(cmd.Context(), cfg.TMDB.Pages, func(done, total int) {
		if spinner != nil {
			spinner.Update(fmt.Sprintf("Fetched page %d/%d", done, total))
		}
	})
	if err != nil {
		failSpinner(spinner, "Fetching popular movies failed")
		return err
	}

	records := make([][]string, len(movies))
	for i, m := range movies {
		records[i] = m.Record()
	}
	if err := report.WriteTable(cfg.TMDB.PopularityRaw, tmdb.PopularityColumns, records, report.WriteOptions{}); err != nil {
		failSpinner(spinner, "Writing popularity export failed")
		return err
	}
	stopSpinner(spinner)

	return renderFetch(r, FetchOutput{
		Source:    "popularity",
		Requested: cfg.TMDB.Pages,
		Rows:      len(movies),
		Path:      cfg.TMDB.PopularityRaw,
	})
}

func newFetchRevenueCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revenue",
		Short: "Download budget, revenue and runtime for every popular movie",
		Long: `Download /movie/{id} details for every distinct tmdb_id of the cleaned
popularity table. Movies TMDb no longer knows are skipped with a warning.`,
		Example: `  # Details for the ids in inputs.popularity
  movierank fetch revenue

  # Four requests in flight
  movierank fetch revenue --concurrency 4`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFetchRevenue(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("ids", "", "CSV with a tmdb_id column (default: inputs.popularity)")
	flags.Int("concurrency", 0, "Detail requests in flight")
	flags.String("language", "", "Response language (e.g. en-US)")
	flags.String("out", "", "Raw revenue CSV")
	config.BindFlag(flags, "ids", "inputs.popularity")
	config.BindFlag(flags, "concurrency", "tmdb.concurrency")
	config.BindFlag(flags, "language", "tmdb.language")
	config.BindFlag(flags, "out", "tmdb.revenue_raw")

	return cmd
}

func runFetchRevenue(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	client, err := tmdbClient(cfg, cmdCtx.Logger)
	if err != nil {
		return err
	}

	ids, err := cmdCtx.Engine.ReadIDs(cmd.Context(), cfg.Inputs.Popularity)
	if err != nil {
		return err
	}

	spinner := startSpinner(r, fmt.Sprintf("Fetching details for %d movies...", len(ids)))
	details, err := client.FetchDetails(cmd.Context(), ids, cfg.TMDB.Concurrency, func(done, total int) {
		if spinner != nil {
			spinner.Update(fmt.Sprintf("Fetched %d/%d movies", done, total))
		}
	})
	if err != nil {
		failSpinner(spinner, "Fetching movie details failed")
		return err
	}

	records := make([][]string, len(details))
	for i, d := range details {
		records[i] = d.Record()
	}
	if err := report.WriteTable(cfg.TMDB.RevenueRaw, tmdb.RevenueColumns, records, report.WriteOptions{}); err != nil {
		failSpinner(spinner, "Writing revenue export failed")
		return err
	}
	stopSpinner(spinner)

	if skipped := len(ids) - len(details); skipped > 0 {
		r.Warning(fmt.Sprintf("%d movies not found on TMDb were skipped", skipped))
	}

	return renderFetch(r, FetchOutput{
		Source:    "revenue",
		Requested: len(ids),
		Rows:      len(details),
		Path:      cfg.TMDB.RevenueRaw,
	})
}

func renderFetch(r *output.Renderer, out FetchOutput) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "TMDb "+out.Source))
		r.Println("")
		r.Println(output.FormatKeyValue("Requested", fmt.Sprint(out.Requested)))
		r.Println(output.FormatKeyValue("Rows", fmt.Sprint(out.Rows)))
		r.Println(output.FormatKeyValue("File", out.Path))
	default:
		r.StatusLine(out.Path, "success", fmt.Sprintf("%d rows", out.Rows))
	}
	return nil
}

// startSpinner starts a spinner in text mode and returns nil otherwise.
func startSpinner(r *output.Renderer, msg string) *output.Spinner {
	if r.EffectiveMode() != output.ModeText {
		return nil
	}
	s := r.NewSpinner(msg)
	s.Start()
	return s
}

func stopSpinner(s *output.Spinner) {
	if s != nil {
		s.Stop()
	}
}

func failSpinner(s *output.Spinner, msg string) {
	if s != nil {
		s.Fail(msg)
	}
}
