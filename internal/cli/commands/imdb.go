package commands

import (
	"fmt"

	"github.com/leapstack-labs/movierank/internal/cli/config"
	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/engine"
	"github.com/leapstack-labs/movierank/internal/report"
	"github.com/spf13/cobra"
)

// IMDbOutput is the JSON output of the imdb command.
type IMDbOutput struct {
	Output   string `json:"output"`
	MinVotes int    `json:"min_votes"`
	engine.IMDbStats
}

// NewIMDbCommand creates the imdb command.
func NewIMDbCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "imdb",
		Short: "Build the IMDb ratings table from the public dumps",
		Long: `Build imdb_ratings.csv from title.basics.tsv and title.ratings.tsv
(https://datasets.imdbws.com). Only non-adult movies with a numeric start
year and at least --min-votes votes are kept, ordered by rating and then
votes, both descending.`,
		Example: `  # Paths from movierank.yaml
  movierank imdb

  # Lower the vote threshold
  movierank imdb --min-votes 100 --basics title.basics.tsv --title-ratings title.ratings.tsv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runIMDb(cmd)
		},
	}

	flags := cmd.Flags()
	flags.String("basics", "", "title.basics.tsv")
	flags.String("title-ratings", "", "title.ratings.tsv")
	flags.Int("min-votes", 0, "Minimum number of votes")
	flags.String("out", "", "Ratings CSV (default: inputs.ratings)")
	config.BindFlag(flags, "basics", "imdb.basics")
	config.BindFlag(flags, "title-ratings", "imdb.ratings")
	config.BindFlag(flags, "min-votes", "imdb.min_votes")
	config.BindFlag(flags, "out", "inputs.ratings")

	return cmd
}

func runIMDb(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	spinner := startSpinner(r, "Reading IMDb dumps...")
	frame, stats, err := cmdCtx.Engine.BuildIMDbRatings(cmd.Context(), engine.IMDbOptions{
		BasicsPath:  cfg.IMDb.Basics,
		RatingsPath: cfg.IMDb.Ratings,
		MinVotes:    cfg.IMDb.MinVotes,
	})
	if err != nil {
		failSpinner(spinner, "Building IMDb ratings failed")
		return err
	}
	if err := report.WriteTable(cfg.Inputs.Ratings, frame.Columns, frame.Records(), report.WriteOptions{}); err != nil {
		failSpinner(spinner, "Writing IMDb ratings failed")
		return err
	}
	stopSpinner(spinner)

	out := IMDbOutput{Output: cfg.Inputs.Ratings, MinVotes: cfg.IMDb.MinVotes, IMDbStats: *stats}
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "IMDb ratings"))
		r.Println("")
		r.Println(output.FormatKeyValue("Basics rows", fmt.Sprint(out.Basics)))
		r.Println(output.FormatKeyValue("Ratings rows", fmt.Sprint(out.Ratings)))
		r.Println(output.FormatKeyValue("Movies", fmt.Sprint(out.Movies)))
		r.Println(output.FormatKeyValue("Output", out.Output))
	default:
		r.StatusLine(out.Output, "success", fmt.Sprintf("%d movies with at least %d votes", out.Movies, out.MinVotes))
	}
	return nil
}
