package commands

import (
	"fmt"

	"github.com/leapstack-labs/movierank/internal/cli/config"
	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/engine"
	"github.com/leapstack-labs/movierank/internal/report"
	"github.com/spf13/cobra"
)

// CleanOutput is the JSON output of the clean commands.
type CleanOutput struct {
	Source string `json:"source"`
	Input  string `json:"input"`
	Output string `json:"output"`
	engine.CleanStats
}

// NewCleanCommand creates the clean command group.
func NewCleanCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean raw TMDb exports",
		Long: `Clean a raw TMDb export: rows without a tmdb_id are dropped and only the
first row of every tmdb_id is kept. Columns and file order are preserved.`,
	}

	cmd.AddCommand(newCleanSubcommand("popularity", "tmdb.popularity_raw", "inputs.popularity", false))
	cmd.AddCommand(newCleanSubcommand("revenue", "tmdb.revenue_raw", "inputs.revenue", true))
	return cmd
}

func newCleanSubcommand(source, inKey, outKey string, bom bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   source,
		Short: fmt.Sprintf("Clean the raw TMDb %s export", source),
		Example: fmt.Sprintf(`  # Clean %[2]s into %[3]s
  movierank clean %[1]s

  # Explicit files
  movierank clean %[1]s --in raw.csv --out clean.csv`, source, inKey, outKey),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			withBOM, _ := cmd.Flags().GetBool("bom")
			return runClean(cmd, source, withBOM)
		},
	}

	flags := cmd.Flags()
	flags.String("in", "", "Raw TMDb CSV (default: "+inKey+")")
	flags.String("out", "", "Cleaned CSV (default: "+outKey+")")
	flags.Bool("bom", bom, "Prefix the output with a UTF-8 byte order mark")
	config.BindFlag(flags, "in", inKey)
	config.BindFlag(flags, "out", outKey)

	return cmd
}

func runClean(cmd *cobra.Command, source string, withBOM bool) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	cfg := cmdCtx.Cfg
	in, out := cfg.TMDB.PopularityRaw, cfg.Inputs.Popularity
	if source == "revenue" {
		in, out = cfg.TMDB.RevenueRaw, cfg.Inputs.Revenue
	}

	frame, stats, err := cmdCtx.Engine.CleanTMDB(cmd.Context(), in)
	if err != nil {
		return err
	}
	if err := report.WriteTable(out, frame.Columns, frame.Records(), report.WriteOptions{BOM: withBOM}); err != nil {
		return err
	}

	return renderClean(cmdCtx.Renderer, CleanOutput{
		Source:     source,
		Input:      in,
		Output:     out,
		CleanStats: *stats,
	})
}

func renderClean(r *output.Renderer, out CleanOutput) error {
	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		r.Println(output.FormatHeader(1, "Cleaned TMDb "+out.Source))
		r.Println("")
		r.Println(output.FormatKeyValue("Input", out.Input))
		r.Println(output.FormatKeyValue("Output", out.Output))
		r.Println(output.FormatKeyValue("Rows in", fmt.Sprint(out.RowsIn)))
		r.Println(output.FormatKeyValue("Rows out", fmt.Sprint(out.RowsOut)))
	default:
		r.StatusLine(out.Output, "success", fmt.Sprintf("%d of %d rows kept", out.RowsOut, out.RowsIn))
	}
	return nil
}
