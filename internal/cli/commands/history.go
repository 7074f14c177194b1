package commands

import (
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/state"
	"github.com/spf13/cobra"
)

// historyColumns are the columns of the run list.
var historyColumns = []string{"run", "started", "status", "ranked", "pc1", "top", "elapsed"}

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded ranking runs",
		Long: `List recent ranking runs from the run history (history.path), newest
first, or show one run in detail. A run id may be abbreviated to any
unique prefix.`,
		Example: `  # Last 10 runs
  movierank history

  # One run in detail
  movierank history 3f1c2b9a`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, err := NewCommandContextWithoutEngine(cmd)
			if err != nil {
				return err
			}
			if !cmdCtx.Cfg.History.Enabled {
				return fmt.Errorf("run history is disabled (history.enabled)")
			}

			store, err := state.Open(cmd.Context(), cmdCtx.Cfg.History.Path, cmdCtx.Logger)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if len(args) == 1 {
				run, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return renderRun(cmdCtx.Renderer, run)
			}

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return renderHistory(cmdCtx.Renderer, runs)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to list")

	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func pc1Text(run *state.Run) string {
	if run.PC1Variance == nil {
		return ""
	}
	return output.FormatFloat(*run.PC1Variance, 3)
}

// historyRows returns the run list in historyColumns order.
func historyRows(runs []*state.Run) [][]string {
	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			shortID(run.ID),
			run.StartedAt.Local().Format(time.DateTime),
			string(run.Status),
			strconv.FormatInt(run.RankedRows, 10),
			pc1Text(run),
			run.TopTitle,
			fmt.Sprintf("%dms", run.ElapsedMS),
		}
	}
	return rows
}

func renderHistory(r *output.Renderer, runs []*state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		if runs == nil {
			runs = []*state.Run{}
		}
		return r.JSON(runs)
	}
	if len(runs) == 0 {
		r.Muted("No runs recorded yet. Run 'movierank run' first.")
		return nil
	}

	r.Header(1, "Run History")
	r.Println("")
	r.Table(historyColumns, historyRows(runs))
	return nil
}

func renderRun(r *output.Renderer, run *state.Run) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(run)
	}

	r.Header(1, "Run "+run.ID)
	r.Println("")
	r.KeyValue("Started", run.StartedAt.Local().Format(time.RFC3339))
	r.KeyValue("Status", string(run.Status))
	if run.Error != "" {
		r.KeyValue("Error", run.Error)
	}
	r.KeyValue("Elapsed", fmt.Sprintf("%dms", run.ElapsedMS))
	r.KeyValue("Popularity", run.PopularityPath)
	r.KeyValue("Revenue", run.RevenuePath)
	r.KeyValue("Ratings", run.RatingsPath)
	r.KeyValue("Output", run.OutputPath)
	if run.Status == state.RunStatusCompleted {
		r.Println("")
		r.Header(2, "Row Counts")
		r.Table([]string{"stage", "rows"}, [][]string{
			{"popularity", strconv.FormatInt(run.PopularityRows, 10)},
			{"revenue", strconv.FormatInt(run.RevenueRows, 10)},
			{"ratings", strconv.FormatInt(run.RatingsRows, 10)},
			{"joined by id", strconv.FormatInt(run.JoinedByID, 10)},
			{"joined by title", strconv.FormatInt(run.JoinedByTitle, 10)},
			{"filtered", strconv.FormatInt(run.FilteredRows, 10)},
			{"ranked", strconv.FormatInt(run.RankedRows, 10)},
		})
		if pc1 := pc1Text(run); pc1 != "" {
			r.KeyValue("PC1 explained variance", pc1)
		}
		if run.TopTitle != "" {
			r.KeyValue("Top movie", run.TopTitle)
		}
		if run.Warnings > 0 {
			r.KeyValue("Warnings", strconv.Itoa(run.Warnings))
		}
	}
	return nil
}
