package commands

import (
	"fmt"
	"strconv"

	"github.com/leapstack-labs/movierank/internal/analysis"
	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/report"
)

// topTable returns the rows of the top-N table in report.TopColumns order.
func topTable(top []report.TopRow) [][]string {
	rows := make([][]string, len(top))
	for i, t := range top {
		year := ""
		if t.Year != nil {
			year = strconv.FormatInt(*t.Year, 10)
		}
		rows[i] = []string{
			strconv.Itoa(t.Rank),
			t.Title,
			year,
			output.FormatFloat(t.Rating, 1),
			output.FormatFloat(t.LogRevenue, 3),
			output.FormatFloat(t.Popularity, 3),
			output.FormatFloat(t.PerformanceIndex, 4),
		}
	}
	return rows
}

// diagnosticsTable returns one row per component: its explained variance
// ratio followed by the loading of every feature.
func diagnosticsTable(d *analysis.Diagnostics) ([]string, [][]string) {
	header := append([]string{"component", "explained_variance"}, d.Features...)
	rows := make([][]string, len(d.Loadings))
	for i, loadings := range d.Loadings {
		row := []string{fmt.Sprintf("PC%d", i+1), output.FormatFloat(d.ExplainedVarianceRatio[i], 4)}
		for _, l := range loadings {
			row = append(row, output.FormatFloat(l, 4))
		}
		rows[i] = row
	}
	return header, rows
}

// countLines labels the row counts of every stage.
func countLines(c report.Counts) [][2]string {
	return [][2]string{
		{"Popularity rows", strconv.FormatInt(c.Popularity, 10)},
		{"Revenue rows", strconv.FormatInt(c.Revenue, 10)},
		{"Ratings rows", strconv.FormatInt(c.Ratings, 10)},
		{"Joined by id", strconv.FormatInt(c.JoinedByID, 10)},
		{"Joined by title", strconv.FormatInt(c.JoinedByTitle, 10)},
		{"After filtering", strconv.FormatInt(c.Filtered, 10)},
		{"Ranked", strconv.FormatInt(c.Ranked, 10)},
	}
}

// renderRunText outputs the run summary in styled text format.
func renderRunText(r *output.Renderer, s *report.Summary) {
	styles := r.Styles()

	r.Println("")
	r.Header(1, "Movie Performance Ranking")
	r.Println("")

	if len(s.Top) > 0 {
		r.Header(2, fmt.Sprintf("Top %d", len(s.Top)))
		r.Table(report.TopColumns, topTable(s.Top))
		r.Println("")
	}

	if s.Diagnostics != nil {
		r.Header(2, "PCA Diagnostics")
		header, rows := diagnosticsTable(s.Diagnostics)
		r.Table(header, rows)
		r.Muted(fmt.Sprintf("%d rows, seed %d", s.Diagnostics.Rows, s.Diagnostics.Seed))
		r.Println("")
	}

	r.Header(2, "Row Counts")
	for _, kv := range countLines(s.Counts) {
		r.Printf("   %-16s %s\n", kv[0]+":", styles.Bold.Render(kv[1]))
	}
	r.Println("")

	r.StatusLine(s.OutputPath, "success", fmt.Sprintf("%d rows", s.Counts.Ranked))
	r.Muted(fmt.Sprintf("run %s in %dms", s.RunID, s.ElapsedMS))
}

// renderRunMarkdown outputs the run summary in markdown format.
func renderRunMarkdown(r *output.Renderer, s *report.Summary) {
	r.Println(output.FormatHeader(1, "Movie Performance Ranking"))
	r.Println("")

	if len(s.Top) > 0 {
		r.Println(output.FormatHeader(2, fmt.Sprintf("Top %d", len(s.Top))))
		r.Println("")
		r.Table(report.TopColumns, topTable(s.Top))
		r.Println("")
	}

	if s.Diagnostics != nil {
		r.Println(output.FormatHeader(2, "PCA Diagnostics"))
		r.Println("")
		header, rows := diagnosticsTable(s.Diagnostics)
		r.Table(header, rows)
		r.Println("")
		r.Println(output.FormatKeyValue("Rows", strconv.Itoa(s.Diagnostics.Rows)))
		r.Println(output.FormatKeyValue("Seed", strconv.FormatInt(s.Diagnostics.Seed, 10)))
		r.Println("")
	}

	r.Println(output.FormatHeader(2, "Row Counts"))
	r.Println("")
	for _, kv := range countLines(s.Counts) {
		r.Printf("- %s\n", output.FormatKeyValue(kv[0], kv[1]))
	}
	r.Println("")

	if len(s.Warnings) > 0 {
		r.Println(output.FormatHeader(2, "Warnings"))
		r.Println("")
		for _, w := range s.Warnings {
			r.Printf("- %s\n", w)
		}
		r.Println("")
	}

	r.Println(output.FormatKeyValue("Output", s.OutputPath))
	r.Println(output.FormatKeyValue("Run", fmt.Sprintf("%s (%dms)", s.RunID, s.ElapsedMS)))
}
