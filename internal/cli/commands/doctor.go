package commands

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/leapstack-labs/movierank/internal/cli/config"
	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/engine"
	"github.com/spf13/cobra"
)

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check that the project is ready to rank",
		Long: `Check the movierank project before a run:
- Configuration file and TMDb API key
- Presence and required columns of the three input tables
- Raw TMDb exports and IMDb dumps for the fetch, clean and imdb commands

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  movierank doctor

  # Output as JSON
  movierank doctor -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd)
		},
	}

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Summary         ProjectSummary `json:"summary"`
	HealthChecks    []HealthCheck  `json:"health_checks"`
	Score           int            `json:"score"`
	Recommendations []string       `json:"recommendations"`
	IssueCount      int            `json:"issue_count"`
}

// ProjectSummary contains project-level statistics.
type ProjectSummary struct {
	ConfigFile string            `json:"config_file,omitempty"`
	Rows       *engine.LoadStats `json:"rows,omitempty"`
}

// HealthCheck represents a single health check result.
type HealthCheck struct {
	RuleID     string   `json:"rule_id"`
	Name       string   `json:"name"`
	Group      string   `json:"group"`
	Status     string   `json:"status"` // "pass", "warn", "error", "skip"
	IssueCount int      `json:"issue_count"`
	Details    []string `json:"details,omitempty"`
}

func (c *HealthCheck) fail(status, detail string) {
	if c.Status != "error" {
		c.Status = status
	}
	c.IssueCount++
	c.Details = append(c.Details, detail)
}

func newCheck(id, name, group string) *HealthCheck {
	return &HealthCheck{RuleID: id, Name: name, Group: group, Status: "pass"}
}

func runDoctor(cmd *cobra.Command) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	r := cmdCtx.Renderer
	doctorOutput := buildDoctorOutput(cmd.Context(), cmdCtx.Engine, cmdCtx.Cfg)

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(doctorOutput)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, doctorOutput)
	default:
		return renderDoctorText(r, doctorOutput)
	}
}

func buildDoctorOutput(ctx context.Context, eng *engine.Engine, cfg *config.Config) *DoctorOutput {
	summary := ProjectSummary{ConfigFile: config.GetConfigFileUsed()}

	configFile := newCheck("C01", "config-file", "configuration")
	if summary.ConfigFile == "" {
		configFile.fail("warn", "no "+config.ConfigFileName+" found, using defaults")
	}

	apiKey := newCheck("C02", "tmdb-api-key", "configuration")
	if cfg.TMDB.APIKey == "" {
		apiKey.fail("warn", "tmdb.api_key is not set")
	}

	inputs := []struct {
		check *HealthCheck
		path  string
	}{
		{newCheck("I01", "popularity-input", "inputs"), cfg.Inputs.Popularity},
		{newCheck("I02", "revenue-input", "inputs"), cfg.Inputs.Revenue},
		{newCheck("I03", "ratings-input", "inputs"), cfg.Inputs.Ratings},
	}
	missing := 0
	for _, in := range inputs {
		if !fileExists(in.path) {
			in.check.fail("error", "not found: "+in.path)
			missing++
		}
	}

	columns := newCheck("I04", "input-columns", "inputs")
	if missing > 0 {
		columns.Status = "skip"
	} else {
		stats, err := eng.Load(ctx, engine.Inputs{
			Popularity: cfg.Inputs.Popularity,
			Revenue:    cfg.Inputs.Revenue,
			Ratings:    cfg.Inputs.Ratings,
		})
		if err != nil {
			columns.fail("error", err.Error())
		} else {
			summary.Rows = stats
		}
	}

	tmdbRaw := newCheck("S01", "tmdb-raw-exports", "sources")
	for _, p := range []string{cfg.TMDB.PopularityRaw, cfg.TMDB.RevenueRaw} {
		if !fileExists(p) {
			tmdbRaw.fail("warn", "not found: "+p)
		}
	}

	imdbDumps := newCheck("S02", "imdb-dumps", "sources")
	for _, p := range []string{cfg.IMDb.Basics, cfg.IMDb.Ratings} {
		if !fileExists(p) {
			imdbDumps.fail("warn", "not found: "+p)
		}
	}

	healthChecks := []HealthCheck{*configFile, *apiKey, *columns, *tmdbRaw, *imdbDumps}
	for _, in := range inputs {
		healthChecks = append(healthChecks, *in.check)
	}

	// Sort health checks by group then by rule ID
	sort.Slice(healthChecks, func(i, j int) bool {
		if healthChecks[i].Group != healthChecks[j].Group {
			return healthChecks[i].Group < healthChecks[j].Group
		}
		return healthChecks[i].RuleID < healthChecks[j].RuleID
	})

	issues := 0
	for _, c := range healthChecks {
		issues += c.IssueCount
	}

	return &DoctorOutput{
		Summary:         summary,
		HealthChecks:    healthChecks,
		Score:           calculateHealthScore(healthChecks),
		Recommendations: generateRecommendations(healthChecks),
		IssueCount:      issues,
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// calculateHealthScore computes a health score from 0-100. Errors block a
// run and weigh four times a warning.
func calculateHealthScore(checks []HealthCheck) int {
	score := 100
	for _, check := range checks {
		switch check.Status {
		case "error":
			score -= check.IssueCount * 20
		case "warn":
			score -= check.IssueCount * 5
		}
	}
	return max(score, 0)
}

// generateRecommendations creates actionable recommendations based on findings.
func generateRecommendations(checks []HealthCheck) []string {
	var recommendations []string
	seen := make(map[string]bool)

	for _, check := range checks {
		if check.IssueCount == 0 {
			continue
		}

		rec := getRecommendation(check.RuleID)
		if rec != "" && !seen[rec] {
			recommendations = append(recommendations, rec)
			seen[rec] = true
		}
	}

	return recommendations
}

// getRecommendation returns a recommendation for a specific check.
func getRecommendation(ruleID string) string {
	switch ruleID {
	case "C01":
		return "Run 'movierank init' to create " + config.ConfigFileName
	case "C02":
		return "Export " + config.APIKeyEnv + " before running 'movierank fetch'"
	case "I01", "I02":
		return "Run 'movierank fetch' and 'movierank clean' to build the TMDb inputs"
	case "I03":
		return "Run 'movierank imdb' to build the ratings input"
	case "I04":
		return "Map renamed headers under columns: in " + config.ConfigFileName
	case "S01":
		return "Raw TMDb exports are only needed to re-run 'movierank clean'"
	case "S02":
		return "Download title.basics.tsv and title.ratings.tsv from https://datasets.imdbws.com"
	default:
		return ""
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Header1.Render("movierank Project Health Report"))
	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	r.Println("")

	r.Println(styles.Header2.Render("Project Summary"))
	configFile := out.Summary.ConfigFile
	if configFile == "" {
		configFile = "(defaults)"
	}
	r.Printf("   Config: %s\n", configFile)
	if rows := out.Summary.Rows; rows != nil {
		r.Printf("   Popularity: %d | Revenue: %d | Ratings: %d rows\n", rows.Popularity, rows.Revenue, rows.Ratings)
	}
	r.Println("")

	r.Println(styles.Header2.Render("Health Checks"))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Muted.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.StatusSuccess.String()
		switch check.Status {
		case "warn":
			icon = styles.Warning.Render("!")
		case "error":
			icon = styles.StatusFailed.String()
		case "skip":
			icon = styles.Muted.Render("-")
		}

		r.Println(fmt.Sprintf("   %s %s: %s", icon, check.RuleID, check.Name))
		for _, detail := range check.Details {
			r.Println(styles.Muted.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Muted.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s\n", scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)))
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Header2.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# movierank Project Health Report")
	r.Println("")

	r.Println("## Project Summary")
	r.Println("")
	if out.Summary.ConfigFile != "" {
		r.Printf("- **Config**: %s\n", out.Summary.ConfigFile)
	} else {
		r.Println("- **Config**: (defaults)")
	}
	if rows := out.Summary.Rows; rows != nil {
		r.Printf("- **Popularity rows**: %d\n", rows.Popularity)
		r.Printf("- **Revenue rows**: %d\n", rows.Revenue)
		r.Printf("- **Ratings rows**: %d\n", rows.Ratings)
	}
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.HealthChecks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}

		r.Printf("- **[%s]** %s: %s\n", strings.ToUpper(check.Status), check.RuleID, check.Name)
		for _, detail := range check.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Println("## Health Score")
	r.Println("")
	r.Printf("**%d/100**\n", out.Score)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
