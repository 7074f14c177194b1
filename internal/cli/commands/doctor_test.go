package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/movierank/internal/cli/config"
	"github.com/leapstack-labs/movierank/internal/cli/testutil"
	"github.com/leapstack-labs/movierank/internal/engine"
	itestutil "github.com/leapstack-labs/movierank/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "github.com/leapstack-labs/movierank/pkg/adapters/duckdb"
)

func TestCalculateHealthScore(t *testing.T) {
	tests := []struct {
		name   string
		checks []HealthCheck
		want   int
	}{
		{
			name:   "no checks returns 100",
			checks: nil,
			want:   100,
		},
		{
			name: "all passing returns 100",
			checks: []HealthCheck{
				{RuleID: "C01", Status: "pass"},
				{RuleID: "I04", Status: "skip"},
			},
			want: 100,
		},
		{
			name: "warnings reduce score",
			checks: []HealthCheck{
				{RuleID: "S01", Status: "warn", IssueCount: 2},
			},
			want: 90,
		},
		{
			name: "errors reduce score more",
			checks: []HealthCheck{
				{RuleID: "I01", Status: "error", IssueCount: 1},
				{RuleID: "C02", Status: "warn", IssueCount: 1},
			},
			want: 75,
		},
		{
			name: "many issues clamp to 0",
			checks: []HealthCheck{
				{RuleID: "I01", Status: "error", IssueCount: 3},
				{RuleID: "I02", Status: "error", IssueCount: 3},
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateHealthScore(tt.checks))
		})
	}
}

func TestGetRecommendation(t *testing.T) {
	for _, id := range []string{"C01", "C02", "I01", "I02", "I03", "I04", "S01", "S02"} {
		assert.NotEmpty(t, getRecommendation(id), "expected recommendation for %s", id)
	}
	assert.Empty(t, getRecommendation("UNKNOWN"))
}

func TestGenerateRecommendations(t *testing.T) {
	checks := []HealthCheck{
		{RuleID: "I01", Status: "error", IssueCount: 1},
		{RuleID: "I02", Status: "error", IssueCount: 1},
		{RuleID: "I03", Status: "pass"},
	}

	recommendations := generateRecommendations(checks)

	// I01 and I02 share a recommendation
	require.Len(t, recommendations, 1)
	assert.Contains(t, recommendations[0], "movierank clean")
}

func doctorEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg, err := config.LoadConfig("", nil)
	require.NoError(t, err)
	eng := engine.New(engineConfig(cfg, itestutil.NewTestLogger(t)))
	t.Cleanup(func() { _ = eng.Close() })
	return eng
}

func TestBuildDoctorOutput(t *testing.T) {
	config.ResetConfig()
	defer config.ResetConfig()
	t.Setenv(config.APIKeyEnv, "")
	t.Setenv("MOVIERANK_TMDB__API_KEY", "")

	dir := testutil.SetupTestProject(t, "")
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(oldWd) }()

	eng := doctorEngine(t)
	out := buildDoctorOutput(context.Background(), eng, config.GetCurrentConfig())

	status := map[string]string{}
	for _, c := range out.HealthChecks {
		status[c.RuleID] = c.Status
	}
	assert.Equal(t, "pass", status["C01"])
	assert.Equal(t, "warn", status["C02"])
	assert.Equal(t, "pass", status["I01"])
	assert.Equal(t, "pass", status["I04"])
	// Only the raw revenue export is missing from the fixtures.
	assert.Equal(t, "warn", status["S01"])
	assert.Equal(t, "pass", status["S02"])

	require.NotNil(t, out.Summary.Rows)
	assert.Equal(t, int64(8), out.Summary.Rows.Popularity)
	assert.Equal(t, 90, out.Score)
	assert.Equal(t, 2, out.IssueCount)
}

func TestBuildDoctorOutputMissingInput(t *testing.T) {
	config.ResetConfig()
	defer config.ResetConfig()

	dir := testutil.SetupTestProject(t, "")
	require.NoError(t, os.Remove(filepath.Join(dir, config.DefaultRatingsPath)))
	oldWd, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	defer func() { _ = os.Chdir(oldWd) }()

	eng := doctorEngine(t)
	out := buildDoctorOutput(context.Background(), eng, config.GetCurrentConfig())

	for _, c := range out.HealthChecks {
		switch c.RuleID {
		case "I03":
			assert.Equal(t, "error", c.Status)
		case "I04":
			assert.Equal(t, "skip", c.Status)
		}
	}
	assert.Nil(t, out.Summary.Rows)
	assert.Contains(t, out.Recommendations, getRecommendation("I03"))
}

func TestRenderDoctorMarkdown(t *testing.T) {
	tr := testutil.NewTestRendererMarkdown()
	out := &DoctorOutput{
		HealthChecks: []HealthCheck{
			{RuleID: "C01", Name: "config-file", Group: "configuration", Status: "warn", IssueCount: 1, Details: []string{"no movierank.yaml found"}},
			{RuleID: "I04", Name: "input-columns", Group: "inputs", Status: "skip"},
		},
		Score:           95,
		Recommendations: []string{getRecommendation("C01")},
	}

	require.NoError(t, renderDoctorMarkdown(tr.Renderer, out))

	md := tr.Output()
	testutil.AssertValidMarkdown(t, md)
	testutil.AssertContains(t, md, "### Configuration")
	testutil.AssertContains(t, md, "- **[WARN]** C01: config-file")
	testutil.AssertContains(t, md, "- **[SKIP]** I04: input-columns")
	testutil.AssertContains(t, md, "**95/100**")
	testutil.AssertContains(t, md, "movierank init")
}
