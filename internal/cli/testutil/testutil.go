// Package testutil provides fixtures and output assertions for CLI tests.
package testutil

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// projectFiles maps testdata fixtures to their default project locations.
var projectFiles = map[string]string{
	"movies/tmdb_popularity.csv":   "data/TMDB-popularity/tmdb_popularity.csv",
	"movies/tmdb_revenue.csv":      "data/TMDB-revenue/tmdb_revenue.csv",
	"movies/imdb_ratings.csv":      "data/IMDB-rating/imdb_ratings.csv",
	"tmdb/tmdb_popularity_raw.csv": "data/TMDB-popularity/tmdb_popularity_raw.csv",
	"imdb/title.basics.tsv":        "data/IMDB-rating/title.basics.tsv",
	"imdb/title.ratings.tsv":       "data/IMDB-rating/title.ratings.tsv",
}

// SetupTestProject creates a temporary project with the movie fixtures laid
// out at the default input paths and a movierank.yaml holding extra.
func SetupTestProject(t *testing.T, extra string) string {
	t.Helper()

	dir := t.TempDir()
	testdata := testdataDir(t)
	for src, dst := range projectFiles {
		content, err := os.ReadFile(filepath.Join(testdata, src))
		require.NoError(t, err, "fixture %s", src)
		target := filepath.Join(dir, dst)
		require.NoError(t, os.MkdirAll(filepath.Dir(target), 0o755))
		require.NoError(t, os.WriteFile(target, content, 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "movierank.yaml"), []byte(extra), 0o644))
	return dir
}

// testdataDir finds the repository testdata directory from a package
// directory at most three levels deep.
func testdataDir(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)

	dir := wd
	for range 4 {
		candidate := filepath.Join(dir, "testdata", "movies")
		if _, err := os.Stat(candidate); err == nil {
			return filepath.Dir(candidate)
		}
		dir = filepath.Dir(dir)
	}
	t.Fatalf("testdata directory not found above %s", wd)
	return ""
}

// TestRenderer is a Renderer whose stdout and stderr are captured.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a capturing renderer with the given mode and TTY state.
func NewTestRenderer(mode output.OutputMode, isTTY bool) *TestRenderer {
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererAuto resolves auto mode without a TTY, which is markdown.
func NewTestRendererAuto() *TestRenderer { return NewTestRenderer(output.ModeAuto, false) }

// NewTestRendererText simulates a terminal in text mode.
func NewTestRendererText() *TestRenderer { return NewTestRenderer(output.ModeText, true) }

// NewTestRendererMarkdown creates a markdown renderer.
func NewTestRendererMarkdown() *TestRenderer { return NewTestRenderer(output.ModeMarkdown, false) }

// NewTestRendererJSON creates a JSON renderer.
func NewTestRendererJSON() *TestRenderer { return NewTestRenderer(output.ModeJSON, false) }

// Output returns what was written to stdout.
func (tr *TestRenderer) Output() string { return tr.Out.String() }

// ErrorOutput returns what was written to stderr.
func (tr *TestRenderer) ErrorOutput() string { return tr.ErrOut.String() }

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertContains checks that s contains expected.
func AssertContains(t *testing.T, s, expected string) {
	t.Helper()
	assert.Contains(t, s, expected)
}

// AssertNotContains checks that s does not contain unexpected.
func AssertNotContains(t *testing.T, s, unexpected string) {
	t.Helper()
	assert.NotContains(t, s, unexpected)
}

// AssertValidMarkdown checks that code fences are balanced and no header
// is empty.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()
	assert.Equal(t, 0, strings.Count(md, "```")%2, "unbalanced code fences")
	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}

// AssertOutputMode checks mode specific properties of the captured output.
// Markdown and JSON never carry ANSI escapes.
func AssertOutputMode(t *testing.T, tr *TestRenderer, mode output.OutputMode) {
	t.Helper()
	if mode == output.ModeMarkdown || mode == output.ModeJSON {
		all := tr.Output() + tr.ErrorOutput()
		assert.False(t, ansiPattern.MatchString(all), "output contains ANSI escapes: %q", all)
	}
}
