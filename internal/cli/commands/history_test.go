package commands

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/leapstack-labs/movierank/internal/cli/output"
	"github.com/leapstack-labs/movierank/internal/cli/testutil"
	"github.com/leapstack-labs/movierank/internal/state"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyFixture() []*state.Run {
	v := 0.7123
	return []*state.Run{
		{
			ID:          "3f1c2b9a-1111-4000-8000-000000000001",
			StartedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
			ElapsedMS:   120,
			Status:      state.RunStatusCompleted,
			OutputPath:  "out.csv",
			RankedRows:  5,
			PC1Variance: &v,
			TopTitle:    "Delta",
		},
		{
			ID:     "failed",
			Status: state.RunStatusFailed,
			Error:  "ratings file not found: x.csv",
		},
	}
}

func TestHistoryRows(t *testing.T) {
	rows := historyRows(historyFixture())

	require.Len(t, rows, 2)
	assert.Equal(t, "3f1c2b9a", rows[0][0])
	assert.Equal(t, "completed", rows[0][2])
	assert.Equal(t, "5", rows[0][3])
	assert.Equal(t, "0.712", rows[0][4])
	assert.Equal(t, "Delta", rows[0][5])
	assert.Equal(t, "120ms", rows[0][6])

	assert.Equal(t, "failed", rows[1][0], "short ids stay as they are")
	assert.Empty(t, rows[1][4])
}

func TestRenderHistory(t *testing.T) {
	t.Run("markdown", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderHistory(tr.Renderer, historyFixture()))

		out := tr.Output()
		testutil.AssertOutputMode(t, tr, output.ModeMarkdown)
		testutil.AssertContains(t, out, "# Run History")
		testutil.AssertContains(t, out, "| 3f1c2b9a |")
	})

	t.Run("empty", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderHistory(tr.Renderer, nil))
		testutil.AssertContains(t, tr.Output(), "No runs recorded yet")
	})

	t.Run("empty json is an array", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderHistory(tr.Renderer, nil))
		assert.JSONEq(t, "[]", tr.Output())
	})
}

func TestRenderRun(t *testing.T) {
	runs := historyFixture()

	t.Run("completed", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderRun(tr.Renderer, runs[0]))

		out := tr.Output()
		testutil.AssertContains(t, out, "# Run 3f1c2b9a-1111-4000-8000-000000000001")
		testutil.AssertContains(t, out, "**Status:** completed")
		testutil.AssertContains(t, out, "| ranked | 5 |")
		testutil.AssertContains(t, out, "**Top movie:** Delta")
	})

	t.Run("failed", func(t *testing.T) {
		tr := testutil.NewTestRendererMarkdown()
		require.NoError(t, renderRun(tr.Renderer, runs[1]))

		out := tr.Output()
		testutil.AssertContains(t, out, "**Error:** ratings file not found: x.csv")
		testutil.AssertNotContains(t, out, "Row Counts")
	})

	t.Run("json", func(t *testing.T) {
		tr := testutil.NewTestRendererJSON()
		require.NoError(t, renderRun(tr.Renderer, runs[0]))

		var got state.Run
		require.NoError(t, json.Unmarshal(tr.Out.Bytes(), &got))
		assert.Equal(t, runs[0].ID, got.ID)
		assert.Equal(t, "Delta", got.TopTitle)
	})
}

func TestNewHistoryCommand(t *testing.T) {
	cmd := NewHistoryCommand()

	assert.Equal(t, "history [run-id]", cmd.Use)
	limit := cmd.Flags().Lookup("limit")
	require.NotNil(t, limit)
	assert.Equal(t, "10", limit.DefValue)
	assert.Equal(t, "n", limit.Shorthand)
}
