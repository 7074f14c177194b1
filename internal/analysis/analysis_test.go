package analysis

import (
	"database/sql"
	"math"
	"testing"

	"github.com/leapstack-labs/movierank/internal/movie"
	"github.com/leapstack-labs/movierank/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func some[T any](v T) sql.Null[T] {
	return sql.Null[T]{V: v, Valid: true}
}

func record(id int64, title string, rating, revenue, popularity float64) movie.Record {
	return movie.Record{
		TMDBID:     id,
		Title:      title,
		Year:       some(int64(2000 + id)),
		Rating:     some(rating),
		Revenue:    some(revenue),
		Popularity: some(popularity),
	}
}

func TestParseZeroVariancePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    ZeroVariancePolicy
		wantErr bool
	}{
		{"", ZeroVarianceFail, false},
		{"error", ZeroVarianceFail, false},
		{"midpoint", ZeroVarianceMidpoint, false},
		{"zero", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseZeroVariancePolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFilter(t *testing.T) {
	noRating := record(2, "NoRating", 0, 10, 1)
	noRating.Rating = sql.Null[float64]{}
	noPopularity := record(3, "NoPopularity", 5, 10, 0)
	noPopularity.Popularity = sql.Null[float64]{}
	noRevenue := record(4, "NoRevenue", 5, 0, 1)
	noRevenue.Revenue = sql.Null[float64]{}

	records := []movie.Record{
		record(1, "Keep", 7, 100, 3),
		noRating,
		noPopularity,
		noRevenue,
		record(5, "ZeroRevenue", 6, 0, 2),
		record(6, "NegativeRevenue", 6, -5, 2),
		record(7, "AlsoKeep", 8, 1, 0),
	}

	got := Filter(records)
	require.Len(t, got, 2)
	assert.Equal(t, "Keep", got[0].Title)
	assert.Equal(t, "AlsoKeep", got[1].Title)

	for _, r := range got {
		assert.True(t, r.Revenue.Valid && r.Revenue.V > 0)
		assert.True(t, r.Rating.Valid)
		assert.True(t, r.Popularity.Valid)
	}
	assert.Len(t, records, 7, "input is not modified")
}

func TestFilter_NonFinite(t *testing.T) {
	records := []movie.Record{
		record(1, "A", 5, 100, 1),
		record(2, "B", 7, 1000, 50),
		record(3, "C", 9, 10000, 100),
		record(4, "InfPopularity", 6, 500, math.Inf(1)),
		record(5, "InfRevenue", 6, math.Inf(1), 10),
		record(6, "NegInfRating", math.Inf(-1), 500, 10),
		record(7, "NaNRating", math.NaN(), 500, 10),
	}

	got := Filter(records)
	require.Len(t, got, 3)
	for _, r := range got {
		assert.Contains(t, []string{"A", "B", "C"}, r.Title)
	}

	result, err := Analyze(records, Options{Seed: 42, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "C", result.Rows[0].Title)
}

func TestLogRevenue_Monotone(t *testing.T) {
	revenues := []float64{1, 2, 10, 99, 100, 1e6, 2.5e9}
	prev := math.Inf(-1)
	for _, r := range revenues {
		got := LogRevenue(r)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
	assert.InDelta(t, 2.0, LogRevenue(99), 1e-12)
}

func TestMinMax(t *testing.T) {
	got, ok := MinMax([]float64{5, 7, 9, 6})
	require.True(t, ok)
	assert.InDeltaSlice(t, []float64{0, 0.5, 1, 0.25}, got, 1e-12)

	_, ok = MinMax([]float64{3, 3, 3})
	assert.False(t, ok)

	got, ok = MinMax(nil)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestBuildFeatures(t *testing.T) {
	records := []movie.Record{
		record(1, "Low", 5, 100, 1),
		record(2, "Mid", 7, 1000, 50),
		record(3, "High", 9, 10000, 100),
	}

	scored, err := BuildFeatures(records, Options{Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	require.Len(t, scored, 3)

	assert.InDelta(t, math.Log10(101), scored[0].LogRevenue, 1e-12)
	assert.InDelta(t, 0.0, scored[0].RevenueNorm, 1e-12)
	assert.InDelta(t, 1.0, scored[2].RevenueNorm, 1e-12)
	assert.InDelta(t, 0.0, scored[0].RatingNorm, 1e-12)
	assert.InDelta(t, 0.5, scored[1].RatingNorm, 1e-12)
	assert.InDelta(t, 1.0, scored[2].PopularityNorm, 1e-12)
	assert.InDelta(t, 49.0/99.0, scored[1].PopularityNorm, 1e-12)

	assert.Equal(t, records[1], scored[1].Record, "source fields are unchanged")
}

func TestBuildFeatures_ZeroVariance(t *testing.T) {
	records := []movie.Record{
		record(1, "A", 7, 100, 1),
		record(2, "B", 7, 1000, 50),
		record(3, "C", 7, 10000, 100),
	}

	t.Run("error policy", func(t *testing.T) {
		_, err := BuildFeatures(records, Options{})
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrZeroVariance)

		var zv *ZeroVarianceError
		require.ErrorAs(t, err, &zv)
		assert.Equal(t, movie.ColRating, zv.Column)
		assert.InDelta(t, 7.0, zv.Value, 1e-12)
	})

	t.Run("midpoint policy", func(t *testing.T) {
		scored, err := BuildFeatures(records, Options{
			ZeroVariance: ZeroVarianceMidpoint,
			Logger:       testutil.NewTestLogger(t),
		})
		require.NoError(t, err)
		for _, s := range scored {
			assert.InDelta(t, 0.5, s.RatingNorm, 1e-12)
			assert.False(t, math.IsNaN(s.RevenueNorm))
		}
	})
}

func TestRank_Example(t *testing.T) {
	records := []movie.Record{
		record(1, "Low", 5, 100, 1),
		record(2, "High", 9, 10000, 100),
		record(3, "Mid", 7, 1000, 50),
	}

	result, err := Analyze(records, Options{Seed: 42, Logger: testutil.NewTestLogger(t)})
	require.NoError(t, err)
	require.Len(t, result.Rows, 3)

	assert.Equal(t, []string{"High", "Mid", "Low"}, rankedTitles(result.Rows))
	assert.InDelta(t, 1.0, result.Rows[0].RevenueNorm, 1e-12)
	assert.InDelta(t, 0.0, result.Rows[2].RevenueNorm, 1e-12)

	for _, r := range result.Rows {
		assert.Equal(t, r.PC[0], r.PerformanceIndex)
	}

	diag := result.Diagnostics
	assert.Equal(t, FeatureNames, diag.Features)
	assert.Equal(t, int64(42), diag.Seed)
	assert.Equal(t, 3, diag.Rows)
	require.Len(t, diag.ExplainedVarianceRatio, Components)
	assert.InDelta(t, 1.0, floats.Sum(diag.ExplainedVarianceRatio), 1e-9)
	assert.Greater(t, diag.ExplainedVarianceRatio[0], 0.9)

	require.Len(t, diag.Loadings, Components)
	for _, row := range diag.Loadings {
		assert.InDelta(t, 1.0, floats.Norm(row, 2), 1e-9)
		assert.Positive(t, row[floats.MaxIdx(absAll(row))])
	}
}

func TestRank_Deterministic(t *testing.T) {
	records := []movie.Record{
		record(1, "A", 6.1, 5e6, 12),
		record(2, "B", 7.9, 9e8, 80),
		record(3, "C", 5.4, 3e7, 45),
		record(4, "D", 8.8, 2e6, 30),
		record(5, "E", 7.0, 4e8, 95),
	}

	first, err := Analyze(records, Options{})
	require.NoError(t, err)
	second, err := Analyze(records, Options{})
	require.NoError(t, err)

	assert.Equal(t, rankedTitles(first.Rows), rankedTitles(second.Rows))
	for i := range first.Rows {
		assert.Equal(t, first.Rows[i].PerformanceIndex, second.Rows[i].PerformanceIndex)
	}
	assert.Equal(t, first.Diagnostics, second.Diagnostics)

	for i := 1; i < len(first.Rows); i++ {
		assert.GreaterOrEqual(t, first.Rows[i-1].PerformanceIndex, first.Rows[i].PerformanceIndex)
	}
}

func TestRank_StableTies(t *testing.T) {
	scored := []movie.Scored{
		{Record: movie.Record{Title: "Low"}, Features: movie.Features{RatingNorm: 0, RevenueNorm: 0, PopularityNorm: 0}},
		{Record: movie.Record{Title: "TwinA"}, Features: movie.Features{RatingNorm: 1, RevenueNorm: 1, PopularityNorm: 0.5}},
		{Record: movie.Record{Title: "Mid"}, Features: movie.Features{RatingNorm: 0.5, RevenueNorm: 0.2, PopularityNorm: 1}},
		{Record: movie.Record{Title: "TwinB"}, Features: movie.Features{RatingNorm: 1, RevenueNorm: 1, PopularityNorm: 0.5}},
	}

	result, err := Rank(scored, Options{})
	require.NoError(t, err)

	titles := rankedTitles(result.Rows)
	assert.Less(t, indexOf(titles, "TwinA"), indexOf(titles, "TwinB"))
	assert.Equal(t, 1, indexOf(titles, "TwinB")-indexOf(titles, "TwinA"))
}

func TestRank_InsufficientRows(t *testing.T) {
	scored := []movie.Scored{{}, {}}

	tests := []struct {
		name    string
		minRows int
		wantMin int
	}{
		{"default floor", 0, 3},
		{"below floor is raised", 1, 3},
		{"configured", 5, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Rank(scored, Options{MinRows: tt.minRows})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInsufficientRows)

			var ir *InsufficientRowsError
			require.ErrorAs(t, err, &ir)
			assert.Equal(t, 2, ir.Rows)
			assert.Equal(t, tt.wantMin, ir.Min)
		})
	}
}

func TestOrient(t *testing.T) {
	v := mat.NewDense(3, 2, []float64{
		0.2, 0.1,
		-0.9, 0.8,
		0.3, -0.5,
	})
	orient(v)

	assert.Equal(t, []float64{-0.2, 0.9, -0.3}, mat.Col(nil, 0, v))
	assert.Equal(t, []float64{0.1, 0.8, -0.5}, mat.Col(nil, 1, v))
}

func TestExplainedVarianceRatio(t *testing.T) {
	assert.InDeltaSlice(t, []float64{0.75, 0.25, 0}, explainedVarianceRatio([]float64{3, 1, 0}), 1e-12)
	assert.Equal(t, []float64{0, 0, 0}, explainedVarianceRatio([]float64{0, 0, 0}))
}

func rankedTitles(rows []movie.Ranked) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Title
	}
	return out
}

func indexOf(s []string, v string) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

func absAll(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = math.Abs(x)
	}
	return out
}
