package analysis

import (
	"fmt"
	"math"
	"slices"

	"github.com/leapstack-labs/movierank/internal/movie"
)

// ZeroVariancePolicy decides what normalization does with a constant column.
type ZeroVariancePolicy string

const (
	// ZeroVarianceFail returns a ZeroVarianceError.
	ZeroVarianceFail ZeroVariancePolicy = "error"
	// ZeroVarianceMidpoint maps every value of the column to 0.5.
	ZeroVarianceMidpoint ZeroVariancePolicy = "midpoint"
)

// midpoint is the normalized value used for constant columns.
const midpoint = 0.5

// ParseZeroVariancePolicy validates a policy name. Empty means ZeroVarianceFail.
func ParseZeroVariancePolicy(s string) (ZeroVariancePolicy, error) {
	switch p := ZeroVariancePolicy(s); p {
	case "":
		return ZeroVarianceFail, nil
	case ZeroVarianceFail, ZeroVarianceMidpoint:
		return p, nil
	default:
		return "", fmt.Errorf("invalid zero variance policy %q (valid: %s, %s)", s, ZeroVarianceFail, ZeroVarianceMidpoint)
	}
}

// Filter keeps records with a positive revenue, a rating and a popularity.
// NaN and infinite values count as missing. The input slice is not modified.
func Filter(records []movie.Record) []movie.Record {
	out := make([]movie.Record, 0, len(records))
	for _, r := range records {
		if !finite(r.Revenue.V, r.Revenue.Valid) || r.Revenue.V <= 0 {
			continue
		}
		if !finite(r.Rating.V, r.Rating.Valid) || !finite(r.Popularity.V, r.Popularity.Valid) {
			continue
		}
		out = append(out, r)
	}
	return out
}

func finite(v float64, valid bool) bool {
	return valid && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// LogRevenue returns log10(revenue + 1).
func LogRevenue(revenue float64) float64 {
	return math.Log10(revenue + 1)
}

// MinMax rescales values to [0, 1]. It reports false when the values are
// constant, in which case the returned slice is nil.
func MinMax(values []float64) ([]float64, bool) {
	if len(values) == 0 {
		return []float64{}, true
	}
	lo, hi := slices.Min(values), slices.Max(values)
	span := hi - lo
	if span == 0 {
		return nil, false
	}
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = (v - lo) / span
	}
	return out, true
}

// BuildFeatures filters records and derives the normalized features.
// Records that fail Filter are dropped.
func BuildFeatures(records []movie.Record, opts Options) ([]movie.Scored, error) {
	opts = opts.withDefaults()
	kept := Filter(records)

	opts.Logger.Debug("filtered records", "in", len(records), "kept", len(kept))

	n := len(kept)
	ratings := make([]float64, n)
	logRevenue := make([]float64, n)
	popularity := make([]float64, n)
	for i, r := range kept {
		ratings[i] = r.Rating.V
		logRevenue[i] = LogRevenue(r.Revenue.V)
		popularity[i] = r.Popularity.V
	}

	ratingNorm, err := normalize(movie.ColRating, ratings, opts)
	if err != nil {
		return nil, err
	}
	revenueNorm, err := normalize(movie.ColLogRevenue, logRevenue, opts)
	if err != nil {
		return nil, err
	}
	popularityNorm, err := normalize(movie.ColPopularity, popularity, opts)
	if err != nil {
		return nil, err
	}

	scored := make([]movie.Scored, n)
	for i, r := range kept {
		scored[i] = movie.Scored{
			Record: r,
			Features: movie.Features{
				LogRevenue:     logRevenue[i],
				RatingNorm:     ratingNorm[i],
				RevenueNorm:    revenueNorm[i],
				PopularityNorm: popularityNorm[i],
			},
		}
	}
	return scored, nil
}

// normalize applies MinMax and the zero variance policy to one column.
func normalize(column string, values []float64, opts Options) ([]float64, error) {
	out, ok := MinMax(values)
	if ok {
		return out, nil
	}

	if opts.ZeroVariance != ZeroVarianceMidpoint {
		return nil, &ZeroVarianceError{Column: column, Value: values[0]}
	}

	opts.Logger.Warn("column has zero variance, using midpoint", "column", column, "value", values[0], "rows", len(values))
	out = make([]float64, len(values))
	for i := range out {
		out[i] = midpoint
	}
	return out, nil
}
