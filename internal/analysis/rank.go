package analysis

import (
	"cmp"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/movierank/internal/movie"
	"gonum.org/v1/gonum/mat"
)

// MinRowsFloor is the smallest row count a fit accepts.
const MinRowsFloor = Components

// Options configures feature building and ranking.
type Options struct {
	// ZeroVariance selects the constant column policy (default ZeroVarianceFail).
	ZeroVariance ZeroVariancePolicy
	// MinRows is the minimum number of rows to rank, never below MinRowsFloor.
	MinRows int
	// Seed is recorded in the diagnostics. The decomposition is deterministic.
	Seed int64
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.ZeroVariance == "" {
		o.ZeroVariance = ZeroVarianceFail
	}
	if o.MinRows < MinRowsFloor {
		o.MinRows = MinRowsFloor
	}
	if o.Logger == nil {
		o.Logger = slog.New(slog.DiscardHandler)
	}
	return o
}

// Diagnostics describes a principal component fit.
type Diagnostics struct {
	Features               []string    `json:"features"`
	ExplainedVarianceRatio []float64   `json:"explained_variance_ratio"`
	Loadings               [][]float64 `json:"loadings"`
	Seed                   int64       `json:"seed"`
	Rows                   int         `json:"rows"`
}

// Result is the ranked table with its diagnostics.
type Result struct {
	Rows        []movie.Ranked
	Diagnostics Diagnostics
}

// Rank fits the principal components of the normalized features and orders
// rows by their first component score, highest first. Equal scores keep
// input order.
func Rank(scored []movie.Scored, opts Options) (*Result, error) {
	opts = opts.withDefaults()

	if len(scored) < opts.MinRows {
		return nil, &InsufficientRowsError{Rows: len(scored), Min: opts.MinRows}
	}

	x := mat.NewDense(len(scored), len(FeatureNames), nil)
	for i, s := range scored {
		x.SetRow(i, s.Vector())
	}

	f, err := fitPCA(x)
	if err != nil {
		return nil, err
	}

	ranked := make([]movie.Ranked, len(scored))
	for i, s := range scored {
		r := movie.Ranked{Scored: s}
		for j := range Components {
			r.PC[j] = f.scores.At(i, j)
		}
		r.PerformanceIndex = r.PC[0]
		ranked[i] = r
	}

	slices.SortStableFunc(ranked, func(a, b movie.Ranked) int {
		return cmp.Compare(b.PerformanceIndex, a.PerformanceIndex)
	})

	diag := Diagnostics{
		Features:               slices.Clone(FeatureNames),
		ExplainedVarianceRatio: explainedVarianceRatio(f.variances),
		Loadings:               f.loadings(),
		Seed:                   opts.Seed,
		Rows:                   len(scored),
	}

	opts.Logger.Info("ranked movies",
		"rows", diag.Rows,
		"explained_variance_ratio", diag.ExplainedVarianceRatio)

	return &Result{Rows: ranked, Diagnostics: diag}, nil
}

// Analyze builds features from the merged records and ranks them.
func Analyze(records []movie.Record, opts Options) (*Result, error) {
	scored, err := BuildFeatures(records, opts)
	if err != nil {
		return nil, err
	}
	return Rank(scored, opts)
}
