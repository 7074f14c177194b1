package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Components is the number of principal components fitted.
const Components = 3

// FeatureNames labels the columns of the PCA input matrix.
var FeatureNames = []string{"rating_norm", "revenue_norm", "popularity_norm"}

// fit holds a principal component fit of an n×d matrix.
type fit struct {
	// scores is n×k, the centered data projected on the components.
	scores *mat.Dense
	// vectors is d×k, one component direction per column.
	vectors *mat.Dense
	// variances of the scores, one per component.
	variances []float64
}

// fitPCA computes a principal component analysis of x (rows are
// observations). Columns are mean-centered but not scaled. Each component is
// oriented so that its loading with the largest magnitude is positive.
func fitPCA(x *mat.Dense) (*fit, error) {
	n, d := x.Dims()

	var pc stat.PC
	if ok := pc.PrincipalComponents(x, nil); !ok {
		return nil, fmt.Errorf("principal component decomposition failed for %d×%d matrix", n, d)
	}

	var vectors mat.Dense
	pc.VectorsTo(&vectors)
	variances := pc.VarsTo(nil)

	orient(&vectors)

	centered := mat.DenseCopyOf(x)
	for j := range d {
		col := mat.Col(nil, j, x)
		mean := stat.Mean(col, nil)
		for i := range n {
			centered.Set(i, j, col[i]-mean)
		}
	}

	var scores mat.Dense
	scores.Mul(centered, &vectors)

	return &fit{scores: &scores, vectors: &vectors, variances: variances}, nil
}

// orient flips every column of v whose largest-magnitude entry is negative.
// The first entry wins ties.
func orient(v *mat.Dense) {
	r, c := v.Dims()
	for j := range c {
		best := 0
		for i := 1; i < r; i++ {
			if math.Abs(v.At(i, j)) > math.Abs(v.At(best, j)) {
				best = i
			}
		}
		if v.At(best, j) >= 0 {
			continue
		}
		for i := range r {
			v.Set(i, j, -v.At(i, j))
		}
	}
}

// explainedVarianceRatio returns each variance as a share of their sum.
// A zero total yields all zeros.
func explainedVarianceRatio(variances []float64) []float64 {
	total := 0.0
	for _, v := range variances {
		total += v
	}
	out := make([]float64, len(variances))
	if total == 0 {
		return out
	}
	for i, v := range variances {
		out[i] = v / total
	}
	return out
}

// loadings returns the component directions as rows: [component][feature].
func (f *fit) loadings() [][]float64 {
	d, k := f.vectors.Dims()
	out := make([][]float64, k)
	for j := range k {
		out[j] = make([]float64, d)
		for i := range d {
			out[j][i] = f.vectors.At(i, j)
		}
	}
	return out
}
