package project

import (
	"fmt"
	"math"

	"github.com/danaugrs/go-tsne/tsne"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// tsneProjector is exact t-SNE: O(N^2) memory and work per iteration, which
// is fine for the few thousand tokens a browser page can draw. The library
// seeds its initial layout from the global source, so runs are not
// reproducible.
type tsneProjector struct {
	opts Options
}

func (t *tsneProjector) Project(m *vectors.Matrix) ([][2]float64, error) {
	n := m.Rows()
	out := make([][2]float64, n)
	x := dense(m)
	if n < 2 || m.Dim() == 0 || constant(x, m.Dim()) {
		return out, nil
	}

	// the perplexity calibration needs at least 3*perplexity neighbours
	perplexity := t.opts.Perplexity
	if limit := float64(n-1) / 3; perplexity > limit {
		perplexity = math.Max(1, limit)
	}

	every := 50 * t.opts.Verbosity
	iter := 0
	step := func(_ int, divergence float64, _ mat.Matrix) bool {
		iter++
		if every > 0 && iter%every == 0 {
			t.opts.progress("tsne: iteration %d, KL divergence %.4f", iter, divergence)
		}
		return false
	}

	ts := tsne.NewTSNE(2, perplexity, t.opts.LearningRate, t.opts.Iterations, false)
	ts.EmbedData(mat.NewDense(n, m.Dim(), x), step)

	for i := 0; i < n; i++ {
		px, py := ts.Y.At(i, 0), ts.Y.At(i, 1)
		if math.IsNaN(px) || math.IsInf(px, 0) || math.IsNaN(py) || math.IsInf(py, 0) {
			return nil, fmt.Errorf("tsne: row %d diverged: %w", i, internalerr.ErrNonFinite)
		}
		out[i] = [2]float64{px, py}
	}
	return out, nil
}

// constant reports whether every row of the row-major x equals the first.
func constant(x []float64, d int) bool {
	for i := d; i < len(x); i++ {
		if x[i] != x[i%d] {
			return false
		}
	}
	return true
}
