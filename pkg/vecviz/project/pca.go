package project

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// pca projects the centered rows onto the top two right singular vectors.
type pca struct {
	opts Options
}

func (p *pca) Project(m *vectors.Matrix) ([][2]float64, error) {
	n, d := m.Rows(), m.Dim()
	out := make([][2]float64, n)
	if n < 2 || d == 0 {
		return out, nil
	}

	x := mat.NewDense(n, d, dense(m))
	col := make([]float64, n)
	for j := 0; j < d; j++ {
		mat.Col(col, j, x)
		mean := stat.Mean(col, nil)
		for i := 0; i < n; i++ {
			x.Set(i, j, col[i]-mean)
		}
	}

	var svd mat.SVD
	if !svd.Factorize(x, mat.SVDThin) {
		return nil, errors.New("pca: singular value decomposition did not converge")
	}
	var v mat.Dense
	svd.VTo(&v)
	values := svd.Values(nil)

	// components beyond the rank of the data project to zero
	pcs := mat.NewDense(d, 2, nil)
	for c := 0; c < 2 && c < len(values); c++ {
		if values[c] < 1e-9*math.Max(1, values[0]) {
			break
		}
		big := 0
		for i := 0; i < d; i++ {
			if math.Abs(v.At(i, c)) > math.Abs(v.At(big, c)) {
				big = i
			}
		}
		sign := 1.0
		if v.At(big, c) < 0 {
			sign = -1
		}
		for i := 0; i < d; i++ {
			pcs.Set(i, c, sign*v.At(i, c))
		}
	}

	var projected mat.Dense
	projected.Mul(x, pcs)
	for i := range out {
		out[i] = [2]float64{projected.At(i, 0), projected.At(i, 1)}
	}
	p.opts.progress("pca: projected %d points from %d dimensions", n, d)
	return out, nil
}
