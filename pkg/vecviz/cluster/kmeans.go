package cluster

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// kmeans is Lloyd's algorithm with evenly spaced initial centroids (every
// (n/k)-th row), so results are deterministic for a given input.
type kmeans struct {
	opts Options
}

func (c *kmeans) Cluster(m *vectors.Matrix) ([]int, error) {
	n := m.Rows()
	if n == 0 {
		return []int{}, nil
	}
	k := c.opts.ClusterCount(n)
	x := rows(m)
	_, dim := x.Dims()

	centroids := mat.NewDense(k, dim, nil)
	step := n / k
	for ci := 0; ci < k; ci++ {
		centroids.SetRow(ci, x.RawRowView(min(ci*step, n-1)))
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	sums := mat.NewDense(k, dim, nil)
	sizes := make([]int, k)
	iter := 0
	for ; iter < c.opts.Iterations; iter++ {
		changed := false
		for i := 0; i < n; i++ {
			v := x.RawRowView(i)
			nearest, nearestD := 0, math.Inf(1)
			for ci := 0; ci < k; ci++ {
				if d := sqDist(v, centroids.RawRowView(ci)); d < nearestD {
					nearest, nearestD = ci, d
				}
			}
			if assign[i] != nearest {
				assign[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}

		sums.Zero()
		clear(sizes)
		for i, ci := range assign {
			floats.Add(sums.RawRowView(ci), x.RawRowView(i))
			sizes[ci]++
		}
		// an empty cluster keeps its previous centroid
		for ci := 0; ci < k; ci++ {
			if sizes[ci] == 0 {
				continue
			}
			row := centroids.RawRowView(ci)
			floats.ScaleTo(row, 1/float64(sizes[ci]), sums.RawRowView(ci))
		}
	}

	c.opts.progress("kmeans: %d points into %d clusters after %d iterations", n, k, iter)
	return relabel(assign), nil
}
