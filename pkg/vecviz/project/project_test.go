package project

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// blobs returns two well separated gaussian clusters of size k in dim dimensions.
func blobs(t *testing.T, k, dim int) *vectors.Matrix {
	t.Helper()
	rng := rand.New(rand.NewSource(11))
	rows := make([][]float32, 0, 2*k)
	for c := 0; c < 2; c++ {
		for i := 0; i < k; i++ {
			r := make([]float32, dim)
			for j := range r {
				r[j] = float32(rng.NormFloat64() * 0.1)
			}
			r[0] += float32(10 * c)
			rows = append(rows, r)
		}
	}
	m, err := vectors.FromRows(rows)
	require.NoError(t, err)
	return m
}

func dist(a, b [2]float64) float64 {
	return math.Hypot(a[0]-b[0], a[1]-b[1])
}

func meanDistances(pts [][2]float64, k int) (intra, inter float64) {
	var ni, nx int
	for i := range pts {
		for j := i + 1; j < len(pts); j++ {
			if (i < k) == (j < k) {
				intra += dist(pts[i], pts[j])
				ni++
			} else {
				inter += dist(pts[i], pts[j])
				nx++
			}
		}
	}
	return intra / float64(ni), inter / float64(nx)
}

func TestNewUnknownAlgorithm(t *testing.T) {
	_, err := New(Options{Algorithm: "umap"})
	require.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestPCALine(t *testing.T) {
	rows := [][]float32{{0, 0, 0}, {1, 1, 0}, {2, 2, 0}, {3, 3, 0}, {4, 4, 0}}
	m, err := vectors.FromRows(rows)
	require.NoError(t, err)

	p, err := New(Options{Algorithm: PCA})
	require.NoError(t, err)
	pts, err := p.Project(m)
	require.NoError(t, err)
	require.Len(t, pts, 5)

	// points on a line keep their order along the first component
	for i := 1; i < len(pts); i++ {
		require.Greater(t, pts[i][0]-pts[i-1][0], 0.0)
		require.InDelta(t, 0, pts[i][1], 1e-6)
	}
	require.InDelta(t, math.Sqrt(2), pts[1][0]-pts[0][0], 1e-6)
}

func TestPCASeparatesBlobs(t *testing.T) {
	p, err := New(Options{Algorithm: PCA})
	require.NoError(t, err)
	pts, err := p.Project(blobs(t, 10, 8))
	require.NoError(t, err)

	intra, inter := meanDistances(pts, 10)
	require.Less(t, intra, inter)
}

func TestTSNESeparatesBlobs(t *testing.T) {
	p, err := New(Options{Algorithm: TSNE, Iterations: 300, Perplexity: 5})
	require.NoError(t, err)
	pts, err := p.Project(blobs(t, 12, 6))
	require.NoError(t, err)
	require.Len(t, pts, 24)

	for _, pt := range pts {
		require.False(t, math.IsNaN(pt[0]) || math.IsNaN(pt[1]))
	}
	intra, inter := meanDistances(pts, 12)
	require.Less(t, intra, inter)
}

func TestPCADeterministic(t *testing.T) {
	m := blobs(t, 6, 4)
	p, err := New(Options{Algorithm: PCA})
	require.NoError(t, err)
	a, err := p.Project(m)
	require.NoError(t, err)
	b, err := p.Project(m)
	require.NoError(t, err)
	require.Equal(t, a, b)
}

func TestPCAOneDimension(t *testing.T) {
	m, err := vectors.FromRows([][]float32{{1}, {3}, {2}})
	require.NoError(t, err)
	p, _ := New(Options{Algorithm: PCA})
	pts, err := p.Project(m)
	require.NoError(t, err)
	require.InDeltaSlice(t, []float64{-1, 1, 0}, []float64{pts[0][0], pts[1][0], pts[2][0]}, 1e-9)
	for _, pt := range pts {
		require.Zero(t, pt[1])
	}
}

func TestTSNEProgress(t *testing.T) {
	var lines int
	p, err := New(Options{
		Algorithm:  TSNE,
		Iterations: 100,
		Verbosity:  1,
		Perplexity: 2,
		Progress:   func(string, ...any) { lines++ },
	})
	require.NoError(t, err)
	_, err = p.Project(blobs(t, 4, 3))
	require.NoError(t, err)
	require.Equal(t, 2, lines)
}

func TestProjectDegenerate(t *testing.T) {
	single, err := vectors.FromRows([][]float32{{1, 2, 3}})
	require.NoError(t, err)

	for _, alg := range []Algorithm{PCA, TSNE} {
		p, err := New(Options{Algorithm: alg})
		require.NoError(t, err)
		pts, err := p.Project(single)
		require.NoError(t, err)
		require.Equal(t, [][2]float64{{0, 0}}, pts)
	}

	// identical points must not produce NaN
	same, err := vectors.FromRows([][]float32{{1, 1}, {1, 1}, {1, 1}})
	require.NoError(t, err)
	for _, alg := range []Algorithm{PCA, TSNE} {
		p, _ := New(Options{Algorithm: alg, Iterations: 50})
		pts, err := p.Project(same)
		require.NoError(t, err)
		for _, pt := range pts {
			require.False(t, math.IsNaN(pt[0]) || math.IsNaN(pt[1]), "%s produced NaN", alg)
		}
	}
}
