package cluster

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// threeBlobs returns 3 separated groups of sizes 4, 6 and 5 in row order.
func threeBlobs(t *testing.T) *vectors.Matrix {
	t.Helper()
	rng := rand.New(rand.NewSource(1))
	centers := [][]float32{{0, 0, 0}, {20, 0, 0}, {0, 20, 0}}
	sizes := []int{4, 6, 5}
	var rows [][]float32
	for c, size := range sizes {
		for i := 0; i < size; i++ {
			r := make([]float32, 3)
			for j := range r {
				r[j] = centers[c][j] + float32(rng.NormFloat64()*0.3)
			}
			rows = append(rows, r)
		}
	}
	m, err := vectors.FromRows(rows)
	require.NoError(t, err)
	return m
}

func requireBlobPartition(t *testing.T, labels []int) {
	t.Helper()
	require.Len(t, labels, 15)
	groups := [][2]int{{0, 4}, {4, 10}, {10, 15}}
	seen := make(map[int]bool)
	for _, g := range groups {
		id := labels[g[0]]
		require.False(t, seen[id], "two blobs share cluster %d", id)
		seen[id] = true
		for i := g[0]; i < g[1]; i++ {
			require.Equal(t, id, labels[i], "row %d split from its blob", i)
		}
	}
}

func TestClusterCount(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		n    int
		want int
	}{
		{"explicit target", Options{TargetClusterCount: 4}, 100, 4},
		{"target wins over average", Options{TargetClusterCount: 4, AverageClusterSize: 10}, 100, 4},
		{"derived from average", Options{AverageClusterSize: 30}, 100, 3},
		{"average larger than vocab", Options{AverageClusterSize: 50}, 20, 1},
		{"default", Options{}, 100, DefaultClusterCount},
		{"clamped to vocab size", Options{TargetClusterCount: 10}, 3, 3},
		{"defaults leave room for average", DefaultOptions(), 100, DefaultClusterCount},
		{"defaults with average", func() Options { o := DefaultOptions(); o.AverageClusterSize = 4; return o }(), 100, 25},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.opts.ClusterCount(tt.n))
		})
	}
}

func TestNewInvalid(t *testing.T) {
	_, err := New(Options{Algorithm: "dbscan"})
	require.ErrorIs(t, err, internalerr.ErrInvalidConfig)

	_, err = New(Options{Algorithm: Agglomerative, Linkage: "centroid"})
	require.ErrorIs(t, err, internalerr.ErrInvalidConfig)
}

func TestAgglomerativeLinkages(t *testing.T) {
	m := threeBlobs(t)
	for _, linkage := range []Linkage{Ward, Average, Complete, Single} {
		t.Run(string(linkage), func(t *testing.T) {
			c, err := New(Options{Algorithm: Agglomerative, Linkage: linkage, TargetClusterCount: 3})
			require.NoError(t, err)
			labels, err := c.Cluster(m)
			require.NoError(t, err)
			requireBlobPartition(t, labels)
			require.Equal(t, 3, Count(labels))
			// ids are numbered by first appearance
			require.Equal(t, 0, labels[0])
		})
	}
}

func TestAgglomerativeExtremes(t *testing.T) {
	m := threeBlobs(t)

	c, _ := New(Options{TargetClusterCount: 1})
	labels, err := c.Cluster(m)
	require.NoError(t, err)
	require.Equal(t, 1, Count(labels))

	c, _ = New(Options{TargetClusterCount: 15})
	labels, err = c.Cluster(m)
	require.NoError(t, err)
	require.Equal(t, 15, Count(labels))
}

func TestAgglomerativeAverageSize(t *testing.T) {
	c, err := New(Options{Algorithm: Agglomerative, AverageClusterSize: 5})
	require.NoError(t, err)
	labels, err := c.Cluster(threeBlobs(t))
	require.NoError(t, err)
	require.Equal(t, 3, Count(labels))
}

func TestKMeans(t *testing.T) {
	c, err := New(Options{Algorithm: KMeans, TargetClusterCount: 3, Iterations: 50})
	require.NoError(t, err)
	m := threeBlobs(t)
	labels, err := c.Cluster(m)
	require.NoError(t, err)
	require.Len(t, labels, 15)
	require.LessOrEqual(t, Count(labels), 3)

	again, err := c.Cluster(m)
	require.NoError(t, err)
	require.Equal(t, labels, again)
}

func TestClusterEmpty(t *testing.T) {
	m := vectors.NewMatrix(0, 3, false)
	for _, alg := range []Algorithm{Agglomerative, KMeans} {
		c, err := New(Options{Algorithm: alg})
		require.NoError(t, err)
		labels, err := c.Cluster(m)
		require.NoError(t, err)
		require.Empty(t, labels)
	}
}

func TestRelabel(t *testing.T) {
	require.Equal(t, []int{0, 1, 0, 2}, relabel([]int{9, 4, 9, -1}))
}
