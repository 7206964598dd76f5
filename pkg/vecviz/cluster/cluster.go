package cluster

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// Algorithm names a clustering method.
type Algorithm string

const (
	Agglomerative Algorithm = "agglo"
	KMeans        Algorithm = "kmeans"
)

// Linkage selects how agglomerative clustering measures cluster distance.
type Linkage string

const (
	Ward     Linkage = "ward"
	Average  Linkage = "average"
	Complete Linkage = "complete"
	Single   Linkage = "single"
)

// DefaultClusterCount is used when neither a target count nor an average
// cluster size is configured.
const DefaultClusterCount = 2

// Options configures a clusterer.
type Options struct {
	Algorithm Algorithm `yaml:"algorithm"`

	// TargetClusterCount is the number of clusters to produce. When zero and
	// AverageClusterSize is set, it is floor(V / AverageClusterSize).
	TargetClusterCount int `yaml:"target_cluster_count"`
	AverageClusterSize int `yaml:"average_cluster_size"`

	Linkage    Linkage `yaml:"linkage"`    // agglomerative only
	Iterations int     `yaml:"iterations"` // k-means only
	Verbosity  int     `yaml:"verbosity"`

	// Progress receives progress lines when Verbosity > 0.
	Progress func(format string, args ...any) `yaml:"-"`
}

// DefaultOptions returns agglomerative ward clustering. No count is set, so
// ClusterCount falls back to DefaultClusterCount unless an average cluster
// size is configured.
func DefaultOptions() Options {
	return Options{
		Algorithm:  Agglomerative,
		Linkage:    Ward,
		Iterations: 20,
	}
}

// ClusterCount resolves the number of clusters for a vocabulary of size n.
// The result is always in [1, n] for n > 0.
func (o Options) ClusterCount(n int) int {
	k := o.TargetClusterCount
	if k <= 0 && o.AverageClusterSize > 0 {
		k = n / o.AverageClusterSize
		if k < 1 {
			k = 1
		}
	}
	if k <= 0 {
		k = DefaultClusterCount
	}
	if k > n {
		k = n
	}
	return k
}

// Clusterer assigns a cluster id to every matrix row.
type Clusterer interface {
	Cluster(m *vectors.Matrix) ([]int, error)
}

// New returns the clusterer selected by opts.Algorithm.
func New(opts Options) (Clusterer, error) {
	def := DefaultOptions()
	if opts.Iterations <= 0 {
		opts.Iterations = def.Iterations
	}
	if opts.Linkage == "" {
		opts.Linkage = def.Linkage
	}

	switch Algorithm(strings.ToLower(string(opts.Algorithm))) {
	case Agglomerative, "":
		switch Linkage(strings.ToLower(string(opts.Linkage))) {
		case Ward, Average, Complete, Single:
			opts.Linkage = Linkage(strings.ToLower(string(opts.Linkage)))
		default:
			return nil, fmt.Errorf("unknown linkage %q: %w", opts.Linkage, internalerr.ErrInvalidConfig)
		}
		return &agglomerative{opts: opts}, nil
	case KMeans:
		return &kmeans{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown clustering %q: %w", opts.Algorithm, internalerr.ErrInvalidConfig)
	}
}

// Count returns the number of distinct ids in labels.
func Count(labels []int) int {
	seen := make(map[int]struct{})
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

func (o Options) progress(format string, args ...any) {
	if o.Verbosity > 0 && o.Progress != nil {
		o.Progress(format, args...)
	}
}

// relabel renumbers ids by first appearance in row order.
func relabel(ids []int) []int {
	next := 0
	seen := make(map[int]int)
	out := make([]int, len(ids))
	for i, id := range ids {
		l, ok := seen[id]
		if !ok {
			l = next
			seen[id] = l
			next++
		}
		out[i] = l
	}
	return out
}

// rows copies m into an N x D float64 matrix.
func rows(m *vectors.Matrix) *mat.Dense {
	x := mat.NewDense(m.Rows(), max(m.Dim(), 1), nil)
	for i := 0; i < m.Rows(); i++ {
		for j := 0; j < m.Dim(); j++ {
			x.Set(i, j, m.At(i, j))
		}
	}
	return x
}

func sqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}
