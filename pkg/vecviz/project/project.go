package project

import (
	"fmt"
	"strings"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// Algorithm names a projection method.
type Algorithm string

const (
	TSNE Algorithm = "tsne"
	PCA  Algorithm = "pca"
)

// Options configures a projector.
type Options struct {
	Algorithm    Algorithm `yaml:"algorithm"`
	Iterations   int       `yaml:"iterations"`    // t-SNE gradient steps
	Verbosity    int       `yaml:"verbosity"`     // >0 reports progress every Verbosity*50 iterations
	Perplexity   float64   `yaml:"perplexity"`    // t-SNE only
	LearningRate float64   `yaml:"learning_rate"` // t-SNE only

	// Progress receives progress lines when Verbosity > 0.
	Progress func(format string, args ...any) `yaml:"-"`
}

// DefaultOptions returns the t-SNE defaults.
func DefaultOptions() Options {
	return Options{
		Algorithm:    TSNE,
		Iterations:   1000,
		Perplexity:   30,
		LearningRate: 200,
	}
}

// Projector maps an N x D matrix to N 2D coordinates in row order.
type Projector interface {
	Project(m *vectors.Matrix) ([][2]float64, error)
}

// New returns the projector selected by opts.Algorithm. Zero-valued numeric
// options take their defaults.
func New(opts Options) (Projector, error) {
	def := DefaultOptions()
	if opts.Iterations <= 0 {
		opts.Iterations = def.Iterations
	}
	if opts.Perplexity <= 0 {
		opts.Perplexity = def.Perplexity
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = def.LearningRate
	}

	switch Algorithm(strings.ToLower(string(opts.Algorithm))) {
	case TSNE, "":
		return &tsneProjector{opts: opts}, nil
	case PCA:
		return &pca{opts: opts}, nil
	default:
		return nil, fmt.Errorf("unknown projection %q: %w", opts.Algorithm, internalerr.ErrInvalidConfig)
	}
}

func (o Options) progress(format string, args ...any) {
	if o.Verbosity > 0 && o.Progress != nil {
		o.Progress(format, args...)
	}
}

// dense copies m into a row-major float64 slice.
func dense(m *vectors.Matrix) []float64 {
	n, d := m.Rows(), m.Dim()
	out := make([]float64, n*d)
	for i := 0; i < n; i++ {
		for j := 0; j < d; j++ {
			out[i*d+j] = m.At(i, j)
		}
	}
	return out
}
