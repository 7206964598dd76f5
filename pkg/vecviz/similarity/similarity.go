package similarity

import (
	"fmt"
	"math"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// Oracle returns a similarity score for two tokens. Implementations may fail
// for individual pairs.
//
// The score must be symmetric: Similarity(a, b) == Similarity(b, a). The
// dataset builder asks once per unordered pair and records the answer for
// both tokens, so an asymmetric oracle sees only one direction.
type Oracle interface {
	Similarity(a, b string) (float64, error)
}

// Func adapts a plain function to Oracle.
type Func func(a, b string) (float64, error)

// Similarity implements Oracle.
func (f Func) Similarity(a, b string) (float64, error) { return f(a, b) }

// Cosine is the cosine similarity oracle over an embedding model, the same
// score gensim's KeyedVectors.similarity reports.
type Cosine struct {
	vecs  *vectors.Matrix
	index map[string]int
	norms []float64
}

// NewCosine precomputes row norms for m.
func NewCosine(m *vectors.Model) *Cosine {
	c := &Cosine{
		vecs:  m.Vectors,
		index: make(map[string]int, len(m.Labels)),
		norms: make([]float64, len(m.Labels)),
	}
	row := make([]float32, m.Vectors.Dim())
	for i, label := range m.Labels {
		c.index[label] = i
		m.Vectors.RowInto(i, row)
		var sum float64
		for _, x := range row {
			sum += float64(x) * float64(x)
		}
		c.norms[i] = math.Sqrt(sum)
	}
	return c
}

// Similarity returns dot(a, b) / (|a| |b|), clamped to [-1, 1].
func (c *Cosine) Similarity(a, b string) (float64, error) {
	i, ok := c.index[a]
	if !ok {
		return 0, fmt.Errorf("%q: %w", a, internalerr.ErrUnknownToken)
	}
	j, ok := c.index[b]
	if !ok {
		return 0, fmt.Errorf("%q: %w", b, internalerr.ErrUnknownToken)
	}
	return c.Rows(i, j)
}

// Rows returns the cosine similarity of rows i and j.
func (c *Cosine) Rows(i, j int) (float64, error) {
	ni, nj := c.norms[i], c.norms[j]
	if ni == 0 || nj == 0 {
		return 0, internalerr.ErrZeroVector
	}

	var dot float64
	for k := 0; k < c.vecs.Dim(); k++ {
		dot += c.vecs.At(i, k) * c.vecs.At(j, k)
	}
	s := dot / (ni * nj)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, internalerr.ErrNonFinite
	}

	// floating point error can push |s| slightly past 1
	if s > 1 {
		s = 1
	} else if s < -1 {
		s = -1
	}
	return s, nil
}
