package vectors

import (
	"fmt"

	"github.com/x448/float16"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
)

// Matrix holds one embedding row per token, in vocabulary index order.
// Rows are stored either as float32 or, when half precision is enabled,
// as float16 bit patterns that are widened on read.
type Matrix struct {
	rows int
	dim  int
	full []float32
	half []uint16
}

// NewMatrix creates a zeroed rows x dim matrix.
func NewMatrix(rows, dim int, halfPrecision bool) *Matrix {
	m := &Matrix{rows: rows, dim: dim}
	if halfPrecision {
		m.half = make([]uint16, rows*dim)
	} else {
		m.full = make([]float32, rows*dim)
	}
	return m
}

// FromRows builds a full-precision matrix from row slices.
// All rows must have the same length.
func FromRows(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	dim := len(rows[0])
	m := NewMatrix(len(rows), dim, false)
	for i, r := range rows {
		if len(r) != dim {
			return nil, fmt.Errorf("row %d has %d columns, expected %d: %w", i, len(r), dim, internalerr.ErrInvalidInput)
		}
		copy(m.full[i*dim:(i+1)*dim], r)
	}
	return m, nil
}

// Rows returns the number of rows (vocabulary size).
func (m *Matrix) Rows() int { return m.rows }

// Dim returns the vector dimensionality.
func (m *Matrix) Dim() int { return m.dim }

// HalfPrecision reports whether rows are stored as float16.
func (m *Matrix) HalfPrecision() bool { return m.half != nil }

// Row returns a copy of row i as float32.
func (m *Matrix) Row(i int) []float32 {
	out := make([]float32, m.dim)
	m.RowInto(i, out)
	return out
}

// RowInto copies row i into dst, which must have length Dim().
func (m *Matrix) RowInto(i int, dst []float32) {
	start := i * m.dim
	if m.half != nil {
		for j := 0; j < m.dim; j++ {
			dst[j] = float16.Frombits(m.half[start+j]).Float32()
		}
		return
	}
	copy(dst, m.full[start:start+m.dim])
}

// At returns element (i, j) widened to float64.
func (m *Matrix) At(i, j int) float64 {
	idx := i*m.dim + j
	if m.half != nil {
		return float64(float16.Frombits(m.half[idx]).Float32())
	}
	return float64(m.full[idx])
}

// SetRow stores v as row i.
func (m *Matrix) SetRow(i int, v []float32) {
	start := i * m.dim
	if m.half != nil {
		for j, x := range v {
			m.half[start+j] = float16.Fromfloat32(x).Bits()
		}
		return
	}
	copy(m.full[start:start+m.dim], v)
}
