package vectors

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
)

func TestLoadWord2VecText(t *testing.T) {
	input := `3 2
king 0.5 0.25
queen 0.5 -0.25
apple -1 0
`
	m, err := Load(bufio.NewReader(strings.NewReader(input)), LoadOptions{Format: Word2VecText})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Size() != 3 {
		t.Fatalf("expected 3 tokens, got %d", m.Size())
	}
	if m.Labels[0] != "king" || m.Labels[2] != "apple" {
		t.Errorf("labels out of file order: %v", m.Labels)
	}
	if m.Vectors.Dim() != 2 {
		t.Errorf("expected dim 2, got %d", m.Vectors.Dim())
	}
	if got := m.Vectors.At(1, 1); got != -0.25 {
		t.Errorf("queen[1] = %f, want -0.25", got)
	}
}

func TestLoadGloVe(t *testing.T) {
	input := "a 1 2 3\nb 4 5 6\n"
	m, err := Load(bufio.NewReader(strings.NewReader(input)), LoadOptions{Format: GloVe})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Size() != 2 || m.Vectors.Dim() != 3 {
		t.Fatalf("unexpected shape %d x %d", m.Size(), m.Vectors.Dim())
	}
	row := m.Vectors.Row(1)
	if row[0] != 4 || row[2] != 6 {
		t.Errorf("unexpected row %v", row)
	}
}

func TestLoadTextDimensionMismatch(t *testing.T) {
	input := "a 1 2\nb 3\n"
	_, err := Load(bufio.NewReader(strings.NewReader(input)), LoadOptions{Format: GloVe})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadTextHeaderCountMismatch(t *testing.T) {
	input := "3 1\na 1\nb 2\n"
	_, err := Load(bufio.NewReader(strings.NewReader(input)), LoadOptions{Format: Word2VecText})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestLoadDuplicateLabel(t *testing.T) {
	// "café" written precomposed and decomposed normalizes to the same label
	input := "caf\u00e9 1\ncafe\u0301 2\n"
	_, err := Load(bufio.NewReader(strings.NewReader(input)), LoadOptions{Format: GloVe})
	if !errors.Is(err, internalerr.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestLoadLimit(t *testing.T) {
	input := "a 1\nb 2\nc 3\n"
	m, err := Load(bufio.NewReader(strings.NewReader(input)), LoadOptions{Format: GloVe, Limit: 2})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if m.Size() != 2 {
		t.Errorf("expected 2 tokens with limit, got %d", m.Size())
	}
}

func writeBinary(t *testing.T, labels []string, rows [][]float32) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("3 2\n")
	for i, l := range labels {
		buf.WriteString(l + " ")
		for _, v := range rows[i] {
			var b [4]byte
			binary.LittleEndian.PutUint32(b[:], math.Float32bits(v))
			buf.Write(b[:])
		}
		buf.WriteByte('\n')
	}
	return buf.Bytes()
}

func TestLoadWord2VecBinaryFile(t *testing.T) {
	labels := []string{"the", "cat", "sat"}
	rows := [][]float32{{1, 0}, {0.5, 0.5}, {-1, 2}}
	path := filepath.Join(t.TempDir(), "model.bin")
	if err := os.WriteFile(path, writeBinary(t, labels, rows), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := LoadFile(path, LoadOptions{Format: Word2VecBinary})
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	for i, l := range labels {
		if m.Labels[i] != l {
			t.Errorf("label %d = %q, want %q", i, m.Labels[i], l)
		}
	}
	if got := m.Vectors.Row(2); got[0] != -1 || got[1] != 2 {
		t.Errorf("row 2 = %v", got)
	}
}

func TestLoadHalfPrecision(t *testing.T) {
	input := "a 0.5 1.25\nb -2 0.125\n"
	m, err := Load(bufio.NewReader(strings.NewReader(input)), LoadOptions{Format: GloVe, HalfPrecision: true})
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !m.Vectors.HalfPrecision() {
		t.Fatal("expected half precision storage")
	}
	// these values are exactly representable in float16
	if got := m.Vectors.At(0, 1); got != 1.25 {
		t.Errorf("At(0,1) = %f, want 1.25", got)
	}
	if got := m.Vectors.Row(1); got[0] != -2 || got[1] != 0.125 {
		t.Errorf("row 1 = %v", got)
	}
}

func TestParseFormat(t *testing.T) {
	if _, err := ParseFormat("GloVe"); err != nil {
		t.Errorf("GloVe should parse: %v", err)
	}
	if _, err := ParseFormat("fasttext"); !errors.Is(err, internalerr.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestFromRowsRagged(t *testing.T) {
	_, err := FromRows([][]float32{{1, 2}, {3}})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
