package vectors

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
)

// Format identifies an on-disk embedding layout.
type Format string

const (
	// Word2VecBinary is the original word2vec binary layout:
	// "V D\n" header, then per token the label, a space and D little-endian float32.
	Word2VecBinary Format = "word2vec-bin"
	// Word2VecText is "V D" header followed by "label f1 ... fD" lines.
	Word2VecText Format = "word2vec-text"
	// GloVe is the headerless "label f1 ... fD" text layout.
	GloVe Format = "glove"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case Word2VecBinary, Word2VecText, GloVe:
		return f, nil
	}
	return "", fmt.Errorf("unknown vector format %q: %w", s, internalerr.ErrInvalidConfig)
}

// Model is a loaded embedding model: labels in file order and one matrix row
// per label.
type Model struct {
	Labels  []string
	Vectors *Matrix
}

// Size returns the number of tokens.
func (m *Model) Size() int { return len(m.Labels) }

// LoadOptions configures model loading.
type LoadOptions struct {
	Format        Format
	HalfPrecision bool
	Limit         int // keep only the first Limit tokens; 0 keeps all
}

// LoadFile reads an embedding model from path.
func LoadFile(path string, opts LoadOptions) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Load(bufio.NewReader(f), opts)
}

// Load reads an embedding model from r.
func Load(r *bufio.Reader, opts LoadOptions) (*Model, error) {
	switch opts.Format {
	case Word2VecBinary:
		return readBinary(r, opts)
	case Word2VecText, "":
		return readText(r, opts, true)
	case GloVe:
		return readText(r, opts, false)
	default:
		return nil, fmt.Errorf("unknown vector format %q: %w", opts.Format, internalerr.ErrInvalidConfig)
	}
}

func readHeader(r *bufio.Reader) (int, int, error) {
	line, err := r.ReadString('\n')
	if err != nil && !(err == io.EOF && line != "") {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("malformed header %q: %w", strings.TrimSpace(line), internalerr.ErrInvalidInput)
	}
	n, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, 0, fmt.Errorf("header vocabulary size: %w", err)
	}
	dim, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("header dimension: %w", err)
	}
	if n < 0 || dim <= 0 {
		return 0, 0, fmt.Errorf("header %d x %d: %w", n, dim, internalerr.ErrInvalidInput)
	}
	return n, dim, nil
}

func readBinary(r *bufio.Reader, opts LoadOptions) (*Model, error) {
	n, dim, err := readHeader(r)
	if err != nil {
		return nil, err
	}
	if opts.Limit > 0 && opts.Limit < n {
		n = opts.Limit
	}

	m := &Model{
		Labels:  make([]string, 0, n),
		Vectors: NewMatrix(n, dim, opts.HalfPrecision),
	}
	seen := make(map[string]struct{}, n)
	row := make([]float32, dim)

	for i := 0; i < n; i++ {
		label, err := r.ReadString(' ')
		if err != nil {
			return nil, fmt.Errorf("read label %d: %w", i, err)
		}
		label = normalizeLabel(label)
		if err := addLabel(m, seen, label); err != nil {
			return nil, err
		}

		if err := binary.Read(r, binary.LittleEndian, row); err != nil {
			return nil, fmt.Errorf("read vector %q: %w", label, err)
		}
		m.Vectors.SetRow(i, row)
	}
	return m, nil
}

func readText(r *bufio.Reader, opts LoadOptions, header bool) (*Model, error) {
	expected, dim := -1, 0
	if header {
		var err error
		expected, dim, err = readHeader(r)
		if err != nil {
			return nil, err
		}
	}

	var (
		labels []string
		rows   [][]float32
		seen   = make(map[string]struct{})
	)
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if opts.Limit > 0 && len(labels) >= opts.Limit {
			break
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if dim == 0 {
			dim = len(fields) - 1
			if dim <= 0 {
				return nil, fmt.Errorf("line %d has no vector components: %w", len(labels)+1, internalerr.ErrInvalidInput)
			}
		}
		if len(fields)-1 != dim {
			return nil, fmt.Errorf("token %q has %d components, expected %d: %w", fields[0], len(fields)-1, dim, internalerr.ErrInvalidInput)
		}
		label := normalizeLabel(fields[0])
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("label %q: %w", label, internalerr.ErrDuplicate)
		}
		seen[label] = struct{}{}

		vec := make([]float32, dim)
		for j, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				return nil, fmt.Errorf("token %q component %d: %w", label, j, err)
			}
			vec[j] = float32(v)
		}
		labels = append(labels, label)
		rows = append(rows, vec)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if header && opts.Limit == 0 && expected != len(labels) {
		return nil, fmt.Errorf("header declares %d tokens, found %d: %w", expected, len(labels), internalerr.ErrInvalidInput)
	}

	m := &Model{
		Labels:  labels,
		Vectors: NewMatrix(len(rows), dim, opts.HalfPrecision),
	}
	for i, row := range rows {
		m.Vectors.SetRow(i, row)
	}
	return m, nil
}

func addLabel(m *Model, seen map[string]struct{}, label string) error {
	if label == "" {
		return fmt.Errorf("empty label at row %d: %w", len(m.Labels), internalerr.ErrInvalidInput)
	}
	if _, dup := seen[label]; dup {
		return fmt.Errorf("label %q: %w", label, internalerr.ErrDuplicate)
	}
	seen[label] = struct{}{}
	m.Labels = append(m.Labels, label)
	return nil
}

// normalizeLabel trims the separators word2vec writers leave around labels
// and converts the label to NFC.
func normalizeLabel(s string) string {
	s = strings.Trim(s, " \n\r\t")
	return norm.NFC.String(s)
}
