package vocab

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/clipperhouse/uax29/v2/words"
	"golang.org/x/text/unicode/norm"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
)

// Counter accumulates token occurrence counts from raw text.
type Counter struct {
	Lowercase bool
	counts    map[string]int64
	total     int64
}

// NewCounter creates an empty counter.
func NewCounter(lowercase bool) *Counter {
	return &Counter{
		Lowercase: lowercase,
		counts:    make(map[string]int64),
	}
}

// AddText segments text into words (UAX #29) and counts every word-like
// segment. Punctuation and whitespace segments are ignored.
func (c *Counter) AddText(text string) {
	toks := words.FromString(text)
	for toks.Next() {
		w := toks.Value()
		if !isWord(w) {
			continue
		}
		w = norm.NFC.String(w)
		if c.Lowercase {
			w = strings.ToLower(w)
		}
		c.counts[w]++
		c.total++
	}
}

// AddReader counts every line of r.
func (c *Counter) AddReader(r io.Reader) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		c.AddText(scanner.Text())
	}
	return scanner.Err()
}

// Count returns the occurrence count of token.
func (c *Counter) Count(token string) int64 {
	return c.counts[token]
}

// Total returns the number of counted words.
func (c *Counter) Total() int64 { return c.total }

// UniqueTokens returns the number of distinct words seen.
func (c *Counter) UniqueTokens() int { return len(c.counts) }

func isWord(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return true
		}
	}
	return false
}

// CountCorpusFile counts the words of a plain-text corpus file.
func CountCorpusFile(path string, lowercase bool) (*Counter, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	c := NewCounter(lowercase)
	if err := c.AddReader(f); err != nil {
		return nil, fmt.Errorf("count corpus: %w", err)
	}
	return c, nil
}

// LoadCountsFile reads a word2vec -save-vocab style file: one
// "token count" pair per line.
func LoadCountsFile(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCounts(f)
}

// ReadCounts parses "token count" lines. Blank lines and lines starting
// with '#' are skipped.
func ReadCounts(r io.Reader) (map[string]int64, error) {
	counts := make(map[string]int64)
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Fields(text)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: expected \"token count\": %w", line, internalerr.ErrInvalidInput)
		}
		n, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("line %d: bad count %q: %w", line, fields[1], internalerr.ErrInvalidInput)
		}
		counts[norm.NFC.String(fields[0])] = n
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

// CountSource supplies the occurrence count of a vocabulary label.
type CountSource interface {
	Count(label string) int64
}

// MapCounts adapts a count map to CountSource.
type MapCounts map[string]int64

// Count implements CountSource.
func (m MapCounts) Count(label string) int64 { return m[label] }

// Entries pairs labels (in model row order) with counts. With a nil source,
// counts fall back to V - row: embedding files are written most frequent
// first, so file order stands in for frequency.
func Entries(labels []string, src CountSource) []Entry {
	out := make([]Entry, len(labels))
	for i, l := range labels {
		var n int64
		if src != nil {
			n = src.Count(l)
		} else {
			n = int64(len(labels) - i)
		}
		out[i] = Entry{Token: l, Count: n}
	}
	return out
}
