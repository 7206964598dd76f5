package vocab

import (
	"fmt"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
)

// Entry is one vocabulary token and its corpus occurrence count.
type Entry struct {
	Token string
	Count int64
}

// Token is an indexed vocabulary entry. Index is the row of the token in the
// vector matrix.
type Token struct {
	Label string
	Index int
	Count int64
}

// Index maps tokens to their row index and count. It is immutable after New.
type Index struct {
	tokens []Token
	lookup map[string]int
}

// New builds an index from entries. Entry i receives index i, so iteration
// order equals entry order.
func New(entries []Entry) (*Index, error) {
	if len(entries) == 0 {
		return nil, internalerr.ErrEmptyVocabulary
	}

	idx := &Index{
		tokens: make([]Token, len(entries)),
		lookup: make(map[string]int, len(entries)),
	}
	for i, e := range entries {
		if e.Count < 0 {
			return nil, fmt.Errorf("token %q has negative count %d: %w", e.Token, e.Count, internalerr.ErrInvalidInput)
		}
		if _, dup := idx.lookup[e.Token]; dup {
			return nil, fmt.Errorf("token %q: %w", e.Token, internalerr.ErrDuplicate)
		}
		idx.lookup[e.Token] = i
		idx.tokens[i] = Token{Label: e.Token, Index: i, Count: e.Count}
	}
	return idx, nil
}

// Len returns the vocabulary size V.
func (x *Index) Len() int { return len(x.tokens) }

// Lookup returns the token with the given label.
func (x *Index) Lookup(label string) (Token, bool) {
	i, ok := x.lookup[label]
	if !ok {
		return Token{}, false
	}
	return x.tokens[i], true
}

// At returns the token at row index i.
func (x *Index) At(i int) Token { return x.tokens[i] }

// Tokens returns all tokens in index order. The returned slice is a copy.
func (x *Index) Tokens() []Token {
	out := make([]Token, len(x.tokens))
	copy(out, x.tokens)
	return out
}

// Labels returns all labels in index order.
func (x *Index) Labels() []string {
	out := make([]string, len(x.tokens))
	for i, t := range x.tokens {
		out[i] = t.Label
	}
	return out
}
