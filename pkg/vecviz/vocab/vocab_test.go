package vocab

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
)

func TestNewEmpty(t *testing.T) {
	idx, err := New(nil)
	if !errors.Is(err, internalerr.ErrEmptyVocabulary) {
		t.Fatalf("expected ErrEmptyVocabulary, got %v", err)
	}
	if idx != nil {
		t.Error("expected nil index on error")
	}
}

func TestNewDuplicate(t *testing.T) {
	_, err := New([]Entry{{"a", 1}, {"b", 2}, {"a", 3}})
	if !errors.Is(err, internalerr.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestNewNegativeCount(t *testing.T) {
	_, err := New([]Entry{{"a", -1}})
	if !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestIndexLookupAndOrder(t *testing.T) {
	idx, err := New([]Entry{{"zebra", 3}, {"apple", 7}, {"mango", 1}})
	if err != nil {
		t.Fatal(err)
	}
	if idx.Len() != 3 {
		t.Fatalf("expected 3 tokens, got %d", idx.Len())
	}

	tok, ok := idx.Lookup("apple")
	if !ok {
		t.Fatal("apple not found")
	}
	if tok.Index != 1 || tok.Count != 7 {
		t.Errorf("apple = %+v, want index 1 count 7", tok)
	}
	if _, ok := idx.Lookup("banana"); ok {
		t.Error("banana should not be found")
	}

	// iteration order is entry order, not sorted
	labels := idx.Labels()
	if labels[0] != "zebra" || labels[1] != "apple" || labels[2] != "mango" {
		t.Errorf("unexpected order %v", labels)
	}
	for i, tok := range idx.Tokens() {
		if tok.Index != i {
			t.Errorf("token %q has index %d at position %d", tok.Label, tok.Index, i)
		}
	}
}

func TestRankTableTieBreak(t *testing.T) {
	idx, err := New([]Entry{{"A", 10}, {"B", 10}, {"C", 1}})
	if err != nil {
		t.Fatal(err)
	}
	rt := NewRankTable(idx)

	want := map[string]int{"A": 1, "B": 2, "C": 3}
	for label, rank := range want {
		if got := rt.RankOf(idx, label); got != rank {
			t.Errorf("rank(%s) = %d, want %d", label, got, rank)
		}
	}
	if rt.RankOf(idx, "missing") != 0 {
		t.Error("unknown label should have rank 0")
	}
}

func TestRankTablePermutation(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	entries := make([]Entry, 200)
	for i := range entries {
		entries[i] = Entry{Token: fmt.Sprintf("t%03d", i), Count: int64(rng.Intn(20))}
	}
	idx, err := New(entries)
	if err != nil {
		t.Fatal(err)
	}
	rt := NewRankTable(idx)

	seen := make(map[int]bool)
	for i := 0; i < idx.Len(); i++ {
		r := rt.Rank(i)
		if r < 1 || r > idx.Len() {
			t.Fatalf("rank %d out of range", r)
		}
		if seen[r] {
			t.Fatalf("rank %d assigned twice", r)
		}
		seen[r] = true
	}

	for i := 0; i < idx.Len(); i++ {
		for j := 0; j < idx.Len(); j++ {
			ci, cj := idx.At(i).Count, idx.At(j).Count
			if ci > cj && rt.Rank(i) >= rt.Rank(j) {
				t.Fatalf("count %d > %d but rank %d >= %d", ci, cj, rt.Rank(i), rt.Rank(j))
			}
			if ci == cj && i < j && rt.Rank(i) >= rt.Rank(j) {
				t.Fatalf("equal counts: index %d should outrank %d", i, j)
			}
		}
	}

	// rebuilding yields identical ranks
	again := NewRankTable(idx)
	for i := 0; i < idx.Len(); i++ {
		if again.Rank(i) != rt.Rank(i) {
			t.Fatalf("rank of %d changed between builds", i)
		}
	}
}

func TestRankTableTop(t *testing.T) {
	idx, _ := New([]Entry{{"a", 1}, {"b", 5}, {"c", 3}})
	rt := NewRankTable(idx)

	top := rt.Top(2)
	if len(top) != 2 || top[0] != 1 || top[1] != 2 {
		t.Errorf("Top(2) = %v, want [1 2]", top)
	}
	if len(rt.Top(0)) != 3 {
		t.Error("Top(0) should return all rows")
	}
}
