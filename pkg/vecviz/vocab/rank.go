package vocab

import "sort"

// RankTable orders tokens by popularity.
//
// Tokens are sorted by count descending; equal counts are ordered by
// ascending row index, so the same (count, index) inputs always produce the
// same ranks.
type RankTable struct {
	ranks []int // by row index, 1-based
	order []int // row indices, most popular first
}

// NewRankTable builds the rank table for idx in O(V log V).
func NewRankTable(idx *Index) *RankTable {
	n := idx.Len()
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ca, cb := idx.tokens[order[a]].Count, idx.tokens[order[b]].Count
		if ca != cb {
			return ca > cb
		}
		return order[a] < order[b]
	})

	ranks := make([]int, n)
	for pos, row := range order {
		ranks[row] = pos + 1
	}
	return &RankTable{ranks: ranks, order: order}
}

// Rank returns the 1-based rank of the token at row index i.
func (r *RankTable) Rank(i int) int { return r.ranks[i] }

// RankOf returns the rank of label, or 0 if the label is not in idx.
func (r *RankTable) RankOf(idx *Index, label string) int {
	t, ok := idx.Lookup(label)
	if !ok {
		return 0
	}
	return r.ranks[t.Index]
}

// Top returns the row indices of the k most popular tokens.
func (r *RankTable) Top(k int) []int {
	if k <= 0 || k > len(r.order) {
		k = len(r.order)
	}
	out := make([]int, k)
	copy(out, r.order[:k])
	return out
}
