package dataset

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
	"github.com/cognicore/vecviz/pkg/vecviz/similarity"
	"github.com/cognicore/vecviz/pkg/vecviz/vocab"
)

// Point is a 2D coordinate.
type Point = [2]float64

// Builder assembles visualization records from a vocabulary, its projection
// and its cluster assignment.
type Builder struct {
	// Workers is the number of goroutines neighbor lists are computed on.
	// Zero means runtime.NumCPU().
	Workers int
}

// NewBuilder creates a builder with the given worker count.
func NewBuilder(workers int) *Builder {
	return &Builder{Workers: workers}
}

type bucket struct {
	id      int
	members *roaring.Bitmap
}

// Build produces one record per token in index order.
//
// coords and clusters must have exactly idx.Len() rows. A failing oracle
// call drops that pair from both tokens' neighbor lists and is reported in
// Dataset.Warnings; any other error aborts the build.
//
// The oracle is called from several goroutines and must be safe for
// concurrent use. It is queried once per unordered pair.
func (b *Builder) Build(
	idx *vocab.Index,
	ranks *vocab.RankTable,
	coords []Point,
	clusters []int,
	oracle similarity.Oracle,
) (*Dataset, error) {
	if idx == nil || idx.Len() == 0 {
		return nil, internalerr.ErrEmptyVocabulary
	}
	n := idx.Len()
	if len(coords) != n {
		return nil, &internalerr.ShapeMismatchError{What: "coordinates", Expected: n, Actual: len(coords)}
	}
	if len(clusters) != n {
		return nil, &internalerr.ShapeMismatchError{What: "clusters", Expected: n, Actual: len(clusters)}
	}
	if ranks == nil {
		ranks = vocab.NewRankTable(idx)
	}

	records := make([]Record, n)
	for i := 0; i < n; i++ {
		x, y := coords[i][0], coords[i][1]
		if !finite(x) || !finite(y) {
			return nil, fmt.Errorf("coordinate row %d (%v, %v): %w", i, x, y, internalerr.ErrNonFinite)
		}
		tok := idx.At(i)
		records[i] = Record{
			ID:      tok.Index,
			Count:   tok.Count,
			Rank:    ranks.Rank(i),
			Label:   tok.Label,
			X:       x,
			Y:       y,
			Cluster: clusters[i],
		}
	}

	buckets := partition(clusters)
	warnings := make([][]*internalerr.PairSimilarityError, len(buckets))

	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(buckets) {
		workers = len(buckets)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range jobs {
				warnings[pos] = fillNeighbors(records, buckets[pos].members, oracle)
			}
		}()
	}
	for pos := range buckets {
		jobs <- pos
	}
	close(jobs)
	wg.Wait()

	ds := &Dataset{
		Records: records,
		Bounds:  bounds(records),
	}
	for _, ws := range warnings {
		ds.Warnings = append(ds.Warnings, ws...)
	}
	ds.SkippedPairs = len(ds.Warnings)
	return ds, nil
}

// partition groups row indices by cluster id, ordered by ascending id.
func partition(clusters []int) []bucket {
	byID := make(map[int]*roaring.Bitmap)
	for i, c := range clusters {
		bm, ok := byID[c]
		if !ok {
			bm = roaring.New()
			byID[c] = bm
		}
		bm.Add(uint32(i))
	}

	out := make([]bucket, 0, len(byID))
	for id, bm := range byID {
		out = append(out, bucket{id: id, members: bm})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// fillNeighbors computes the neighbor lists of every member of one cluster.
// Each record belongs to exactly one cluster, so workers never write the
// same record.
func fillNeighbors(records []Record, members *roaring.Bitmap, oracle similarity.Oracle) []*internalerr.PairSimilarityError {
	rows := members.ToArray()
	for _, r := range rows {
		records[r].Similarities = make([]Neighbor, 0, len(rows)-1)
	}

	var warnings []*internalerr.PairSimilarityError
	for a := 0; a < len(rows); a++ {
		ra := &records[rows[a]]
		for c := a + 1; c < len(rows); c++ {
			rc := &records[rows[c]]
			s, err := oracle.Similarity(ra.Label, rc.Label)
			if err == nil && !finite(s) {
				err = internalerr.ErrNonFinite
			}
			if err != nil {
				warnings = append(warnings, &internalerr.PairSimilarityError{A: ra.Label, B: rc.Label, Err: err})
				continue
			}
			ra.Similarities = append(ra.Similarities, Neighbor{Token: rc.Label, Similarity: s})
			rc.Similarities = append(rc.Similarities, Neighbor{Token: ra.Label, Similarity: s})
		}
	}

	for _, r := range rows {
		sortNeighbors(records[r].Similarities)
	}
	return warnings
}

// sortNeighbors orders by similarity descending, then label ascending.
func sortNeighbors(ns []Neighbor) {
	sort.Slice(ns, func(i, j int) bool {
		if ns[i].Similarity != ns[j].Similarity {
			return ns[i].Similarity > ns[j].Similarity
		}
		return ns[i].Token < ns[j].Token
	})
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
