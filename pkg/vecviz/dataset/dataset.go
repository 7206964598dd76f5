package dataset

import (
	"math"

	"github.com/cognicore/vecviz/pkg/vecviz/internalerr"
)

// Neighbor is one same-cluster token and its similarity to the record's token.
type Neighbor struct {
	Token      string  `json:"other_token"`
	Similarity float64 `json:"similarity"`
}

// Record is the visualization entry for one token.
type Record struct {
	ID           int        `json:"id"`
	Count        int64      `json:"count"`
	Rank         int        `json:"rank"`
	Label        string     `json:"label"`
	X            float64    `json:"x"`
	Y            float64    `json:"y"`
	Cluster      int        `json:"cluster"`
	Similarities []Neighbor `json:"similarities"`
}

// BoundingBox is the extent of all record coordinates.
type BoundingBox struct {
	XMin float64 `json:"xmin"`
	XMax float64 `json:"xmax"`
	YMin float64 `json:"ymin"`
	YMax float64 `json:"ymax"`
}

// Dataset is the immutable result of a build. Records are in vocabulary
// index order. It is safe for concurrent reads.
type Dataset struct {
	Records      []Record    `json:"records"`
	Bounds       BoundingBox `json:"bounds"`
	SkippedPairs int         `json:"skipped_pairs"`

	// Warnings lists the skipped similarity lookups in cluster-id order.
	Warnings []*internalerr.PairSimilarityError `json:"-"`
}

// Len returns the number of records.
func (d *Dataset) Len() int { return len(d.Records) }

// ClusterSizes returns the number of records per cluster id.
func (d *Dataset) ClusterSizes() map[int]int {
	sizes := make(map[int]int)
	for _, r := range d.Records {
		sizes[r.Cluster]++
	}
	return sizes
}

// Degraded reports whether any similarity lookups were skipped.
func (d *Dataset) Degraded() bool { return d.SkippedPairs > 0 }

func bounds(records []Record) BoundingBox {
	if len(records) == 0 {
		return BoundingBox{}
	}
	b := BoundingBox{
		XMin: math.Inf(1), XMax: math.Inf(-1),
		YMin: math.Inf(1), YMax: math.Inf(-1),
	}
	for _, r := range records {
		b.XMin = math.Min(b.XMin, r.X)
		b.XMax = math.Max(b.XMax, r.X)
		b.YMin = math.Min(b.YMin, r.Y)
		b.YMax = math.Max(b.YMax, r.Y)
	}
	return b
}
