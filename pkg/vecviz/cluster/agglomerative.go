package cluster

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/cognicore/vecviz/pkg/vecviz/vectors"
)

// agglomerative is bottom-up hierarchical clustering cut at k clusters.
//
// The dendrogram is built with the nearest-neighbor chain algorithm and
// Lance-Williams distance updates: O(N^2) memory and time for the reducible
// linkages supported here. Merges are then replayed in height order until k
// clusters remain.
type agglomerative struct {
	opts Options
}

type merge struct {
	a, b   int // a representative row of each merged cluster
	height float64
}

func (c *agglomerative) Cluster(m *vectors.Matrix) ([]int, error) {
	n := m.Rows()
	if n == 0 {
		return []int{}, nil
	}
	k := c.opts.ClusterCount(n)

	merges := c.dendrogram(rows(m))
	sort.SliceStable(merges, func(i, j int) bool { return merges[i].height < merges[j].height })

	uf := newUnionFind(n)
	for _, mg := range merges[:n-k] {
		uf.union(mg.a, mg.b)
	}

	ids := make([]int, n)
	for i := range ids {
		ids[i] = uf.find(i)
	}
	c.opts.progress("agglomerative (%s): %d points into %d clusters", c.opts.Linkage, n, k)
	return relabel(ids), nil
}

func (c *agglomerative) dendrogram(pts *mat.Dense) []merge {
	n, _ := pts.Dims()
	d := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := sqDist(pts.RawRowView(i), pts.RawRowView(j))
			if c.opts.Linkage != Ward {
				v = math.Sqrt(v)
			}
			d.SetSym(i, j, v)
		}
	}

	size := make([]int, n)
	active := make([]bool, n)
	for i := range size {
		size[i] = 1
		active[i] = true
	}

	merges := make([]merge, 0, n-1)
	chain := make([]int, 0, n)
	for remaining := n; remaining > 1; remaining-- {
		if len(chain) == 0 {
			for i := range active {
				if active[i] {
					chain = append(chain, i)
					break
				}
			}
		}

		var a, b int
		for {
			a = chain[len(chain)-1]
			prev, best, bestD := -1, -1, math.Inf(1)
			if len(chain) >= 2 {
				prev = chain[len(chain)-2]
				best, bestD = prev, d.At(a, prev)
			}
			for x := 0; x < n; x++ {
				if x != a && active[x] && (best == -1 || d.At(a, x) < bestD) {
					best, bestD = x, d.At(a, x)
				}
			}
			if best == prev {
				b = prev
				break
			}
			chain = append(chain, best)
		}
		chain = chain[:len(chain)-2]

		// keep the lower slot so every slot still holds its own row
		if b < a {
			a, b = b, a
		}
		merges = append(merges, merge{a: a, b: b, height: d.At(a, b)})

		for x := 0; x < n; x++ {
			if !active[x] || x == a || x == b {
				continue
			}
			d.SetSym(a, x, c.update(d.At(a, x), d.At(b, x), d.At(a, b), size[a], size[b], size[x]))
		}
		size[a] += size[b]
		active[b] = false
	}
	return merges
}

// update is the Lance-Williams recurrence for the distance between the
// merged cluster (i+j) and cluster k.
func (c *agglomerative) update(dik, djk, dij float64, ni, nj, nk int) float64 {
	switch c.opts.Linkage {
	case Single:
		return math.Min(dik, djk)
	case Complete:
		return math.Max(dik, djk)
	case Average:
		return (float64(ni)*dik + float64(nj)*djk) / float64(ni+nj)
	default:
		// ward on squared euclidean distances
		return (float64(ni+nk)*dik + float64(nj+nk)*djk - float64(nk)*dij) / float64(ni+nj+nk)
	}
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	p := make([]int, n)
	for i := range p {
		p[i] = i
	}
	return &unionFind{parent: p}
}

func (u *unionFind) find(x int) int {
	for u.parent[x] != x {
		u.parent[x] = u.parent[u.parent[x]]
		x = u.parent[x]
	}
	return x
}

func (u *unionFind) union(a, b int) {
	ra, rb := u.find(a), u.find(b)
	if ra == rb {
		return
	}
	if ra < rb {
		u.parent[rb] = ra
	} else {
		u.parent[ra] = rb
	}
}
