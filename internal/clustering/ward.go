package clustering

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Merge is one step of an agglomerative merge sequence. Left and Right are
// cluster ids: 0..n-1 are the original rows and n+i is the cluster formed
// by merge i.
type Merge struct {
	Left   int     `json:"left"`
	Right  int     `json:"right"`
	Height float64 `json:"height"`
	Size   int     `json:"size"`
}

// zeroHeight bounds merges treated as joining coincident points.
const zeroHeight = 1e-12

// Linkage computes the Ward linkage of the rows of x with the
// nearest-neighbour chain algorithm and Lance-Williams updates. Merges are
// returned sorted by height, n-1 of them for n rows.
func Linkage(ctx context.Context, x *mat.Dense) ([]Merge, error) {
	n, _ := x.Dims()
	if n < 2 {
		return nil, nil
	}

	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(x.RawRowView(i), x.RawRowView(j), 2)
			dist[i][j], dist[j][i] = d, d
		}
	}

	size := make([]int, n)
	for i := range size {
		size[i] = 1
	}

	type rawMerge struct {
		x, y   int
		height float64
	}
	raw := make([]rawMerge, 0, n-1)
	chain := make([]int, 0, n)

	for len(raw) < n-1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if len(chain) == 0 {
			for i := 0; i < n; i++ {
				if size[i] > 0 {
					chain = append(chain, i)
					break
				}
			}
		}

		var a, b int
		for {
			a = chain[len(chain)-1]
			b = -1
			best := math.Inf(1)
			if len(chain) > 1 {
				b = chain[len(chain)-2]
				best = dist[a][b]
			}
			for i := 0; i < n; i++ {
				if size[i] == 0 || i == a {
					continue
				}
				if dist[a][i] < best {
					best, b = dist[a][i], i
				}
			}
			if len(chain) > 1 && b == chain[len(chain)-2] {
				break
			}
			chain = append(chain, b)
		}
		chain = chain[:len(chain)-2]

		if a > b {
			a, b = b, a
		}
		height := dist[a][b]
		raw = append(raw, rawMerge{x: a, y: b, height: height})

		// the merged cluster lives in slot b
		na, nb := float64(size[a]), float64(size[b])
		for k := 0; k < n; k++ {
			if size[k] == 0 || k == a || k == b {
				continue
			}
			nk := float64(size[k])
			v := ((na+nk)*dist[a][k]*dist[a][k] + (nb+nk)*dist[b][k]*dist[b][k] - nk*height*height) / (na + nb + nk)
			d := math.Sqrt(math.Max(v, 0))
			dist[b][k], dist[k][b] = d, d
		}
		size[b] += size[a]
		size[a] = 0
	}

	sort.SliceStable(raw, func(i, j int) bool { return raw[i].height < raw[j].height })

	// relabel slot indices to scipy-style cluster ids
	uf := newUnionFind(n)
	merges := make([]Merge, len(raw))
	for i, m := range raw {
		left, right := uf.id(m.x), uf.id(m.y)
		if left > right {
			left, right = right, left
		}
		merged := uf.union(m.x, m.y, n+i)
		merges[i] = Merge{Left: left, Right: right, Height: m.height, Size: merged}
	}
	return merges, nil
}

// CutTree applies merges in order until k clusters remain and returns the
// row labels numbered by first appearance. Zero-height merges are always
// applied, so coincident rows share a cluster even when that leaves fewer
// than k clusters.
func CutTree(n int, merges []Merge, k int) []int {
	uf := newUnionFind(n)
	leaves := leafMembers(n, merges)
	for i, m := range merges {
		if i >= n-k && m.Height > zeroHeight {
			break
		}
		uf.union(leaves[m.Left], leaves[m.Right], n+i)
	}

	labels := make([]int, n)
	for i := range labels {
		labels[i] = uf.find(i)
	}
	return renumber(labels)
}

// leafMembers maps every cluster id to one of its original rows
func leafMembers(n int, merges []Merge) []int {
	rep := make([]int, n+len(merges))
	for i := 0; i < n; i++ {
		rep[i] = i
	}
	for i, m := range merges {
		rep[n+i] = rep[m.Left]
	}
	return rep
}

// Agglomerative is Ward hierarchical clustering cut to K clusters
type Agglomerative struct {
	K int
}

// NewAgglomerative creates a Ward clusterer
func NewAgglomerative(k int) *Agglomerative {
	return &Agglomerative{K: k}
}

// Method implements Clusterer
func (a *Agglomerative) Method() Method { return MethodHierarchical }

// Fit implements Clusterer
func (a *Agglomerative) Fit(ctx context.Context, x *mat.Dense) ([]int, error) {
	n, _ := x.Dims()
	merges, err := Linkage(ctx, x)
	if err != nil {
		return nil, err
	}
	k := a.K
	if k > n {
		k = n
	}
	if k < 1 {
		k = 1
	}
	return CutTree(n, merges, k), nil
}

type unionFind struct {
	parent []int
	size   []int
	// cluster holds the current cluster id of each root
	cluster []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{
		parent:  make([]int, n),
		size:    make([]int, n),
		cluster: make([]int, n),
	}
	for i := range uf.parent {
		uf.parent[i] = i
		uf.size[i] = 1
		uf.cluster[i] = i
	}
	return uf
}

func (uf *unionFind) find(i int) int {
	for uf.parent[i] != i {
		uf.parent[i] = uf.parent[uf.parent[i]]
		i = uf.parent[i]
	}
	return i
}

func (uf *unionFind) id(i int) int {
	return uf.cluster[uf.find(i)]
}

// union joins the sets of a and b, names the result clusterID and returns
// its size.
func (uf *unionFind) union(a, b, clusterID int) int {
	ra, rb := uf.find(a), uf.find(b)
	if ra == rb {
		return uf.size[ra]
	}
	if uf.size[ra] < uf.size[rb] {
		ra, rb = rb, ra
	}
	uf.parent[rb] = ra
	uf.size[ra] += uf.size[rb]
	uf.cluster[ra] = clusterID
	return uf.size[ra]
}
