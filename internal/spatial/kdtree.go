package spatial

import (
	"sort"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// indexedPoint adapts a Vec2 plus its original slot index to gonum's
// kdtree.Comparable interface. Distance is squared Euclidean, matching
// the rest of this package's convention of working in squared distances.
type indexedPoint struct {
	vecmath.Vec2
	idx int
}

func (p indexedPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(indexedPoint)
	if d == 0 {
		return float64(p.X - q.X)
	}
	return float64(p.Y - q.Y)
}

func (p indexedPoint) Dims() int { return 2 }

func (p indexedPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(indexedPoint)
	dx := float64(p.X - q.X)
	dy := float64(p.Y - q.Y)
	return dx*dx + dy*dy
}

// indexedPoints implements kdtree.Interface over a slice of indexedPoint.
type indexedPoints []indexedPoint

func (p indexedPoints) Index(i int) kdtree.Comparable { return p[i] }
func (p indexedPoints) Len() int                      { return len(p) }
func (p indexedPoints) Slice(start, end int) kdtree.Interface {
	return p[start:end]
}

// Pivot partitions p around the median along dimension d using a Lomuto
// quickselect (O(n) average), the same idiom used by the BVH's median
// split (bvh.go), and returns the index
// of the median element in the now-partitioned slice.
func (p indexedPoints) Pivot(d kdtree.Dim) int {
	coord := func(i int) float32 {
		if d == 0 {
			return p[i].X
		}
		return p[i].Y
	}
	k := len(p) / 2
	lo, hi := 0, len(p)-1
	for lo < hi {
		pivotIdx := lomutoPartition(p, lo, hi, coord)
		switch {
		case pivotIdx == k:
			lo, hi = k, k
		case pivotIdx < k:
			lo = pivotIdx + 1
		default:
			hi = pivotIdx - 1
		}
	}
	return k
}

func lomutoPartition(p indexedPoints, lo, hi int, coord func(int) float32) int {
	pivotVal := coord(hi)
	i := lo
	for j := lo; j < hi; j++ {
		if coord(j) < pivotVal {
			p[i], p[j] = p[j], p[i]
			i++
		}
	}
	p[i], p[hi] = p[hi], p[i]
	return i
}

// KDTree is a point spatial index backed by gonum.org/v1/gonum/spatial/kdtree.
type KDTree struct {
	tree *kdtree.Tree
}

// NewKDTree creates an empty KD-tree point index.
func NewKDTree() *KDTree {
	return &KDTree{}
}

// BuildAsync replaces the indexed point set.
func (t *KDTree) BuildAsync(points []vecmath.Vec2) {
	pts := make(indexedPoints, len(points))
	for i, p := range points {
		pts[i] = indexedPoint{Vec2: p, idx: i}
	}
	t.tree = kdtree.New(pts, false)
}

// QueryKNearest returns up to k indices nearest p, order unspecified.
func (t *KDTree) QueryKNearest(p vecmath.Vec2, k int, out []int) []int {
	out = out[:0]
	if t.tree == nil || k <= 0 {
		return out
	}
	nk := kdtree.NewNKeeper(k)
	t.tree.NearestSet(nk, indexedPoint{Vec2: p})
	for _, cd := range nk.Heap {
		out = append(out, cd.Comparable.(indexedPoint).idx)
	}
	return out
}

// QueryKNearestSorted returns up to k indices within radius, sorted
// ascending by distance to p.
func (t *KDTree) QueryKNearestSorted(p vecmath.Vec2, k int, radius float32, out []int) []int {
	out = out[:0]
	if t.tree == nil || k <= 0 {
		return out
	}
	nk := kdtree.NewNKeeper(k)
	t.tree.NearestSet(nk, indexedPoint{Vec2: p})

	rSq := float64(radius) * float64(radius)
	type hit struct {
		idx    int
		distSq float64
	}
	hits := make([]hit, 0, len(nk.Heap))
	for _, cd := range nk.Heap {
		if cd.Dist <= rSq {
			hits = append(hits, hit{cd.Comparable.(indexedPoint).idx, cd.Dist})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].distSq < hits[j].distSq })
	for _, h := range hits {
		out = append(out, h.idx)
	}
	return out
}

// QueryRadius returns all indices within r of p, order unspecified.
func (t *KDTree) QueryRadius(p vecmath.Vec2, r float32, out []int) []int {
	out = out[:0]
	if t.tree == nil {
		return out
	}
	dk := kdtree.NewDistKeeper(float64(r) * float64(r))
	t.tree.NearestSet(&dk, indexedPoint{Vec2: p})
	for _, cd := range dk.Heap {
		out = append(out, cd.Comparable.(indexedPoint).idx)
	}
	return out
}
