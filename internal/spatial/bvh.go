package spatial

import "github.com/orcacrowd/orca-sim/internal/vecmath"

// bvhNode is either an internal node (left/right >= 0, leaf = nil) or a
// leaf holding point indices directly.
type bvhNode struct {
	min, max vecmath.Vec2
	left, right int // node indices, -1 if none
	leaf        []int
}

// BVH is a point spatial index using longest-axis median splits and
// per-node AABBs, pruned during queries via point-to-box distance.
type BVH struct {
	points   []vecmath.Vec2
	nodes    []bvhNode
	root     int
	leafSize int
}

// NewBVH creates a BVH index. leafSize bounds the number of points stored
// directly in a leaf before splitting; 8 is a reasonable default.
func NewBVH(leafSize int) *BVH {
	if leafSize <= 0 {
		leafSize = 8
	}
	return &BVH{leafSize: leafSize}
}

// BuildAsync replaces the indexed point set.
func (b *BVH) BuildAsync(points []vecmath.Vec2) {
	b.points = points
	b.nodes = b.nodes[:0]
	if len(points) == 0 {
		b.root = -1
		return
	}
	idx := make([]int, len(points))
	for i := range idx {
		idx[i] = i
	}
	b.root = b.build(idx)
}

func (b *BVH) boundsOf(idx []int) (min, max vecmath.Vec2) {
	min = b.points[idx[0]]
	max = min
	for _, i := range idx[1:] {
		p := b.points[i]
		if p.X < min.X {
			min.X = p.X
		}
		if p.Y < min.Y {
			min.Y = p.Y
		}
		if p.X > max.X {
			max.X = p.X
		}
		if p.Y > max.Y {
			max.Y = p.Y
		}
	}
	return min, max
}

// build recursively partitions idx, returning the index of the created
// node in b.nodes.
func (b *BVH) build(idx []int) int {
	min, max := b.boundsOf(idx)

	if len(idx) <= b.leafSize {
		b.nodes = append(b.nodes, bvhNode{min: min, max: max, left: -1, right: -1, leaf: idx})
		return len(b.nodes) - 1
	}

	// Longest axis.
	axisX := max.X - min.X
	axisY := max.Y - min.Y
	useX := axisX >= axisY

	coord := func(i int) float32 {
		if useX {
			return b.points[idx[i]].X
		}
		return b.points[idx[i]].Y
	}

	mid := len(idx) / 2
	quickselect(idx, 0, len(idx)-1, mid, coord)

	leftIdx := append([]int(nil), idx[:mid]...)
	rightIdx := append([]int(nil), idx[mid:]...)

	nodeIdx := len(b.nodes)
	b.nodes = append(b.nodes, bvhNode{min: min, max: max})
	left := b.build(leftIdx)
	right := b.build(rightIdx)
	b.nodes[nodeIdx].left = left
	b.nodes[nodeIdx].right = right
	return nodeIdx
}

// quickselect partitions idx[lo:hi+1] in place so that the element at
// position k (by coord) is in its sorted position, elements before it are
// <= and elements after are >=. Average O(n).
func quickselect(idx []int, lo, hi, k int, coord func(i int) float32) {
	for lo < hi {
		p := partitionIdx(idx, lo, hi, coord)
		switch {
		case p == k:
			return
		case p < k:
			lo = p + 1
		default:
			hi = p - 1
		}
	}
}

func partitionIdx(idx []int, lo, hi int, coord func(i int) float32) int {
	pivotVal := coord(hi)
	i := lo
	for j := lo; j < hi; j++ {
		if coord(j) < pivotVal {
			idx[i], idx[j] = idx[j], idx[i]
			i++
		}
	}
	idx[i], idx[hi] = idx[hi], idx[i]
	return i
}

// boxDistSq returns the squared distance from p to the AABB [min,max],
// zero if p is inside.
func boxDistSq(min, max, p vecmath.Vec2) float32 {
	var dx, dy float32
	if p.X < min.X {
		dx = min.X - p.X
	} else if p.X > max.X {
		dx = p.X - max.X
	}
	if p.Y < min.Y {
		dy = min.Y - p.Y
	} else if p.Y > max.Y {
		dy = p.Y - max.Y
	}
	return dx*dx + dy*dy
}

// QueryKNearest returns up to k indices nearest p, order unspecified.
func (b *BVH) QueryKNearest(p vecmath.Vec2, k int, out []int) []int {
	bk := newBoundedKNearest(k)
	if b.root >= 0 {
		b.visitKNN(b.root, p, bk, float32(-1))
	}
	return bk.unsortedIndices(out)
}

// QueryKNearestSorted returns up to k indices within radius, sorted
// ascending by distance to p.
func (b *BVH) QueryKNearestSorted(p vecmath.Vec2, k int, radius float32, out []int) []int {
	bk := newBoundedKNearest(k)
	if b.root >= 0 {
		b.visitKNN(b.root, p, bk, radius)
	}
	return bk.sortedIndices(out)
}

// visitKNN recurses into node, pruning subtrees whose box-distance already
// exceeds either the current Kth-worst distance or maxRadius (if >= 0).
func (b *BVH) visitKNN(nodeIdx int, p vecmath.Vec2, bk *boundedKNearest, maxRadius float32) {
	n := &b.nodes[nodeIdx]
	d := boxDistSq(n.min, n.max, p)
	if bk.full() && d >= bk.worstDistSq() {
		return
	}
	if maxRadius >= 0 && d > maxRadius*maxRadius {
		return
	}
	if n.leaf != nil {
		for _, i := range n.leaf {
			dp := b.points[i].DistSq(p)
			if maxRadius < 0 || dp <= maxRadius*maxRadius {
				bk.offer(i, dp)
			}
		}
		return
	}
	// Visit the nearer child first to tighten the bound sooner.
	leftDist := boxDistSq(b.nodes[n.left].min, b.nodes[n.left].max, p)
	rightDist := boxDistSq(b.nodes[n.right].min, b.nodes[n.right].max, p)
	if leftDist <= rightDist {
		b.visitKNN(n.left, p, bk, maxRadius)
		b.visitKNN(n.right, p, bk, maxRadius)
	} else {
		b.visitKNN(n.right, p, bk, maxRadius)
		b.visitKNN(n.left, p, bk, maxRadius)
	}
}

// QueryRadius returns all indices within r of p, order unspecified.
func (b *BVH) QueryRadius(p vecmath.Vec2, r float32, out []int) []int {
	out = out[:0]
	if b.root < 0 {
		return out
	}
	rSq := r * r
	var visit func(nodeIdx int)
	visit = func(nodeIdx int) {
		n := &b.nodes[nodeIdx]
		if boxDistSq(n.min, n.max, p) > rSq {
			return
		}
		if n.leaf != nil {
			for _, i := range n.leaf {
				if b.points[i].DistSq(p) <= rSq {
					out = append(out, i)
				}
			}
			return
		}
		visit(n.left)
		visit(n.right)
	}
	visit(b.root)
	return out
}
