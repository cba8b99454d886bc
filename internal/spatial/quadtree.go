package spatial

import "github.com/orcacrowd/orca-sim/internal/vecmath"

// qtNode is a quad-tree node over a square region. Leaves hold point
// indices directly; internal nodes have four children and no points.
type qtNode struct {
	min, max vecmath.Vec2
	points   []int
	children [4]int // -1 if none (leaf)
}

func (n *qtNode) isLeaf() bool { return n.children[0] == -1 }

// QuadTree is a point spatial index over a fixed square world bound.
// Points outside the bound are clamped into it at insertion time so
// queries remain correct even for out-of-bound agents.
type QuadTree struct {
	points   []vecmath.Vec2
	nodes    []qtNode
	capacity int
	maxDepth int
	worldMin vecmath.Vec2
	worldMax vecmath.Vec2
}

// NewQuadTree creates a quad-tree index over [worldMin,worldMax] (extended
// to a square by the longer side). capacity bounds points per leaf before
// subdividing; maxDepth bounds recursion for pathologically clustered
// points.
func NewQuadTree(worldMin, worldMax vecmath.Vec2, capacity int) *QuadTree {
	if capacity <= 0 {
		capacity = 8
	}
	side := worldMax.X - worldMin.X
	if h := worldMax.Y - worldMin.Y; h > side {
		side = h
	}
	if side <= 0 {
		side = 1
	}
	return &QuadTree{
		capacity: capacity,
		maxDepth: 20,
		worldMin: worldMin,
		worldMax: vecmath.Vec2{X: worldMin.X + side, Y: worldMin.Y + side},
	}
}

// BuildAsync replaces the indexed point set.
func (q *QuadTree) BuildAsync(points []vecmath.Vec2) {
	q.points = points
	if cap(q.nodes) == 0 {
		q.nodes = make([]qtNode, 1)
	} else {
		q.nodes = q.nodes[:1]
	}
	q.nodes[0] = qtNode{min: q.worldMin, max: q.worldMax, children: [4]int{-1, -1, -1, -1}}
	for i := range points {
		q.insert(0, i, 0)
	}
}

func clampToBox(min, max, p vecmath.Vec2) vecmath.Vec2 {
	if p.X < min.X {
		p.X = min.X
	} else if p.X > max.X {
		p.X = max.X
	}
	if p.Y < min.Y {
		p.Y = min.Y
	} else if p.Y > max.Y {
		p.Y = max.Y
	}
	return p
}

// quadrantOf returns which of the 4 children (0=SW,1=SE,2=NW,3=NE) of node
// contains p, given its midpoint.
func quadrantOf(min, max, p vecmath.Vec2) int {
	midX := (min.X + max.X) / 2
	midY := (min.Y + max.Y) / 2
	idx := 0
	if p.X >= midX {
		idx |= 1
	}
	if p.Y >= midY {
		idx |= 2
	}
	return idx
}

func childBounds(min, max vecmath.Vec2, quadrant int) (vecmath.Vec2, vecmath.Vec2) {
	midX := (min.X + max.X) / 2
	midY := (min.Y + max.Y) / 2
	cmin, cmax := min, max
	if quadrant&1 != 0 {
		cmin.X = midX
	} else {
		cmax.X = midX
	}
	if quadrant&2 != 0 {
		cmin.Y = midY
	} else {
		cmax.Y = midY
	}
	return cmin, cmax
}

func (q *QuadTree) subdivide(nodeIdx int) {
	n := q.nodes[nodeIdx]
	var children [4]int
	for quad := 0; quad < 4; quad++ {
		cmin, cmax := childBounds(n.min, n.max, quad)
		q.nodes = append(q.nodes, qtNode{min: cmin, max: cmax, children: [4]int{-1, -1, -1, -1}})
		children[quad] = len(q.nodes) - 1
	}
	q.nodes[nodeIdx].children = children
	oldPoints := q.nodes[nodeIdx].points
	q.nodes[nodeIdx].points = nil
	depth := 1 // depth tracking is approximate; maxDepth still bounds recursion below
	for _, pi := range oldPoints {
		p := clampToBox(n.min, n.max, q.points[pi])
		quad := quadrantOf(n.min, n.max, p)
		q.insert(children[quad], pi, depth)
	}
}

func (q *QuadTree) insert(nodeIdx, pointIdx, depth int) {
	n := &q.nodes[nodeIdx]
	p := clampToBox(n.min, n.max, q.points[pointIdx])

	if n.isLeaf() {
		if len(n.points) < q.capacity || depth >= q.maxDepth {
			n.points = append(n.points, pointIdx)
			return
		}
		q.subdivide(nodeIdx)
		n = &q.nodes[nodeIdx]
	}
	quad := quadrantOf(n.min, n.max, p)
	q.insert(n.children[quad], pointIdx, depth+1)
}

// QueryKNearest returns up to k indices nearest p, order unspecified.
func (q *QuadTree) QueryKNearest(p vecmath.Vec2, k int, out []int) []int {
	bk := newBoundedKNearest(k)
	if len(q.nodes) > 0 {
		q.visitKNN(0, p, bk, -1)
	}
	return bk.unsortedIndices(out)
}

// QueryKNearestSorted returns up to k indices within radius, sorted
// ascending by distance to p.
func (q *QuadTree) QueryKNearestSorted(p vecmath.Vec2, k int, radius float32, out []int) []int {
	bk := newBoundedKNearest(k)
	if len(q.nodes) > 0 {
		q.visitKNN(0, p, bk, radius)
	}
	return bk.sortedIndices(out)
}

func (q *QuadTree) visitKNN(nodeIdx int, p vecmath.Vec2, bk *boundedKNearest, maxRadius float32) {
	n := &q.nodes[nodeIdx]
	d := boxDistSq(n.min, n.max, p)
	if bk.full() && d >= bk.worstDistSq() {
		return
	}
	if maxRadius >= 0 && d > maxRadius*maxRadius {
		return
	}
	if n.isLeaf() {
		for _, i := range n.points {
			dp := q.points[i].DistSq(p)
			if maxRadius < 0 || dp <= maxRadius*maxRadius {
				bk.offer(i, dp)
			}
		}
		return
	}
	// Visit children nearest-box-first.
	order := [4]int{0, 1, 2, 3}
	dists := [4]float32{}
	for i, c := range n.children {
		dists[i] = boxDistSq(q.nodes[c].min, q.nodes[c].max, p)
	}
	for i := 1; i < 4; i++ {
		for j := i; j > 0 && dists[order[j]] < dists[order[j-1]]; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
	for _, qi := range order {
		q.visitKNN(n.children[qi], p, bk, maxRadius)
	}
}

// QueryRadius returns all indices within r of p, order unspecified.
func (q *QuadTree) QueryRadius(p vecmath.Vec2, r float32, out []int) []int {
	out = out[:0]
	if len(q.nodes) == 0 {
		return out
	}
	rSq := r * r
	var visit func(nodeIdx int)
	visit = func(nodeIdx int) {
		n := &q.nodes[nodeIdx]
		if boxDistSq(n.min, n.max, p) > rSq {
			return
		}
		if n.isLeaf() {
			for _, i := range n.points {
				if q.points[i].DistSq(p) <= rSq {
					out = append(out, i)
				}
			}
			return
		}
		for _, c := range n.children {
			visit(c)
		}
	}
	visit(0)
	return out
}
