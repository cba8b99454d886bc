package spatial

import (
	"math"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// Grid is a uniform grid point index with linked-list buckets. Build is
// O(N); queries expand outward ring by ring with rectangular early
// termination via a box-distance bound.
type Grid struct {
	cellSize float32
	points   []vecmath.Vec2
	// bucket(cx,cy) -> head index into next; -1 terminates.
	buckets map[[2]int32]int
	next    []int
}

// NewGrid creates a grid index with the given cell size. cellSize should be
// on the order of the typical query radius (neighborDist) for good bucket
// occupancy.
func NewGrid(cellSize float32) *Grid {
	if cellSize <= 0 {
		cellSize = 1
	}
	return &Grid{cellSize: cellSize}
}

func (g *Grid) cellOf(p vecmath.Vec2) [2]int32 {
	return [2]int32{
		int32(math.Floor(float64(p.X / g.cellSize))),
		int32(math.Floor(float64(p.Y / g.cellSize))),
	}
}

// BuildAsync replaces the indexed point set.
func (g *Grid) BuildAsync(points []vecmath.Vec2) {
	g.points = points
	g.buckets = make(map[[2]int32]int, len(points))
	g.next = make([]int, len(points))
	for i := range g.next {
		g.next[i] = -1
	}
	for i, p := range points {
		c := g.cellOf(p)
		head, ok := g.buckets[c]
		if !ok {
			head = -1
		}
		g.next[i] = head
		g.buckets[c] = i
	}
}

// forEachInCell invokes fn for every point index stored in cell c.
func (g *Grid) forEachInCell(c [2]int32, fn func(idx int)) {
	head, ok := g.buckets[c]
	if !ok {
		return
	}
	for i := head; i != -1; i = g.next[i] {
		fn(i)
	}
}

// ringCells returns the cell coordinates forming the square ring at
// Chebyshev distance `radius` cells from center.
func ringCells(center [2]int32, radius int32) [][2]int32 {
	if radius == 0 {
		return [][2]int32{center}
	}
	var cells [][2]int32
	for dx := -radius; dx <= radius; dx++ {
		cells = append(cells, [2]int32{center[0] + dx, center[1] - radius})
		cells = append(cells, [2]int32{center[0] + dx, center[1] + radius})
	}
	for dy := -radius + 1; dy <= radius-1; dy++ {
		cells = append(cells, [2]int32{center[0] - radius, center[1] + dy})
		cells = append(cells, [2]int32{center[0] + radius, center[1] + dy})
	}
	return cells
}

// QueryKNearest returns up to k indices nearest p, order unspecified.
func (g *Grid) QueryKNearest(p vecmath.Vec2, k int, out []int) []int {
	b := newBoundedKNearest(k)
	g.expandingSearch(p, b, float32(math.Inf(1)))
	return b.unsortedIndices(out)
}

// QueryKNearestSorted returns up to k indices within radius, sorted
// ascending by distance.
func (g *Grid) QueryKNearestSorted(p vecmath.Vec2, k int, radius float32, out []int) []int {
	b := newBoundedKNearest(k)
	g.expandingSearch(p, b, radius)
	return b.sortedIndices(out)
}

// expandingSearch expands the ring search until the Kth-worst squared
// distance found so far is <= the squared box-distance to the next
// unexamined ring, or the ring itself exceeds maxRadius.
func (g *Grid) expandingSearch(p vecmath.Vec2, b *boundedKNearest, maxRadius float32) {
	if len(g.points) == 0 {
		return
	}
	center := g.cellOf(p)
	maxRadiusSq := maxRadius * maxRadius
	for ring := int32(0); ; ring++ {
		// Box-distance bound: once fully inside the worst-known distance
		// for (ring-1) cells out, anything farther can't improve the set.
		if ring > 0 {
			boxDist := float32(ring-1) * g.cellSize
			if boxDist >= 0 {
				boxDistSq := boxDist * boxDist
				if b.full() && boxDistSq >= b.worstDistSq() {
					return
				}
				if boxDistSq >= maxRadiusSq {
					return
				}
			}
		}
		cells := ringCells(center, ring)
		for _, c := range cells {
			g.forEachInCell(c, func(idx int) {
				d := g.points[idx].DistSq(p)
				if d <= maxRadiusSq {
					b.offer(idx, d)
				}
			})
		}
		// Safety valve: stop once the ring radius in world units already
		// dwarfs any plausible point distribution (guards pathological
		// empty grids from looping forever).
		if float32(ring)*g.cellSize > maxRadius && maxRadius < float32(math.Inf(1)) {
			return
		}
		if ring > 4096 {
			return
		}
	}
}

// QueryRadius returns all indices within r of p, order unspecified.
func (g *Grid) QueryRadius(p vecmath.Vec2, r float32, out []int) []int {
	out = out[:0]
	center := g.cellOf(p)
	cellRadius := int32(math.Ceil(float64(r / g.cellSize)))
	rSq := r * r
	for dx := -cellRadius; dx <= cellRadius; dx++ {
		for dy := -cellRadius; dy <= cellRadius; dy++ {
			c := [2]int32{center[0] + dx, center[1] + dy}
			g.forEachInCell(c, func(idx int) {
				if g.points[idx].DistSq(p) <= rSq {
					out = append(out, idx)
				}
			})
		}
	}
	return out
}
