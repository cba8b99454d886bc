package obstacle

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

func v(x, y float32) vecmath.Vec2 { return vecmath.Vec2{X: x, Y: y} }

// pentagon returns the 5 edges of a CCW-wound convex pentagon, added in the
// given permutation order (S5: edge insertion order must not affect the
// derived topology).
func pentagon(m *Model, order []int) []EdgeID {
	pts := []vecmath.Vec2{
		v(0, 2), v(-2, 0), v(-1, -2), v(1, -2), v(2, 0),
	}
	n := len(pts)
	ids := make([]EdgeID, n)
	for _, i := range order {
		p1 := pts[i]
		p2 := pts[(i+1)%n]
		ids[i] = m.AddObstacle(p1, p2)
	}
	return ids
}

func TestLinkageInsertionOrderInvariant(t *testing.T) {
	orders := [][]int{
		{0, 1, 2, 3, 4},
		{4, 3, 2, 1, 0},
		{2, 0, 4, 1, 3},
	}

	var referenceChain []vecmath.Vec2
	for oi, order := range orders {
		m := NewModel()
		ids := pentagon(m, order)
		m.RebuildObstacles()

		start := ids[order[0]]
		var chain []vecmath.Vec2
		cur := start
		for i := 0; i < 5; i++ {
			e := m.Edge(cur)
			chain = append(chain, e.P1)
			assert.NotEqual(t, NoEdge, e.Next, "order %d: edge %d should be linked", oi, cur)
			cur = e.Next
		}
		assert.Equal(t, start, cur, "order %d: chain should close into a cycle", oi)

		if oi == 0 {
			referenceChain = chain
		} else {
			assert.ElementsMatch(t, referenceChain, chain, "order %d: same cyclic point set regardless of insertion order", oi)
		}
	}
}

func TestConvexityAllConvexForConvexPolygon(t *testing.T) {
	m := NewModel()
	pentagon(m, []int{0, 1, 2, 3, 4})
	m.RebuildObstacles()

	for _, e := range m.Edges() {
		assert.True(t, e.IsConvex, "edge %+v of a convex polygon should be convex", e)
	}
}

func TestConvexityReflexVertexDetected(t *testing.T) {
	m := NewModel()
	// A concave (arrow-shaped) quad wound CCW about its interior, with a
	// reflex vertex at (0, 0.5).
	pts := []vecmath.Vec2{v(0, 2), v(-2, -2), v(0, 0.5), v(2, -2)}
	var ids []EdgeID
	for i := range pts {
		ids = append(ids, m.AddObstacle(pts[i], pts[(i+1)%len(pts)]))
	}
	m.RebuildObstacles()

	reflexEdge := m.Edge(ids[2]) // P1 = pts[2] = (0,0.5), the reflex vertex
	assert.False(t, reflexEdge.IsConvex, "edge starting at the reflex vertex should not be convex")
}

func TestOpenChainEndpointsDefaultConvex(t *testing.T) {
	m := NewModel()
	a := m.AddObstacle(v(-5, 0), v(0, 0))
	b := m.AddObstacle(v(0, 0), v(5, 0))
	m.RebuildObstacles()

	assert.True(t, m.Edge(a).IsConvex)
	assert.True(t, m.Edge(b).IsConvex)
	assert.Equal(t, NoEdge, m.Edge(a).Prev)
	assert.Equal(t, NoEdge, m.Edge(b).Next)
}

func TestRebuildIdempotent(t *testing.T) {
	m := NewModel()
	pentagon(m, []int{0, 1, 2, 3, 4})
	m.RebuildObstacles()
	firstEdgeCount := len(m.Edges())
	var firstTopology []Edge
	firstTopology = append(firstTopology, m.Edges()...)

	m.RebuildObstacles()
	assert.Equal(t, firstEdgeCount, len(m.Edges()), "rebuilding twice should not change edge count")
	for i, e := range m.Edges() {
		assert.Equal(t, firstTopology[i].Next, e.Next, "edge %d Next should be stable across rebuilds", i)
		assert.Equal(t, firstTopology[i].Prev, e.Prev, "edge %d Prev should be stable across rebuilds", i)
		assert.Equal(t, firstTopology[i].IsConvex, e.IsConvex, "edge %d IsConvex should be stable across rebuilds", i)
	}
}

func TestZeroLengthObstacleRejected(t *testing.T) {
	m := NewModel()
	id := m.AddObstacle(v(1, 1), v(1, 1))
	assert.Equal(t, NoEdge, id)
	assert.Equal(t, 0, len(m.Edges()))
}

// TestQueryEdgesSortedOrder checks the sorted proximity query's mandatory
// ascending order against brute force, for a scene with several disjoint
// obstacles.
func TestQueryEdgesSortedOrder(t *testing.T) {
	m := NewModel()
	pentagon(m, []int{0, 1, 2, 3, 4})
	m.AddObstacle(v(10, 10), v(10, 14))
	m.AddObstacle(v(10, 14), v(14, 14))
	m.AddObstacle(v(-20, -20), v(-16, -20))
	m.RebuildObstacles()

	p := v(1, 1)
	rangeSq := float32(400) // generous range, should catch most edges

	got := m.QueryEdgesSorted(p, rangeSq)
	assert.NotEmpty(t, got)

	for i := 1; i < len(got); i++ {
		d1 := vecmath.DistSqPointSegment(m.edges[got[i-1]].P1, m.edges[got[i-1]].P2, p)
		d2 := vecmath.DistSqPointSegment(m.edges[got[i]].P1, m.edges[got[i]].P2, p)
		assert.LessOrEqual(t, d1, d2, "result not sorted at index %d", i)
	}

	// brute force: every edge whose infinite-line distance² < rangeSq must
	// appear in the result.
	for id, e := range m.Edges() {
		if vecmath.DistSqLine(e.P1, e.P2, p) < rangeSq {
			assert.Contains(t, got, EdgeID(id), "edge %d within range should be present", id)
		}
	}
}

func TestQueryEdgesSortedEmptyModel(t *testing.T) {
	m := NewModel()
	m.RebuildObstacles()
	got := m.QueryEdgesSorted(v(0, 0), 100)
	assert.Empty(t, got)
}
