package obstacle

import (
	"errors"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// ErrCapacityExceeded describes the condition where the segment KD-tree's
// arena would need to grow past its pre-sized capacity during a split. No
// function returns it: the build logs the overrun once (not fatal — see
// spec §7) and keeps the offending edge intact on the left side as a soft
// degradation.
var ErrCapacityExceeded = errors.New("obstacle: segment kd-tree capacity exceeded")

// Model owns the arena of obstacle edges and the derived linkage,
// convexity, and segment KD-tree. It is mutated only outside ticks, via
// AddObstacle/ClearObstacles followed by RebuildObstacles (spec §5, §6).
type Model struct {
	edges   []Edge
	linkEps float32
	dirty   bool

	kd       []kdNode
	kdRoot   int
	capacity int // pre-sized split capacity, spec §7 (>= 4x input edges)
}

// NewModel creates an empty obstacle model with the default link epsilon.
func NewModel() *Model {
	return &Model{linkEps: ObstacleLinkEpsilon, kdRoot: -1}
}

// SetLinkEpsilon overrides the default quantization tolerance used by the
// linkage pass. Must be called before the first RebuildObstacles to take
// effect on that rebuild.
func (m *Model) SetLinkEpsilon(eps float32) { m.linkEps = eps }

// AddObstacle appends a new directed edge P1->P2 and marks the model
// dirty. The caller is responsible for CCW winding about the obstacle
// interior (spec §6). Zero-length edges are rejected (spec §7: degenerate
// input is silently skipped) and return NoEdge.
func (m *Model) AddObstacle(p1, p2 vecmath.Vec2) EdgeID {
	dir := p2.Sub(p1)
	if dir.LengthSq() < 1e-12 {
		return NoEdge
	}
	e := Edge{P1: p1, P2: p2, Direction: dir.Normalize(), Next: NoEdge, Prev: NoEdge, IsConvex: true}
	m.edges = append(m.edges, e)
	m.dirty = true
	return EdgeID(len(m.edges) - 1)
}

// ClearObstacles removes all edges.
func (m *Model) ClearObstacles() {
	m.edges = m.edges[:0]
	m.kd = m.kd[:0]
	m.kdRoot = -1
	m.dirty = true
}

// Dirty reports whether RebuildObstacles must run before queries are
// trustworthy.
func (m *Model) Dirty() bool { return m.dirty }

// Edges returns the current edge arena. The returned slice must not be
// mutated by the caller; obtain EdgeID handles from AddObstacle / Edge
// fields instead.
func (m *Model) Edges() []Edge { return m.edges }

// Edge returns the edge at id.
func (m *Model) Edge(id EdgeID) Edge { return m.edges[id] }

// quantizedKey snaps a point to an integer grid cell sized linkEps, used
// to bucket candidate endpoint matches in the linkage pass.
type quantizedKey struct{ x, y int32 }

func quantize(p vecmath.Vec2, eps float32) quantizedKey {
	return quantizedKey{
		x: int32(p.X / eps),
		y: int32(p.Y / eps),
	}
}

// neighborKeys returns the 3x3 block of quantized cells around key, since
// a point near a cell boundary may quantize into an adjacent cell from
// its true neighbor.
func neighborKeys(k quantizedKey) [9]quantizedKey {
	var out [9]quantizedKey
	i := 0
	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			out[i] = quantizedKey{k.x + dx, k.y + dy}
			i++
		}
	}
	return out
}

// RebuildObstacles runs the linkage pass (next/prev, convexity) and
// rebuilds the segment KD-tree. Idempotent: rebuilding twice on the same
// edge set yields identical topology (edge indices and links unchanged).
func (m *Model) RebuildObstacles() {
	m.linkEdges()
	m.computeConvexity()
	m.buildSegmentKDTree()
	m.dirty = false
}

// linkEdges implements spec §4.3's linkage pass: quantize each P1 into a
// multimap, then for each edge look up candidates whose quantized P1 lies
// in the 3x3 block of cells around quantize(E.P2), picking the closest
// within linkEps by squared distance.
func (m *Model) linkEdges() {
	linkEpsSq := m.linkEps * m.linkEps

	byP1 := make(map[quantizedKey][]EdgeID, len(m.edges))
	for i := range m.edges {
		id := EdgeID(i)
		m.edges[i].Next = NoEdge
		m.edges[i].Prev = NoEdge
		k := quantize(m.edges[i].P1, m.linkEps)
		byP1[k] = append(byP1[k], id)
	}

	for i := range m.edges {
		e := EdgeID(i)
		target := m.edges[i].P2
		key := quantize(target, m.linkEps)

		best := NoEdge
		bestDistSq := float32(-1)
		for _, nk := range neighborKeys(key) {
			for _, cand := range byP1[nk] {
				if cand == e {
					continue
				}
				d := m.edges[cand].P1.DistSq(target)
				if d > linkEpsSq {
					continue
				}
				if best == NoEdge || d < bestDistSq {
					best = cand
					bestDistSq = d
				}
			}
		}
		if best != NoEdge {
			m.edges[i].Next = best
			m.edges[best].Prev = e
		}
	}
}

// computeConvexity sets IsConvex for every linked edge; open-chain
// endpoints (missing prev or next) default to convex per spec §4.3 and
// §9 OQ3.
func (m *Model) computeConvexity() {
	for i := range m.edges {
		e := &m.edges[i]
		if e.Prev == NoEdge || e.Next == NoEdge {
			e.IsConvex = true
			continue
		}
		prev := m.edges[e.Prev]
		next := m.edges[e.Next]
		e.IsConvex = vecmath.LeftOf(prev.P1, e.P1, next.P1) >= 0
	}
}
