package obstacle

import (
	"sort"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// QueryEdgesSorted returns obstacle edges whose infinite-line distance² to
// p is below rangeSq, sorted ascending by point-to-segment distance to p.
// The ascending order is mandatory: ORCA's already-covered culling (§4.4.2)
// is only correct if closer edges are processed first.
//
// The traversal visits the side of the KD-tree containing p first, and
// prunes the far side when the splitter line is already farther than
// sqrt(rangeSq) away.
func (m *Model) QueryEdgesSorted(p vecmath.Vec2, rangeSq float32) []EdgeID {
	var out []EdgeID
	m.visitSorted(m.kdRoot, p, rangeSq, &out)

	sort.Slice(out, func(i, j int) bool {
		di := vecmath.DistSqPointSegment(m.edges[out[i]].P1, m.edges[out[i]].P2, p)
		dj := vecmath.DistSqPointSegment(m.edges[out[j]].P1, m.edges[out[j]].P2, p)
		return di < dj
	})
	return out
}

func (m *Model) visitSorted(nodeIdx int, p vecmath.Vec2, rangeSq float32, out *[]EdgeID) {
	if nodeIdx == -1 {
		return
	}
	node := m.kd[nodeIdx]
	splitter := m.edges[node.splitter]

	agentLeftOfLine := vecmath.Det(splitter.Direction, p.Sub(splitter.P1))
	dirLenSq := splitter.Direction.LengthSq()

	nearSide, farSide := node.left, node.right
	if agentLeftOfLine < 0 {
		nearSide, farSide = node.right, node.left
	}

	m.visitSorted(nearSide, p, rangeSq, out)

	if vecmath.DistSqLine(splitter.P1, splitter.P2, p) < rangeSq {
		*out = append(*out, node.splitter)
	}

	if dirLenSq > 0 && (agentLeftOfLine*agentLeftOfLine)/dirLenSq < rangeSq {
		m.visitSorted(farSide, p, rangeSq, out)
	}
}
