package obstacle

import (
	"log"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// kdNode is one node of the segment KD-tree: a chosen splitter edge plus
// left/right children covering the edges partitioned by the splitter's
// infinite line (spec §4.3's "Segment KD-tree build").
type kdNode struct {
	splitter    EdgeID
	left, right int // index into Model.kd, -1 if empty
}

type splitSide int

const (
	sideLeft splitSide = iota
	sideRight
	sideStraddle
)

func classify(splitP1, splitDir vecmath.Vec2, e Edge) splitSide {
	a1 := vecmath.Det(splitDir, e.P1.Sub(splitP1))
	a2 := vecmath.Det(splitDir, e.P2.Sub(splitP1))
	switch {
	case a1 >= -vecmath.Eps && a2 >= -vecmath.Eps:
		return sideLeft
	case a1 <= vecmath.Eps && a2 <= vecmath.Eps:
		return sideRight
	default:
		return sideStraddle
	}
}

var loggedCapacityOverrun bool

// buildSegmentKDTree rebuilds the KD-tree over all current edges. It may
// create new edge fragments (straddling splits), growing Model.edges.
func (m *Model) buildSegmentKDTree() {
	n := len(m.edges)
	if m.capacity < 4*n {
		m.capacity = 4 * n
	}
	if m.capacity == 0 {
		m.capacity = 1
	}
	m.kd = m.kd[:0]
	if n == 0 {
		m.kdRoot = -1
		return
	}
	ids := make([]EdgeID, n)
	for i := range ids {
		ids[i] = EdgeID(i)
	}
	m.kdRoot = m.buildKDRecursive(ids)
}

// chooseSplitter picks the edge among ids whose infinite line best
// balances the remaining edges into {left,right,straddling}, minimizing
// max(|left|,|right|) (straddling edges count toward both sides since
// they contribute one fragment each way). The inner loop exits early once
// the running max for a candidate already exceeds the best found so far.
func (m *Model) chooseSplitter(ids []EdgeID) EdgeID {
	best := len(ids) + 1
	bestIdx := ids[0]

	for _, cID := range ids {
		c := m.edges[cID]
		left, right := 0, 0
		exceeded := false
		for _, oID := range ids {
			if oID == cID {
				continue
			}
			switch classify(c.P1, c.Direction, m.edges[oID]) {
			case sideLeft:
				left++
			case sideRight:
				right++
			case sideStraddle:
				left++
				right++
			}
			if m := maxInt(left, right); m > best {
				exceeded = true
				break
			}
		}
		if exceeded {
			continue
		}
		if m := maxInt(left, right); m < best {
			best = m
			bestIdx = cID
		}
	}
	return bestIdx
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// splitEdge splits e (id eID) at the intersection with the splitter's
// infinite line (splitP1, splitDir), returning the id of the edge that
// belongs on the left side and the one on the right side. The original
// edge is truncated in place to whichever fragment keeps its id; the
// other fragment is a newly appended edge whose Prev becomes the
// truncated original, preserving traversal order (spec §4.3 step 3).
//
// If the arena is at capacity, the split is skipped and the edge is kept
// intact on the left side (spec §7's soft-degradation path).
func (m *Model) splitEdge(eID EdgeID, splitP1, splitDir vecmath.Vec2) (leftID, rightID EdgeID) {
	e := m.edges[eID]
	a1 := vecmath.Det(splitDir, e.P1.Sub(splitP1))
	a2 := vecmath.Det(splitDir, e.P2.Sub(splitP1))

	if len(m.edges) >= m.capacity {
		if !loggedCapacityOverrun {
			log.Printf("obstacle: segment kd-tree capacity (%d) exceeded, keeping edge %d intact on the left", m.capacity, eID)
			loggedCapacityOverrun = true
		}
		return eID, NoEdge
	}

	denom := a1 - a2
	var t float32
	if denom == 0 {
		t = 0.5
	} else {
		t = a1 / denom
	}
	x := e.P1.Add(e.P2.Sub(e.P1).Scale(t))

	oldP2 := e.P2
	oldNext := e.Next

	// Truncate the original edge to [P1, x].
	m.edges[eID].P2 = x

	// New fragment covers [x, oldP2], inherits direction, and continues
	// the chain where the truncated original used to.
	frag := Edge{P1: x, P2: oldP2, Direction: e.Direction, IsConvex: true, Next: oldNext, Prev: eID}
	m.edges = append(m.edges, frag)
	newID := EdgeID(len(m.edges) - 1)

	m.edges[eID].Next = newID
	if oldNext != NoEdge {
		m.edges[oldNext].Prev = newID
	}

	if a1 >= 0 {
		// P1 was left, P2 was right: truncated original is the left
		// fragment, the new one is the right fragment.
		return eID, newID
	}
	return newID, eID
}

// buildKDRecursive partitions ids around a chosen splitter, recursing on
// the left/right partitions. Straddling edges are split and their
// fragments distributed to the respective sides.
func (m *Model) buildKDRecursive(ids []EdgeID) int {
	if len(ids) == 0 {
		return -1
	}
	splitterID := m.chooseSplitter(ids)
	splitter := m.edges[splitterID]

	var left, right []EdgeID
	for _, id := range ids {
		if id == splitterID {
			continue
		}
		switch classify(splitter.P1, splitter.Direction, m.edges[id]) {
		case sideLeft:
			left = append(left, id)
		case sideRight:
			right = append(right, id)
		case sideStraddle:
			l, r := m.splitEdge(id, splitter.P1, splitter.Direction)
			if l != NoEdge {
				left = append(left, l)
			}
			if r != NoEdge {
				right = append(right, r)
			}
		}
	}

	node := kdNode{splitter: splitterID}
	m.kd = append(m.kd, node)
	nodeIdx := len(m.kd) - 1
	m.kd[nodeIdx].left = m.buildKDRecursive(left)
	m.kd[nodeIdx].right = m.buildKDRecursive(right)
	return nodeIdx
}
