package orca

import (
	"math"

	"github.com/orcacrowd/orca-sim/internal/obstacle"
	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// ObstacleLine builds the ORCA half-plane constraint imposed by obstacle
// edge e on agent a, given the obstacle lines already emitted earlier in
// this tick's iteration (for the already-covered culling test, spec
// §4.4.2). ok is false when the edge contributes no constraint: it is
// already covered, the nearest boundary turned out to be a foreign leg, or
// the agent is nearest to (or collides with) a non-convex vertex.
func ObstacleLine(a AgentState, model *obstacle.Model, e obstacle.EdgeID, emitted []Line) (line Line, ok bool) {
	edge := model.Edge(e)
	hasNext := edge.Next != obstacle.NoEdge
	var nextEdge obstacle.Edge
	if hasNext {
		nextEdge = model.Edge(edge.Next)
	}

	var invH float32
	if a.TimeHorizonObst > 0 {
		invH = 1 / a.TimeHorizonObst
	}

	rp1 := edge.P1.Sub(a.Position)
	rp2 := edge.P2.Sub(a.Position)

	for _, L := range emitted {
		d1 := vecmath.Det(rp1.Scale(invH).Sub(L.Point), L.Direction) - invH*a.Radius
		d2 := vecmath.Det(rp2.Scale(invH).Sub(L.Point), L.Direction) - invH*a.Radius
		if d1 >= -vecmath.Eps && d2 >= -vecmath.Eps {
			return Line{}, false
		}
	}

	distSq1 := rp1.LengthSq()
	distSq2 := rp2.LengthSq()
	radiusSq := a.Radius * a.Radius

	ev := edge.P2.Sub(edge.P1)
	evLenSq := ev.LengthSq()
	s := rp1.Neg().Dot(ev) / evLenSq
	distSqLine := rp1.Neg().Sub(ev.Scale(s)).LengthSq()

	switch {
	case s < 0 && distSq1 <= radiusSq:
		if !edge.IsConvex {
			return Line{}, false
		}
		return Line{Direction: vecmath.Vec2{X: -rp1.Y, Y: rp1.X}.Normalize()}, true
	case s > 1 && distSq2 <= radiusSq:
		// A missing next edge is treated as convex (§9 OQ3), falling
		// through to emission with edge.Direction standing in for the
		// absent nextEdge.Direction, mirroring the default branch's own
		// hasNext fallback below.
		nextDir := edge.Direction
		nextConvex := true
		if hasNext {
			nextDir = nextEdge.Direction
			nextConvex = nextEdge.IsConvex
		}
		if !nextConvex || vecmath.Det(rp2, nextDir) < 0 {
			return Line{}, false
		}
		return Line{Direction: vecmath.Vec2{X: -rp2.Y, Y: rp2.X}.Normalize()}, true
	case s >= 0 && s <= 1 && distSqLine <= radiusSq:
		return Line{Direction: edge.Direction.Neg()}, true
	}

	// No collision: build the velocity obstacle from the two legs.
	obstacle1 := edge
	obstacle2 := nextEdge
	obstacle2Valid := hasNext
	collapsed := false
	var leftLeg, rightLeg vecmath.Vec2

	switch {
	case s < 0 && distSqLine <= radiusSq:
		// Oblique-left: obstacle viewed so only the left vertex matters.
		if !edge.IsConvex {
			return Line{}, false
		}
		obstacle2 = edge
		obstacle2Valid = true
		collapsed = true
		leg1 := sqrtf(distSq1 - radiusSq)
		leftLeg = vecmath.Vec2{X: rp1.X*leg1 - rp1.Y*a.Radius, Y: rp1.X*a.Radius + rp1.Y*leg1}.Scale(1 / distSq1)
		rightLeg = vecmath.Vec2{X: rp1.X*leg1 + rp1.Y*a.Radius, Y: -rp1.X*a.Radius + rp1.Y*leg1}.Scale(1 / distSq1)
	case s > 1 && distSqLine <= radiusSq:
		// Oblique-right: obstacle viewed so only the right vertex matters.
		// A missing next edge is treated as convex (§9 OQ3): fall through
		// using a convex stand-in for the absent nextEdge that starts at
		// P2 (where both legs emanate), keeps edge's direction, and links
		// back to edge.
		nextConvex := true
		if hasNext {
			nextConvex = nextEdge.IsConvex
		}
		if !nextConvex {
			return Line{}, false
		}
		if hasNext {
			obstacle1 = nextEdge
			obstacle2 = nextEdge
		} else {
			standIn := edge
			standIn.P1 = edge.P2
			standIn.Prev = e
			standIn.IsConvex = true
			obstacle1 = standIn
			obstacle2 = standIn
		}
		obstacle2Valid = true
		collapsed = true
		leg2 := sqrtf(distSq2 - radiusSq)
		leftLeg = vecmath.Vec2{X: rp2.X*leg2 - rp2.Y*a.Radius, Y: rp2.X*a.Radius + rp2.Y*leg2}.Scale(1 / distSq2)
		rightLeg = vecmath.Vec2{X: rp2.X*leg2 + rp2.Y*a.Radius, Y: -rp2.X*a.Radius + rp2.Y*leg2}.Scale(1 / distSq2)
	default:
		if edge.IsConvex {
			leg1 := sqrtf(distSq1 - radiusSq)
			leftLeg = vecmath.Vec2{X: rp1.X*leg1 - rp1.Y*a.Radius, Y: rp1.X*a.Radius + rp1.Y*leg1}.Scale(1 / distSq1)
		} else {
			leftLeg = edge.Direction.Neg()
		}
		if hasNext && nextEdge.IsConvex {
			leg2 := sqrtf(distSq2 - radiusSq)
			rightLeg = vecmath.Vec2{X: rp2.X*leg2 + rp2.Y*a.Radius, Y: -rp2.X*a.Radius + rp2.Y*leg2}.Scale(1 / distSq2)
		} else {
			rightLeg = edge.Direction
		}
	}

	// Foreign-leg test: a leg pointing into the obstacle body is replaced
	// by the neighboring edge's direction, and marked so a projection
	// onto it is later discarded rather than emitted.
	leftForeign, rightForeign := false, false
	if obstacle1.IsConvex && obstacle1.Prev != obstacle.NoEdge {
		prev := model.Edge(obstacle1.Prev)
		if vecmath.Det(leftLeg, prev.Direction.Neg()) >= 0 {
			leftLeg = prev.Direction.Neg()
			leftForeign = true
		}
	}
	if obstacle2Valid && obstacle2.IsConvex && vecmath.Det(rightLeg, obstacle2.Direction) <= 0 {
		rightLeg = obstacle2.Direction
		rightForeign = true
	}

	leftCut := obstacle1.P1.Sub(a.Position).Scale(invH)
	rightCut := leftCut
	if obstacle2Valid {
		rightCut = obstacle2.P1.Sub(a.Position).Scale(invH)
	}
	cutOffVector := rightCut.Sub(leftCut)

	relLeft := a.Velocity.Sub(leftCut)
	relRight := a.Velocity.Sub(rightCut)

	var t float32
	if collapsed {
		t = 0.5
	} else {
		t = relLeft.Dot(cutOffVector) / cutOffVector.LengthSq()
	}
	tLeft := relLeft.Dot(leftLeg)
	tRight := relRight.Dot(rightLeg)

	if (t < 0 && tLeft < 0) || (collapsed && tLeft < 0 && tRight < 0) {
		unitW := relLeft.Normalize()
		direction := vecmath.Vec2{X: unitW.Y, Y: -unitW.X}
		point := leftCut.Add(unitW.Scale(a.Radius * invH))
		return Line{Point: point, Direction: direction}, true
	}
	if t > 1 && tRight < 0 {
		unitW := relRight.Normalize()
		direction := vecmath.Vec2{X: unitW.Y, Y: -unitW.X}
		point := rightCut.Add(unitW.Scale(a.Radius * invH))
		return Line{Point: point, Direction: direction}, true
	}

	inf := float32(math.Inf(1))

	distSqCutoff := inf
	if !collapsed && t >= 0 && t <= 1 {
		proj := leftCut.Add(cutOffVector.Scale(t))
		distSqCutoff = a.Velocity.DistSq(proj)
	}
	distSqLeft := inf
	if tLeft >= 0 {
		proj := leftCut.Add(leftLeg.Scale(tLeft))
		distSqLeft = a.Velocity.DistSq(proj)
	}
	distSqRight := inf
	if tRight >= 0 {
		proj := rightCut.Add(rightLeg.Scale(tRight))
		distSqRight = a.Velocity.DistSq(proj)
	}

	if distSqCutoff <= distSqLeft && distSqCutoff <= distSqRight {
		direction := obstacle1.Direction.Neg()
		point := leftCut.Add(direction.Rot90CCW().Scale(a.Radius * invH))
		return Line{Point: point, Direction: direction}, true
	}
	if distSqLeft <= distSqRight {
		if leftForeign {
			return Line{}, false
		}
		direction := leftLeg
		point := leftCut.Add(direction.Rot90CCW().Scale(a.Radius * invH))
		return Line{Point: point, Direction: direction}, true
	}
	if rightForeign {
		return Line{}, false
	}
	direction := rightLeg
	point := rightCut.Add(direction.Rot90CCW().Scale(a.Radius * invH))
	return Line{Point: point, Direction: direction}, true
}

func sqrtf(v float32) float32 {
	if v < 0 {
		return 0
	}
	return float32(math.Sqrt(float64(v)))
}
