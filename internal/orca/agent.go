package orca

import (
	"math"

	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// AgentLine builds the ORCA half-plane constraint imposed by neighbor o on
// a, given the tick's dt (used only on the colliding branch) and a's
// TimeHorizon (spec §4.4.1).
func AgentLine(a AgentState, o Neighbor, dt float32) Line {
	rp := o.Position.Sub(a.Position)
	rv := a.Velocity.Sub(o.Velocity)
	cr := a.Radius + o.Radius
	crSq := cr * cr

	var direction, u vecmath.Vec2
	if rp.LengthSq() > crSq {
		direction, u = nonCollidingAgentConstraint(rp, rv, cr, a.TimeHorizon)
	} else {
		direction, u = collidingAgentConstraint(rp, rv, cr, dt)
	}

	return Line{
		Point:     a.Velocity.Add(u.Scale(0.5)),
		Direction: direction,
	}
}

func nonCollidingAgentConstraint(rp, rv vecmath.Vec2, cr, timeHorizon float32) (direction, u vecmath.Vec2) {
	invH := 1 / timeHorizon
	w := rv.Sub(rp.Scale(invH))
	wLengthSq := w.LengthSq()
	dot := w.Dot(rp)

	if dot < 0 && dot*dot > crSqTimes(cr, wLengthSq) {
		wLength := float32(math.Sqrt(float64(wLengthSq)))
		unitW := w
		if wLength > 1e-10 {
			unitW = w.Scale(1 / wLength)
		}
		direction = unitW.Rot90CW()
		u = unitW.Scale(cr*invH - wLength)
		return direction, u
	}

	leg := float32(math.Sqrt(float64(rp.LengthSq() - cr*cr)))
	var legDir vecmath.Vec2
	if vecmath.Det(rp, w) > 0 {
		// Left leg.
		legDir = vecmath.Vec2{
			X: rp.X*leg - rp.Y*cr,
			Y: rp.X*cr + rp.Y*leg,
		}
	} else {
		// Right leg (negated relative to the left-leg formula).
		legDir = vecmath.Vec2{
			X: rp.X*leg + rp.Y*cr,
			Y: -rp.X*cr + rp.Y*leg,
		}.Neg()
	}
	direction = legDir.Normalize()
	u = direction.Scale(rv.Dot(direction)).Sub(rv)
	return direction, u
}

func crSqTimes(cr, wLengthSq float32) float32 { return cr * cr * wLengthSq }

func collidingAgentConstraint(rp, rv vecmath.Vec2, cr, dt float32) (direction, u vecmath.Vec2) {
	invDt := 1 / dt
	w := rv.Sub(rp.Scale(invDt))
	wLength := w.Length()
	unitW := w
	if wLength > 1e-10 {
		unitW = w.Scale(1 / wLength)
	}
	direction = unitW.Rot90CW()
	u = unitW.Scale(cr*invDt - wLength)
	return direction, u
}
