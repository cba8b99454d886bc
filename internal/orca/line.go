// Package orca builds ORCA half-plane velocity constraints (C4) and solves
// them with the incremental linear programmer (C5).
package orca

import "github.com/orcacrowd/orca-sim/internal/vecmath"

// Line is a half-plane constraint: the feasible region is every velocity
// left of the directed line through Point along Direction (Direction must
// be unit length).
type Line struct {
	Point     vecmath.Vec2
	Direction vecmath.Vec2
}

// AgentState is the per-agent input C4 reads to build constraints. It
// mirrors the dense gather buffers C6 fills each tick.
type AgentState struct {
	Position vecmath.Vec2
	Velocity vecmath.Vec2
	Radius   float32

	MaxSpeed        float32
	NeighborDist    float32
	MaxNeighbors    int
	TimeHorizon     float32
	TimeHorizonObst float32
}

// Neighbor is one other agent's state as seen by the constraint builder.
type Neighbor struct {
	Position vecmath.Vec2
	Velocity vecmath.Vec2
	Radius   float32
}
