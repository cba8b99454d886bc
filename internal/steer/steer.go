// Package steer produces each agent's preferred velocity (C9): direct
// steering toward a target, or waypoint-following along a path supplied by
// an external PathProvider.
package steer

import "github.com/orcacrowd/orca-sim/internal/vecmath"

// DefaultWaypointEps is the default distance within which a waypoint is
// considered reached and the path advances (spec §4.9).
const DefaultWaypointEps = 0.5

// DefaultArrivalEps is the default distance within which an agent is
// considered to have arrived at its target and stops steering. The spec
// leaves this value to the implementation.
const DefaultArrivalEps = 0.1

// MovementState is the per-agent steering state (spec §6's fixed component
// set).
type MovementState struct {
	Target            vecmath.Vec2
	PreferredVelocity vecmath.Vec2
	HasPath           bool
	Path              []vecmath.Vec2
	PathIndex         int
}

// GridMap is the external grid collaborator a PathProvider plans against
// (spec §6's pathfinding interface).
type GridMap interface {
	WorldToGrid(p vecmath.Vec2) (int, int)
	GridToWorld(x, y int) vecmath.Vec2
	IsObstacle(x, y int) bool
	IsValid(x, y int) bool
	Width() int
	Height() int
	CellSize() float32
	Origin() vecmath.Vec2
}

// PathProvider is the external pathfinding collaborator. This package does
// not prescribe its algorithm (spec §4.9).
type PathProvider interface {
	FindPath(start, goal vecmath.Vec2, grid GridMap) []vecmath.Vec2
}

// Update recomputes m.PreferredVelocity from pos and maxSpeed, advancing
// m.PathIndex past any waypoints already within waypointEps of pos. Falls
// through to steering directly at the target when there is no path, the
// path is empty, or the path has been fully consumed.
func Update(pos vecmath.Vec2, maxSpeed float32, m *MovementState, arrivalEps, waypointEps float32) {
	if m.HasPath && len(m.Path) > 0 {
		for m.PathIndex < len(m.Path) && pos.Dist(m.Path[m.PathIndex]) < waypointEps {
			m.PathIndex++
		}
		if m.PathIndex < len(m.Path) {
			m.PreferredVelocity = m.Path[m.PathIndex].Sub(pos).Normalize().Scale(maxSpeed)
			return
		}
	}

	toTarget := m.Target.Sub(pos)
	if toTarget.LengthSq() > arrivalEps*arrivalEps {
		m.PreferredVelocity = toTarget.Normalize().Scale(maxSpeed)
	} else {
		m.PreferredVelocity = vecmath.Vec2{}
	}
}

// SetPath installs a freshly planned path and resets the waypoint cursor.
func (m *MovementState) SetPath(path []vecmath.Vec2) {
	m.Path = path
	m.PathIndex = 0
	m.HasPath = len(path) > 0
}
