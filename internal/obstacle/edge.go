// Package obstacle models static line-segment obstacles (C3): directed
// edges linked into next/prev chains with derived convexity, and a
// segment KD-tree that partitions them for ORCA's sorted proximity query.
package obstacle

import "github.com/orcacrowd/orca-sim/internal/vecmath"

// EdgeID indexes into Model.edges.
type EdgeID int

// NoEdge marks the absence of a next/prev link.
const NoEdge EdgeID = -1

// Edge is one oriented segment P1->P2 of an obstacle polygon (or open
// chain). The "left" half-plane of a directed edge is the obstacle
// interior (callers add obstacles CCW about the interior).
type Edge struct {
	P1, P2    vecmath.Vec2
	Direction vecmath.Vec2 // normalize(P2 - P1)
	IsConvex  bool
	Next      EdgeID
	Prev      EdgeID
}

// ObstacleLinkEpsilon is the default quantization tolerance used to snap
// edge endpoints together during the linkage pass (spec §4.3).
const ObstacleLinkEpsilon = 0.05
