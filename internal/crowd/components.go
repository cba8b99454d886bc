package crowd

import "github.com/orcacrowd/orca-sim/internal/vecmath"

// Position, Velocity and Radius are distinct named wrapper types (rather
// than bare vecmath.Vec2/float32) so ecs.Store's reflect.Type-keyed pools
// don't collide between component kinds that happen to share an
// underlying type.
type Position struct{ vecmath.Vec2 }
type Velocity struct{ vecmath.Vec2 }
type Radius struct{ Value float32 }

// AgentParams is the fixed per-agent ORCA tuning set (spec §6).
type AgentParams struct {
	MaxSpeed        float32
	NeighborDist    float32
	MaxNeighbors    int
	TimeHorizon     float32
	TimeHorizonObst float32
}
