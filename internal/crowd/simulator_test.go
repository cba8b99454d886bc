package crowd

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/orcacrowd/orca-sim/internal/ecs"
	"github.com/orcacrowd/orca-sim/internal/simconfig"
	"github.com/orcacrowd/orca-sim/internal/spatial"
	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

func newTestSimulator() *Simulator {
	cfg := simconfig.Default()
	cfg.ParallelSolve = false
	return NewSimulator(cfg, spatial.NewKDTree())
}

func defaultParams(cfg simconfig.Config) AgentParams {
	return AgentParams{
		MaxSpeed:        cfg.MaxSpeed,
		NeighborDist:    cfg.NeighborDist,
		MaxNeighbors:    cfg.MaxNeighbors,
		TimeHorizon:     cfg.TimeHorizon,
		TimeHorizonObst: cfg.TimeHorizonObst,
	}
}

func TestTickOnEmptySceneIsANoOp(t *testing.T) {
	s := newTestSimulator()
	assert.NoError(t, s.Tick())
}

func TestGatherPopulatesDenseBuffersFromStore(t *testing.T) {
	s := newTestSimulator()
	params := defaultParams(s.cfg)

	id := s.Spawn(vecmath.Vec2{X: 1, Y: 2}, vecmath.Vec2{}, 0.5, params)

	n := s.gather()
	assert.Equal(t, 1, n)
	assert.Equal(t, id, s.ids[0])
	assert.Equal(t, vecmath.Vec2{X: 1, Y: 2}, s.positions[0])
}

// TestFirstTickHasNoNeighborsYet asserts the documented cold-start
// behavior: the spatial index is empty until the first reindex runs at the
// end of a tick, so the very first tick's solve sees no neighbors at all
// regardless of how many agents are gathered.
func TestFirstTickHasNoNeighborsYet(t *testing.T) {
	s := newTestSimulator()
	params := defaultParams(s.cfg)
	s.Spawn(vecmath.Vec2{X: 0, Y: 0}, vecmath.Vec2{}, 0.5, params)
	s.Spawn(vecmath.Vec2{X: 1, Y: 0}, vecmath.Vec2{}, 0.5, params)

	s.gather()
	neighbors := s.neighborsFor(0)
	assert.Empty(t, neighbors)
}

// TestNeighborsForTranslatesThroughPreviousTickSnapshot verifies the
// entity-id/local-index translation (spec §4.6 step 2): a raw index from
// the spatial index, captured at the end of a prior reindex, must resolve
// through indexIDs and localIndex back to the right agent's live state.
func TestNeighborsForTranslatesThroughPreviousTickSnapshot(t *testing.T) {
	s := newTestSimulator()
	params := defaultParams(s.cfg)

	a := s.Spawn(vecmath.Vec2{X: 0, Y: 0}, vecmath.Vec2{}, 0.5, params)
	b := s.Spawn(vecmath.Vec2{X: 1, Y: 0}, vecmath.Vec2{}, 0.5, params)

	assert.NoError(t, s.Tick())

	n := s.gather()
	assert.Equal(t, 2, n)

	var aLocal, bLocal int
	for i := 0; i < n; i++ {
		if s.ids[i] == a {
			aLocal = i
		}
		if s.ids[i] == b {
			bLocal = i
		}
	}

	neighbors := s.neighborsFor(aLocal)
	if assert.Len(t, neighbors, 1) {
		assert.Equal(t, s.positions[bLocal], neighbors[0].Position)
	}
}

// TestTwoApproachingAgentsAvoidEachOther is a basic sanity check of the
// full pipeline: two agents converging head-on must end the tick further
// apart than a straight-line collision course would put them, since ORCA
// deflects their velocities.
func TestTwoApproachingAgentsAvoidEachOther(t *testing.T) {
	s := newTestSimulator()
	params := defaultParams(s.cfg)
	params.MaxSpeed = 1.0

	a := s.Spawn(vecmath.Vec2{X: -2, Y: 0}, vecmath.Vec2{}, 0.3, params)
	b := s.Spawn(vecmath.Vec2{X: 2, Y: 0}, vecmath.Vec2{}, 0.3, params)
	s.SetTarget(a, vecmath.Vec2{X: 2, Y: 0})
	s.SetTarget(b, vecmath.Vec2{X: -2, Y: 0})

	for i := 0; i < 120; i++ {
		assert.NoError(t, s.Tick())
	}

	posA, ok := ecs.GetReadOnly[Position](s.store, a)
	assert.True(t, ok)
	posB, ok := ecs.GetReadOnly[Position](s.store, b)
	assert.True(t, ok)

	minSeparation := float32(0.3 + 0.3)
	assert.GreaterOrEqual(t, posA.Dist(posB.Vec2), minSeparation-1e-3)
}
