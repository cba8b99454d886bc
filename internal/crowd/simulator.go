// Package crowd implements the per-tick simulator (C6): it gathers dense
// snapshots from the entity/component store, queries neighbors, builds and
// solves ORCA constraints per agent, integrates, scatters, and reindexes —
// tying together C1 through C9.
package crowd

import (
	"context"
	"log"
	"math"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/orcacrowd/orca-sim/internal/ecs"
	"github.com/orcacrowd/orca-sim/internal/obstacle"
	"github.com/orcacrowd/orca-sim/internal/orca"
	"github.com/orcacrowd/orca-sim/internal/simconfig"
	"github.com/orcacrowd/orca-sim/internal/spatial"
	"github.com/orcacrowd/orca-sim/internal/steer"
	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// Simulator owns the component store, spatial index and obstacle model for
// one crowd scene, and advances them one fixed-order tick at a time (spec
// §4.6). RunID tags every log line emitted by this instance, so multiple
// simulators sharing a process remain distinguishable.
type Simulator struct {
	RunID uuid.UUID
	log   *log.Logger

	cfg   simconfig.Config
	store *ecs.Store
	index spatial.Index
	model *obstacle.Model

	// Scratch buffers, owned by the simulator and reused across ticks
	// (spec §5). A buffer whose capacity is short of the agent count is
	// reallocated at exactly that count, not doubled; none is ever shrunk.
	ids         []ecs.EntityID
	positions   []vecmath.Vec2
	velocities  []vecmath.Vec2
	radii       []float32
	params      []AgentParams
	movements   []*steer.MovementState
	prefVel     []vecmath.Vec2
	newVelocity []vecmath.Vec2
	localIndex  map[ecs.EntityID]int

	neighborBuf [][]int
	lineBuf     [][]orca.Line
	edgeBuf     [][]obstacle.EdgeID

	// indexIDs[i] is the entity that occupied positions[i] the last time
	// index.BuildAsync ran (spec §4.6 step 6); this tick's neighbor query
	// (step 2) translates query results through it back to this tick's
	// local indices.
	indexIDs []ecs.EntityID
}

// NewSimulator creates a simulator over a fresh component store and the
// given spatial index implementation (caller picks grid/kdtree/bvh/quadtree
// per cfg.SpatialIndex).
func NewSimulator(cfg simconfig.Config, index spatial.Index) *Simulator {
	runID := uuid.New()
	return &Simulator{
		RunID:      runID,
		log:        log.New(log.Writer(), "[crowd "+runID.String()[:8]+"] ", log.LstdFlags),
		cfg:        cfg,
		store:      ecs.NewStore(),
		index:      index,
		model:      obstacle.NewModel(),
		localIndex: make(map[ecs.EntityID]int),
	}
}

// Spawn creates a new agent entity with the fixed component set (spec §6).
func (s *Simulator) Spawn(pos, vel vecmath.Vec2, radius float32, params AgentParams) ecs.EntityID {
	id := s.store.Create()
	_ = ecs.Add(s.store, id, Position{pos})
	_ = ecs.Add(s.store, id, Velocity{vel})
	_ = ecs.Add(s.store, id, Radius{radius})
	_ = ecs.Add(s.store, id, params)
	_ = ecs.Add(s.store, id, &steer.MovementState{Target: pos})
	return id
}

// SetTarget installs target as id's steering target, clearing any path.
func (s *Simulator) SetTarget(id ecs.EntityID, target vecmath.Vec2) {
	if m, ok := ecs.Get[*steer.MovementState](s.store, id); ok {
		(*m).Target = target
		(*m).SetPath(nil)
	}
}

// SetPath installs a planned path for id to follow toward its target.
func (s *Simulator) SetPath(id ecs.EntityID, path []vecmath.Vec2) {
	if m, ok := ecs.Get[*steer.MovementState](s.store, id); ok {
		(*m).SetPath(path)
	}
}

// AddObstacle forwards to the obstacle model (spec §6's obstacle
// interface). The model is marked dirty; Tick rebuilds it lazily.
func (s *Simulator) AddObstacle(p1, p2 vecmath.Vec2) obstacle.EdgeID {
	return s.model.AddObstacle(p1, p2)
}

// ClearObstacles forwards to the obstacle model.
func (s *Simulator) ClearObstacles() { s.model.ClearObstacles() }

// Model exposes the obstacle model, e.g. for obstacleio.Watcher to mutate
// directly.
func (s *Simulator) Model() *obstacle.Model { return s.model }

// Store exposes the component store, e.g. for a caller reading an agent's
// final Position/Velocity after a run.
func (s *Simulator) Store() *ecs.Store { return s.store }

// AgentCount returns how many agents were present as of the last Tick's
// gather stage.
func (s *Simulator) AgentCount() int { return len(s.ids) }

// AgentID returns the entity id at dense index i, as of the last Tick's
// gather stage (for a visualizer or debug overlay iterating 0..AgentCount).
func (s *Simulator) AgentID(i int) ecs.EntityID { return s.ids[i] }

// AgentPosition returns agent i's position as of the end of the last Tick.
func (s *Simulator) AgentPosition(i int) vecmath.Vec2 { return s.positions[i] }

// AgentRadius returns agent i's collision radius.
func (s *Simulator) AgentRadius(i int) float32 { return s.radii[i] }

// DebugLines returns the ORCA half-planes agent i solved against on the
// last Tick (obstacle lines first, then agent-agent lines), for a
// visualizer's debug overlay. The returned slice is replaced by a new one
// on the next Tick.
func (s *Simulator) DebugLines(i int) []orca.Line { return s.lineBuf[i] }

func (s *Simulator) ensureCapacity(n int) {
	s.ids = growEntityIDs(s.ids, n)
	s.positions = growVec2(s.positions, n)
	s.velocities = growVec2(s.velocities, n)
	s.radii = growFloat32(s.radii, n)
	s.params = growParams(s.params, n)
	s.movements = growMovements(s.movements, n)
	s.prefVel = growVec2(s.prefVel, n)
	s.newVelocity = growVec2(s.newVelocity, n)
	for len(s.neighborBuf) < n {
		s.neighborBuf = append(s.neighborBuf, nil)
	}
	for len(s.lineBuf) < n {
		s.lineBuf = append(s.lineBuf, nil)
	}
	for len(s.edgeBuf) < n {
		s.edgeBuf = append(s.edgeBuf, nil)
	}
}

func growEntityIDs(s []ecs.EntityID, n int) []ecs.EntityID {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]ecs.EntityID, n)
}

func growVec2(s []vecmath.Vec2, n int) []vecmath.Vec2 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]vecmath.Vec2, n)
}

func growFloat32(s []float32, n int) []float32 {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]float32, n)
}

func growParams(s []AgentParams, n int) []AgentParams {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]AgentParams, n)
}

func growMovements(s []*steer.MovementState, n int) []*steer.MovementState {
	if cap(s) >= n {
		return s[:n]
	}
	return make([]*steer.MovementState, n)
}

// Tick advances the simulation one fixed step, running the six stages in
// order (spec §4.6): gather, neighbor query, solve, integrate, scatter,
// reindex.
func (s *Simulator) Tick() error {
	if s.model.Dirty() {
		s.model.RebuildObstacles()
	}

	n := s.gather()
	s.steerAll(n)

	if err := s.solveAll(n); err != nil {
		return err
	}
	s.integrate(n)
	s.scatter(n)
	s.reindex(n)
	return nil
}

// gather builds this tick's dense snapshot from the component store and
// the entity-to-local-index map used to translate neighbor query results.
// Returns the number of agents gathered.
func (s *Simulator) gather() int {
	n := ecs.Len[Position](s.store)
	s.ensureCapacity(n)
	for k := range s.localIndex {
		delete(s.localIndex, k)
	}

	i := 0
	ecs.Each[Position](s.store, func(id ecs.EntityID, pos *Position) {
		vel, _ := ecs.Get[Velocity](s.store, id)
		rad, _ := ecs.Get[Radius](s.store, id)
		params, _ := ecs.Get[AgentParams](s.store, id)
		move, _ := ecs.Get[*steer.MovementState](s.store, id)

		s.ids[i] = id
		s.positions[i] = pos.Vec2
		if vel != nil {
			s.velocities[i] = vel.Vec2
		}
		if rad != nil {
			s.radii[i] = rad.Value
		}
		if params != nil {
			s.params[i] = *params
		}
		if move != nil {
			s.movements[i] = *move
		}
		s.localIndex[id] = i
		i++
	})
	return n
}

// steerAll recomputes every agent's preferred velocity (C9) ahead of the
// ORCA solve.
func (s *Simulator) steerAll(n int) {
	for i := 0; i < n; i++ {
		m := s.movements[i]
		if m == nil {
			s.prefVel[i] = vecmath.Vec2{}
			continue
		}
		steer.Update(s.positions[i], s.params[i].MaxSpeed, m, steer.DefaultArrivalEps, steer.DefaultWaypointEps)
		s.prefVel[i] = m.PreferredVelocity
	}
}

// neighborsFor translates the spatial index's query result for agent i
// (raw slice positions from the PREVIOUS tick's reindex) into this tick's
// Neighbor slice, via s.indexIDs (previous-tick local index -> entity id)
// and s.localIndex (entity id -> this-tick local index). Stale entries —
// entities destroyed since the last reindex, or ones the query no longer
// resolves locally — are skipped.
func (s *Simulator) neighborsFor(i int) []orca.Neighbor {
	self := s.ids[i]
	s.neighborBuf[i] = s.index.QueryKNearestSorted(s.positions[i], s.params[i].MaxNeighbors, s.params[i].NeighborDist, s.neighborBuf[i])
	raw := s.neighborBuf[i]

	neighbors := make([]orca.Neighbor, 0, len(raw))
	for _, r := range raw {
		if r < 0 || r >= len(s.indexIDs) {
			continue
		}
		id := s.indexIDs[r]
		if id == self {
			continue
		}
		j, ok := s.localIndex[id]
		if !ok {
			continue
		}
		neighbors = append(neighbors, orca.Neighbor{
			Position: s.positions[j],
			Velocity: s.velocities[j],
			Radius:   s.radii[j],
		})
	}
	return neighbors
}

// candidateEdgesFor returns the obstacle edges within this agent's
// obstacle-avoidance range, sorted nearest-first (spec §4.4.2 requires the
// sorted order for its already-covered culling).
func (s *Simulator) candidateEdgesFor(i int) []obstacle.EdgeID {
	if len(s.model.Edges()) == 0 {
		return nil
	}
	reach := s.params[i].TimeHorizonObst*s.params[i].MaxSpeed + s.radii[i]
	return s.model.QueryEdgesSorted(s.positions[i], reach*reach)
}

func (s *Simulator) agentState(i int) orca.AgentState {
	p := s.params[i]
	return orca.AgentState{
		Position:        s.positions[i],
		Velocity:        s.velocities[i],
		Radius:          s.radii[i],
		MaxSpeed:        p.MaxSpeed,
		NeighborDist:    p.NeighborDist,
		MaxNeighbors:    p.MaxNeighbors,
		TimeHorizon:     p.TimeHorizon,
		TimeHorizonObst: p.TimeHorizonObst,
	}
}

// solveOne runs C4+C5 for agent i: build ORCA lines, run the 2-D LP, and
// fall back to the 3-D LP on infeasibility.
func (s *Simulator) solveOne(i int) {
	a := s.agentState(i)
	edges := s.candidateEdgesFor(i)
	neighbors := s.neighborsFor(i)

	lines, obstacleCount := orca.BuildLines(a, s.model, edges, neighbors, s.cfg.DT)
	s.lineBuf[i] = lines
	s.edgeBuf[i] = edges

	var result vecmath.Vec2
	failed := orca.LinearProgram2(lines, a.MaxSpeed, s.prefVel[i], false, &result)
	if failed < len(lines) {
		orca.LinearProgram3(lines, obstacleCount, failed, a.MaxSpeed, &result)
	}
	s.newVelocity[i] = result
}

// solveAll runs solveOne for every agent, concurrently via errgroup when
// cfg.ParallelSolve is set, one goroutine per agent. Each goroutine writes
// only its own index of s.newVelocity, s.lineBuf, s.edgeBuf and
// s.neighborBuf, so the result is bit-identical to the sequential form
// regardless of scheduling (spec §5).
func (s *Simulator) solveAll(n int) error {
	if !s.cfg.ParallelSolve {
		for i := 0; i < n; i++ {
			s.solveOne(i)
		}
		return nil
	}

	g, _ := errgroup.WithContext(context.Background())
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			s.solveOne(i)
			return nil
		})
	}
	return g.Wait()
}

func (s *Simulator) integrate(n int) {
	dt := s.cfg.DT
	for i := 0; i < n; i++ {
		s.velocities[i] = s.newVelocity[i]
		s.positions[i] = s.positions[i].Add(s.newVelocity[i].Scale(dt))
	}
	if s.cfg.PenetrationSeparation {
		s.separatePenetrations(n)
	}
}

// separatePenetrations is the optional post-integrate overlap-resolution
// pass (spec §9 OQ2): push apart any pair of agents whose centers are
// closer than the sum of their radii plus PenetrationPadding, moving each
// by half the shortfall.
func (s *Simulator) separatePenetrations(n int) {
	pad := s.cfg.PenetrationPadding
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			delta := s.positions[j].Sub(s.positions[i])
			minDist := s.radii[i] + s.radii[j] + pad
			distSq := delta.LengthSq()
			if distSq >= minDist*minDist || distSq < 1e-12 {
				continue
			}
			dist := sqrtf(distSq)
			push := (minDist - dist) * 0.5
			dir := delta.Scale(1 / dist)
			s.positions[i] = s.positions[i].Sub(dir.Scale(push))
			s.positions[j] = s.positions[j].Add(dir.Scale(push))
		}
	}
}

// scatter writes the tick's final positions and velocities back to the
// component store.
func (s *Simulator) scatter(n int) {
	for i := 0; i < n; i++ {
		_ = ecs.Add(s.store, s.ids[i], Position{s.positions[i]})
		_ = ecs.Add(s.store, s.ids[i], Velocity{s.velocities[i]})
	}
}

// reindex rebuilds the spatial index from this tick's final positions and
// snapshots the entity ids behind them, so next tick's neighbor query can
// translate query results back to entities (spec §4.6 step 6).
func (s *Simulator) reindex(n int) {
	s.index.BuildAsync(s.positions[:n])
	s.indexIDs = growEntityIDs(s.indexIDs, n)
	copy(s.indexIDs, s.ids[:n])
}

func sqrtf(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
