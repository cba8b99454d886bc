// Package scenario defines the JSON scene format shared by cmd/orcasim and
// tools/gen_scenario: a set of agents, obstacle polylines, and a tick
// count, deserialized into a running crowd.Simulator.
package scenario

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/orcacrowd/orca-sim/internal/crowd"
	"github.com/orcacrowd/orca-sim/internal/ecs"
	"github.com/orcacrowd/orca-sim/internal/simconfig"
	"github.com/orcacrowd/orca-sim/internal/spatial"
	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

// Point2D is a scene-file coordinate.
type Point2D struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func (p Point2D) toVec2() vecmath.Vec2 { return vecmath.Vec2{X: p.X, Y: p.Y} }

// Polyline is one obstacle chain (see internal/obstacleio's identical
// format, which this package intentionally mirrors).
type Polyline struct {
	Closed bool      `json:"closed"`
	Points []Point2D `json:"points"`
}

// AgentSpec is one agent's initial state and target. Zero-valued tuning
// fields fall back to the scenario's Config defaults.
type AgentSpec struct {
	Position Point2D `json:"position"`
	Target   Point2D `json:"target"`
	Radius   float32 `json:"radius,omitempty"`
	MaxSpeed float32 `json:"maxSpeed,omitempty"`
}

// Scene is the on-disk scenario format.
type Scene struct {
	Name      string           `json:"name"`
	Config    simconfig.Config `json:"config"`
	Ticks     int              `json:"ticks"`
	Agents    []AgentSpec      `json:"agents"`
	Obstacles []Polyline       `json:"obstacles"`
}

// Load reads and parses a scene file, filling any Config field the file
// omits from simconfig.Default.
func Load(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", path, err)
	}

	sc := &Scene{Config: simconfig.Default(), Ticks: 600}
	if err := json.Unmarshal(data, sc); err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", path, err)
	}
	return sc, nil
}

// Save writes a scene to path as indented JSON.
func Save(sc *Scene, path string) error {
	data, err := json.MarshalIndent(sc, "", "  ")
	if err != nil {
		return fmt.Errorf("scenario: marshaling: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// NewIndex constructs the spatial index named by cfg.SpatialIndex.
func NewIndex(cfg simconfig.Config) (spatial.Index, error) {
	switch cfg.SpatialIndex {
	case "grid":
		return spatial.NewGrid(cfg.GridCellSize), nil
	case "kdtree", "":
		return spatial.NewKDTree(), nil
	case "bvh":
		return spatial.NewBVH(8), nil
	case "quadtree":
		return spatial.NewQuadTree(vecmath.Vec2{X: -1000, Y: -1000}, vecmath.Vec2{X: 1000, Y: 1000}, 8), nil
	default:
		return nil, fmt.Errorf("scenario: unknown spatial index %q", cfg.SpatialIndex)
	}
}

// Build instantiates a crowd.Simulator from a scene: obstacles, agents with
// targets set, and the configured spatial index. Returns the simulator and
// the spawned entity ids in scene order.
func Build(sc *Scene) (*crowd.Simulator, []ecs.EntityID, error) {
	index, err := NewIndex(sc.Config)
	if err != nil {
		return nil, nil, err
	}
	sim := crowd.NewSimulator(sc.Config, index)

	for _, pl := range sc.Obstacles {
		n := len(pl.Points)
		if n < 2 {
			continue
		}
		last := n - 1
		if pl.Closed {
			last = n
		}
		for i := 0; i < last; i++ {
			j := (i + 1) % n
			sim.AddObstacle(pl.Points[i].toVec2(), pl.Points[j].toVec2())
		}
	}

	ids := make([]ecs.EntityID, 0, len(sc.Agents))
	for _, a := range sc.Agents {
		radius := a.Radius
		if radius == 0 {
			radius = sc.Config.AgentRadius
		}
		params := crowd.AgentParams{
			MaxSpeed:        sc.Config.MaxSpeed,
			NeighborDist:    sc.Config.NeighborDist,
			MaxNeighbors:    sc.Config.MaxNeighbors,
			TimeHorizon:     sc.Config.TimeHorizon,
			TimeHorizonObst: sc.Config.TimeHorizonObst,
		}
		if a.MaxSpeed != 0 {
			params.MaxSpeed = a.MaxSpeed
		}

		id := sim.Spawn(a.Position.toVec2(), vecmath.Vec2{}, radius, params)
		sim.SetTarget(id, a.Target.toVec2())
		ids = append(ids, id)
	}

	return sim, ids, nil
}
