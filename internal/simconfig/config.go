// Package simconfig holds the simulator's fixed parameter struct (§9's
// "parametric configuration" redesign note: a fixed struct, not a dynamic
// dictionary), loaded from JSON and overridable from the command line.
package simconfig

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
)

// Config is the full set of tunables a crowd simulation run accepts.
type Config struct {
	// Per-agent ORCA defaults (spec §6's AgentParameters), used when a
	// spawned agent doesn't override them explicitly.
	MaxSpeed        float32 `json:"maxSpeed"`
	NeighborDist    float32 `json:"neighborDist"`
	MaxNeighbors    int     `json:"maxNeighbors"`
	TimeHorizon     float32 `json:"timeHorizon"`
	TimeHorizonObst float32 `json:"timeHorizonObst"`
	AgentRadius     float32 `json:"agentRadius"`

	// Tick.
	DT float32 `json:"dt"`

	// Spatial index selection for C2 (one of "grid", "kdtree", "bvh",
	// "quadtree").
	SpatialIndex string  `json:"spatialIndex"`
	GridCellSize float32 `json:"gridCellSize"`

	// Obstacle model.
	ObstacleLinkEpsilon float32 `json:"obstacleLinkEpsilon"`

	// PenetrationSeparation enables the optional post-integrate, pre-reindex
	// overlap-resolution pass (spec §9 OQ2). Off by default to match the
	// spec's unmodified tick pipeline.
	PenetrationSeparation bool    `json:"penetrationSeparation"`
	PenetrationPadding    float32 `json:"penetrationPadding"`

	// Concurrency.
	ParallelSolve bool `json:"parallelSolve"`

	// ObstacleWatchPath, if non-empty, is hot-reloaded via fsnotify
	// (internal/obstacleio).
	ObstacleWatchPath string `json:"obstacleWatchPath,omitempty"`

	// BenchmarkSchedule is a cron expression (robfig/cron syntax), bound to
	// the -schedule flag by RegisterFlags. tools/run_benchmarks does not
	// read it; that tool has its own -schedule flag. Empty means run once.
	BenchmarkSchedule string `json:"benchmarkSchedule,omitempty"`
}

// Default returns the configuration's baseline values.
func Default() Config {
	return Config{
		MaxSpeed:            2.0,
		NeighborDist:        10.0,
		MaxNeighbors:        10,
		TimeHorizon:         2.0,
		TimeHorizonObst:     2.0,
		AgentRadius:         0.5,
		DT:                  1.0 / 60.0,
		SpatialIndex:        "kdtree",
		GridCellSize:        2.0,
		ObstacleLinkEpsilon: 0.05,
		PenetrationPadding:  1e-3,
		ParallelSolve:       true,
	}
}

// Load reads a JSON config file, falling back to Default for any field the
// file omits (the file is unmarshaled over a Default-initialized struct).
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("simconfig: reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("simconfig: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// RegisterFlags binds cfg's fields to flag.FlagSet fs, so a CLI caller can
// override a loaded (or default) config from the command line, mirroring
// tools/run_benchmarks' and tools/gen_scenario's flag wiring.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	float32Flag(fs, &c.MaxSpeed, "max-speed", "agent max speed (m/s)")
	float32Flag(fs, &c.NeighborDist, "neighbor-dist", "agent neighbor search radius")
	fs.IntVar(&c.MaxNeighbors, "max-neighbors", c.MaxNeighbors, "max neighbors considered per agent")
	float32Flag(fs, &c.TimeHorizon, "time-horizon", "agent-agent ORCA time horizon")
	float32Flag(fs, &c.TimeHorizonObst, "time-horizon-obst", "agent-obstacle ORCA time horizon")
	float32Flag(fs, &c.DT, "dt", "tick duration (s)")
	fs.StringVar(&c.SpatialIndex, "spatial-index", c.SpatialIndex, "grid|kdtree|bvh|quadtree")
	fs.BoolVar(&c.ParallelSolve, "parallel-solve", c.ParallelSolve, "solve agents concurrently via errgroup")
	fs.BoolVar(&c.PenetrationSeparation, "penetration-separation", c.PenetrationSeparation, "enable post-integrate overlap resolution")
	fs.StringVar(&c.ObstacleWatchPath, "obstacle-watch", c.ObstacleWatchPath, "path to hot-reload obstacles from")
	fs.StringVar(&c.BenchmarkSchedule, "schedule", c.BenchmarkSchedule, "cron expression for repeated benchmark runs")
}

// float32Flag registers a flag.Func-backed flag for a float32 field;
// flag.FlagSet has no native Float32Var.
func float32Flag(fs *flag.FlagSet, field *float32, name, usage string) {
	fs.Func(name, fmt.Sprintf("%s (default %g)", usage, *field), func(s string) error {
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return fmt.Errorf("simconfig: -%s: %w", name, err)
		}
		*field = float32(v)
		return nil
	})
}
