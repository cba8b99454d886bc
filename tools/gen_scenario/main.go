// Command gen_scenario generates deterministic crowd-steering scenario
// files for cmd/orcasim: agents arranged on a circle, each crossing to the
// antipodal point, optionally around a square obstacle ring.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"

	"github.com/orcacrowd/orca-sim/internal/scenario"
	"github.com/orcacrowd/orca-sim/internal/simconfig"
)

func circleScenario(numAgents int, radius, agentRadius float32, jitter float64, seed int64) *scenario.Scene {
	rng := rand.New(rand.NewSource(seed))
	cfg := simconfig.Default()
	cfg.AgentRadius = agentRadius

	agents := make([]scenario.AgentSpec, numAgents)
	for i := 0; i < numAgents; i++ {
		theta := 2 * math.Pi * float64(i) / float64(numAgents)
		jx := (rng.Float64()*2 - 1) * jitter
		jy := (rng.Float64()*2 - 1) * jitter

		pos := scenario.Point2D{
			X: float32(float64(radius)*math.Cos(theta) + jx),
			Y: float32(float64(radius)*math.Sin(theta) + jy),
		}
		target := scenario.Point2D{
			X: float32(-float64(radius) * math.Cos(theta)),
			Y: float32(-float64(radius) * math.Sin(theta)),
		}
		agents[i] = scenario.AgentSpec{Position: pos, Target: target}
	}

	return &scenario.Scene{
		Name:   fmt.Sprintf("circle_%d_r%.0f", numAgents, radius),
		Config: cfg,
		Ticks:  600,
		Agents: agents,
	}
}

// ringObstacles returns a square ring of obstacle edges (CCW, interior
// facing the circle) centered on the origin at half-extent half.
func ringObstacles(half float32) []scenario.Polyline {
	return []scenario.Polyline{{
		Closed: true,
		Points: []scenario.Point2D{
			{X: -half, Y: -half},
			{X: half, Y: -half},
			{X: half, Y: half},
			{X: -half, Y: half},
		},
	}}
}

func main() {
	numAgents := flag.Int("agents", 20, "number of agents placed on the circle")
	radius := flag.Float64("radius", 10, "circle radius")
	agentRadius := flag.Float64("agent-radius", 0.5, "per-agent collision radius")
	jitter := flag.Float64("jitter", 0.05, "uniform position jitter, breaks perfect symmetry")
	withRing := flag.Bool("ring", false, "enclose the scenario in a square obstacle ring")
	seed := flag.Int64("seed", 1, "deterministic RNG seed for jitter")
	output := flag.String("output", "scenario.json", "output scenario JSON path")
	flag.Parse()

	sc := circleScenario(*numAgents, float32(*radius), float32(*agentRadius), *jitter, *seed)
	if *withRing {
		sc.Obstacles = ringObstacles(float32(*radius) * 1.5)
	}

	if err := scenario.Save(sc, *output); err != nil {
		fmt.Fprintf(os.Stderr, "gen_scenario: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("gen_scenario: wrote %d agents to %s\n", len(sc.Agents), *output)
}
