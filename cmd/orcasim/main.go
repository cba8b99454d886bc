// Command orcasim runs a crowd-steering scenario headlessly for a fixed
// number of ticks; with -output it writes the final agent positions and
// velocities as a JSON run summary.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/orcacrowd/orca-sim/internal/crowd"
	"github.com/orcacrowd/orca-sim/internal/ecs"
	"github.com/orcacrowd/orca-sim/internal/obstacleio"
	"github.com/orcacrowd/orca-sim/internal/scenario"
	"github.com/orcacrowd/orca-sim/internal/sched"
)

const (
	phaseSimulate sched.Phase = "simulate"
	phaseReport   sched.Phase = "report"
)

// simSystem drives the crowd simulation one tick per Update call. Update has
// no error return, so a tick failure is latched into err and checked by the
// caller after the run.
type simSystem struct {
	sim *crowd.Simulator
	err error
}

func (s *simSystem) Initialize() error { return nil }
func (s *simSystem) Update(dt float32) {
	if s.err != nil {
		return
	}
	s.err = s.sim.Tick()
}
func (s *simSystem) Shutdown() {}

// progressSystem logs a line every 60 ticks when verbose.
type progressSystem struct {
	verbose bool
	total   int
	tick    int
}

func (p *progressSystem) Initialize() error { return nil }
func (p *progressSystem) Update(dt float32) {
	p.tick++
	if p.verbose && p.tick%60 == 0 {
		fmt.Printf("orcasim: tick %d/%d\n", p.tick, p.total)
	}
}
func (p *progressSystem) Shutdown() {}

// runResult is the JSON summary written to -output.
type runResult struct {
	RunID      string             `json:"runId"`
	Scenario   string             `json:"scenario"`
	Ticks      int                `json:"ticks"`
	WallTimeMs float64            `json:"wallTimeMs"`
	Agents     []agentFinalState  `json:"agents"`
}

type agentFinalState struct {
	ID       int     `json:"id"`
	Position point2D `json:"position"`
	Velocity point2D `json:"velocity"`
}

type point2D struct {
	X float32 `json:"x"`
	Y float32 `json:"y"`
}

func main() {
	scenePath := flag.String("scene", "", "scenario JSON file (see internal/scenario)")
	outputPath := flag.String("output", "", "write a JSON run summary here (default: stdout only)")
	ticksOverride := flag.Int("ticks", 0, "override the scenario's tick count (0 = use the scenario's own)")
	verbose := flag.Bool("verbose", false, "print one progress line every 60 ticks")
	flag.Parse()

	if *scenePath == "" {
		fmt.Fprintln(os.Stderr, "orcasim: -scene is required")
		flag.Usage()
		os.Exit(2)
	}

	sc, err := scenario.Load(*scenePath)
	if err != nil {
		log.Fatalf("orcasim: %v", err)
	}
	if *ticksOverride > 0 {
		sc.Ticks = *ticksOverride
	}

	sim, ids, err := scenario.Build(sc)
	if err != nil {
		log.Fatalf("orcasim: %v", err)
	}

	if sc.Config.ObstacleWatchPath != "" {
		watcher, err := obstacleio.NewWatcher(sc.Config.ObstacleWatchPath, sim.Model())
		if err != nil {
			log.Fatalf("orcasim: %v", err)
		}
		watcher.Run()
		defer watcher.Close()
	}

	fmt.Printf("orcasim: run %s, %d agents, %d obstacle edges, %d ticks\n",
		sim.RunID, len(ids), len(sim.Model().Edges()), sc.Ticks)

	tick := &simSystem{sim: sim}
	progress := &progressSystem{verbose: *verbose, total: sc.Ticks}

	scheduler := sched.NewScheduler([]sched.Phase{phaseSimulate, phaseReport})
	scheduler.Register(sched.Registration{Name: "tick", Phase: phaseSimulate, System: tick})
	scheduler.Register(sched.Registration{Name: "progress", Phase: phaseReport, System: progress})
	if err := scheduler.Build(); err != nil {
		log.Fatalf("orcasim: %v", err)
	}

	start := time.Now()
	for t := 0; t < sc.Ticks; t++ {
		scheduler.Tick(sc.Config.DT)
		if tick.err != nil {
			log.Fatalf("orcasim: tick %d: %v", t, tick.err)
		}
	}
	scheduler.Shutdown()
	elapsed := time.Since(start)

	result := runResult{
		RunID:      sim.RunID.String(),
		Scenario:   sc.Name,
		Ticks:      sc.Ticks,
		WallTimeMs: float64(elapsed.Microseconds()) / 1000.0,
		Agents:     make([]agentFinalState, 0, len(ids)),
	}
	for _, id := range ids {
		pos, _ := ecs.GetReadOnly[crowd.Position](sim.Store(), id)
		vel, _ := ecs.GetReadOnly[crowd.Velocity](sim.Store(), id)
		result.Agents = append(result.Agents, agentFinalState{
			ID:       int(id),
			Position: point2D{X: pos.X, Y: pos.Y},
			Velocity: point2D{X: vel.X, Y: vel.Y},
		})
	}

	fmt.Printf("orcasim: done in %v\n", elapsed)

	if *outputPath != "" {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatalf("orcasim: marshaling result: %v", err)
		}
		if err := os.WriteFile(*outputPath, data, 0644); err != nil {
			log.Fatalf("orcasim: writing %s: %v", *outputPath, err)
		}
		fmt.Printf("orcasim: summary written to %s\n", *outputPath)
	}
}
