// Command run_benchmarks runs a sweep of crowd-steering scenarios against
// the ORCA solve hot path and reports per-scenario timing, optionally on a
// recurring cron schedule for nightly regression tracking.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/orcacrowd/orca-sim/internal/scenario"
)

// BenchmarkResult is one scenario's sweep outcome.
type BenchmarkResult struct {
	Timestamp    string
	Scenario     string
	SpatialIndex string
	NumAgents    int
	Ticks        int
	WallTimeMs   float64
	TicksPerSec  float64
	GoVersion    string
	OS           string
	Arch         string
}

func runScenario(path string) (*BenchmarkResult, error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, err
	}
	sim, ids, err := scenario.Build(sc)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	for t := 0; t < sc.Ticks; t++ {
		if err := sim.Tick(); err != nil {
			return nil, fmt.Errorf("tick %d: %w", t, err)
		}
	}
	elapsed := time.Since(start)

	return &BenchmarkResult{
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
		Scenario:     filepath.Base(path),
		SpatialIndex: sc.Config.SpatialIndex,
		NumAgents:    len(ids),
		Ticks:        sc.Ticks,
		WallTimeMs:   float64(elapsed.Microseconds()) / 1000.0,
		TicksPerSec:  float64(sc.Ticks) / elapsed.Seconds(),
		GoVersion:    runtime.Version(),
		OS:           runtime.GOOS,
		Arch:         runtime.GOARCH,
	}, nil
}

func writeCSV(results []*BenchmarkResult, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	w := csv.NewWriter(file)
	defer w.Flush()

	header := []string{
		"timestamp", "scenario", "spatial_index", "num_agents", "ticks",
		"wall_time_ms", "ticks_per_sec", "go_version", "os", "arch",
	}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, r := range results {
		row := []string{
			r.Timestamp, r.Scenario, r.SpatialIndex,
			fmt.Sprintf("%d", r.NumAgents), fmt.Sprintf("%d", r.Ticks),
			fmt.Sprintf("%.3f", r.WallTimeMs), fmt.Sprintf("%.1f", r.TicksPerSec),
			r.GoVersion, r.OS, r.Arch,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(results []*BenchmarkResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Scenario < results[j].Scenario })

	fmt.Println("\n=== ORCA BENCHMARK SUMMARY ===")
	fmt.Printf("%-28s %8s %10s %8s %14s\n", "Scenario", "Agents", "Index", "Ticks", "Ticks/sec")
	for _, r := range results {
		fmt.Printf("%-28s %8d %10s %8d %14.1f\n", r.Scenario, r.NumAgents, r.SpatialIndex, r.Ticks, r.TicksPerSec)
	}
}

func sweep(inputDir, outputFile string) error {
	pattern := filepath.Join(inputDir, "*.json")
	files, err := filepath.Glob(pattern)
	if err != nil {
		return fmt.Errorf("globbing %s: %w", pattern, err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no scenario files found in %s (run gen_scenario first)", inputDir)
	}

	var results []*BenchmarkResult
	for _, f := range files {
		fmt.Printf("run_benchmarks: %s ... ", filepath.Base(f))
		r, err := runScenario(f)
		if err != nil {
			fmt.Printf("FAILED: %v\n", err)
			continue
		}
		fmt.Printf("%.1f ticks/sec\n", r.TicksPerSec)
		results = append(results, r)
	}

	if err := os.MkdirAll(filepath.Dir(outputFile), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := writeCSV(results, outputFile); err != nil {
		return fmt.Errorf("writing %s: %w", outputFile, err)
	}
	fmt.Printf("run_benchmarks: results written to %s\n", outputFile)
	printSummary(results)
	return nil
}

func main() {
	inputDir := flag.String("input", "testdata", "directory of scenario JSON files (see tools/gen_scenario)")
	outputFile := flag.String("output", "evidence/orca_benchmark_results.csv", "output CSV file")
	schedule := flag.String("schedule", "", "cron expression (robfig/cron syntax); empty runs the sweep once and exits")
	flag.Parse()

	runOnce := func() {
		if err := sweep(*inputDir, *outputFile); err != nil {
			fmt.Fprintf(os.Stderr, "run_benchmarks: %v\n", err)
		}
	}

	if *schedule == "" {
		runOnce()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, runOnce); err != nil {
		fmt.Fprintf(os.Stderr, "run_benchmarks: invalid -schedule %q: %v\n", *schedule, err)
		os.Exit(1)
	}
	fmt.Printf("run_benchmarks: scheduled sweep %q, running until interrupted\n", *schedule)
	c.Run()
}
