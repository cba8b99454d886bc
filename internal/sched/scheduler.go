// Package sched implements the system scheduler (C8): systems are grouped
// by phase and topologically sorted within each phase honoring Before/After
// dependencies, with a deterministic integer order hint as tie-breaker.
package sched

import (
	"fmt"
	"log"
	"sort"
)

// Phase names a fixed stage of the tick (spec §3's scheduling order).
type Phase string

// System is a schedulable unit with a lifecycle hook set.
type System interface {
	Initialize() error
	Update(dt float32)
	Shutdown()
}

// Registration describes one system's placement within the schedule.
type Registration struct {
	Name   string
	Phase  Phase
	System System

	// Before/After name other systems in the same phase this one must run
	// before/after. Names not present in the phase are ignored.
	Before []string
	After  []string

	// Order is the deterministic tie-breaker among systems with no
	// relative ordering constraint.
	Order int
}

// Scheduler owns every registered system, grouped and ordered by phase.
type Scheduler struct {
	phaseOrder []Phase
	byPhase    map[Phase][]*Registration
	sorted     map[Phase][]*Registration
}

// NewScheduler creates a scheduler that will run phases in phaseOrder.
func NewScheduler(phaseOrder []Phase) *Scheduler {
	return &Scheduler{
		phaseOrder: phaseOrder,
		byPhase:    make(map[Phase][]*Registration),
	}
}

// Register adds a system to its phase. Call Build after every Register.
func (s *Scheduler) Register(r Registration) {
	reg := r
	s.byPhase[r.Phase] = append(s.byPhase[r.Phase], &reg)
}

// Build topologically sorts every phase's systems and runs Initialize on
// each, in the resulting order.
func (s *Scheduler) Build() error {
	s.sorted = make(map[Phase][]*Registration, len(s.byPhase))
	for phase, regs := range s.byPhase {
		s.sorted[phase] = topoSort(phase, regs)
	}
	for _, phase := range s.phaseOrder {
		for _, r := range s.sorted[phase] {
			if err := r.System.Initialize(); err != nil {
				return fmt.Errorf("sched: initializing %q (phase %q): %w", r.Name, phase, err)
			}
		}
	}
	return nil
}

// Tick runs every phase in order, calling Update(dt) on each system in its
// phase's sorted order.
func (s *Scheduler) Tick(dt float32) {
	for _, phase := range s.phaseOrder {
		for _, r := range s.sorted[phase] {
			r.System.Update(dt)
		}
	}
}

// Shutdown calls Shutdown on every system, in reverse phase order.
func (s *Scheduler) Shutdown() {
	for i := len(s.phaseOrder) - 1; i >= 0; i-- {
		regs := s.sorted[s.phaseOrder[i]]
		for j := len(regs) - 1; j >= 0; j-- {
			regs[j].System.Shutdown()
		}
	}
}

// topoSort orders regs by Before/After, breaking ties by Order and then by
// registration name for full determinism. Cycles are broken by dropping the
// After-edge of the lowest-Order system still blocked once no zero-indegree
// node remains; this is logged, not fatal (spec §4.8).
func topoSort(phase Phase, regs []*Registration) []*Registration {
	byName := make(map[string]*Registration, len(regs))
	for _, r := range regs {
		byName[r.Name] = r
	}

	// indegree[x] counts unresolved "must run after" edges into x.
	indegree := make(map[string]int, len(regs))
	children := make(map[string][]string, len(regs)) // edge a->b means a must run before b

	addEdge := func(before, after string) {
		if _, ok := byName[before]; !ok {
			return
		}
		if _, ok := byName[after]; !ok {
			return
		}
		children[before] = append(children[before], after)
		indegree[after]++
	}

	for _, r := range regs {
		for _, b := range r.Before {
			addEdge(r.Name, b)
		}
		for _, a := range r.After {
			addEdge(a, r.Name)
		}
	}

	remaining := make(map[string]bool, len(regs))
	for _, r := range regs {
		remaining[r.Name] = true
	}

	var out []*Registration
	for len(remaining) > 0 {
		var ready []string
		for name := range remaining {
			if indegree[name] == 0 {
				ready = append(ready, name)
			}
		}

		if len(ready) == 0 {
			// Cycle: break it by forcing the lowest-Order remaining system
			// through, ignoring its unresolved After edges.
			victim := lowestOrder(remaining, byName)
			log.Printf("sched: dependency cycle detected in phase %q, forcing %q through and dropping its unresolved After edges", phase, victim)
			ready = []string{victim}
			indegree[victim] = 0
		}

		sort.Slice(ready, func(i, j int) bool {
			ri, rj := byName[ready[i]], byName[ready[j]]
			if ri.Order != rj.Order {
				return ri.Order < rj.Order
			}
			return ri.Name < rj.Name
		})

		next := ready[0]
		out = append(out, byName[next])
		delete(remaining, next)
		for _, child := range children[next] {
			indegree[child]--
		}
	}

	return out
}

func lowestOrder(remaining map[string]bool, byName map[string]*Registration) string {
	var best string
	bestOrder := int(^uint(0) >> 1)
	for name := range remaining {
		r := byName[name]
		if r.Order < bestOrder || (r.Order == bestOrder && name < best) {
			best = name
			bestOrder = r.Order
		}
	}
	return best
}
