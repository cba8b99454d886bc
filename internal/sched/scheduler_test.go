package sched

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingSystem struct {
	name   string
	trace  *[]string
	inited bool
}

func (r *recordingSystem) Initialize() error { r.inited = true; return nil }
func (r *recordingSystem) Update(dt float32) { *r.trace = append(*r.trace, r.name) }
func (r *recordingSystem) Shutdown()         {}

func newSystem(name string, trace *[]string) *recordingSystem {
	return &recordingSystem{name: name, trace: trace}
}

func TestTickRunsPhasesInFixedOrder(t *testing.T) {
	var trace []string
	s := NewScheduler([]Phase{"input", "solve", "output"})
	s.Register(Registration{Name: "b", Phase: "output", System: newSystem("b", &trace)})
	s.Register(Registration{Name: "a", Phase: "input", System: newSystem("a", &trace)})
	s.Register(Registration{Name: "c", Phase: "solve", System: newSystem("c", &trace)})

	assert.NoError(t, s.Build())
	s.Tick(0.016)

	assert.Equal(t, []string{"a", "c", "b"}, trace)
}

func TestTopoSortHonorsAfterDependency(t *testing.T) {
	var trace []string
	s := NewScheduler([]Phase{"solve"})
	s.Register(Registration{Name: "gather", Phase: "solve", System: newSystem("gather", &trace), Order: 5})
	s.Register(Registration{Name: "solve", Phase: "solve", System: newSystem("solve", &trace), After: []string{"gather"}, Order: 1})

	assert.NoError(t, s.Build())
	s.Tick(0.016)
	assert.Equal(t, []string{"gather", "solve"}, trace)
}

func TestTopoSortHonorsBeforeDependency(t *testing.T) {
	var trace []string
	s := NewScheduler([]Phase{"solve"})
	s.Register(Registration{Name: "integrate", Phase: "solve", System: newSystem("integrate", &trace), Before: []string{"scatter"}})
	s.Register(Registration{Name: "scatter", Phase: "solve", System: newSystem("scatter", &trace)})

	assert.NoError(t, s.Build())
	s.Tick(0.016)
	assert.Equal(t, []string{"integrate", "scatter"}, trace)
}

func TestTopoSortTieBreaksByOrderThenName(t *testing.T) {
	var trace []string
	s := NewScheduler([]Phase{"solve"})
	s.Register(Registration{Name: "z", Phase: "solve", System: newSystem("z", &trace), Order: 1})
	s.Register(Registration{Name: "y", Phase: "solve", System: newSystem("y", &trace), Order: 1})
	s.Register(Registration{Name: "x", Phase: "solve", System: newSystem("x", &trace), Order: 0})

	assert.NoError(t, s.Build())
	s.Tick(0.016)
	assert.Equal(t, []string{"x", "y", "z"}, trace)
}

func TestCycleIsBrokenNotFatal(t *testing.T) {
	var trace []string
	s := NewScheduler([]Phase{"solve"})
	s.Register(Registration{Name: "p", Phase: "solve", System: newSystem("p", &trace), After: []string{"q"}, Order: 2})
	s.Register(Registration{Name: "q", Phase: "solve", System: newSystem("q", &trace), After: []string{"p"}, Order: 1})

	err := s.Build()
	assert.NoError(t, err, "a dependency cycle must be broken, not returned as a fatal error")
	s.Tick(0.016)
	assert.Len(t, trace, 2)
}

func TestInitializeCalledForEverySystem(t *testing.T) {
	var trace []string
	s := NewScheduler([]Phase{"solve"})
	sysA := newSystem("a", &trace)
	s.Register(Registration{Name: "a", Phase: "solve", System: sysA})

	assert.NoError(t, s.Build())
	assert.True(t, sysA.inited)
}
