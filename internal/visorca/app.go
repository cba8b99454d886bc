package visorca

import (
	"image"
	"image/color"
	"math"

	"gioui.org/app"
	"gioui.org/io/event"
	"gioui.org/io/key"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/orcacrowd/orca-sim/internal/crowd"
	"github.com/orcacrowd/orca-sim/internal/ecs"
	"github.com/orcacrowd/orca-sim/internal/scenario"
	"github.com/orcacrowd/orca-sim/internal/simconfig"
)

// demoScene builds the classic ORCA circle-crossing benchmark: agents
// placed evenly around a circle, each headed to the antipodal point.
func demoScene() *scenario.Scene {
	const numAgents = 12
	const radius = 10

	cfg := simconfig.Default()
	agents := make([]scenario.AgentSpec, numAgents)
	for i := 0; i < numAgents; i++ {
		theta := 2 * math.Pi * float64(i) / float64(numAgents)
		agents[i] = scenario.AgentSpec{
			Position: scenario.Point2D{X: float32(radius * math.Cos(theta)), Y: float32(radius * math.Sin(theta))},
			Target:   scenario.Point2D{X: float32(-radius * math.Cos(theta)), Y: float32(-radius * math.Sin(theta))},
		}
	}

	return &scenario.Scene{
		Name:   "orcavis_demo_circle",
		Config: cfg,
		Ticks:  0,
		Agents: agents,
	}
}

// App drives one running crowd.Simulator and renders it each frame.
type App struct {
	sim     *crowd.Simulator
	camera  *Camera
	debug   bool
	playing bool
}

// NewApp loads a scenario (or, if path is empty, a built-in demo circle) and
// builds its simulator.
func NewApp(path string) (*App, error) {
	var sc *scenario.Scene
	var err error
	if path == "" {
		sc = demoScene()
	} else {
		sc, err = scenario.Load(path)
		if err != nil {
			return nil, err
		}
	}

	sim, _, err := scenario.Build(sc)
	if err != nil {
		return nil, err
	}

	return &App{
		sim:     sim,
		camera:  NewCamera(),
		playing: true,
	}, nil
}

// Run starts the application event loop.
func (a *App) Run(w *app.Window) error {
	var ops op.Ops
	tag := new(int)

	for {
		switch e := w.Event().(type) {
		case app.DestroyEvent:
			return e.Err

		case app.FrameEvent:
			gtx := app.NewContext(&ops, e)

			for {
				ev, ok := gtx.Event(key.Filter{Focus: tag, Optional: key.ModCtrl | key.ModShift})
				if !ok {
					break
				}
				if ke, ok := ev.(key.Event); ok && ke.State == key.Press {
					a.handleKeyEvent(ke)
				}
			}
			event.Op(gtx.Ops, tag)

			if a.playing {
				if err := a.sim.Tick(); err != nil {
					return err
				}
			}

			a.layout(gtx)
			e.Frame(gtx.Ops)

			if a.playing {
				w.Invalidate()
			}
		}
	}
}

func (a *App) handleKeyEvent(e key.Event) {
	switch e.Name {
	case key.NameSpace:
		a.playing = !a.playing
	case "R":
		a.camera.Reset()
	case "D":
		a.debug = !a.debug
	}
}

func (a *App) layout(gtx layout.Context) layout.Dimensions {
	bounds := gtx.Constraints.Max
	defer clip.Rect(image.Rect(0, 0, bounds.X, bounds.Y)).Push(gtx.Ops).Pop()
	paint.Fill(gtx.Ops, color.NRGBA{R: 20, G: 22, B: 26, A: 255})

	a.handlePointerEvents(gtx)

	for _, edge := range a.sim.Model().Edges() {
		DrawObstacleEdge(gtx, a.camera, edge.P1, edge.P2)
	}

	for i := 0; i < a.sim.AgentCount(); i++ {
		id := a.sim.AgentID(i)
		pos := a.sim.AgentPosition(i)
		radius := a.sim.AgentRadius(i)

		vel, _ := ecs.GetReadOnly[crowd.Velocity](a.sim.Store(), id)

		if a.debug {
			for _, l := range a.sim.DebugLines(i) {
				DrawORCALine(gtx, a.camera, pos, l, ColorDebugLine)
			}
		}
		DrawAgent(gtx, a.camera, pos, vel.Vec2, radius, ColorAgent)
	}

	return layout.Dimensions{Size: bounds}
}

func (a *App) handlePointerEvents(gtx layout.Context) {
	area := clip.Rect(image.Rect(0, 0, gtx.Constraints.Max.X, gtx.Constraints.Max.Y)).Push(gtx.Ops)
	event.Op(gtx.Ops, a)
	area.Pop()

	for {
		ev, ok := gtx.Event(pointer.Filter{
			Target: a,
			Kinds:  pointer.Press | pointer.Drag | pointer.Release | pointer.Scroll | pointer.Move,
		})
		if !ok {
			break
		}
		if pe, ok := ev.(pointer.Event); ok {
			a.camera.HandleEvent(gtx, pe)
		}
	}
}
