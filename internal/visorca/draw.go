package visorca

import (
	"image/color"
	"math"

	"gioui.org/f32"
	"gioui.org/layout"
	"gioui.org/op/clip"
	"gioui.org/op/paint"

	"github.com/orcacrowd/orca-sim/internal/orca"
	"github.com/orcacrowd/orca-sim/internal/vecmath"
)

var (
	ColorAgent        = color.NRGBA{R: 100, G: 200, B: 255, A: 255}
	ColorAgentVel     = color.NRGBA{R: 255, G: 255, B: 255, A: 180}
	ColorObstacle     = color.NRGBA{R: 220, G: 80, B: 80, A: 255}
	ColorDebugLine    = color.NRGBA{R: 255, G: 210, B: 60, A: 140}
	ColorSelectedLine = color.NRGBA{R: 60, G: 255, B: 120, A: 200}
)

// DrawAgent draws one agent as a filled circle sized by its world radius,
// with a short line indicating its current velocity direction.
func DrawAgent(gtx layout.Context, cam *Camera, pos, vel vecmath.Vec2, radius float32, col color.NRGBA) {
	cx, cy := cam.WorldToScreen(pos.X, pos.Y)
	screenRadius := radius * cam.Zoom
	drawFilledCircle(gtx, cx, cy, screenRadius, col)

	if vel.LengthSq() > 1e-6 {
		tip := pos.Add(vel.Normalize().Scale(radius * 1.5))
		tx, ty := cam.WorldToScreen(tip.X, tip.Y)
		drawLine(gtx, cx, cy, tx, ty, 2, ColorAgentVel)
	}
}

// DrawObstacleEdge draws one directed obstacle segment.
func DrawObstacleEdge(gtx layout.Context, cam *Camera, p1, p2 vecmath.Vec2) {
	x1, y1 := cam.WorldToScreen(p1.X, p1.Y)
	x2, y2 := cam.WorldToScreen(p2.X, p2.Y)
	drawLine(gtx, x1, y1, x2, y2, 3, ColorObstacle)
}

// DrawORCALine draws one ORCA half-plane constraint. Line.Point/Direction
// live in velocity space, not world space; the overlay anchors that
// velocity-space line at the agent's world position, the usual debug-view
// convention for visualizing velocity obstacles in place.
func DrawORCALine(gtx layout.Context, cam *Camera, agentPos vecmath.Vec2, l orca.Line, col color.NRGBA) {
	const halfLen = 6.0
	p1 := agentPos.Add(l.Point).Sub(l.Direction.Scale(halfLen))
	p2 := agentPos.Add(l.Point).Add(l.Direction.Scale(halfLen))
	x1, y1 := cam.WorldToScreen(p1.X, p1.Y)
	x2, y2 := cam.WorldToScreen(p2.X, p2.Y)
	drawLine(gtx, x1, y1, x2, y2, 1, col)
}

func drawLine(gtx layout.Context, x1, y1, x2, y2, width float32, col color.NRGBA) {
	dx, dy := x2-x1, y2-y1
	length := float32(math.Sqrt(float64(dx*dx + dy*dy)))
	if length < 0.1 {
		return
	}
	dx, dy = dx/length, dy/length
	px, py := -dy*width/2, dx*width/2

	var path clip.Path
	path.Begin(gtx.Ops)
	path.MoveTo(f32.Pt(x1+px, y1+py))
	path.LineTo(f32.Pt(x2+px, y2+py))
	path.LineTo(f32.Pt(x2-px, y2-py))
	path.LineTo(f32.Pt(x1-px, y1-py))
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}

func drawFilledCircle(gtx layout.Context, cx, cy, radius float32, col color.NRGBA) {
	var path clip.Path
	path.Begin(gtx.Ops)
	path.Move(f32.Pt(cx+radius, cy))

	const segments = 20
	for i := 1; i <= segments; i++ {
		angle := float64(i) * 2 * math.Pi / segments
		x := cx + radius*float32(math.Cos(angle))
		y := cy + radius*float32(math.Sin(angle))
		path.Line(f32.Pt(x-path.Pos().X, y-path.Pos().Y))
	}
	path.Close()

	paint.FillShape(gtx.Ops, col, clip.Outline{Path: path.End()}.Op())
}
