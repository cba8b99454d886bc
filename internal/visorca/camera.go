// Package visorca holds cmd/orcavis's rendering support: a pan/zoom
// camera and the Gio draw primitives for agents, obstacles, and ORCA debug
// lines.
package visorca

import (
	"gioui.org/io/pointer"
	"gioui.org/layout"
)

// Camera manages the world-to-screen view transform (pan and zoom).
type Camera struct {
	OffsetX float32
	OffsetY float32
	Zoom    float32

	dragging   bool
	dragStartX float32
	dragStartY float32
	lastX      float32
	lastY      float32
}

// NewCamera creates a camera centered near the origin at a zoom of 20
// pixels per world unit.
func NewCamera() *Camera {
	return &Camera{OffsetX: 400, OffsetY: 300, Zoom: 20}
}

// Reset restores the default view.
func (c *Camera) Reset() {
	c.OffsetX, c.OffsetY, c.Zoom = 400, 300, 20
}

// WorldToScreen converts a world-space coordinate to a screen pixel.
func (c *Camera) WorldToScreen(worldX, worldY float32) (screenX, screenY float32) {
	return worldX*c.Zoom + c.OffsetX, worldY*c.Zoom + c.OffsetY
}

// ScreenToWorld converts a screen pixel back to world space.
func (c *Camera) ScreenToWorld(screenX, screenY float32) (worldX, worldY float32) {
	return (screenX - c.OffsetX) / c.Zoom, (screenY - c.OffsetY) / c.Zoom
}

// HandleEvent processes a pointer event for drag-to-pan and scroll-to-zoom.
func (c *Camera) HandleEvent(gtx layout.Context, ev pointer.Event) {
	switch ev.Kind {
	case pointer.Press:
		if ev.Buttons.Contain(pointer.ButtonSecondary) || ev.Buttons.Contain(pointer.ButtonTertiary) {
			c.dragging = true
			c.dragStartX, c.dragStartY = ev.Position.X, ev.Position.Y
		}
		c.lastX, c.lastY = ev.Position.X, ev.Position.Y

	case pointer.Drag:
		if c.dragging {
			c.OffsetX += ev.Position.X - c.lastX
			c.OffsetY += ev.Position.Y - c.lastY
		}
		c.lastX, c.lastY = ev.Position.X, ev.Position.Y

	case pointer.Release:
		c.dragging = false

	case pointer.Scroll:
		if ev.Scroll.Y == 0 {
			return
		}
		worldX, worldY := c.ScreenToWorld(ev.Position.X, ev.Position.Y)

		const zoomFactor = 1.1
		if ev.Scroll.Y > 0 {
			c.Zoom /= zoomFactor
		} else {
			c.Zoom *= zoomFactor
		}
		if c.Zoom < 1 {
			c.Zoom = 1
		}
		if c.Zoom > 200 {
			c.Zoom = 200
		}

		newScreenX, newScreenY := c.WorldToScreen(worldX, worldY)
		c.OffsetX += ev.Position.X - newScreenX
		c.OffsetY += ev.Position.Y - newScreenY
	}
}
