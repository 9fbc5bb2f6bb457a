// Package canvas holds the interactive diagram engine: the camera that maps
// screen pixels onto the world plane, hit testing, the layer manager that
// expands the Run → Attempt → Job → Step → Microprint hierarchy one level per
// click, and the controller that turns pointer events into those actions.
package canvas

import (
	"math"

	"github.com/ternarybob/runcanvas/internal/models"
)

// CameraOptions bound and tune zooming.
type CameraOptions struct {
	MinZoom     float64
	MaxZoom     float64
	Sensitivity float64
}

// DefaultCameraOptions matches the diagram page defaults.
func DefaultCameraOptions() CameraOptions {
	return CameraOptions{MinZoom: 0.1, MaxZoom: 3, Sensitivity: 0.1}
}

// Camera is the affine map between screen space and world space:
// screen = world*Zoom + Offset.
type Camera struct {
	OffsetX float64 `json:"offset_x"`
	OffsetY float64 `json:"offset_y"`
	Zoom    float64 `json:"zoom"`

	opts          CameraOptions
	width, height float64
}

// NewCamera returns an unmounted camera at the identity transform.
func NewCamera(opts CameraOptions) *Camera {
	if opts.MinZoom <= 0 {
		opts.MinZoom = DefaultCameraOptions().MinZoom
	}
	if opts.MaxZoom < opts.MinZoom {
		opts.MaxZoom = opts.MinZoom
	}
	if opts.Sensitivity <= 0 || opts.Sensitivity >= 1 {
		opts.Sensitivity = DefaultCameraOptions().Sensitivity
	}
	c := &Camera{opts: opts}
	c.Reset()
	return c
}

// Resize records the viewport size. A zero-sized viewport unmounts the camera.
func (c *Camera) Resize(width, height float64) {
	c.width = math.Max(width, 0)
	c.height = math.Max(height, 0)
}

// Mounted reports whether the host has supplied a viewport.
func (c *Camera) Mounted() bool {
	return c.width > 0 && c.height > 0
}

// Viewport returns the viewport size in screen pixels.
func (c *Camera) Viewport() (width, height float64) {
	return c.width, c.height
}

// Options returns the zoom bounds and sensitivity.
func (c *Camera) Options() CameraOptions {
	return c.opts
}

func (c *Camera) ScreenToWorld(p models.Point) models.Point {
	return models.Point{
		X: (p.X - c.OffsetX) / c.Zoom,
		Y: (p.Y - c.OffsetY) / c.Zoom,
	}
}

func (c *Camera) WorldToScreen(p models.Point) models.Point {
	return models.Point{
		X: p.X*c.Zoom + c.OffsetX,
		Y: p.Y*c.Zoom + c.OffsetY,
	}
}

// ZoomAt zooms one wheel notch keeping the world point under cursor fixed on
// screen. A positive deltaY zooms out. Returns false when nothing changed.
func (c *Camera) ZoomAt(cursor models.Point, deltaY float64) bool {
	if !c.Mounted() || deltaY == 0 {
		return false
	}

	factor := 1 + c.opts.Sensitivity
	if deltaY > 0 {
		factor = 1 - c.opts.Sensitivity
	}
	newZoom := c.clamp(c.Zoom * factor)
	if newZoom == c.Zoom {
		return false
	}

	ratio := newZoom / c.Zoom
	c.OffsetX = cursor.X - (cursor.X-c.OffsetX)*ratio
	c.OffsetY = cursor.Y - (cursor.Y-c.OffsetY)*ratio
	c.Zoom = newZoom
	return true
}

// Pan moves the camera by a screen-space delta. The delta is not scaled by zoom.
func (c *Camera) Pan(dx, dy float64) bool {
	if !c.Mounted() || (dx == 0 && dy == 0) {
		return false
	}
	c.OffsetX += dx
	c.OffsetY += dy
	return true
}

// FitToContent zooms and centres so every rect is visible with margin pixels
// around it. Zoom never exceeds 1. Empty input, a degenerate bounding box or
// an unmounted camera leave the camera untouched.
func (c *Camera) FitToContent(rects []models.Rect, margin float64) bool {
	if !c.Mounted() {
		return false
	}
	bbox, ok := models.Bounds(rects)
	if !ok || bbox.Width <= 0 || bbox.Height <= 0 {
		return false
	}

	zoomX := (c.width - 2*margin) / bbox.Width
	zoomY := (c.height - 2*margin) / bbox.Height
	zoom := c.clamp(math.Min(1, math.Min(zoomX, zoomY)))

	centerX := bbox.X + bbox.Width/2
	centerY := bbox.Y + bbox.Height/2
	c.Zoom = zoom
	c.OffsetX = c.width/2 - centerX*zoom
	c.OffsetY = c.height/2 - centerY*zoom
	return true
}

// Reset returns to the identity transform.
func (c *Camera) Reset() {
	c.OffsetX, c.OffsetY = 0, 0
	c.Zoom = c.clamp(1)
}

// ScaledLineWidth converts a screen stroke width into world units so strokes
// keep the same apparent thickness at every zoom.
func (c *Camera) ScaledLineWidth(width float64) float64 {
	return width / c.Zoom
}

// ZoomPercent is the zoom as a rounded percentage for the zoom readout.
func (c *Camera) ZoomPercent() int {
	return int(math.Round(c.Zoom * 100))
}

// VisibleWorld is the world-space rectangle currently covered by the viewport.
func (c *Camera) VisibleWorld() models.Rect {
	tl := c.ScreenToWorld(models.Point{})
	br := c.ScreenToWorld(models.Point{X: c.width, Y: c.height})
	return models.Rect{X: tl.X, Y: tl.Y, Width: br.X - tl.X, Height: br.Y - tl.Y}
}

func (c *Camera) clamp(zoom float64) float64 {
	return math.Max(c.opts.MinZoom, math.Min(c.opts.MaxZoom, zoom))
}
