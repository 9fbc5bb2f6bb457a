package render

import (
	"math"

	"github.com/ternarybob/runcanvas/internal/canvas"
	"github.com/ternarybob/runcanvas/internal/models"
)

var (
	gridMajor = models.RGBA(0, 0, 0, 0.12)
	gridMinor = models.RGBA(0, 0, 0, 0.1)

	connectionColor = models.Hex("#6b7280")

	strokeNormal   = models.Hex("#d1d5db")
	strokeSelected = models.Hex("#3b82f6")
	hoverOverlay   = models.RGBA(255, 255, 255, 0.2)

	segmentNormal         = models.Hex("#6b7280")
	segmentError          = models.Hex("#ef4444")
	segmentSelected       = models.Hex("#3b82f6")
	segmentErrorSelected  = models.Hex("#dc2626")
	segmentSelectedStroke = models.Hex("#1d4ed8")

	labelBackground = models.RGBA(255, 255, 255, 0.9)
	labelBorder     = models.Hex("#d1d5db")
	labelText       = models.Hex("#374151")
)

const (
	cornerRadius = 6
	arrowLength  = 8
	arrowWidth   = 4
	labelPadding = 8
	labelGap     = 10
)

// Render repaints the whole surface from scene. A zero-sized surface is
// left untouched.
func Render(s Surface, scene canvas.Scene) {
	width, height := s.Size()
	if width <= 0 || height <= 0 {
		return
	}
	cam := scene.Camera
	if cam.Zoom <= 0 {
		return
	}

	s.Clear()
	s.PushTransform(cam.OffsetX, cam.OffsetY, cam.Zoom)

	visible := models.Rect{
		X:      -cam.OffsetX / cam.Zoom,
		Y:      -cam.OffsetY / cam.Zoom,
		Width:  width / cam.Zoom,
		Height: height / cam.Zoom,
	}
	drawGrid(s, visible, scene.GridSize, scene.SmallGridSize, cam.Zoom)
	drawConnections(s, scene.Connections, cam.Zoom)
	drawElements(s, scene)
	drawLabels(s, scene.Elements, cam.Zoom)

	s.PopTransform()
}

func scaled(w, zoom float64) float64 {
	return w / zoom
}

// drawGrid covers the visible world rect plus two major cells of padding.
// Minor lines that coincide with major ones are skipped.
func drawGrid(s Surface, visible models.Rect, major, minor, zoom float64) {
	if major <= 0 {
		return
	}
	pad := 2 * major
	left, right := visible.X-pad, visible.MaxX()+pad
	top, bottom := visible.Y-pad, visible.MaxY()+pad

	style := Style{Stroke: gridMajor, LineWidth: scaled(0.5, zoom)}
	x0, x1 := math.Floor(left/major), math.Ceil(right/major)
	y0, y1 := math.Floor(top/major), math.Ceil(bottom/major)
	for i := x0; i <= x1; i++ {
		line(s, i*major, y0*major, i*major, y1*major, style)
	}
	for j := y0; j <= y1; j++ {
		line(s, x0*major, j*major, x1*major, j*major, style)
	}

	if minor <= 0 {
		return
	}
	style = Style{Stroke: gridMinor, LineWidth: scaled(0.25, zoom)}
	x0, x1 = math.Floor(left/minor), math.Ceil(right/minor)
	y0, y1 = math.Floor(top/minor), math.Ceil(bottom/minor)
	for i := x0; i <= x1; i++ {
		if x := i * minor; math.Mod(x, major) != 0 {
			line(s, x, y0*minor, x, y1*minor, style)
		}
	}
	for j := y0; j <= y1; j++ {
		if y := j * minor; math.Mod(y, major) != 0 {
			line(s, x0*minor, y, x1*minor, y, style)
		}
	}
}

func line(s Surface, x0, y0, x1, y1 float64, style Style) {
	p := &Path{}
	p.MoveTo(x0, y0).LineTo(x1, y1)
	s.Path(p, style)
}

// drawConnections routes each edge horizontally to the midpoint, vertically
// to the target row, then horizontally into the target, rounding both bends.
// Nearly level edges are drawn straight.
func drawConnections(s Surface, connections []models.Connection, zoom float64) {
	stroke := Style{Stroke: connectionColor, LineWidth: scaled(1, zoom)}
	fill := Style{Fill: connectionColor}
	r := scaled(cornerRadius, zoom)

	for _, c := range connections {
		from, to := c.From, c.To
		p := &Path{}
		p.MoveTo(from.X, from.Y)

		if math.Abs(to.Y-from.Y) > 2*r {
			midX := from.X + (to.X-from.X)/2
			dir := 1.0
			if to.Y < from.Y {
				dir = -1
			}
			p.LineTo(midX-r, from.Y)
			p.QuadTo(midX, from.Y, midX, from.Y+dir*r)
			p.LineTo(midX, to.Y-dir*r)
			p.QuadTo(midX, to.Y, midX+r, to.Y)
		}
		p.LineTo(to.X, to.Y)
		s.Path(p, stroke)

		length, half := scaled(arrowLength, zoom), scaled(arrowWidth, zoom)
		arrow := &Path{}
		arrow.MoveTo(to.X, to.Y).
			LineTo(to.X-length, to.Y-half).
			LineTo(to.X-length, to.Y+half).
			Close()
		s.Path(arrow, fill)
	}
}

func drawElements(s Surface, scene canvas.Scene) {
	zoom := scene.Camera.Zoom
	for _, el := range scene.Elements {
		if el.Kind == models.KindMicroprint {
			s.Rect(el.Rect, Style{Fill: el.Color})
			drawMicroprint(s, el, scene, zoom)
			continue
		}

		style := Style{Fill: el.Color, Stroke: strokeNormal, LineWidth: scaled(1, zoom)}
		if scene.Selected[el.ID] {
			style.Stroke = strokeSelected
			style.LineWidth = scaled(2, zoom)
		}
		s.Rect(el.Rect, style)

		if el.ID == scene.Hovered {
			s.Rect(el.Rect, Style{Fill: hoverOverlay})
		}
	}
}

func drawMicroprint(s Surface, el models.Element, scene canvas.Scene, zoom float64) {
	data := el.Microprint
	if data == nil {
		return
	}
	g := scene.Geometry
	selected := -1
	if seg := scene.SelectedSegment; seg != nil && seg.ElementID == el.ID {
		selected = seg.SegmentIndex
	}

	for i, segment := range data.Segments {
		o := g.CellOrigin(data.Layout, i)
		cell := models.Rect{X: el.Rect.X + o.X, Y: el.Rect.Y + o.Y, Width: g.CellSize, Height: g.CellSize}

		style := Style{Fill: segmentNormal}
		if segment.IsError {
			style.Fill = segmentError
		}
		if i == selected {
			style.Fill = segmentSelected
			if segment.IsError {
				style.Fill = segmentErrorSelected
			}
			style.Stroke = segmentSelectedStroke
			style.LineWidth = scaled(2, zoom)
		}
		s.Rect(cell, style)
	}
}

// drawLabels writes one boxed caption centred above each occupied layer.
func drawLabels(s Surface, elements []models.Element, zoom float64) {
	font := Font{Size: math.Max(14/zoom, 10), Bold: true}
	box := Style{Fill: labelBackground, Stroke: labelBorder, LineWidth: scaled(1, zoom)}

	for _, layer := range canvas.OccupiedLayers(elements) {
		label, ok := canvas.LayerLabels[layer]
		if !ok {
			continue
		}
		bounds, _ := canvas.LayerBounds(elements, layer)
		x := bounds.X + bounds.Width/2
		y := bounds.Y - labelGap

		w := s.TextWidth(label, font)
		s.Rect(models.Rect{
			X:      x - w/2 - labelPadding,
			Y:      y - font.Size - labelPadding/2,
			Width:  w + 2*labelPadding,
			Height: font.Size + labelPadding,
		}, box)
		s.Text(models.Point{X: x, Y: y}, label, font, labelText)
	}
}
