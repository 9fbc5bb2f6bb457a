// Package render paints a canvas.Scene onto a Surface. Rendering is a pure
// function of the scene: painting the same scene twice yields the same
// sequence of draw calls.
package render

import "github.com/ternarybob/runcanvas/internal/models"

// Style describes how a shape is painted. Transparent fill or stroke colours
// are skipped, as is a stroke with a non-positive width.
type Style struct {
	Fill      models.Color
	Stroke    models.Color
	LineWidth float64
}

func (s Style) HasFill() bool   { return !s.Fill.IsTransparent() }
func (s Style) HasStroke() bool { return !s.Stroke.IsTransparent() && s.LineWidth > 0 }

// Font is a label font. Families are left to the surface.
type Font struct {
	Size float64
	Bold bool
}

// Surface is a 2D drawing target with a single nested transform. Text is
// anchored at its horizontal centre on the bottom baseline.
type Surface interface {
	Size() (width, height float64)
	Clear()
	PushTransform(offsetX, offsetY, zoom float64)
	PopTransform()
	Rect(r models.Rect, style Style)
	Path(p *Path, style Style)
	Text(anchor models.Point, text string, font Font, color models.Color)
	TextWidth(text string, font Font) float64
}

// PathOp is a path command.
type PathOp int

const (
	OpMove PathOp = iota
	OpLine
	OpQuad
	OpClose
)

// PathCmd is one path command. OpQuad carries the control point followed by
// the end point; OpMove and OpLine carry one point; OpClose none.
type PathCmd struct {
	Op     PathOp
	Points []models.Point
}

// Path is a sequence of move, line, quadratic curve and close commands.
type Path struct {
	Cmds []PathCmd
}

func (p *Path) MoveTo(x, y float64) *Path {
	p.Cmds = append(p.Cmds, PathCmd{Op: OpMove, Points: []models.Point{{X: x, Y: y}}})
	return p
}

func (p *Path) LineTo(x, y float64) *Path {
	p.Cmds = append(p.Cmds, PathCmd{Op: OpLine, Points: []models.Point{{X: x, Y: y}}})
	return p
}

func (p *Path) QuadTo(cx, cy, x, y float64) *Path {
	p.Cmds = append(p.Cmds, PathCmd{Op: OpQuad, Points: []models.Point{{X: cx, Y: cy}, {X: x, Y: y}}})
	return p
}

func (p *Path) Close() *Path {
	p.Cmds = append(p.Cmds, PathCmd{Op: OpClose})
	return p
}

// EstimateTextWidth approximates the advance width of text in a sans-serif
// font for surfaces that cannot measure glyphs.
func EstimateTextWidth(text string, font Font) float64 {
	factor := 0.55
	if font.Bold {
		factor = 0.6
	}
	return float64(len([]rune(text))) * font.Size * factor
}
