package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"

	"github.com/ternarybob/runcanvas/internal/models"
)

// SVGSurface renders into an SVG document held in memory.
type SVGSurface struct {
	width, height float64
	body          bytes.Buffer
	depth         int
}

func NewSVGSurface(width, height float64) *SVGSurface {
	return &SVGSurface{width: width, height: height}
}

func (s *SVGSurface) Size() (float64, float64) {
	return s.width, s.height
}

// Clear discards everything drawn so far.
func (s *SVGSurface) Clear() {
	s.body.Reset()
	s.depth = 0
}

func (s *SVGSurface) PushTransform(offsetX, offsetY, zoom float64) {
	fmt.Fprintf(&s.body, `<g transform="matrix(%s 0 0 %s %s %s)">`+"\n",
		num(zoom), num(zoom), num(offsetX), num(offsetY))
	s.depth++
}

func (s *SVGSurface) PopTransform() {
	if s.depth == 0 {
		return
	}
	s.body.WriteString("</g>\n")
	s.depth--
}

func (s *SVGSurface) Rect(r models.Rect, style Style) {
	if !style.HasFill() && !style.HasStroke() {
		return
	}
	fmt.Fprintf(&s.body, `<rect x="%s" y="%s" width="%s" height="%s"%s/>`+"\n",
		num(r.X), num(r.Y), num(r.Width), num(r.Height), paint(style))
}

func (s *SVGSurface) Path(p *Path, style Style) {
	if p == nil || len(p.Cmds) == 0 || (!style.HasFill() && !style.HasStroke()) {
		return
	}
	var d bytes.Buffer
	for _, c := range p.Cmds {
		if d.Len() > 0 {
			d.WriteByte(' ')
		}
		switch c.Op {
		case OpMove:
			fmt.Fprintf(&d, "M%s %s", num(c.Points[0].X), num(c.Points[0].Y))
		case OpLine:
			fmt.Fprintf(&d, "L%s %s", num(c.Points[0].X), num(c.Points[0].Y))
		case OpQuad:
			fmt.Fprintf(&d, "Q%s %s %s %s", num(c.Points[0].X), num(c.Points[0].Y), num(c.Points[1].X), num(c.Points[1].Y))
		case OpClose:
			d.WriteByte('Z')
		}
	}
	extra := ""
	if style.HasStroke() {
		extra = ` stroke-linecap="round" stroke-linejoin="round"`
	}
	fmt.Fprintf(&s.body, `<path d="%s"%s%s/>`+"\n", d.String(), paint(style), extra)
}

func (s *SVGSurface) Text(anchor models.Point, text string, font Font, color models.Color) {
	weight := "normal"
	if font.Bold {
		weight = "bold"
	}
	fmt.Fprintf(&s.body, `<text x="%s" y="%s" font-family="Arial, sans-serif" font-size="%s" font-weight="%s" fill="%s" text-anchor="middle" dominant-baseline="text-after-edge">`,
		num(anchor.X), num(anchor.Y), num(font.Size), weight, color.CSS())
	xml.EscapeText(&s.body, []byte(text))
	s.body.WriteString("</text>\n")
}

func (s *SVGSurface) TextWidth(text string, font Font) float64 {
	return EstimateTextWidth(text, font)
}

// Bytes returns the complete document.
func (s *SVGSurface) Bytes() []byte {
	var out bytes.Buffer
	fmt.Fprintf(&out, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`+"\n",
		num(s.width), num(s.height), num(s.width), num(s.height))
	out.Write(s.body.Bytes())
	for i := 0; i < s.depth; i++ {
		out.WriteString("</g>\n")
	}
	out.WriteString("</svg>\n")
	return out.Bytes()
}

func paint(style Style) string {
	out := ` fill="none"`
	if style.HasFill() {
		out = fmt.Sprintf(` fill="%s"`, style.Fill.CSS())
	}
	if style.HasStroke() {
		out += fmt.Sprintf(` stroke="%s" stroke-width="%s"`, style.Stroke.CSS(), num(style.LineWidth))
	}
	return out
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
