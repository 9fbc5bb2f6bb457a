package pdf

import (
	"github.com/go-pdf/fpdf"

	"github.com/ternarybob/runcanvas/internal/models"
	"github.com/ternarybob/runcanvas/internal/render"
)

const fontFamily = "Arial"

// Surface paints onto fpdf pages. Units are points and one point maps to one
// screen pixel, so a page has the viewport's size. Clear starts a new page.
type Surface struct {
	pdf           *fpdf.Fpdf
	width, height float64
	depth         int
}

var _ render.Surface = (*Surface)(nil)

// NewSurface creates a document whose pages are width x height points.
func NewSurface(width, height float64) *Surface {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		UnitStr: "pt",
		Size:    fpdf.SizeType{Wd: width, Ht: height},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetLineCapStyle("round")
	pdf.SetLineJoinStyle("round")
	return &Surface{pdf: pdf, width: width, height: height}
}

// Document exposes the underlying fpdf document.
func (s *Surface) Document() *fpdf.Fpdf {
	return s.pdf
}

func (s *Surface) Size() (float64, float64) {
	return s.width, s.height
}

func (s *Surface) Clear() {
	for ; s.depth > 0; s.depth-- {
		s.pdf.TransformEnd()
	}
	s.pdf.AddPage()
	s.pdf.SetFillColor(255, 255, 255)
	s.pdf.Rect(0, 0, s.width, s.height, "F")
}

func (s *Surface) PushTransform(offsetX, offsetY, zoom float64) {
	s.pdf.TransformBegin()
	s.pdf.TransformTranslate(offsetX, offsetY)
	s.pdf.TransformScale(zoom*100, zoom*100, 0, 0)
	s.depth++
}

func (s *Surface) PopTransform() {
	if s.depth == 0 {
		return
	}
	s.pdf.TransformEnd()
	s.depth--
}

// Rect paints fill and stroke separately so each keeps its own alpha.
func (s *Surface) Rect(r models.Rect, style render.Style) {
	if style.HasFill() {
		s.fill(style.Fill)
		s.pdf.Rect(r.X, r.Y, r.Width, r.Height, "F")
	}
	if style.HasStroke() {
		s.stroke(style.Stroke, style.LineWidth)
		s.pdf.Rect(r.X, r.Y, r.Width, r.Height, "D")
	}
	s.pdf.SetAlpha(1, "Normal")
}

func (s *Surface) Path(p *render.Path, style render.Style) {
	if p == nil || len(p.Cmds) == 0 {
		return
	}
	if style.HasFill() {
		s.fill(style.Fill)
		s.trace(p)
		s.pdf.DrawPath("F")
	}
	if style.HasStroke() {
		s.stroke(style.Stroke, style.LineWidth)
		s.trace(p)
		s.pdf.DrawPath("D")
	}
	s.pdf.SetAlpha(1, "Normal")
}

func (s *Surface) trace(p *render.Path) {
	for _, c := range p.Cmds {
		switch c.Op {
		case render.OpMove:
			s.pdf.MoveTo(c.Points[0].X, c.Points[0].Y)
		case render.OpLine:
			s.pdf.LineTo(c.Points[0].X, c.Points[0].Y)
		case render.OpQuad:
			s.pdf.CurveTo(c.Points[0].X, c.Points[0].Y, c.Points[1].X, c.Points[1].Y)
		case render.OpClose:
			s.pdf.ClosePath()
		}
	}
}

func (s *Surface) Text(anchor models.Point, text string, font render.Font, color models.Color) {
	s.setFont(font)
	s.pdf.SetTextColor(int(color.R), int(color.G), int(color.B))
	s.pdf.SetAlpha(color.A, "Normal")
	w := s.pdf.GetStringWidth(text)
	s.pdf.Text(anchor.X-w/2, anchor.Y, text)
	s.pdf.SetAlpha(1, "Normal")
}

func (s *Surface) TextWidth(text string, font render.Font) float64 {
	s.setFont(font)
	return s.pdf.GetStringWidth(text)
}

func (s *Surface) setFont(font render.Font) {
	style := ""
	if font.Bold {
		style = "B"
	}
	s.pdf.SetFont(fontFamily, style, font.Size)
}

func (s *Surface) fill(c models.Color) {
	s.pdf.SetFillColor(int(c.R), int(c.G), int(c.B))
	s.pdf.SetAlpha(c.A, "Normal")
}

func (s *Surface) stroke(c models.Color, width float64) {
	s.pdf.SetDrawColor(int(c.R), int(c.G), int(c.B))
	s.pdf.SetLineWidth(width)
	s.pdf.SetAlpha(c.A, "Normal")
}
