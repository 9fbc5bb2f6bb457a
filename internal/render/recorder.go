package render

import (
	"fmt"

	"github.com/ternarybob/runcanvas/internal/models"
)

// Call is one recorded draw call.
type Call struct {
	Op     string
	Rect   models.Rect
	Path   *Path
	Style  Style
	Text   string
	Anchor models.Point
	Font   Font
	Color  models.Color
	Args   []float64
}

func (c Call) String() string {
	switch c.Op {
	case "rect":
		return fmt.Sprintf("rect %v %+v", c.Rect, c.Style)
	case "text":
		return fmt.Sprintf("text %q at %v", c.Text, c.Anchor)
	default:
		return fmt.Sprintf("%s %v", c.Op, c.Args)
	}
}

// Recorder is a Surface that keeps every call, for inspecting what a frame
// would paint.
type Recorder struct {
	width, height float64
	Calls         []Call
	depth         int
}

func NewRecorder(width, height float64) *Recorder {
	return &Recorder{width: width, height: height}
}

func (r *Recorder) Size() (float64, float64) { return r.width, r.height }

func (r *Recorder) Clear() {
	r.Calls = r.Calls[:0]
	r.depth = 0
	r.Calls = append(r.Calls, Call{Op: "clear"})
}

func (r *Recorder) PushTransform(offsetX, offsetY, zoom float64) {
	r.depth++
	r.Calls = append(r.Calls, Call{Op: "push", Args: []float64{offsetX, offsetY, zoom}})
}

func (r *Recorder) PopTransform() {
	r.depth--
	r.Calls = append(r.Calls, Call{Op: "pop"})
}

func (r *Recorder) Rect(rect models.Rect, style Style) {
	r.Calls = append(r.Calls, Call{Op: "rect", Rect: rect, Style: style})
}

func (r *Recorder) Path(p *Path, style Style) {
	r.Calls = append(r.Calls, Call{Op: "path", Path: p, Style: style})
}

func (r *Recorder) Text(anchor models.Point, text string, font Font, color models.Color) {
	r.Calls = append(r.Calls, Call{Op: "text", Text: text, Anchor: anchor, Font: font, Color: color})
}

func (r *Recorder) TextWidth(text string, font Font) float64 {
	return EstimateTextWidth(text, font)
}

// Depth is the number of transforms pushed and not yet popped.
func (r *Recorder) Depth() int { return r.depth }

// Count returns how many calls used op.
func (r *Recorder) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Texts lists the strings drawn, in order.
func (r *Recorder) Texts() []string {
	var out []string
	for _, c := range r.Calls {
		if c.Op == "text" {
			out = append(out, c.Text)
		}
	}
	return out
}
