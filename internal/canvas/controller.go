package canvas

import (
	"github.com/ternarybob/runcanvas/internal/microprint"
	"github.com/ternarybob/runcanvas/internal/models"
	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

// State is the interaction state of a Controller.
type State int

const (
	StateIdle State = iota
	StatePanning
	StateHovering
)

func (s State) String() string {
	switch s {
	case StatePanning:
		return "panning"
	case StateHovering:
		return "hovering"
	default:
		return "idle"
	}
}

// Button follows the DOM MouseEvent.button numbering.
type Button int

const (
	ButtonLeft   Button = 0
	ButtonMiddle Button = 1
	ButtonRight  Button = 2
)

// PointerEvent is a pointer position in screen space. Modifier is true when
// any of ctrl, meta, shift or alt was held.
type PointerEvent struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Button   Button  `json:"button"`
	Modifier bool    `json:"modifier"`
}

func (e PointerEvent) point() models.Point {
	return models.Point{X: e.X, Y: e.Y}
}

// WheelEvent is a wheel tick at a screen position.
type WheelEvent struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	DeltaY float64 `json:"delta_y"`
}

// ControllerOptions tune fitting and the background grid.
type ControllerOptions struct {
	FitMargin     float64
	GridSize      float64
	SmallGridSize float64
}

func DefaultControllerOptions() ControllerOptions {
	return ControllerOptions{FitMargin: 50, GridSize: 50, SmallGridSize: 10}
}

// Controller turns pointer and wheel events into camera moves, selections and
// layer expansions. It is not safe for concurrent use; callers serialise
// events, and each method completes its mutation before returning.
//
// Methods that take an event report whether anything visible changed, so
// hosts can skip repainting.
type Controller struct {
	camera *Camera
	layers *LayerManager
	opts   ControllerOptions

	state     State
	last      models.Point
	hovered   string
	selection map[int]string
	segment   *models.SelectedSegment
	tooltip   models.TooltipState
	logPanel  models.LogPanelState
	runs      []*pkgmodels.Run
}

func NewController(camera *Camera, layers *LayerManager, opts ControllerOptions) *Controller {
	def := DefaultControllerOptions()
	if opts.GridSize <= 0 {
		opts.GridSize = def.GridSize
	}
	if opts.SmallGridSize <= 0 {
		opts.SmallGridSize = def.SmallGridSize
	}
	if opts.FitMargin < 0 {
		opts.FitMargin = 0
	}
	return &Controller{
		camera:    camera,
		layers:    layers,
		opts:      opts,
		selection: make(map[int]string),
	}
}

func (c *Controller) Camera() *Camera       { return c.camera }
func (c *Controller) Layers() *LayerManager { return c.layers }
func (c *Controller) State() State          { return c.state }

// SetRuns resets the diagram to layer 1 for runs and drops every selection.
func (c *Controller) SetRuns(runs []*pkgmodels.Run) {
	c.runs = runs
	c.layers.ResetToRuns(runs)
	c.selection = make(map[int]string)
	c.segment = nil
	c.logPanel = models.LogPanelState{}
	c.hovered = ""
	c.tooltip.Visible = false
	if c.state == StateHovering {
		c.state = StateIdle
	}
}

func (c *Controller) Runs() []*pkgmodels.Run {
	return c.runs
}

// Resize reports the viewport size; layer spacing follows the width.
func (c *Controller) Resize(width, height float64) {
	c.camera.Resize(width, height)
	c.layers.SetViewportWidth(width)
}

// PointerDown starts panning on a right button or modifier press, and
// otherwise clicks whatever lies under the pointer. Starting a pan reports a
// change because the cursor switches to grabbing.
func (c *Controller) PointerDown(e PointerEvent) bool {
	if e.Button == ButtonRight || e.Modifier {
		started := c.state != StatePanning
		c.state = StatePanning
		c.last = e.point()
		return started
	}
	if e.Button != ButtonLeft {
		return false
	}
	world := c.camera.ScreenToWorld(e.point())
	el, ok := ElementAt(c.layers.elements, world)
	if !ok {
		return false
	}
	return c.click(el, world)
}

// PointerMove pans while panning and tracks the hovered element otherwise.
func (c *Controller) PointerMove(e PointerEvent) bool {
	p := e.point()
	if c.state == StatePanning {
		dx, dy := p.X-c.last.X, p.Y-c.last.Y
		c.last = p
		return c.camera.Pan(dx, dy)
	}

	var id string
	if el, ok := ElementAt(c.layers.elements, c.camera.ScreenToWorld(p)); ok {
		id = el.ID
	}

	changed := id != c.hovered
	c.hovered = id
	if id == "" {
		c.state = StateIdle
		c.tooltip.Visible = false
		return changed
	}
	c.state = StateHovering
	moved := c.tooltip.X != p.X || c.tooltip.Y != p.Y
	c.tooltip = models.TooltipState{X: p.X, Y: p.Y, Visible: true}
	return changed || moved
}

// PointerUp ends panning.
func (c *Controller) PointerUp(PointerEvent) bool {
	if c.state != StatePanning {
		return false
	}
	c.state = StateIdle
	if c.hovered != "" {
		c.state = StateHovering
	}
	return true
}

// PointerLeave clears the hover and hides the tooltip. A pan in progress
// continues when the pointer comes back.
func (c *Controller) PointerLeave() bool {
	changed := c.hovered != "" || c.tooltip.Visible
	c.hovered = ""
	c.tooltip.Visible = false
	if c.state == StateHovering {
		c.state = StateIdle
	}
	return changed
}

// Wheel zooms around the pointer.
func (c *Controller) Wheel(e WheelEvent) bool {
	return c.camera.ZoomAt(models.Point{X: e.X, Y: e.Y}, e.DeltaY)
}

// ContextMenu reports that the default context menu must be suppressed.
func (c *Controller) ContextMenu() bool {
	return true
}

// FitToContent frames every element.
func (c *Controller) FitToContent() bool {
	return c.camera.FitToContent(Rects(c.layers.elements), c.opts.FitMargin)
}

func (c *Controller) ResetView() bool {
	if !c.camera.Mounted() {
		return false
	}
	c.camera.Reset()
	return true
}

func (c *Controller) click(el models.Element, world models.Point) bool {
	switch el.Kind {
	case models.KindRun:
		run, ok := el.Record.(*pkgmodels.Run)
		if !ok {
			return false
		}
		c.selectAt(el)
		c.afterExpand(c.layers.ExpandAttempts(run), models.LayerAttempts)
		return true

	case models.KindAttempt:
		attempt, ok := el.Record.(*pkgmodels.Attempt)
		if !ok {
			return false
		}
		c.selectAt(el)
		c.afterExpand(c.layers.ExpandJobs(attempt), models.LayerJobs)
		return true

	case models.KindJob:
		job, ok := el.Record.(*pkgmodels.Job)
		if !ok {
			return false
		}
		c.selectAt(el)
		c.afterExpand(c.layers.ExpandSteps(job), models.LayerSteps)
		return true

	case models.KindStep:
		step, ok := el.Record.(*pkgmodels.Step)
		if !ok {
			return false
		}
		c.selectAt(el)
		c.afterExpand(c.layers.ExpandMicroprint(step), models.LayerMicroprint)
		return true

	case models.KindMicroprint:
		return c.clickSegment(el, world)
	}
	return false
}

func (c *Controller) clickSegment(el models.Element, world models.Point) bool {
	data := el.Microprint
	if data == nil {
		return false
	}
	rel := models.Point{X: world.X - el.Rect.X, Y: world.Y - el.Rect.Y}
	index, ok := c.layers.Geometry().SegmentAt(data.Layout, len(data.Segments), rel)
	if !ok {
		return false
	}
	c.segment = &models.SelectedSegment{ElementID: el.ID, SegmentIndex: index}
	c.logPanel = openLogPanel(data.Segments, index)
	return true
}

func (c *Controller) selectAt(el models.Element) {
	c.selection[el.Layer] = el.ID
}

// afterExpand clears the selections of every layer that was rebuilt. A new
// layer also discards the selected log segment, since its microprint is gone.
func (c *Controller) afterExpand(expanded bool, layer int) {
	if !expanded {
		return
	}
	for l := range c.selection {
		if l >= layer {
			delete(c.selection, l)
		}
	}
	c.segment = nil
	c.logPanel = models.LogPanelState{}
	if c.hovered != "" {
		if _, ok := c.layers.Find(c.hovered); !ok {
			c.hovered = ""
			c.tooltip.Visible = false
			if c.state == StateHovering {
				c.state = StateIdle
			}
		}
	}
}

// Hovered returns the element under the pointer.
func (c *Controller) Hovered() (models.Element, bool) {
	if c.hovered == "" {
		return models.Element{}, false
	}
	return c.layers.Find(c.hovered)
}

// Selection maps each layer to the id of its selected element.
func (c *Controller) Selection() map[int]string {
	out := make(map[int]string, len(c.selection))
	for k, v := range c.selection {
		out[k] = v
	}
	return out
}

func (c *Controller) SelectedSegment() (models.SelectedSegment, bool) {
	if c.segment == nil {
		return models.SelectedSegment{}, false
	}
	return *c.segment, true
}

func (c *Controller) Tooltip() models.TooltipState {
	return c.tooltip
}

// TooltipText describes the hovered element, or is empty when nothing is hovered.
func (c *Controller) TooltipText() string {
	el, ok := c.Hovered()
	if !ok || !c.tooltip.Visible {
		return ""
	}
	return TooltipText(el)
}

func (c *Controller) LogPanel() models.LogPanelState {
	return c.logPanel
}

// CloseLogPanel hides the panel and clears the selected segment.
func (c *Controller) CloseLogPanel() bool {
	if !c.logPanel.Visible && c.segment == nil {
		return false
	}
	c.logPanel = models.LogPanelState{}
	c.segment = nil
	return true
}

func (c *Controller) ExtendLogPanelUp() bool {
	var ok bool
	c.logPanel, ok = extendUp(c.logPanel)
	return ok
}

func (c *Controller) ExtendLogPanelDown() bool {
	var ok bool
	c.logPanel, ok = extendDown(c.logPanel)
	return ok
}

// Cursor is the CSS cursor for the canvas.
func (c *Controller) Cursor() string {
	if c.state == StatePanning {
		return "grabbing"
	}
	return "grab"
}

// Scene captures everything the renderer needs for one frame.
func (c *Controller) Scene() Scene {
	selected := make(map[string]bool, len(c.selection))
	for _, id := range c.selection {
		selected[id] = true
	}
	var segment *models.SelectedSegment
	if c.segment != nil {
		s := *c.segment
		segment = &s
	}
	return Scene{
		Elements:        c.layers.Elements(),
		Connections:     c.layers.Connections(),
		Selected:        selected,
		Hovered:         c.hovered,
		SelectedSegment: segment,
		Camera:          *c.camera,
		Geometry:        c.layers.Geometry(),
		GridSize:        c.opts.GridSize,
		SmallGridSize:   c.opts.SmallGridSize,
	}
}

// Snapshot is the observable state of a Controller, for hosts that render
// the tooltip, the log panel and the zoom readout themselves.
type Snapshot struct {
	State           string                  `json:"state"`
	Cursor          string                  `json:"cursor"`
	Zoom            float64                 `json:"zoom"`
	ZoomPercent     int                     `json:"zoom_percent"`
	OffsetX         float64                 `json:"offset_x"`
	OffsetY         float64                 `json:"offset_y"`
	Elements        []models.Element        `json:"elements"`
	Connections     []models.Connection     `json:"connections"`
	Selection       map[int]string          `json:"selection"`
	Hovered         string                  `json:"hovered,omitempty"`
	SelectedSegment *models.SelectedSegment `json:"selected_segment,omitempty"`
	Tooltip         models.TooltipState     `json:"tooltip"`
	TooltipText     string                  `json:"tooltip_text,omitempty"`
	LogPanel        models.LogPanelState    `json:"log_panel"`
}

func (c *Controller) Snapshot() Snapshot {
	scene := c.Scene()
	return Snapshot{
		State:           c.state.String(),
		Cursor:          c.Cursor(),
		Zoom:            c.camera.Zoom,
		ZoomPercent:     c.camera.ZoomPercent(),
		OffsetX:         c.camera.OffsetX,
		OffsetY:         c.camera.OffsetY,
		Elements:        scene.Elements,
		Connections:     scene.Connections,
		Selection:       c.Selection(),
		Hovered:         c.hovered,
		SelectedSegment: scene.SelectedSegment,
		Tooltip:         c.tooltip,
		TooltipText:     c.TooltipText(),
		LogPanel:        c.logPanel,
	}
}

// Scene is an immutable view of one frame.
type Scene struct {
	Elements        []models.Element
	Connections     []models.Connection
	Selected        map[string]bool
	Hovered         string
	SelectedSegment *models.SelectedSegment
	Camera          Camera
	Geometry        microprint.Geometry
	GridSize        float64
	SmallGridSize   float64
}
