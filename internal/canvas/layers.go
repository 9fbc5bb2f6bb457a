package canvas

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/runcanvas/internal/microprint"
	"github.com/ternarybob/runcanvas/internal/models"
	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

// LayoutConfig positions layers in world space.
type LayoutConfig struct {
	StartX             float64
	StartY             float64
	BoxSpacing         float64
	ViewportWidth      float64
	MicroprintCellSize float64
}

// DefaultLayoutConfig assumes a 1920px wide viewport until the host reports one.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		StartX:             80,
		StartY:             80,
		BoxSpacing:         10,
		ViewportWidth:      1920,
		MicroprintCellSize: 9,
	}
}

// LayerSpacing is the horizontal gap between adjacent layers.
func (c LayoutConfig) LayerSpacing() float64 {
	return c.ViewportWidth / 10
}

// heightRange is the pixel range durations are normalised into, per kind.
type heightRange struct{ lo, hi float64 }

var heightRanges = map[models.ElementKind]heightRange{
	models.KindRun:     {30, 80},
	models.KindAttempt: {30, 120},
	models.KindJob:     {20, 100},
	models.KindStep:    {15, 50},
}

// sizedWidth is childCount*unit + padding with a floor.
func sizedWidth(childCount int, unit, floor float64) float64 {
	return math.Max(float64(childCount)*unit+unit, floor)
}

// LayerManager owns the visible elements and the connections between them.
// Every mutating call builds the new element and connection sets first and
// swaps them in at the end, so callers never observe a partially rebuilt layer.
type LayerManager struct {
	cfg         LayoutConfig
	geometry    microprint.Geometry
	elements    []models.Element
	connections []models.Connection
}

func NewLayerManager(cfg LayoutConfig) *LayerManager {
	if cfg.MicroprintCellSize <= 0 {
		cfg.MicroprintCellSize = DefaultLayoutConfig().MicroprintCellSize
	}
	return &LayerManager{
		cfg:      cfg,
		geometry: microprint.Geometry{CellSize: cfg.MicroprintCellSize},
	}
}

// SetViewportWidth updates the layer spacing used by subsequent expansions.
func (m *LayerManager) SetViewportWidth(width float64) {
	if width > 0 {
		m.cfg.ViewportWidth = width
	}
}

func (m *LayerManager) Config() LayoutConfig {
	return m.cfg
}

// Geometry is the microprint cell geometry shared with hit testing.
func (m *LayerManager) Geometry() microprint.Geometry {
	return m.geometry
}

// Elements returns the elements in draw order.
func (m *LayerManager) Elements() []models.Element {
	out := make([]models.Element, len(m.elements))
	copy(out, m.elements)
	return out
}

func (m *LayerManager) Connections() []models.Connection {
	out := make([]models.Connection, len(m.connections))
	copy(out, m.connections)
	return out
}

// Find returns the element with the given id.
func (m *LayerManager) Find(id string) (models.Element, bool) {
	for _, el := range m.elements {
		if el.ID == id {
			return el, true
		}
	}
	return models.Element{}, false
}

// LayerBounds returns the bounding box of a layer and false when it is empty.
func (m *LayerManager) LayerBounds(layer int) (models.Rect, bool) {
	return LayerBounds(m.elements, layer)
}

// OccupiedLayers lists the layers that have at least one element, ascending.
func (m *LayerManager) OccupiedLayers() []int {
	return OccupiedLayers(m.elements)
}

// ResetToRuns replaces everything with one layer-1 element per run.
func (m *LayerManager) ResetToRuns(runs []*pkgmodels.Run) {
	records := make([]pkgmodels.Record, len(runs))
	widths := make([]float64, len(runs))
	for i, r := range runs {
		records[i] = r
		widths[i] = sizedWidth(len(r.Attempts), 20, 60)
	}

	m.elements = m.column(models.LayerRuns, models.KindRun, m.cfg.StartX, "", records, widths)
	m.connections = nil
}

// ExpandAttempts shows the attempts of run as layer 2.
func (m *LayerManager) ExpandAttempts(run *pkgmodels.Run) bool {
	if run == nil {
		return false
	}
	records := make([]pkgmodels.Record, len(run.Attempts))
	widths := make([]float64, len(run.Attempts))
	for i, a := range run.Attempts {
		records[i] = a
		widths[i] = sizedWidth(len(a.Jobs), 15, 40)
	}
	return m.expand(models.LayerAttempts, models.KindAttempt, run, records, widths)
}

// ExpandJobs shows the jobs of attempt as layer 3.
func (m *LayerManager) ExpandJobs(attempt *pkgmodels.Attempt) bool {
	if attempt == nil {
		return false
	}
	records := make([]pkgmodels.Record, len(attempt.Jobs))
	widths := make([]float64, len(attempt.Jobs))
	for i, j := range attempt.Jobs {
		records[i] = j
		widths[i] = sizedWidth(len(j.Steps), 10, 30)
	}
	return m.expand(models.LayerJobs, models.KindJob, attempt, records, widths)
}

// ExpandSteps shows the steps of job as layer 4.
func (m *LayerManager) ExpandSteps(job *pkgmodels.Job) bool {
	if job == nil {
		return false
	}
	records := make([]pkgmodels.Record, len(job.Steps))
	widths := make([]float64, len(job.Steps))
	for i, s := range job.Steps {
		records[i] = s
		widths[i] = 20
	}
	return m.expand(models.LayerSteps, models.KindStep, job, records, widths)
}

// ExpandMicroprint shows the log of a failed step as layer 5. Steps that did
// not fail, or carry no log, leave the diagram unchanged.
func (m *LayerManager) ExpandMicroprint(step *pkgmodels.Step) bool {
	if step == nil || step.Conclusion != pkgmodels.StatusFailure || !step.HasLog() {
		return false
	}
	parent, ok := m.findRecord(models.LayerSteps, step)
	if !ok {
		return false
	}

	segments := microprint.ParseSegments(step.Log)
	layout := microprint.PlanLayout(len(segments))
	width, height := m.geometry.Size(layout)

	el := models.Element{
		ID:       "microprint-" + step.RecordID(),
		Kind:     models.KindMicroprint,
		Rect:     models.Rect{X: m.nextLayerX(models.LayerMicroprint), Y: m.cfg.StartY, Width: width, Height: height},
		Color:    MicroprintFill,
		Layer:    models.LayerMicroprint,
		RecordID: step.RecordID(),
		ParentID: parent.ID,
		Microprint: &models.MicroprintData{
			StepID:   step.RecordID(),
			Step:     step,
			Segments: segments,
			Layout:   layout,
		},
	}

	m.replaceFrom(models.LayerMicroprint, parent, []models.Element{el})
	return true
}

// expand rebuilds layer for the children of parent. The parent must already
// be on the previous layer; otherwise nothing happens.
func (m *LayerManager) expand(layer int, kind models.ElementKind, parent pkgmodels.Record, children []pkgmodels.Record, widths []float64) bool {
	parentEl, ok := m.findRecord(layer-1, parent)
	if !ok {
		return false
	}
	built := m.column(layer, kind, m.nextLayerX(layer), parentEl.ID, children, widths)
	m.replaceFrom(layer, parentEl, built)
	return true
}

// replaceFrom drops every element and connection at layer or deeper, then
// appends built with one connection from parent to each new element.
func (m *LayerManager) replaceFrom(layer int, parent models.Element, built []models.Element) {
	elements := make([]models.Element, 0, len(m.elements)+len(built))
	for _, el := range m.elements {
		if el.Layer < layer {
			elements = append(elements, el)
		}
	}
	elements = append(elements, built...)

	connections := make([]models.Connection, 0, len(m.connections)+len(built))
	for _, c := range m.connections {
		if c.FromLayer < layer && c.ToLayer < layer {
			connections = append(connections, c)
		}
	}
	for _, el := range built {
		connections = append(connections, models.Connection{
			From:      parent.Rect.RightMiddle(),
			To:        el.Rect.LeftMiddle(),
			FromID:    parent.ID,
			ToID:      el.ID,
			FromLayer: parent.Layer,
			ToLayer:   el.Layer,
		})
	}

	m.elements = elements
	m.connections = connections
}

// column lays records out top-down from StartY at x, heights normalised
// against the durations of the sibling group.
func (m *LayerManager) column(layer int, kind models.ElementKind, x float64, parentID string, records []pkgmodels.Record, widths []float64) []models.Element {
	if len(records) == 0 {
		return nil
	}

	durations := make([]float64, len(records))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, r := range records {
		d := float64(r.Duration() / time.Millisecond)
		durations[i] = d
		lo = math.Min(lo, d)
		hi = math.Max(hi, d)
	}

	hr := heightRanges[kind]
	out := make([]models.Element, len(records))
	seen := make(map[string]bool, len(records))
	y := m.cfg.StartY
	for i, r := range records {
		height := Normalize(durations[i], lo, hi, hr.lo, hr.hi)
		id := elementID(kind, r.RecordID(), i)
		if seen[id] {
			id = fmt.Sprintf("%s#%d", id, i)
		}
		seen[id] = true
		out[i] = models.Element{
			ID:       id,
			Kind:     kind,
			Rect:     models.Rect{X: x, Y: y, Width: widths[i], Height: height},
			Color:    StatusColor(r.Outcome()),
			Layer:    layer,
			RecordID: r.RecordID(),
			ParentID: parentID,
			Record:   r,
		}
		y += height + m.cfg.BoxSpacing
	}
	return out
}

// nextLayerX places layer one spacing to the right of the previous layer.
func (m *LayerManager) nextLayerX(layer int) float64 {
	if layer <= models.LayerRuns {
		return m.cfg.StartX
	}
	prev, ok := m.LayerBounds(layer - 1)
	if !ok {
		return m.cfg.StartX + m.cfg.LayerSpacing()
	}
	return prev.MaxX() + m.cfg.LayerSpacing()
}

// findRecord returns the element on layer that was built from record.
func (m *LayerManager) findRecord(layer int, record pkgmodels.Record) (models.Element, bool) {
	for _, el := range m.elements {
		if el.Layer == layer && el.Record != nil && el.Record == record {
			return el, true
		}
	}
	return models.Element{}, false
}

func elementID(kind models.ElementKind, recordID string, index int) string {
	if recordID == "" {
		return fmt.Sprintf("%s-#%d", kind, index)
	}
	return fmt.Sprintf("%s-%s", kind, recordID)
}

// LayerBounds returns the bounding box of the elements on layer.
func LayerBounds(elements []models.Element, layer int) (models.Rect, bool) {
	var rects []models.Rect
	for _, el := range elements {
		if el.Layer == layer {
			rects = append(rects, el.Rect)
		}
	}
	return models.Bounds(rects)
}

// OccupiedLayers lists the distinct layers of elements, ascending.
func OccupiedLayers(elements []models.Element) []int {
	seen := make(map[int]bool)
	var layers []int
	for _, el := range elements {
		if !seen[el.Layer] {
			seen[el.Layer] = true
			layers = append(layers, el.Layer)
		}
	}
	sort.Ints(layers)
	return layers
}

// Rects extracts element rectangles, e.g. for fitting the camera.
func Rects(elements []models.Element) []models.Rect {
	rects := make([]models.Rect, len(elements))
	for i, el := range elements {
		rects[i] = el.Rect
	}
	return rects
}
