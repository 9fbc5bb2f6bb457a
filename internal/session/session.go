// Package session owns the diagram state of one viewer. A Session is the
// single writer of its controller: every pointer event, control action and
// run reload goes through its lock, so frames are produced in event order.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/canvas"
	"github.com/ternarybob/runcanvas/internal/common"
	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/internal/render"
	"github.com/ternarybob/runcanvas/pkg/models"
)

// ErrUnknownEvent is returned by Apply for an unrecognised event type.
var ErrUnknownEvent = errors.New("unknown event type")

// Event types accepted by Apply.
const (
	EventPointerDown  = "pointerdown"
	EventPointerMove  = "pointermove"
	EventPointerUp    = "pointerup"
	EventPointerLeave = "pointerleave"
	EventWheel        = "wheel"
	EventContextMenu  = "contextmenu"
	EventResize       = "resize"
	EventFit          = "fit"
	EventReset        = "reset"
	EventCloseLog     = "closelog"
	EventExtendUp     = "extendup"
	EventExtendDown   = "extenddown"
)

// Event is one input from the viewer. Coordinates are screen pixels.
type Event struct {
	Type     string  `json:"type"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Button   int     `json:"button"`
	Modifier bool    `json:"modifier"`
	DeltaY   float64 `json:"delta_y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// Frame is the state after an event. SVG is set only when the diagram changed.
type Frame struct {
	Seq     uint64          `json:"seq"`
	Changed bool            `json:"changed"`
	State   canvas.Snapshot `json:"state"`
	SVG     string          `json:"svg,omitempty"`
}

// Options configures the engine of each session.
type Options struct {
	Camera         canvas.CameraOptions
	Layout         canvas.LayoutConfig
	Controller     canvas.ControllerOptions
	ViewportHeight float64
	Title          string
}

// DefaultOptions mirrors the default canvas configuration.
func DefaultOptions() Options {
	return OptionsFromConfig(common.NewDefaultConfig().Canvas)
}

// OptionsFromConfig maps the [canvas] section onto engine options.
func OptionsFromConfig(cfg common.CanvasConfig) Options {
	return Options{
		Camera: canvas.CameraOptions{
			MinZoom:     cfg.MinZoom,
			MaxZoom:     cfg.MaxZoom,
			Sensitivity: cfg.ZoomSensitivity,
		},
		Layout: canvas.LayoutConfig{
			StartX:             cfg.StartX,
			StartY:             cfg.StartY,
			BoxSpacing:         cfg.BoxSpacing,
			ViewportWidth:      cfg.ViewportWidth,
			MicroprintCellSize: cfg.MicroprintCellSize,
		},
		Controller: canvas.ControllerOptions{
			FitMargin:     cfg.FitMargin,
			GridSize:      cfg.GridSize,
			SmallGridSize: cfg.SmallGridSize,
		},
		ViewportHeight: cfg.ViewportHeight,
		Title:          "Workflow runs",
	}
}

// Session is the state of one connected viewer.
type Session struct {
	id      string
	created time.Time
	title   string
	logger  arbor.ILogger
	pdf     interfaces.PDFService

	mu      sync.Mutex
	ctrl    *canvas.Controller
	seq     uint64
	updated chan struct{}
}

// New creates a session showing runs at layer 1, with the viewport set to
// the configured size until the viewer reports its own.
func New(id string, runs []*models.Run, opts Options, pdf interfaces.PDFService, logger arbor.ILogger) *Session {
	camera := canvas.NewCamera(opts.Camera)
	layers := canvas.NewLayerManager(opts.Layout)
	ctrl := canvas.NewController(camera, layers, opts.Controller)
	ctrl.Resize(opts.Layout.ViewportWidth, opts.ViewportHeight)
	ctrl.SetRuns(runs)

	return &Session{
		id:      id,
		created: time.Now(),
		title:   opts.Title,
		logger:  logger.WithCorrelationId(id),
		pdf:     pdf,
		ctrl:    ctrl,
		updated: make(chan struct{}, 1),
	}
}

func (s *Session) ID() string           { return s.id }
func (s *Session) CreatedAt() time.Time { return s.created }

// Apply dispatches one event to the controller and returns the resulting frame.
func (s *Session) Apply(e Event) (Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.dispatch(e)
	if err != nil {
		return Frame{}, err
	}
	if changed {
		s.logger.Debug().
			Str("event", e.Type).
			Str("state", s.ctrl.State().String()).
			Int("elements", len(s.ctrl.Layers().Elements())).
			Msg("Canvas updated")
	}
	return s.frame(changed), nil
}

func (s *Session) dispatch(e Event) (bool, error) {
	pointer := canvas.PointerEvent{X: e.X, Y: e.Y, Button: canvas.Button(e.Button), Modifier: e.Modifier}

	switch e.Type {
	case EventPointerDown:
		return s.ctrl.PointerDown(pointer), nil
	case EventPointerMove:
		return s.ctrl.PointerMove(pointer), nil
	case EventPointerUp:
		return s.ctrl.PointerUp(pointer), nil
	case EventPointerLeave:
		return s.ctrl.PointerLeave(), nil
	case EventWheel:
		return s.ctrl.Wheel(canvas.WheelEvent{X: e.X, Y: e.Y, DeltaY: e.DeltaY}), nil
	case EventContextMenu:
		// Suppressed; the right button pans instead.
		return false, nil
	case EventResize:
		if e.Width <= 0 || e.Height <= 0 {
			return false, fmt.Errorf("resize needs a positive size, got %vx%v", e.Width, e.Height)
		}
		s.ctrl.Resize(e.Width, e.Height)
		return true, nil
	case EventFit:
		return s.ctrl.FitToContent(), nil
	case EventReset:
		return s.ctrl.ResetView(), nil
	case EventCloseLog:
		return s.ctrl.CloseLogPanel(), nil
	case EventExtendUp:
		return s.ctrl.ExtendLogPanelUp(), nil
	case EventExtendDown:
		return s.ctrl.ExtendLogPanelDown(), nil
	}
	return false, fmt.Errorf("%w: %q", ErrUnknownEvent, e.Type)
}

func (s *Session) frame(changed bool) Frame {
	s.seq++
	f := Frame{Seq: s.seq, Changed: changed, State: s.ctrl.Snapshot()}
	if changed {
		f.SVG = string(s.renderSVG())
	}
	return f
}

// Frame returns the current state with a freshly rendered diagram.
func (s *Session) Frame() Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frame(true)
}

// ReplaceRuns swaps the run list and collapses the diagram to layer 1.
func (s *Session) ReplaceRuns(runs []*models.Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctrl.SetRuns(runs)
	s.logger.Debug().Int("runs", len(runs)).Msg("Runs replaced")

	select {
	case s.updated <- struct{}{}:
	default:
	}
}

// Updated signals after the run list is replaced outside of Apply.
// Signals coalesce: a reader that falls behind sees one pending update.
func (s *Session) Updated() <-chan struct{} { return s.updated }

// Scene returns the current render input.
func (s *Session) Scene() canvas.Scene {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Scene()
}

// Snapshot returns the current serialisable state.
func (s *Session) Snapshot() canvas.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctrl.Snapshot()
}

// Stats aggregates the runs currently shown.
func (s *Session) Stats() models.WorkflowStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.ComputeStats(s.ctrl.Runs())
}

// RenderSVG paints the current scene into a standalone SVG document.
func (s *Session) RenderSVG() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderSVG()
}

func (s *Session) renderSVG() []byte {
	w, h := s.ctrl.Camera().Viewport()
	surface := render.NewSVGSurface(w, h)
	render.Render(surface, s.ctrl.Scene())
	return surface.Bytes()
}

// RenderPDF exports the current scene plus a report of the statistics and
// the current selection.
func (s *Session) RenderPDF() ([]byte, error) {
	if s.pdf == nil {
		return nil, errors.New("pdf export is not configured")
	}

	s.mu.Lock()
	scene := s.ctrl.Scene()
	report := buildReport(s.title, s.ctrl)
	s.mu.Unlock()

	data, err := s.pdf.ExportScene(scene, s.title, report)
	if err != nil {
		return nil, fmt.Errorf("failed to export pdf: %w", err)
	}
	s.logger.Info().Int("bytes", len(data)).Msg("PDF exported")
	return data, nil
}
