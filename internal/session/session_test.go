package session

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/canvas"
	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/pkg/models"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func testRuns() []*models.Run {
	step := &models.Step{
		ID: "s1", Number: 1, Name: "Test", Conclusion: models.StatusFailure,
		StartedAt: t0, CompletedAt: t0.Add(time.Minute),
		Log: "go test ./...\nERROR: undefined: foo\nexit 1",
	}
	job := &models.Job{ID: "j1", Name: "test", Conclusion: models.StatusFailure,
		StartedAt: t0, CompletedAt: t0.Add(time.Minute), Steps: []*models.Step{step}}
	attempt := &models.Attempt{ID: "a1", Number: 1, Conclusion: models.StatusFailure,
		RunStartedAt: t0, UpdatedAt: t0.Add(2 * time.Minute), Jobs: []*models.Job{job}}

	return []*models.Run{
		{ID: "r1", Name: "CI", Actor: "alice", Conclusion: models.StatusFailure, Attempts: []*models.Attempt{attempt}},
		{ID: "r2", Name: "CI", Actor: "bob", Conclusion: models.StatusSuccess, Attempts: []*models.Attempt{
			{ID: "a2", Number: 1, Conclusion: models.StatusSuccess, RunStartedAt: t0, UpdatedAt: t0.Add(time.Minute)},
		}},
	}
}

type fakePDF struct {
	mu     sync.Mutex
	report string
	err    error
}

func (f *fakePDF) ExportScene(scene canvas.Scene, title, report string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.report = report
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

func (f *fakePDF) Inspect(data []byte) (interfaces.PDFMetadata, error) {
	return interfaces.PDFMetadata{PageCount: 1, FileSize: int64(len(data))}, nil
}

func newTestSession(pdf interfaces.PDFService) *Session {
	return New("sess_test", testRuns(), DefaultOptions(), pdf, arbor.NewLogger())
}

// click presses the left button one pixel inside the element's top-left corner.
func click(t *testing.T, s *Session, id string) Frame {
	t.Helper()
	for _, el := range s.Snapshot().Elements {
		if el.ID == id {
			p := s.ctrl.Camera().WorldToScreen(el.Rect.LeftMiddle())
			f, err := s.Apply(Event{Type: EventPointerDown, X: p.X + 1, Y: p.Y, Button: int(canvas.ButtonLeft)})
			require.NoError(t, err)
			_, err = s.Apply(Event{Type: EventPointerUp, X: p.X + 1, Y: p.Y})
			require.NoError(t, err)
			return f
		}
	}
	t.Fatalf("element %s not on canvas", id)
	return Frame{}
}

func elementIDs(snap canvas.Snapshot) []string {
	ids := make([]string, 0, len(snap.Elements))
	for _, el := range snap.Elements {
		ids = append(ids, el.ID)
	}
	return ids
}

func TestNew(t *testing.T) {
	s := newTestSession(nil)

	snap := s.Snapshot()
	assert.Equal(t, "sess_test", s.ID())
	assert.Equal(t, "idle", snap.State)
	assert.Equal(t, []string{"run-r1", "run-r2"}, elementIDs(snap))
	assert.Equal(t, 100, snap.ZoomPercent)
}

func TestApply_ClickExpandsAndRenders(t *testing.T) {
	s := newTestSession(nil)

	f := click(t, s, "run-r1")
	assert.True(t, f.Changed)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Contains(t, elementIDs(f.State), "attempt-a1")
	assert.True(t, strings.HasPrefix(f.SVG, "<svg"))

	click(t, s, "attempt-a1")
	click(t, s, "job-j1")
	f = click(t, s, "step-s1")
	assert.Contains(t, elementIDs(f.State), "microprint-s1")
	assert.Equal(t, "step-s1", f.State.Selection[4])
}

func TestApply_UnchangedFrameHasNoSVG(t *testing.T) {
	s := newTestSession(nil)

	f, err := s.Apply(Event{Type: EventContextMenu})
	require.NoError(t, err)
	assert.False(t, f.Changed)
	assert.Empty(t, f.SVG)
}

func TestApply_Events(t *testing.T) {
	tests := []struct {
		name        string
		event       Event
		wantChanged bool
		wantErr     error
	}{
		{name: "wheel zooms", event: Event{Type: EventWheel, X: 100, Y: 100, DeltaY: -120}, wantChanged: true},
		{name: "flat wheel", event: Event{Type: EventWheel, X: 100, Y: 100}},
		{name: "fit", event: Event{Type: EventFit}, wantChanged: true},
		{name: "reset", event: Event{Type: EventReset}, wantChanged: true},
		{name: "resize", event: Event{Type: EventResize, Width: 800, Height: 600}, wantChanged: true},
		{name: "close missing panel", event: Event{Type: EventCloseLog}},
		{name: "extend missing panel", event: Event{Type: EventExtendDown}},
		{name: "unknown", event: Event{Type: "doubleclick"}, wantErr: ErrUnknownEvent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(nil)
			f, err := s.Apply(tt.event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantChanged, f.Changed)
		})
	}
}

func TestApply_InvalidResize(t *testing.T) {
	s := newTestSession(nil)
	_, err := s.Apply(Event{Type: EventResize, Width: 0, Height: 600})
	assert.Error(t, err)
}

func TestApply_RightDragPans(t *testing.T) {
	s := newTestSession(nil)

	down, err := s.Apply(Event{Type: EventPointerDown, X: 10, Y: 10, Button: int(canvas.ButtonRight)})
	require.NoError(t, err)
	assert.True(t, down.Changed)
	assert.Equal(t, "grabbing", down.State.Cursor)

	f, err := s.Apply(Event{Type: EventPointerMove, X: 40, Y: 30})
	require.NoError(t, err)

	assert.Equal(t, "panning", f.State.State)
	assert.Equal(t, "grabbing", f.State.Cursor)
	assert.Equal(t, 30.0, f.State.OffsetX)
	assert.Equal(t, 20.0, f.State.OffsetY)

	up, err := s.Apply(Event{Type: EventPointerUp, X: 40, Y: 30})
	require.NoError(t, err)
	assert.True(t, up.Changed)
	assert.Equal(t, "grab", up.State.Cursor)
}

func TestReplaceRuns(t *testing.T) {
	s := newTestSession(nil)
	click(t, s, "run-r1")

	s.ReplaceRuns(testRuns()[1:])

	snap := s.Snapshot()
	assert.Equal(t, []string{"run-r2"}, elementIDs(snap))
	assert.Empty(t, snap.Selection)
	assert.Equal(t, 1, s.Stats().TotalRuns)

	select {
	case <-s.Updated():
	default:
		t.Fatal("expected an update signal")
	}
}

func TestRenderSVG_Idempotent(t *testing.T) {
	s := newTestSession(nil)
	click(t, s, "run-r1")
	assert.Equal(t, s.RenderSVG(), s.RenderSVG())
}

func TestRenderPDF(t *testing.T) {
	pdf := &fakePDF{}
	s := newTestSession(pdf)
	click(t, s, "run-r1")
	click(t, s, "attempt-a1")
	click(t, s, "job-j1")
	click(t, s, "step-s1")

	data, err := s.RenderPDF()
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 fake", string(data))

	assert.Contains(t, pdf.report, "# Workflow runs")
	assert.Contains(t, pdf.report, "| Runs | 2 |")
	assert.Contains(t, pdf.report, "| Success rate | 50.0% |")
	assert.Contains(t, pdf.report, "- `alice`: 1 runs")
	assert.Contains(t, pdf.report, "- **Runs**: Run: CI, Status: failure")
	assert.Contains(t, pdf.report, "- **Steps**: Step: Test")
	assert.Contains(t, pdf.report, "ERROR: undefined: foo")
}

func TestRenderPDF_Errors(t *testing.T) {
	_, err := newTestSession(nil).RenderPDF()
	assert.Error(t, err)

	boom := errors.New("boom")
	_, err = newTestSession(&fakePDF{err: boom}).RenderPDF()
	assert.ErrorIs(t, err, boom)
}
