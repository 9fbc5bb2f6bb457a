package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/canvas"
	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/internal/services/refresh"
	"github.com/ternarybob/runcanvas/internal/session"
	"github.com/ternarybob/runcanvas/pkg/models"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func testRuns() []*models.Run {
	return []*models.Run{
		{ID: "r1", Name: "CI", Actor: "alice", Conclusion: models.StatusFailure, Attempts: []*models.Attempt{
			{ID: "a1", Number: 1, Conclusion: models.StatusFailure, RunStartedAt: t0, UpdatedAt: t0.Add(2 * time.Minute)},
		}},
		{ID: "r2", Name: "CI", Actor: "bob", Conclusion: models.StatusSuccess, Attempts: []*models.Attempt{
			{ID: "a2", Number: 1, Conclusion: models.StatusSuccess, RunStartedAt: t0, UpdatedAt: t0.Add(time.Minute)},
		}},
	}
}

type fakePDF struct{ err error }

func (f *fakePDF) ExportScene(canvas.Scene, string, string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.3 fake"), nil
}

func (f *fakePDF) Inspect(data []byte) (interfaces.PDFMetadata, error) {
	return interfaces.PDFMetadata{PageCount: 1, FileSize: int64(len(data))}, nil
}

func newTestRegistry(pdf interfaces.PDFService) *session.Registry {
	reg := session.NewRegistry(session.DefaultOptions(), pdf, arbor.NewLogger())
	reg.ReplaceRuns(testRuns())
	return reg
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestPathSegment(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/api/sessions/sess_1/state", "sess_1"},
		{"/api/sessions/sess_1", "sess_1"},
		{"/api/sessions/", ""},
		{"/other/sess_1", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PathSegment(tt.path, sessionsPrefix), tt.path)
	}
}

func TestSessionHandler_CreateAndState(t *testing.T) {
	reg := newTestRegistry(nil)
	h := NewSessionHandler(reg, arbor.NewLogger())

	rec := httptest.NewRecorder()
	h.CreateSessionHandler(rec, httptest.NewRequest("POST", "/api/sessions", nil))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		SessionID string `json:"session_id"`
		Frame     struct {
			SVG string `json:"svg"`
		} `json:"frame"`
	}
	decode(t, rec, &created)
	require.NotEmpty(t, created.SessionID)
	assert.Contains(t, created.Frame.SVG, "<svg")

	rec = httptest.NewRecorder()
	h.StateHandler(rec, httptest.NewRequest("GET", "/api/sessions/"+created.SessionID+"/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var snap struct {
		State    string `json:"state"`
		Elements []struct {
			ID string `json:"id"`
		} `json:"elements"`
	}
	decode(t, rec, &snap)
	assert.Equal(t, "idle", snap.State)
	require.Len(t, snap.Elements, 2)
	assert.Equal(t, "run-r1", snap.Elements[0].ID)

	rec = httptest.NewRecorder()
	h.ListSessionsHandler(rec, httptest.NewRequest("GET", "/api/sessions", nil))
	var list []sessionSummary
	decode(t, rec, &list)
	require.Len(t, list, 1)
	assert.Equal(t, created.SessionID, list[0].ID)
}

func TestSessionHandler_Controls(t *testing.T) {
	reg := newTestRegistry(nil)
	h := NewSessionHandler(reg, arbor.NewLogger())
	id := reg.Create().ID()
	base := "/api/sessions/" + id

	tests := []struct {
		name     string
		handler  http.HandlerFunc
		method   string
		path     string
		body     string
		wantCode int
	}{
		{name: "fit", handler: h.FitHandler, method: "POST", path: base + "/fit", wantCode: http.StatusOK},
		{name: "reset", handler: h.ResetHandler, method: "POST", path: base + "/reset", wantCode: http.StatusOK},
		{name: "resize", handler: h.ResizeHandler, method: "POST", path: base + "/resize", body: `{"width":800,"height":600}`, wantCode: http.StatusOK},
		{name: "resize to zero", handler: h.ResizeHandler, method: "POST", path: base + "/resize", body: `{"width":0,"height":600}`, wantCode: http.StatusBadRequest},
		{name: "resize bad body", handler: h.ResizeHandler, method: "POST", path: base + "/resize", body: `{`, wantCode: http.StatusBadRequest},
		{name: "event", handler: h.EventHandler, method: "POST", path: base + "/events", body: `{"type":"wheel","x":10,"y":10,"delta_y":-100}`, wantCode: http.StatusOK},
		{name: "unknown event", handler: h.EventHandler, method: "POST", path: base + "/events", body: `{"type":"dance"}`, wantCode: http.StatusBadRequest},
		{name: "wrong method", handler: h.FitHandler, method: "GET", path: base + "/fit", wantCode: http.StatusMethodNotAllowed},
		{name: "unknown session", handler: h.FitHandler, method: "POST", path: "/api/sessions/nope/fit", wantCode: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			tt.handler(rec, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
		})
	}
}

func TestSessionHandler_ResizeAppliesViewport(t *testing.T) {
	reg := newTestRegistry(nil)
	h := NewSessionHandler(reg, arbor.NewLogger())
	id := reg.Create().ID()

	rec := httptest.NewRecorder()
	h.ResizeHandler(rec, httptest.NewRequest("POST", "/api/sessions/"+id+"/resize", strings.NewReader(`{"width":640,"height":480}`)))
	require.Equal(t, http.StatusOK, rec.Code)

	var frame struct {
		Changed bool   `json:"changed"`
		SVG     string `json:"svg"`
	}
	decode(t, rec, &frame)
	assert.True(t, frame.Changed)
	assert.Contains(t, frame.SVG, `width="640"`)
}

func TestSessionHandler_Exports(t *testing.T) {
	reg := newTestRegistry(&fakePDF{})
	h := NewSessionHandler(reg, arbor.NewLogger())
	id := reg.Create().ID()

	rec := httptest.NewRecorder()
	h.ExportSVGHandler(rec, httptest.NewRequest("GET", "/api/sessions/"+id+"/export.svg", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/svg+xml", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(strings.TrimSpace(rec.Body.String()), "<"))

	rec = httptest.NewRecorder()
	h.ExportPDFHandler(rec, httptest.NewRequest("GET", "/api/sessions/"+id+"/export.pdf", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), id+".pdf")
	assert.Equal(t, "%PDF-1.3 fake", rec.Body.String())
}

func TestSessionHandler_ExportPDFFailure(t *testing.T) {
	reg := newTestRegistry(&fakePDF{err: errors.New("boom")})
	h := NewSessionHandler(reg, arbor.NewLogger())
	id := reg.Create().ID()

	rec := httptest.NewRecorder()
	h.ExportPDFHandler(rec, httptest.NewRequest("GET", "/api/sessions/"+id+"/export.pdf", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	reg := newTestRegistry(nil)
	h := NewSessionHandler(reg, arbor.NewLogger())
	id := reg.Create().ID()

	rec := httptest.NewRecorder()
	h.DeleteSessionHandler(rec, httptest.NewRequest("DELETE", "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteSessionHandler(rec, httptest.NewRequest("DELETE", "/api/sessions/"+id, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeRefresher struct {
	err    error
	calls  int
	status refresh.Status
}

func (f *fakeRefresher) Refresh(context.Context) error {
	f.calls++
	return f.err
}

func (f *fakeRefresher) Status() refresh.Status { return f.status }

type fakeWorkflows struct {
	workflows []models.Workflow
	err       error
}

func (f *fakeWorkflows) ListWorkflows(context.Context) ([]models.Workflow, error) {
	return f.workflows, f.err
}

func TestStatusHandler_Health(t *testing.T) {
	reg := newTestRegistry(nil)
	reg.Create()

	tests := []struct {
		name       string
		status     refresh.Status
		wantStatus string
	}{
		{name: "ok", status: refresh.Status{Runs: 2}, wantStatus: "ok"},
		{name: "degraded", status: refresh.Status{LastError: "rate limited"}, wantStatus: "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStatusHandler(reg, &fakeRefresher{status: tt.status}, nil, "file:runs.json", arbor.NewLogger())
			rec := httptest.NewRecorder()
			h.HealthHandler(rec, httptest.NewRequest("GET", "/api/health", nil))
			require.Equal(t, http.StatusOK, rec.Code)

			var body struct {
				Status   string `json:"status"`
				Source   string `json:"source"`
				Sessions int    `json:"sessions"`
				Runs     int    `json:"runs"`
				Version  struct {
					Version string `json:"version"`
				} `json:"version"`
			}
			decode(t, rec, &body)
			assert.Equal(t, tt.wantStatus, body.Status)
			assert.Equal(t, "file:runs.json", body.Source)
			assert.Equal(t, 1, body.Sessions)
			assert.Equal(t, 2, body.Runs)
			assert.NotEmpty(t, body.Version.Version)
		})
	}
}

func TestStatusHandler_Stats(t *testing.T) {
	h := NewStatusHandler(newTestRegistry(nil), nil, nil, "test", arbor.NewLogger())
	rec := httptest.NewRecorder()
	h.StatsHandler(rec, httptest.NewRequest("GET", "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.WorkflowStats
	decode(t, rec, &stats)
	assert.Equal(t, 2, stats.TotalRuns)
	assert.Equal(t, 1, stats.Failures)
}

func TestStatusHandler_Workflows(t *testing.T) {
	reg := newTestRegistry(nil)
	tests := []struct {
		name     string
		lister   WorkflowLister
		wantCode int
	}{
		{name: "no lister", lister: nil, wantCode: http.StatusNotFound},
		{name: "listed", lister: &fakeWorkflows{workflows: []models.Workflow{{ID: 7, Name: "CI", Path: ".github/workflows/ci.yml", State: "active"}}}, wantCode: http.StatusOK},
		{name: "upstream error", lister: &fakeWorkflows{err: errors.New("401")}, wantCode: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewStatusHandler(reg, nil, tt.lister, "github:o/r", arbor.NewLogger())
			rec := httptest.NewRecorder()
			h.WorkflowsHandler(rec, httptest.NewRequest("GET", "/api/workflows", nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var got []models.Workflow
				decode(t, rec, &got)
				require.Len(t, got, 1)
				assert.Equal(t, "CI", got[0].Name)
			}
		})
	}
}

func TestStatusHandler_Refresh(t *testing.T) {
	reg := newTestRegistry(nil)

	ok := &fakeRefresher{status: refresh.Status{Runs: 2}}
	h := NewStatusHandler(reg, ok, nil, "test", arbor.NewLogger())
	rec := httptest.NewRecorder()
	h.RefreshHandler(rec, httptest.NewRequest("POST", "/api/refresh", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, ok.calls)

	failing := &fakeRefresher{err: errors.New("source down")}
	h = NewStatusHandler(reg, failing, nil, "test", arbor.NewLogger())
	rec = httptest.NewRecorder()
	h.RefreshHandler(rec, httptest.NewRequest("POST", "/api/refresh", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Body.String(), "source down")
}

func TestPageHandler_ServePage(t *testing.T) {
	h := NewPageHandler(arbor.NewLogger(), "Workflow runs", false)

	rec := httptest.NewRecorder()
	h.ServePage("canvas.html", "canvas")(rec, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "<title>Workflow runs</title>")
	assert.Contains(t, rec.Body.String(), `new WebSocket(`)

	rec = httptest.NewRecorder()
	h.ServePage("canvas.html", "canvas")(rec, httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
