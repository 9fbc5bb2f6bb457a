package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/app"
	"github.com/ternarybob/runcanvas/internal/common"
)

func newTestServer(t *testing.T) (*app.App, *httptest.Server) {
	t.Helper()
	cfg := common.NewDefaultConfig()
	cfg.Source.Type = "file"
	cfg.Source.Path = "../runsfile/testdata/runs.json"

	a, err := app.New(cfg, arbor.NewLogger())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	ts := httptest.NewServer(New(a).Handler())
	t.Cleanup(ts.Close)
	return a, ts
}

func do(t *testing.T, method, url string, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestServer_SessionRoutes(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, "POST", ts.URL+"/api/sessions", "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	base := ts.URL + "/api/sessions/" + created.SessionID

	tests := []struct {
		method   string
		path     string
		body     string
		wantCode int
		wantType string
	}{
		{"GET", "/state", "", http.StatusOK, "application/json"},
		{"GET", "/stats", "", http.StatusOK, "application/json"},
		{"POST", "/fit", "", http.StatusOK, "application/json"},
		{"POST", "/reset", "", http.StatusOK, "application/json"},
		{"POST", "/resize", `{"width":800,"height":600}`, http.StatusOK, "application/json"},
		{"POST", "/events", `{"type":"pointermove","x":5,"y":5}`, http.StatusOK, "application/json"},
		{"GET", "/export.svg", "", http.StatusOK, "image/svg+xml"},
		{"GET", "/export.pdf", "", http.StatusOK, "application/pdf"},
		{"PUT", "", "", http.StatusMethodNotAllowed, ""},
		{"DELETE", "", "", http.StatusOK, "application/json"},
		{"GET", "/state", "", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		resp := do(t, tt.method, base+tt.path, tt.body)
		assert.Equal(t, tt.wantCode, resp.StatusCode, "%s %s", tt.method, tt.path)
		if tt.wantType != "" {
			assert.Equal(t, tt.wantType, resp.Header.Get("Content-Type"), "%s %s", tt.method, tt.path)
		}
	}
}

func TestServer_SystemRoutes(t *testing.T) {
	_, ts := newTestServer(t)

	resp := do(t, "GET", ts.URL+"/api/health", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var health struct {
		Status string `json:"status"`
		Runs   int    `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 3, health.Runs)

	resp = do(t, "GET", ts.URL+"/api/stats", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, "GET", ts.URL+"/api/workflows", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "file source cannot list workflows")

	resp = do(t, "POST", ts.URL+"/api/refresh", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, "GET", ts.URL+"/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = do(t, "GET", ts.URL+"/", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	page, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(page), "/ws")
}

func TestServer_Middleware(t *testing.T) {
	_, ts := newTestServer(t)

	req, err := http.NewRequest("GET", ts.URL+"/api/health", nil)
	require.NoError(t, err)
	req.Header.Set("X-Correlation-ID", "corr-123")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "corr-123", resp.Header.Get("X-Correlation-ID"))
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))

	resp = do(t, "GET", ts.URL+"/api/stats", "")
	assert.NotEmpty(t, resp.Header.Get("X-Correlation-ID"), "an ID is generated when none is sent")

	resp = do(t, "OPTIONS", ts.URL+"/api/sessions", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServer_WebSocket(t *testing.T) {
	a, ts := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var hello struct {
		Type    string `json:"type"`
		Payload struct {
			SessionID string `json:"session_id"`
		} `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Type)

	_, err = a.Registry.Get(hello.Payload.SessionID)
	assert.NoError(t, err)
}

func TestRecoveryMiddleware(t *testing.T) {
	a, _ := newTestServer(t)
	s := &Server{app: a}

	h := s.withMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/anything", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
