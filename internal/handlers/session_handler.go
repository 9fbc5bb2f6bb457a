package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/session"
)

const sessionsPrefix = "/api/sessions/"

// SessionHandler exposes sessions over plain HTTP for scripted viewers and
// exports.
type SessionHandler struct {
	registry *session.Registry
	logger   arbor.ILogger
}

// NewSessionHandler creates a new SessionHandler
func NewSessionHandler(registry *session.Registry, logger arbor.ILogger) *SessionHandler {
	return &SessionHandler{
		registry: registry,
		logger:   logger,
	}
}

type sessionSummary struct {
	ID        string `json:"id"`
	CreatedAt string `json:"created_at"`
	State     string `json:"state"`
}

// ListSessionsHandler handles GET /api/sessions
func (h *SessionHandler) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	all := h.registry.All()
	out := make([]sessionSummary, 0, len(all))
	for _, s := range all {
		out = append(out, sessionSummary{
			ID:        s.ID(),
			CreatedAt: s.CreatedAt().UTC().Format(time.RFC3339),
			State:     s.Snapshot().State,
		})
	}
	WriteJSON(w, http.StatusOK, out)
}

// CreateSessionHandler handles POST /api/sessions
func (h *SessionHandler) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	s := h.registry.Create()
	WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"session_id": s.ID(),
		"frame":      s.Frame(),
	})
}

// DeleteSessionHandler handles DELETE /api/sessions/{id}
func (h *SessionHandler) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}

	id := PathSegment(r.URL.Path, sessionsPrefix)
	if err := h.registry.Remove(id); err != nil {
		WriteError(w, http.StatusNotFound, err.Error())
		return
	}
	WriteSuccess(w, "Session removed")
}

// StateHandler handles GET /api/sessions/{id}/state
func (h *SessionHandler) StateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.Snapshot())
}

// StatsHandler handles GET /api/sessions/{id}/stats
func (h *SessionHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	WriteJSON(w, http.StatusOK, s.Stats())
}

// EventHandler handles POST /api/sessions/{id}/events with one event body
func (h *SessionHandler) EventHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var event session.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid event: %v", err))
		return
	}
	h.apply(w, s, event)
}

// FitHandler handles POST /api/sessions/{id}/fit
func (h *SessionHandler) FitHandler(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, session.EventFit)
}

// ResetHandler handles POST /api/sessions/{id}/reset
func (h *SessionHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	h.control(w, r, session.EventReset)
}

// ResizeHandler handles POST /api/sessions/{id}/resize with {"width","height"}
func (h *SessionHandler) ResizeHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var body struct {
		Width  float64 `json:"width"`
		Height float64 `json:"height"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
		return
	}
	h.apply(w, s, session.Event{Type: session.EventResize, Width: body.Width, Height: body.Height})
}

// ExportSVGHandler handles GET /api/sessions/{id}/export.svg
func (h *SessionHandler) ExportSVGHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", "runcanvas-"+s.ID()+".svg"))
	w.WriteHeader(http.StatusOK)
	w.Write(s.RenderSVG())
}

// ExportPDFHandler handles GET /api/sessions/{id}/export.pdf
func (h *SessionHandler) ExportPDFHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}

	data, err := s.RenderPDF()
	if err != nil {
		h.logger.Error().Err(err).Str("session_id", s.ID()).Msg("Failed to export PDF")
		WriteError(w, http.StatusInternalServerError, "Failed to export PDF")
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "runcanvas-"+s.ID()+".pdf"))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (h *SessionHandler) control(w http.ResponseWriter, r *http.Request, eventType string) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	s, ok := h.lookup(w, r)
	if !ok {
		return
	}
	h.apply(w, s, session.Event{Type: eventType})
}

func (h *SessionHandler) apply(w http.ResponseWriter, s *session.Session, event session.Event) {
	frame, err := s.Apply(event)
	if err != nil {
		WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, frame)
}

func (h *SessionHandler) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	id := PathSegment(r.URL.Path, sessionsPrefix)
	if id == "" {
		WriteError(w, http.StatusBadRequest, "Session ID is required")
		return nil, false
	}

	s, err := h.registry.Get(id)
	if errors.Is(err, session.ErrSessionNotFound) {
		WriteError(w, http.StatusNotFound, fmt.Sprintf("Session %s not found", id))
		return nil, false
	}
	if err != nil {
		WriteError(w, http.StatusInternalServerError, err.Error())
		return nil, false
	}
	return s, true
}
