package server

import (
	"net/http"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// UI page
	mux.HandleFunc("/", s.app.PageHandler.ServePage("canvas.html", "canvas"))

	// WebSocket route (one canvas session per connection)
	mux.HandleFunc("/ws", s.app.WSHandler.HandleWebSocket)

	// API routes - Sessions
	mux.HandleFunc("/api/sessions", s.handleSessionsRoute)  // GET (list), POST (create)
	mux.HandleFunc("/api/sessions/", s.handleSessionRoutes) // /{id} and subpaths

	// API routes - Runs
	mux.HandleFunc("/api/stats", s.app.StatusHandler.StatsHandler)
	mux.HandleFunc("/api/workflows", s.app.StatusHandler.WorkflowsHandler)
	mux.HandleFunc("/api/refresh", s.app.StatusHandler.RefreshHandler)

	// API routes - System
	mux.HandleFunc("/api/health", s.app.StatusHandler.HealthHandler)

	// 404 handler for unmatched API routes
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return mux
}

// handleSessionsRoute routes /api/sessions requests (list and create)
func (s *Server) handleSessionsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r,
		s.app.SessionHandler.ListSessionsHandler,
		s.app.SessionHandler.CreateSessionHandler,
	)
}

// handleSessionRoutes routes /api/sessions/{id}/... requests
func (s *Server) handleSessionRoutes(w http.ResponseWriter, r *http.Request) {
	h := s.app.SessionHandler

	matched := RouteByPathSuffix(w, r, "/api/sessions/", []PathSuffixRouter{
		{Suffix: "/state", Handler: h.StateHandler},
		{Suffix: "/stats", Handler: h.StatsHandler},
		{Suffix: "/events", Handler: h.EventHandler},
		{Suffix: "/fit", Handler: h.FitHandler},
		{Suffix: "/reset", Handler: h.ResetHandler},
		{Suffix: "/resize", Handler: h.ResizeHandler},
		{Suffix: "/export.svg", Handler: h.ExportSVGHandler},
		{Suffix: "/export.pdf", Handler: h.ExportPDFHandler},
	})
	if matched {
		return
	}

	// DELETE /api/sessions/{id}
	RouteByMethod(w, r, MethodRouter{"DELETE": h.DeleteSessionHandler})
}
