package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/common"
	"github.com/ternarybob/runcanvas/internal/services/refresh"
	"github.com/ternarybob/runcanvas/internal/session"
	"github.com/ternarybob/runcanvas/pkg/models"
)

// Refresher reloads runs on demand and reports the last outcome.
type Refresher interface {
	Refresh(ctx context.Context) error
	Status() refresh.Status
}

// WorkflowLister is satisfied by run sources that can list workflow definitions.
type WorkflowLister interface {
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
}

// StatusHandler handles HTTP requests for application status
type StatusHandler struct {
	registry  *session.Registry
	refresher Refresher
	workflows WorkflowLister
	source    string
	logger    arbor.ILogger
}

// NewStatusHandler creates a new StatusHandler. workflows may be nil when the
// run source cannot list workflows.
func NewStatusHandler(registry *session.Registry, refresher Refresher, workflows WorkflowLister, source string, logger arbor.ILogger) *StatusHandler {
	return &StatusHandler{
		registry:  registry,
		refresher: refresher,
		workflows: workflows,
		source:    source,
		logger:    logger,
	}
}

// HealthHandler handles GET /api/health
func (h *StatusHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	resp := map[string]interface{}{
		"status":   "ok",
		"version":  common.GetVersionInfo(),
		"source":   h.source,
		"sessions": len(h.registry.All()),
		"runs":     len(h.registry.Runs()),
	}
	if h.refresher != nil {
		status := h.refresher.Status()
		resp["refresh"] = status
		if status.LastError != "" {
			resp["status"] = "degraded"
		}
	}
	WriteJSON(w, http.StatusOK, resp)
}

// StatsHandler handles GET /api/stats
func (h *StatusHandler) StatsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	WriteJSON(w, http.StatusOK, models.ComputeStats(h.registry.Runs()))
}

// WorkflowsHandler handles GET /api/workflows
func (h *StatusHandler) WorkflowsHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	if h.workflows == nil {
		WriteError(w, http.StatusNotFound, "Workflow listing needs the github source")
		return
	}

	workflows, err := h.workflows.ListWorkflows(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list workflows")
		WriteError(w, http.StatusBadGateway, "Failed to list workflows")
		return
	}
	WriteJSON(w, http.StatusOK, workflows)
}

// RefreshHandler handles POST /api/refresh
func (h *StatusHandler) RefreshHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	if h.refresher == nil {
		WriteError(w, http.StatusNotFound, "Refresh is not available")
		return
	}

	if err := h.refresher.Refresh(r.Context()); err != nil {
		WriteError(w, http.StatusBadGateway, err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, h.refresher.Status())
}
