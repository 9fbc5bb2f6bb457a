package interfaces

import (
	"context"

	"github.com/ternarybob/runcanvas/pkg/models"
)

// RunSource supplies the ordered top-level runs shown on the canvas.
type RunSource interface {
	// Name identifies the source in logs and the health endpoint.
	Name() string
	// ListRuns returns runs with attempts, jobs and steps populated.
	ListRuns(ctx context.Context) ([]*models.Run, error)
}

// Connector defines the common interface for remote sources
type Connector interface {
	// TestConnection verifies if the connector configuration is valid and working
	TestConnection(ctx context.Context) error
}

// GitHubConnector defines specific operations for GitHub
type GitHubConnector interface {
	Connector
	RunSource
	ListWorkflows(ctx context.Context) ([]models.Workflow, error)
	GetJobLog(ctx context.Context, owner, repo string, jobID int64) (string, error)
}
