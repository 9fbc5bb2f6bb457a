package app

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/common"
	"github.com/ternarybob/runcanvas/internal/connectors/github"
	"github.com/ternarybob/runcanvas/internal/handlers"
	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/internal/runsfile"
	"github.com/ternarybob/runcanvas/internal/services/pdf"
	"github.com/ternarybob/runcanvas/internal/services/refresh"
	"github.com/ternarybob/runcanvas/internal/session"
)

const initialLoadTimeout = 2 * time.Minute

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Run loading
	Source    interfaces.RunSource
	GitHub    *github.Connector // nil unless the github source is configured
	Refresher *refresh.Service

	// Canvas services
	PDFService interfaces.PDFService
	Registry   *session.Registry

	// HTTP handlers
	PageHandler    *handlers.PageHandler
	WSHandler      *handlers.CanvasWebSocketHandler
	SessionHandler *handlers.SessionHandler
	StatusHandler  *handlers.StatusHandler
}

// New initializes the application with the provided configuration and
// performs the first run load. A failed first load is logged and the canvas
// starts empty.
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initSource(); err != nil {
		return nil, fmt.Errorf("failed to initialize run source: %w", err)
	}

	app.initServices()
	app.initHandlers()

	ctx, cancel := context.WithTimeout(context.Background(), initialLoadTimeout)
	defer cancel()
	if err := app.Refresher.Refresh(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial run load failed, starting with an empty canvas")
	}

	if cfg.Refresh.Enabled {
		if err := app.Refresher.Start(cfg.Refresh.Schedule); err != nil {
			return nil, fmt.Errorf("failed to start refresh service: %w", err)
		}
	}

	logger.Info().
		Str("source", app.Source.Name()).
		Int("runs", len(app.Registry.Runs())).
		Bool("refresh_enabled", cfg.Refresh.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

// initSource selects the run source from configuration
func (a *App) initSource() error {
	switch a.Config.Source.Type {
	case "file":
		a.Source = runsfile.NewSource(a.Config.Source.Path)
		a.Logger.Debug().Str("path", a.Config.Source.Path).Msg("Loading runs from file")
		return nil

	case "github":
		gh := a.Config.GitHub
		interval, err := common.ParseDuration(gh.RequestInterval)
		if err != nil {
			return fmt.Errorf("invalid github request_interval: %w", err)
		}

		connector, err := github.NewConnector(github.Config{
			Token:           gh.Token,
			Owner:           gh.Owner,
			Repo:            gh.Repo,
			Branch:          gh.Branch,
			Status:          gh.Status,
			Workflow:        gh.Workflow,
			RunLimit:        gh.RunLimit,
			FetchLogs:       gh.FetchLogs,
			RequestInterval: interval,
			MaxConcurrency:  gh.MaxConcurrency,
			BaseURL:         gh.BaseURL,
		}, a.Logger)
		if err != nil {
			return err
		}
		a.GitHub = connector
		a.Source = connector
		return nil
	}

	return fmt.Errorf("unknown source type %q", a.Config.Source.Type)
}

// initServices creates the export, session and refresh services
func (a *App) initServices() {
	a.PDFService = pdf.NewService(a.Logger)
	a.Registry = session.NewRegistry(session.OptionsFromConfig(a.Config.Canvas), a.PDFService, a.Logger)
	a.Refresher = refresh.NewService(a.Source, a.Registry, a.Logger)
}

// initHandlers initializes all HTTP handlers
func (a *App) initHandlers() {
	a.PageHandler = handlers.NewPageHandler(a.Logger, session.OptionsFromConfig(a.Config.Canvas).Title, a.Config.Logging.Level == "debug")
	a.WSHandler = handlers.NewCanvasWebSocketHandler(a.Registry, a.Logger, &a.Config.WebSocket)
	a.SessionHandler = handlers.NewSessionHandler(a.Registry, a.Logger)

	// A nil *github.Connector must not reach the interface as a non-nil value
	var workflows handlers.WorkflowLister
	if a.GitHub != nil {
		workflows = a.GitHub
	}
	a.StatusHandler = handlers.NewStatusHandler(a.Registry, a.Refresher, workflows, a.Source.Name(), a.Logger)
}

// Close stops background services
func (a *App) Close() error {
	if a.Refresher != nil {
		a.Refresher.Stop()
	}

	for _, s := range a.Registry.All() {
		if err := a.Registry.Remove(s.ID()); err != nil {
			a.Logger.Warn().Err(err).Str("session_id", s.ID()).Msg("Failed to remove session")
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
