package refresh

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/pkg/models"
)

// Sink receives each successfully loaded run list.
type Sink interface {
	ReplaceRuns(runs []*models.Run)
}

// Status reports the outcome of the latest reload.
type Status struct {
	Running   bool       `json:"running"`
	Schedule  string     `json:"schedule,omitempty"`
	LastRun   *time.Time `json:"last_run,omitempty"`
	NextRun   *time.Time `json:"next_run,omitempty"`
	LastError string     `json:"last_error,omitempty"`
	Runs      int        `json:"runs"`
}

// Service reloads runs from a source on a cron schedule
type Service struct {
	source  interfaces.RunSource
	sink    Sink
	cron    *cron.Cron
	timeout time.Duration
	logger  arbor.ILogger

	mu           sync.Mutex // Protects fields below
	running      bool
	isProcessing bool
	schedule     string
	entryID      cron.EntryID
	lastRun      *time.Time
	lastError    string
	runs         int
}

// NewService creates a refresh service. Schedules carry a seconds field.
func NewService(source interfaces.RunSource, sink Sink, logger arbor.ILogger) *Service {
	return &Service{
		source:  source,
		sink:    sink,
		cron:    cron.New(cron.WithSeconds()),
		timeout: 2 * time.Minute,
		logger:  logger,
	}
}

// Refresh loads runs once and hands them to the sink. A failed load keeps
// the previous runs on screen.
func (s *Service) Refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.isProcessing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Refresh already in progress, skipping")
		return nil
	}
	s.isProcessing = true
	s.mu.Unlock()

	start := time.Now()
	runs, err := s.source.ListRuns(ctx)

	s.mu.Lock()
	s.isProcessing = false
	s.lastRun = &start
	if err != nil {
		s.lastError = err.Error()
	} else {
		s.lastError = ""
		s.runs = len(runs)
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("source", s.source.Name()).
			Msg("Failed to refresh runs")
		return fmt.Errorf("failed to refresh runs from %s: %w", s.source.Name(), err)
	}

	s.sink.ReplaceRuns(runs)
	s.logger.Debug().
		Str("source", s.source.Name()).
		Int("runs", len(runs)).
		Str("duration", time.Since(start).String()).
		Msg("Runs refreshed")
	return nil
}

// Start schedules periodic refreshes
func (s *Service) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("refresh already running")
	}

	id, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		_ = s.Refresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.entryID = id
	s.schedule = schedule
	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", schedule).
		Str("source", s.source.Name()).
		Msg("Run refresh started")
	return nil
}

// Stop halts the schedule and waits for a running refresh to finish
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Run refresh stopped")
}

func (s *Service) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Status{
		Running:   s.running,
		Schedule:  s.schedule,
		LastRun:   s.lastRun,
		LastError: s.lastError,
		Runs:      s.runs,
	}
	if s.running {
		if next := s.cron.Entry(s.entryID).Next; !next.IsZero() {
			st.NextRun = &next
		}
	}
	return st
}
