package session

import (
	"errors"
	"sort"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/common"
	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/pkg/models"
)

// ErrSessionNotFound is returned for unknown or removed session IDs.
var ErrSessionNotFound = errors.New("session not found")

// Registry tracks live sessions and the run list new sessions start from.
type Registry struct {
	opts   Options
	pdf    interfaces.PDFService
	logger arbor.ILogger

	mu       sync.RWMutex
	sessions map[string]*Session
	runs     []*models.Run
}

func NewRegistry(opts Options, pdf interfaces.PDFService, logger arbor.ILogger) *Registry {
	return &Registry{
		opts:     opts,
		pdf:      pdf,
		logger:   logger,
		sessions: make(map[string]*Session),
	}
}

// Create starts a session on the current run list.
func (r *Registry) Create() *Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := New(common.NewSessionID(), r.runs, r.opts, r.pdf, r.logger)
	r.sessions[s.ID()] = s
	r.logger.Info().
		Str("session_id", s.ID()).
		Int("runs", len(r.runs)).
		Msg("Session created")
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (r *Registry) Remove(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	r.logger.Info().Str("session_id", id).Msg("Session removed")
	return nil
}

// All returns the live sessions, oldest first.
func (r *Registry) All() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].created.Equal(out[j].created) {
			return out[i].created.Before(out[j].created)
		}
		return out[i].id < out[j].id
	})
	return out
}

// Runs returns the run list new sessions start from.
func (r *Registry) Runs() []*models.Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.runs
}

// ReplaceRuns stores runs for new sessions and pushes them to every live one.
func (r *Registry) ReplaceRuns(runs []*models.Run) {
	r.mu.Lock()
	r.runs = runs
	r.mu.Unlock()

	sessions := r.All()
	for _, s := range sessions {
		s.ReplaceRuns(runs)
	}
	r.logger.Info().
		Int("runs", len(runs)).
		Int("sessions", len(sessions)).
		Msg("Runs reloaded")
}
