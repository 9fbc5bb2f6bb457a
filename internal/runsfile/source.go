package runsfile

import (
	"context"

	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/pkg/models"
)

// Source serves runs from an export file, re-reading it on every call so
// refreshes pick up a rewritten export.
type Source struct {
	path string
}

func NewSource(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Name() string { return "file:" + s.path }

func (s *Source) ListRuns(ctx context.Context) ([]*models.Run, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return Load(s.path)
}

var _ interfaces.RunSource = (*Source)(nil)
