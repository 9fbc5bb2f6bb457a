package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/app"
	"github.com/ternarybob/runcanvas/internal/common"
	"github.com/ternarybob/runcanvas/internal/session"
)

// runExport loads the runs once, fits them to the viewport and writes the
// canvas to path. The file extension picks the format.
func runExport(config *common.Config, logger arbor.ILogger, path string) error {
	format := strings.ToLower(filepath.Ext(path))
	if format != ".svg" && format != ".pdf" {
		return fmt.Errorf("unsupported export format %q, use .svg or .pdf", format)
	}

	// One-shot exports never schedule refreshes
	config.Refresh.Enabled = false

	application, err := app.New(config, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	sess := application.Registry.Create()
	if _, err := sess.Apply(session.Event{Type: session.EventFit}); err != nil {
		return err
	}

	var data []byte
	switch format {
	case ".svg":
		data = sess.RenderSVG()
	case ".pdf":
		if data, err = sess.RenderPDF(); err != nil {
			return err
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	logger.Info().
		Str("path", path).
		Int("bytes", len(data)).
		Int("runs", len(application.Registry.Runs())).
		Msg("Canvas exported")
	return nil
}
