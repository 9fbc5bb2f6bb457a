package pdf

import (
	"bytes"
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/runcanvas/internal/canvas"
	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/internal/render"
)

// Service implements interfaces.PDFService
type Service struct {
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service
func NewService(logger arbor.ILogger) *Service {
	return &Service{
		logger: logger,
	}
}

// ExportScene renders scene on the first page, sized to the camera viewport,
// and appends report (markdown) on the following pages when it is not empty.
func (s *Service) ExportScene(scene canvas.Scene, title, report string) ([]byte, error) {
	width, height := scene.Camera.Viewport()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("cannot export an unmounted canvas")
	}

	s.logger.Debug().
		Float64("width", width).
		Float64("height", height).
		Int("elements", len(scene.Elements)).
		Int("report_len", len(report)).
		Msg("Exporting canvas to PDF")

	surface := NewSurface(width, height)
	doc := surface.Document()
	doc.SetTitle(title, true)
	doc.SetCreator("runcanvas", true)

	render.Render(surface, scene)

	if err := writeReport(doc, report); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write PDF report")
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate PDF output")
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	s.logger.Debug().Int("pdf_size", buf.Len()).Msg("PDF generated successfully")
	return buf.Bytes(), nil
}

// Inspect reads a generated document back and reports its metadata.
func (s *Service) Inspect(data []byte) (interfaces.PDFMetadata, error) {
	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return interfaces.PDFMetadata{}, fmt.Errorf("failed to read PDF context: %w", err)
	}
	if err := api.ValidateContext(ctx); err != nil {
		return interfaces.PDFMetadata{}, fmt.Errorf("invalid PDF: %w", err)
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return interfaces.PDFMetadata{}, fmt.Errorf("failed to count pages: %w", err)
	}
	return interfaces.PDFMetadata{
		Title:     ctx.Title,
		Creator:   ctx.Creator,
		PageCount: ctx.PageCount,
		FileSize:  int64(len(data)),
	}, nil
}
