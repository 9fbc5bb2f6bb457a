package interfaces

import "github.com/ternarybob/runcanvas/internal/canvas"

// PDFMetadata describes a generated PDF document.
type PDFMetadata struct {
	Title     string `json:"title"`
	Creator   string `json:"creator"`
	PageCount int    `json:"page_count"`
	FileSize  int64  `json:"file_size"`
}

// PDFService handles PDF export of the diagram
type PDFService interface {
	// ExportScene paints the scene on the first page and appends the markdown
	// report, when non-empty, on the following pages.
	ExportScene(scene canvas.Scene, title, report string) ([]byte, error)
	// Inspect parses and validates a PDF, returning its metadata.
	Inspect(data []byte) (PDFMetadata, error)
}
