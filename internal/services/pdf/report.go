package pdf

import (
	"strings"

	"github.com/go-pdf/fpdf"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

const (
	reportMargin = 36.0
	reportSize   = 10.0
	reportLine   = 14.0
)

// reportWriter lays a markdown report out on fpdf pages. It understands the
// subset the session reports use: headings, paragraphs, emphasis, code,
// lists and tables.
type reportWriter struct {
	pdf    *fpdf.Fpdf
	source []byte
	bold   bool
	italic bool
	lists  int
}

func writeReport(pdf *fpdf.Fpdf, markdown string) error {
	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return nil
	}

	pdf.SetMargins(reportMargin, reportMargin, reportMargin)
	pdf.SetAutoPageBreak(true, reportMargin)
	pdf.AddPage()
	pdf.SetTextColor(55, 65, 81)
	pdf.SetFont(fontFamily, "", reportSize)

	md := goldmark.New(goldmark.WithExtensions(extension.Table))
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	w := &reportWriter{pdf: pdf, source: source}
	if err := ast.Walk(doc, w.walk); err != nil {
		return err
	}
	return pdf.Error()
}

func (w *reportWriter) walk(n ast.Node, entering bool) (ast.WalkStatus, error) {
	switch node := n.(type) {
	case *ast.Heading:
		if entering {
			w.pdf.Ln(reportLine / 2)
			w.pdf.SetFont(fontFamily, "B", headingSize(node.Level))
		} else {
			w.pdf.Ln(reportLine + 4)
			w.font()
		}
	case *ast.Paragraph:
		if !entering {
			w.pdf.Ln(reportLine + 4)
		}
	case *ast.Text:
		if entering {
			w.pdf.Write(reportLine, string(node.Segment.Value(w.source)))
			if node.SoftLineBreak() {
				w.pdf.Write(reportLine, " ")
			}
		}
	case *ast.Emphasis:
		if node.Level == 2 {
			w.bold = entering
		} else {
			w.italic = entering
		}
		w.font()
	case *ast.CodeSpan:
		if entering {
			w.pdf.SetFont("Courier", "", reportSize)
			w.pdf.Write(reportLine, plainText(node, w.source))
			w.font()
		}
		return ast.WalkSkipChildren, nil
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		if entering {
			w.code(n.Lines())
		}
		return ast.WalkSkipChildren, nil
	case *ast.List:
		if entering {
			w.lists++
		} else {
			w.lists--
			w.pdf.Ln(reportLine / 2)
		}
	case *ast.ListItem:
		if entering {
			w.pdf.SetX(reportMargin + float64(w.lists)*12)
			w.pdf.Write(reportLine, "- ")
		}
	case *ast.TextBlock:
		if !entering {
			w.pdf.Ln(reportLine)
		}
	case *extast.Table:
		if entering {
			w.table(node)
		}
		return ast.WalkSkipChildren, nil
	}
	return ast.WalkContinue, nil
}

func headingSize(level int) float64 {
	switch level {
	case 1:
		return 18
	case 2:
		return 14
	default:
		return 12
	}
}

func (w *reportWriter) font() {
	style := ""
	if w.bold {
		style += "B"
	}
	if w.italic {
		style += "I"
	}
	w.pdf.SetFont(fontFamily, style, reportSize)
}

// code prints a block verbatim on a grey background.
func (w *reportWriter) code(lines *text.Segments) {
	w.pdf.SetFont("Courier", "", reportSize-1)
	w.pdf.SetFillColor(243, 244, 246)
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		txt := strings.TrimRight(string(line.Value(w.source)), "\r\n")
		w.pdf.CellFormat(0, reportLine-2, txt, "", 1, "L", true, 0, "")
	}
	w.pdf.Ln(reportLine / 2)
	w.font()
}

func (w *reportWriter) table(t *extast.Table) {
	var rows [][]string
	for child := t.FirstChild(); child != nil; child = child.NextSibling() {
		var cells []string
		for cell := child.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, plainText(cell, w.source))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 || len(rows[0]) == 0 {
		return
	}

	pageWidth, _ := w.pdf.GetPageSize()
	colWidth := (pageWidth - 2*reportMargin) / float64(len(rows[0]))
	for i, row := range rows {
		if i == 0 {
			w.pdf.SetFont(fontFamily, "B", reportSize)
			w.pdf.SetFillColor(229, 231, 235)
		} else {
			w.pdf.SetFont(fontFamily, "", reportSize)
			w.pdf.SetFillColor(255, 255, 255)
		}
		for j := range rows[0] {
			var cell string
			if j < len(row) {
				cell = row[j]
			}
			w.pdf.CellFormat(colWidth, reportLine+4, cell, "1", 0, "L", true, 0, "")
		}
		w.pdf.Ln(-1)
	}
	w.pdf.Ln(reportLine / 2)
	w.font()
}

// plainText concatenates the text beneath n.
func plainText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(source))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}
