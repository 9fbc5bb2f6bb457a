package session

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ternarybob/runcanvas/internal/canvas"
	"github.com/ternarybob/runcanvas/internal/githublogs"
	"github.com/ternarybob/runcanvas/internal/models"
	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

const (
	excerptContext = 10
	excerptTail    = 50
)

// buildReport writes the markdown appended to PDF exports: run statistics,
// the selected path through the hierarchy, and the relevant log lines.
func buildReport(title string, ctrl *canvas.Controller) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", title)

	stats := pkgmodels.ComputeStats(ctrl.Runs())
	b.WriteString("## Statistics\n\n")
	b.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Runs | %d |\n", stats.TotalRuns)
	fmt.Fprintf(&b, "| Successful | %d |\n", stats.Successes)
	fmt.Fprintf(&b, "| Failed | %d |\n", stats.Failures)
	fmt.Fprintf(&b, "| In progress | %d |\n", stats.InProgress)
	fmt.Fprintf(&b, "| Success rate | %.1f%% |\n", stats.SuccessRate)
	fmt.Fprintf(&b, "| Average duration | %s |\n", canvas.FormatDuration(stats.AverageDuration))
	fmt.Fprintf(&b, "| Time lost to failures | %s |\n", canvas.FormatDuration(stats.TimeLost))
	if stats.WorstFailure != nil {
		fmt.Fprintf(&b, "| Longest failure | %s (%s) |\n", stats.WorstFailure.Name, canvas.FormatDuration(stats.WorstFailure.Duration))
	}
	b.WriteString("\n")

	if len(stats.Actors) > 0 {
		b.WriteString("## Actors\n\n")
		for _, a := range stats.Actors {
			fmt.Fprintf(&b, "- `%s`: %d runs\n", a.Login, a.Runs)
		}
		b.WriteString("\n")
	}

	selection := ctrl.Selection()
	if len(selection) == 0 {
		return b.String()
	}

	layers := make([]int, 0, len(selection))
	for layer := range selection {
		layers = append(layers, layer)
	}
	sort.Ints(layers)

	b.WriteString("## Selection\n\n")
	var selectedStep *pkgmodels.Step
	for _, layer := range layers {
		el, ok := ctrl.Layers().Find(selection[layer])
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "- **%s**: %s\n", canvas.LayerLabels[layer], strings.ReplaceAll(canvas.TooltipText(el), "\n", ", "))
		if step, ok := el.Record.(*pkgmodels.Step); ok {
			selectedStep = step
		}
	}
	b.WriteString("\n")

	if lines := logLines(ctrl.LogPanel(), selectedStep); lines != "" {
		b.WriteString("## Log\n\n```\n")
		b.WriteString(lines)
		b.WriteString("\n```\n")
	}
	return b.String()
}

// logLines prefers the log panel window; without one it falls back to an
// excerpt of the selected step's log.
func logLines(panel models.LogPanelState, step *pkgmodels.Step) string {
	if window := panel.Window(); len(window) > 0 {
		lines := make([]string, 0, len(window))
		for _, seg := range window {
			lines = append(lines, seg.Text)
		}
		return strings.Join(lines, "\n")
	}
	if step != nil && step.HasLog() {
		return githublogs.Excerpt(step.Log, excerptContext, excerptTail)
	}
	return ""
}
