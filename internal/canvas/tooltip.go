package canvas

import (
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/runcanvas/internal/microprint"
	"github.com/ternarybob/runcanvas/internal/models"
	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

// FormatDuration renders d as "1 hr, 2 mins, 3 secs", dropping zero hour and
// minute parts. Sub-second precision is truncated.
func FormatDuration(d time.Duration) string {
	total := int64(d / time.Second)
	if total < 0 {
		total = 0
	}
	hrs := total / 3600
	mins := (total % 3600) / 60
	secs := total % 60

	var parts []string
	if hrs > 0 {
		parts = append(parts, plural(hrs, "hr"))
	}
	if mins > 0 {
		parts = append(parts, plural(mins, "min"))
	}
	if secs > 0 || len(parts) == 0 {
		parts = append(parts, plural(secs, "sec"))
	}
	return strings.Join(parts, ", ")
}

func plural(n int64, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// TooltipText describes an element in a few lines.
func TooltipText(el models.Element) string {
	switch el.Kind {
	case models.KindRun:
		if r, ok := el.Record.(*pkgmodels.Run); ok {
			return fmt.Sprintf("Run: %s\nStatus: %s\nTime: %s", r.Name, r.Conclusion, FormatDuration(r.Duration()))
		}
	case models.KindAttempt:
		if a, ok := el.Record.(*pkgmodels.Attempt); ok {
			return fmt.Sprintf("Attempt #%d\nStatus: %s\nJobs: %d\nTime: %s", a.Number, a.Conclusion, len(a.Jobs), FormatDuration(a.Duration()))
		}
	case models.KindJob:
		if j, ok := el.Record.(*pkgmodels.Job); ok {
			return fmt.Sprintf("Job: %s\nStatus: %s\nSteps: %d\nTime: %s", j.Name, j.Conclusion, len(j.Steps), FormatDuration(j.Duration()))
		}
	case models.KindStep:
		if s, ok := el.Record.(*pkgmodels.Step); ok {
			return fmt.Sprintf("Step: %s\nStatus: %s\nTime: %s", s.Name, s.Conclusion, FormatDuration(s.Duration()))
		}
	case models.KindMicroprint:
		if el.Microprint != nil {
			segs := el.Microprint.Segments
			return fmt.Sprintf("Log Microprint\nSegments: %d\nErrors: %d", len(segs), microprint.ErrorCount(segs))
		}
	}
	return ""
}
