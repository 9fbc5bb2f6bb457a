// Package microprint turns step logs into the dense cell grid drawn by the
// microprint layer: line segmentation, error classification, grid planning
// and the cell geometry shared by drawing and hit testing.
package microprint

import (
	"strings"

	"github.com/ternarybob/runcanvas/internal/models"
)

// errorPatterns are matched case-insensitively anywhere in a line.
var errorPatterns = []string{
	"ERROR",
	"FATAL",
	"EXCEPTION",
	"FAILED",
	"FAIL:",
	"Exception:",
	"at java.",
	"at com.",
	"Caused by:",
}

var upperPatterns = func() []string {
	out := make([]string, len(errorPatterns))
	for i, p := range errorPatterns {
		out[i] = strings.ToUpper(p)
	}
	return out
}()

// ParseSegments splits log into one segment per line, in order. No line is
// dropped: an empty log yields a single empty segment.
func ParseSegments(log string) []models.LogSegment {
	lines := strings.Split(log, "\n")
	segments := make([]models.LogSegment, len(lines))
	for i, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		segments[i] = models.LogSegment{
			Text:    line,
			IsError: IsErrorLine(line),
		}
	}
	return segments
}

// IsErrorLine reports whether line contains any error pattern.
func IsErrorLine(line string) bool {
	upper := strings.ToUpper(line)
	for _, p := range upperPatterns {
		if strings.Contains(upper, p) {
			return true
		}
	}
	return false
}

// ErrorCount counts error segments.
func ErrorCount(segments []models.LogSegment) int {
	n := 0
	for _, s := range segments {
		if s.IsError {
			n++
		}
	}
	return n
}
