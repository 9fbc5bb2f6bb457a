package githublogs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"

	"github.com/ternarybob/runcanvas/internal/microprint"
)

// ErrInvalidLogURL is returned by ParseLogURL for anything that is not a job URL.
var ErrInvalidLogURL = errors.New("invalid job log URL")

// maxLogBytes caps how much of a single job log is read.
const maxLogBytes = 32 << 20

var timestampRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?Z\s?`)

// ParseLogURL extracts owner, repo, and jobID from a GitHub Action URL.
// Expected format: https://github.com/owner/repo/actions/runs/runID/job/jobID
func ParseLogURL(rawURL string) (owner, repo string, jobID int64, err error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: %v", ErrInvalidLogURL, err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 7 || parts[2] != "actions" || parts[3] != "runs" || parts[5] != "job" {
		return "", "", 0, fmt.Errorf("%w: expected .../actions/runs/<runID>/job/<jobID>", ErrInvalidLogURL)
	}

	jobID, err = strconv.ParseInt(parts[6], 10, 64)
	if err != nil {
		return "", "", 0, fmt.Errorf("%w: job ID %q", ErrInvalidLogURL, parts[6])
	}
	return parts[0], parts[1], jobID, nil
}

// GetJobLog fetches the raw log of a job. The API answers with a redirect to
// signed blob storage, which is then downloaded with the client's transport.
func GetJobLog(ctx context.Context, client *github.Client, owner, repo string, jobID int64) (string, error) {
	logURL, _, err := client.Actions.GetWorkflowJobLogs(ctx, owner, repo, jobID, 10)
	if err != nil {
		return "", fmt.Errorf("failed to get job logs URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, logURL.String(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to build log request: %w", err)
	}
	resp, err := client.Client().Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch raw logs for job %d: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch logs for job %d, status: %d", jobID, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxLogBytes))
	if err != nil {
		return "", fmt.Errorf("error reading log response: %w", err)
	}
	return string(body), nil
}

// StripTimestamps removes the RFC3339 prefix GitHub puts on every log line.
func StripTimestamps(rawLog string) string {
	lines := strings.Split(rawLog, "\n")
	for i, line := range lines {
		lines[i] = timestampRegex.ReplaceAllString(strings.TrimRight(line, "\r"), "")
	}
	return strings.Join(lines, "\n")
}

// lineTime parses the timestamp prefix of a log line.
func lineTime(line string) (time.Time, bool) {
	m := timestampRegex.FindString(line)
	if m == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(m))
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// StepWindow is the time span a step ran in.
type StepWindow struct {
	Number      int
	StartedAt   time.Time
	CompletedAt time.Time
}

// SplitByStep assigns each line of a job log to the step whose window
// contains its timestamp and returns the stripped text per step number.
// Lines without a timestamp follow the previous line. Step windows are
// compared at second precision, as the API reports them.
func SplitByStep(rawLog string, steps []StepWindow) map[int]string {
	out := make(map[int]string, len(steps))
	if len(steps) == 0 || rawLog == "" {
		return out
	}

	parts := make(map[int][]string, len(steps))
	current := -1
	for _, line := range strings.Split(strings.TrimRight(rawLog, "\n"), "\n") {
		line = strings.TrimRight(line, "\r")
		if ts, ok := lineTime(line); ok {
			current = stepAt(steps, ts.Truncate(time.Second))
		}
		if current < 0 {
			continue
		}
		parts[current] = append(parts[current], timestampRegex.ReplaceAllString(line, ""))
	}

	for number, lines := range parts {
		out[number] = strings.Join(lines, "\n")
	}
	return out
}

// stepAt returns the number of the last step whose window contains ts.
// Steps share boundary seconds, so the later step wins.
func stepAt(steps []StepWindow, ts time.Time) int {
	found := -1
	for _, s := range steps {
		if s.StartedAt.IsZero() {
			continue
		}
		end := s.CompletedAt
		if end.IsZero() {
			end = ts
		}
		if !ts.Before(s.StartedAt) && !ts.After(end) {
			found = s.Number
		}
	}
	return found
}

// Excerpt keeps the lines around errors plus the tail of a log, marking gaps
// with "...". Error lines are classified like the microprint grid's.
func Excerpt(log string, around, tail int) string {
	lines := strings.Split(log, "\n")
	keep := make(map[int]bool)
	total := len(lines)

	for i, line := range lines {
		if microprint.IsErrorLine(line) {
			for k := max(0, i-around); k <= min(total-1, i+around); k++ {
				keep[k] = true
			}
		}
	}
	for i := max(0, total-tail); i < total; i++ {
		keep[i] = true
	}

	var out []string
	last := -1
	for i := 0; i < total; i++ {
		if !keep[i] {
			continue
		}
		if last != -1 && i > last+1 {
			out = append(out, "...")
		}
		out = append(out, lines[i])
		last = i
	}
	return strings.Join(out, "\n")
}
