package models

import (
	"strings"
	"time"
)

// Status is the normalised outcome of a run, attempt, job or step.
type Status string

const (
	StatusSuccess    Status = "success"
	StatusFailure    Status = "failure"
	StatusCancelled  Status = "cancelled"
	StatusUnknown    Status = "unknown"
	StatusInProgress Status = "in_progress"
)

// ParseStatus maps GitHub's status/conclusion pair onto a Status.
// A record that has not concluded yet is in progress; any conclusion
// other than success, failure or cancelled is unknown.
func ParseStatus(status, conclusion string) Status {
	switch strings.ToLower(strings.TrimSpace(conclusion)) {
	case "success":
		return StatusSuccess
	case "failure":
		return StatusFailure
	case "cancelled":
		return StatusCancelled
	case "":
		switch strings.ToLower(strings.TrimSpace(status)) {
		case "in_progress", "queued", "waiting", "pending", "requested":
			return StatusInProgress
		}
	}
	return StatusUnknown
}

// Record is the read-only view every level of the hierarchy exposes.
type Record interface {
	RecordID() string
	Outcome() Status
	Duration() time.Duration
}

// Run is a single execution of a workflow, with its retry attempts.
type Run struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	DisplayTitle string     `json:"display_title,omitempty"`
	RunNumber    int        `json:"run_number,omitempty"`
	Event        string     `json:"event,omitempty"`
	Branch       string     `json:"head_branch,omitempty"`
	CommitSHA    string     `json:"head_sha,omitempty"`
	Actor        string     `json:"actor,omitempty"`
	Status       string     `json:"status"`
	Conclusion   Status     `json:"conclusion"`
	HTMLURL      string     `json:"html_url,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	RunStartedAt time.Time  `json:"run_started_at"`
	Attempts     []*Attempt `json:"run_attempts"`
}

func (r *Run) RecordID() string { return r.ID }
func (r *Run) Outcome() Status  { return r.Conclusion }

// Duration is the sum of all attempt durations.
func (r *Run) Duration() time.Duration {
	var total time.Duration
	for _, a := range r.Attempts {
		total += a.Duration()
	}
	return total
}

// StartedAt returns the run start, falling back to its creation time.
func (r *Run) StartedAt() time.Time {
	if !r.RunStartedAt.IsZero() {
		return r.RunStartedAt
	}
	return r.CreatedAt
}

// Attempt is one try of a run; re-runs add attempts.
type Attempt struct {
	ID           string    `json:"id"`
	Number       int       `json:"run_attempt"`
	Status       string    `json:"status"`
	Conclusion   Status    `json:"conclusion"`
	RunStartedAt time.Time `json:"run_started_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Jobs         []*Job    `json:"jobs"`
}

func (a *Attempt) RecordID() string { return a.ID }
func (a *Attempt) Outcome() Status  { return a.Conclusion }

func (a *Attempt) Duration() time.Duration {
	return span(a.RunStartedAt, a.UpdatedAt)
}

// Job is a unit of work executed on one runner.
type Job struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Conclusion  Status    `json:"conclusion"`
	RunnerName  string    `json:"runner_name,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	HTMLURL     string    `json:"html_url,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Steps       []*Step   `json:"steps"`
}

func (j *Job) RecordID() string { return j.ID }
func (j *Job) Outcome() Status  { return j.Conclusion }

func (j *Job) Duration() time.Duration {
	return span(j.StartedAt, j.CompletedAt)
}

// Step is a single step of a job. Log holds the step's raw log text
// when the source could provide it.
type Step struct {
	ID          string    `json:"id"`
	Number      int       `json:"number"`
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	Conclusion  Status    `json:"conclusion"`
	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
	Log         string    `json:"log_content,omitempty"`
}

func (s *Step) RecordID() string { return s.ID }
func (s *Step) Outcome() Status  { return s.Conclusion }

func (s *Step) Duration() time.Duration {
	return span(s.StartedAt, s.CompletedAt)
}

// HasLog reports whether the step carries any log text.
func (s *Step) HasLog() bool {
	return s.Log != ""
}

// span is zero unless both timestamps are set and ordered.
func span(start, end time.Time) time.Duration {
	if start.IsZero() || end.IsZero() || end.Before(start) {
		return 0
	}
	return end.Sub(start)
}
