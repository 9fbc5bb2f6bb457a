// Package runsfile loads runs from a JSON export using GitHub REST field
// names. The export is either an array of runs or a list response object
// with a "workflow_runs" array; each run nests "run_attempts", each attempt
// "jobs", and each job "steps".
package runsfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ternarybob/runcanvas/internal/githublogs"
	"github.com/ternarybob/runcanvas/pkg/models"
)

// ErrNoRuns is returned when an export holds no runs.
var ErrNoRuns = errors.New("no runs in export")

// Load reads runs from the export at path.
func Load(path string) ([]*models.Run, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open runs file: %w", err)
	}
	defer f.Close()

	runs, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return runs, nil
}

// Decode reads runs from r, in export order.
func Decode(r io.Reader) ([]*models.Run, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read runs: %w", err)
	}

	var wire []wireRun
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var list struct {
			WorkflowRuns []wireRun `json:"workflow_runs"`
		}
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, fmt.Errorf("failed to parse runs: %w", err)
		}
		wire = list.WorkflowRuns
	} else if err := json.Unmarshal(trimmed, &wire); err != nil {
		return nil, fmt.Errorf("failed to parse runs: %w", err)
	}

	if len(wire) == 0 {
		return nil, ErrNoRuns
	}

	ids := make(idSet)
	runs := make([]*models.Run, 0, len(wire))
	for i, w := range wire {
		runs = append(runs, mapRun(ids, i, w))
	}
	return runs, nil
}

// idSet hands out record ids that are unique per kind across one export. A
// repeated id gets a "~n" suffix, n counting from 2.
type idSet map[string]int

func (s idSet) claim(kind, id string) string {
	key := kind + "/" + id
	s[key]++
	if s[key] == 1 {
		return id
	}
	for n := s[key]; ; n++ {
		candidate := fmt.Sprintf("%s~%d", id, n)
		if s[kind+"/"+candidate] == 0 {
			s[kind+"/"+candidate] = 1
			return candidate
		}
	}
}

func mapRun(ids idSet, index int, w wireRun) *models.Run {
	id := string(w.ID)
	if id == "" {
		id = fmt.Sprintf("run-%d", index+1)
	}
	id = ids.claim("run", id)
	run := &models.Run{
		ID:           id,
		Name:         w.Name,
		DisplayTitle: w.DisplayTitle,
		RunNumber:    w.RunNumber,
		Event:        w.Event,
		Branch:       w.HeadBranch,
		CommitSHA:    w.HeadSHA,
		Actor:        string(w.Actor),
		Status:       w.Status,
		Conclusion:   models.ParseStatus(w.Status, w.Conclusion),
		HTMLURL:      w.HTMLURL,
		CreatedAt:    w.CreatedAt.Time(),
		RunStartedAt: w.RunStartedAt.Time(),
	}

	for i, a := range w.Attempts {
		number := a.RunAttempt
		if number == 0 {
			number = i + 1
		}
		attempt := &models.Attempt{
			ID:           ids.claim("attempt", fmt.Sprintf("%s-%d", id, number)),
			Number:       number,
			Status:       a.Status,
			Conclusion:   models.ParseStatus(a.Status, a.Conclusion),
			RunStartedAt: a.RunStartedAt.Time(),
			UpdatedAt:    a.UpdatedAt.Time(),
		}
		for j, wj := range a.Jobs {
			if wj.Conclusion == "" {
				continue
			}
			jobID := string(wj.ID)
			if jobID == "" {
				jobID = fmt.Sprintf("%s-job-%d", attempt.ID, j+1)
			}
			attempt.Jobs = append(attempt.Jobs, mapJob(ids, ids.claim("job", jobID), wj))
		}
		run.Attempts = append(run.Attempts, attempt)
	}
	return run
}

func mapJob(ids idSet, id string, w wireJob) *models.Job {
	job := &models.Job{
		ID:          id,
		Name:        w.Name,
		Status:      w.Status,
		Conclusion:  models.ParseStatus(w.Status, w.Conclusion),
		RunnerName:  w.RunnerName,
		Labels:      w.Labels,
		HTMLURL:     w.HTMLURL,
		StartedAt:   w.StartedAt.Time(),
		CompletedAt: w.CompletedAt.Time(),
	}

	windows := make([]githublogs.StepWindow, 0, len(w.Steps))
	for i, ws := range w.Steps {
		number := ws.Number
		if number == 0 {
			number = i + 1
		}
		step := &models.Step{
			ID:          ids.claim("step", fmt.Sprintf("%s-%d", id, number)),
			Number:      number,
			Name:        ws.Name,
			Status:      ws.Status,
			Conclusion:  models.ParseStatus(ws.Status, ws.Conclusion),
			StartedAt:   ws.StartedAt.Time(),
			CompletedAt: ws.CompletedAt.Time(),
			Log:         ws.Log,
		}
		job.Steps = append(job.Steps, step)
		windows = append(windows, githublogs.StepWindow{
			Number:      number,
			StartedAt:   step.StartedAt,
			CompletedAt: step.CompletedAt,
		})
	}

	// A job-level log fills in steps the export left without log text.
	if w.Log != "" {
		perStep := githublogs.SplitByStep(w.Log, windows)
		for _, s := range job.Steps {
			if s.Log == "" {
				s.Log = perStep[s.Number]
			}
		}
	}
	return job
}
