package models

import (
	"sort"
	"time"
)

// WorkflowStats summarises a run list for the statistics panel.
type WorkflowStats struct {
	TotalRuns       int           `json:"total_runs"`
	Successes       int           `json:"successes"`
	Failures        int           `json:"failures"`
	InProgress      int           `json:"in_progress"`
	SuccessRate     float64       `json:"success_rate"`
	AverageDuration time.Duration `json:"average_duration"`
	TimeLost        time.Duration `json:"time_lost"`
	WorstFailure    *RunSummary   `json:"worst_failure,omitempty"`
	Actors          []ActorCount  `json:"actors,omitempty"`
}

// RunSummary identifies a run in a report.
type RunSummary struct {
	ID       string        `json:"id"`
	Name     string        `json:"name"`
	Duration time.Duration `json:"duration"`
}

// ActorCount is how many runs an actor triggered.
type ActorCount struct {
	Login string `json:"login"`
	Runs  int    `json:"runs"`
}

// ComputeStats aggregates runs. Time lost is the total duration of failed
// runs; the worst failure is the longest of them.
func ComputeStats(runs []*Run) WorkflowStats {
	stats := WorkflowStats{TotalRuns: len(runs)}
	if len(runs) == 0 {
		return stats
	}

	var total time.Duration
	actors := make(map[string]int)
	for _, r := range runs {
		d := r.Duration()
		total += d
		if r.Actor != "" {
			actors[r.Actor]++
		}
		switch r.Conclusion {
		case StatusSuccess:
			stats.Successes++
		case StatusFailure:
			stats.Failures++
			stats.TimeLost += d
			if stats.WorstFailure == nil || d > stats.WorstFailure.Duration {
				stats.WorstFailure = &RunSummary{ID: r.ID, Name: r.Name, Duration: d}
			}
		case StatusInProgress:
			stats.InProgress++
		}
	}

	stats.SuccessRate = float64(stats.Successes) / float64(len(runs)) * 100
	stats.AverageDuration = total / time.Duration(len(runs))

	for login, n := range actors {
		stats.Actors = append(stats.Actors, ActorCount{Login: login, Runs: n})
	}
	sort.Slice(stats.Actors, func(i, j int) bool {
		if stats.Actors[i].Runs != stats.Actors[j].Runs {
			return stats.Actors[i].Runs > stats.Actors[j].Runs
		}
		return stats.Actors[i].Login < stats.Actors[j].Login
	})
	return stats
}
