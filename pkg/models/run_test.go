package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStatus(t *testing.T) {
	tests := []struct {
		status     string
		conclusion string
		want       Status
	}{
		{"completed", "success", StatusSuccess},
		{"completed", "failure", StatusFailure},
		{"completed", "cancelled", StatusCancelled},
		{"completed", "skipped", StatusUnknown},
		{"completed", "", StatusUnknown},
		{"in_progress", "", StatusInProgress},
		{"queued", "", StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.status+"/"+tt.conclusion, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseStatus(tt.status, tt.conclusion))
		})
	}
}

func TestDurations(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	step := &Step{StartedAt: start, CompletedAt: start.Add(42 * time.Second)}
	assert.Equal(t, 42*time.Second, step.Duration())

	unfinished := &Step{StartedAt: start}
	assert.Zero(t, unfinished.Duration())

	backwards := &Job{StartedAt: start, CompletedAt: start.Add(-time.Second)}
	assert.Zero(t, backwards.Duration())

	run := &Run{Attempts: []*Attempt{
		{RunStartedAt: start, UpdatedAt: start.Add(time.Minute)},
		{RunStartedAt: start, UpdatedAt: start.Add(2 * time.Minute)},
	}}
	assert.Equal(t, 3*time.Minute, run.Duration())
}

func TestRunStartedAtFallsBackToCreated(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, created, (&Run{CreatedAt: created}).StartedAt())

	started := created.Add(time.Minute)
	assert.Equal(t, started, (&Run{CreatedAt: created, RunStartedAt: started}).StartedAt())
}

func TestComputeStats(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	run := func(id, actor string, conclusion Status, d time.Duration) *Run {
		return &Run{ID: id, Name: "ci", Actor: actor, Conclusion: conclusion, Attempts: []*Attempt{
			{RunStartedAt: start, UpdatedAt: start.Add(d)},
		}}
	}

	stats := ComputeStats([]*Run{
		run("1", "alice", StatusSuccess, time.Minute),
		run("2", "bob", StatusFailure, 3*time.Minute),
		run("3", "alice", StatusFailure, 5*time.Minute),
		run("4", "alice", StatusInProgress, 3*time.Minute),
	})

	assert.Equal(t, 4, stats.TotalRuns)
	assert.Equal(t, 1, stats.Successes)
	assert.Equal(t, 2, stats.Failures)
	assert.Equal(t, 1, stats.InProgress)
	assert.Equal(t, 25.0, stats.SuccessRate)
	assert.Equal(t, 3*time.Minute, stats.AverageDuration)
	assert.Equal(t, 8*time.Minute, stats.TimeLost)
	if assert.NotNil(t, stats.WorstFailure) {
		assert.Equal(t, "3", stats.WorstFailure.ID)
	}
	assert.Equal(t, []ActorCount{{Login: "alice", Runs: 3}, {Login: "bob", Runs: 1}}, stats.Actors)
}

func TestComputeStats_Empty(t *testing.T) {
	stats := ComputeStats(nil)
	assert.Zero(t, stats.TotalRuns)
	assert.Zero(t, stats.SuccessRate)
	assert.Nil(t, stats.WorstFailure)
}
