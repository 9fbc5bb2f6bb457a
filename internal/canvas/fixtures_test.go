package canvas

import (
	"fmt"
	"time"

	pkgmodels "github.com/ternarybob/runcanvas/pkg/models"
)

var epoch = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newStep(id string, conclusion pkgmodels.Status, d time.Duration, log string) *pkgmodels.Step {
	return &pkgmodels.Step{
		ID:          id,
		Name:        "step " + id,
		Conclusion:  conclusion,
		StartedAt:   epoch,
		CompletedAt: epoch.Add(d),
		Log:         log,
	}
}

func newJob(id string, conclusion pkgmodels.Status, d time.Duration, steps ...*pkgmodels.Step) *pkgmodels.Job {
	return &pkgmodels.Job{
		ID:          id,
		Name:        "job " + id,
		Conclusion:  conclusion,
		StartedAt:   epoch,
		CompletedAt: epoch.Add(d),
		Steps:       steps,
	}
}

func newAttempt(id string, conclusion pkgmodels.Status, d time.Duration, jobs ...*pkgmodels.Job) *pkgmodels.Attempt {
	return &pkgmodels.Attempt{
		ID:           id,
		Number:       1,
		Conclusion:   conclusion,
		RunStartedAt: epoch,
		UpdatedAt:    epoch.Add(d),
		Jobs:         jobs,
	}
}

func newRun(id string, conclusion pkgmodels.Status, attempts ...*pkgmodels.Attempt) *pkgmodels.Run {
	return &pkgmodels.Run{ID: id, Name: "run " + id, Conclusion: conclusion, Attempts: attempts}
}

// runOf builds a run with a single attempt lasting d.
func runOf(id string, d time.Duration) *pkgmodels.Run {
	return newRun(id, pkgmodels.StatusSuccess, newAttempt(id+"-a1", pkgmodels.StatusSuccess, d))
}

// sampleRuns is a failed run whose second job has a failed step with a log,
// followed by a healthy run.
func sampleRuns() []*pkgmodels.Run {
	var log string
	for i := 0; i < 40; i++ {
		log += fmt.Sprintf("line %d\n", i)
	}
	log += "ERROR: build failed"

	failing := newRun("100", pkgmodels.StatusFailure,
		newAttempt("100-1", pkgmodels.StatusFailure, 5*time.Minute,
			newJob("j1", pkgmodels.StatusSuccess, time.Minute,
				newStep("j1-1", pkgmodels.StatusSuccess, 10*time.Second, "ok"),
			),
			newJob("j2", pkgmodels.StatusFailure, 3*time.Minute,
				newStep("j2-1", pkgmodels.StatusSuccess, 20*time.Second, "setup"),
				newStep("j2-2", pkgmodels.StatusFailure, 90*time.Second, log),
				newStep("j2-3", pkgmodels.StatusFailure, 5*time.Second, ""),
			),
		),
	)
	healthy := newRun("101", pkgmodels.StatusSuccess,
		newAttempt("101-1", pkgmodels.StatusSuccess, 2*time.Minute,
			newJob("j3", pkgmodels.StatusSuccess, time.Minute),
		),
	)
	return []*pkgmodels.Run{failing, healthy}
}
