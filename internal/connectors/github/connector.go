package github

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v59/github"
	"github.com/ternarybob/arbor"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/ternarybob/runcanvas/internal/githublogs"
	"github.com/ternarybob/runcanvas/internal/interfaces"
	"github.com/ternarybob/runcanvas/internal/worker"
	"github.com/ternarybob/runcanvas/pkg/models"
)

// Config selects the repository and the runs to load.
type Config struct {
	Token           string
	Owner           string
	Repo            string
	Branch          string
	Status          string
	Workflow        string // workflow file name, e.g. "ci.yml"; empty lists every workflow
	RunLimit        int
	FetchLogs       bool
	RequestInterval time.Duration
	MaxConcurrency  int
	BaseURL         string // API root override, used for GitHub Enterprise and tests
}

// Connector implements interfaces.GitHubConnector
type Connector struct {
	client  *github.Client
	cfg     Config
	limiter *rate.Limiter
	pool    *worker.WorkerPool
	logger  arbor.ILogger
}

// NewConnector creates a new GitHub connector
func NewConnector(cfg Config, logger arbor.ILogger) (*Connector, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("github token is required")
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("github owner and repo are required")
	}
	if cfg.RunLimit <= 0 {
		cfg.RunLimit = 20
	}

	ctx := context.Background()
	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: cfg.Token},
	)
	tc := oauth2.NewClient(ctx, ts)
	client := github.NewClient(tc)

	if cfg.BaseURL != "" {
		base, err := url.Parse(strings.TrimSuffix(cfg.BaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid github base URL: %w", err)
		}
		client.BaseURL = base
	}

	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}

	return &Connector{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		pool:    worker.NewWorkerPool(logger, cfg.MaxConcurrency),
		logger:  logger,
	}, nil
}

// Name returns the source name
func (c *Connector) Name() string {
	return "github:" + c.cfg.Owner + "/" + c.cfg.Repo
}

// TestConnection verifies the token works by getting the authenticated user
func (c *Connector) TestConnection(ctx context.Context) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, _, err := c.client.Users.Get(ctx, "")
	if err != nil {
		return fmt.Errorf("github connection test failed: %w", err)
	}
	return nil
}

// ListWorkflows returns the workflows defined in the repository
func (c *Connector) ListWorkflows(ctx context.Context) ([]models.Workflow, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	workflows, _, err := c.client.Actions.ListWorkflows(ctx, c.cfg.Owner, c.cfg.Repo, &github.ListOptions{PerPage: 100})
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	result := make([]models.Workflow, 0, len(workflows.Workflows))
	for _, w := range workflows.Workflows {
		result = append(result, models.Workflow{
			ID:    w.GetID(),
			Name:  w.GetName(),
			Path:  w.GetPath(),
			State: w.GetState(),
		})
	}
	return result, nil
}

// ListRuns returns recent workflow runs, newest first, with every attempt,
// job and step populated. Logs are fetched for failed jobs when enabled.
func (c *Connector) ListRuns(ctx context.Context) ([]*models.Run, error) {
	listed, err := c.listWorkflowRuns(ctx)
	if err != nil {
		return nil, err
	}

	runs := make([]*models.Run, len(listed))
	err = c.pool.Run(ctx, len(listed), func(ctx context.Context, i int) error {
		run, err := c.hydrateRun(ctx, listed[i])
		if err != nil {
			return fmt.Errorf("run %d: %w", listed[i].GetID(), err)
		}
		runs[i] = run
		return nil
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Str("source", c.Name()).
		Int("runs", len(runs)).
		Msg("Workflow runs loaded")
	return runs, nil
}

// GetJobLog fetches a job log with timestamps removed
func (c *Connector) GetJobLog(ctx context.Context, owner, repo string, jobID int64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	rawLog, err := githublogs.GetJobLog(ctx, c.client, owner, repo, jobID)
	if err != nil {
		return "", err
	}
	return githublogs.StripTimestamps(rawLog), nil
}

func (c *Connector) listWorkflowRuns(ctx context.Context) ([]*github.WorkflowRun, error) {
	opts := &github.ListWorkflowRunsOptions{
		ListOptions: github.ListOptions{PerPage: min(c.cfg.RunLimit, 100)},
	}
	if c.cfg.Status != "" {
		opts.Status = c.cfg.Status
	}
	if c.cfg.Branch != "" {
		opts.Branch = c.cfg.Branch
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var (
		runs *github.WorkflowRuns
		err  error
	)
	if c.cfg.Workflow != "" {
		runs, _, err = c.client.Actions.ListWorkflowRunsByFileName(ctx, c.cfg.Owner, c.cfg.Repo, c.cfg.Workflow, opts)
	} else {
		runs, _, err = c.client.Actions.ListRepositoryWorkflowRuns(ctx, c.cfg.Owner, c.cfg.Repo, opts)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list workflow runs: %w", err)
	}

	result := runs.WorkflowRuns
	if len(result) > c.cfg.RunLimit {
		result = result[:c.cfg.RunLimit]
	}
	return result, nil
}

func (c *Connector) hydrateRun(ctx context.Context, r *github.WorkflowRun) (*models.Run, error) {
	run := &models.Run{
		ID:           fmt.Sprint(r.GetID()),
		Name:         r.GetName(),
		DisplayTitle: r.GetDisplayTitle(),
		RunNumber:    r.GetRunNumber(),
		Event:        r.GetEvent(),
		Branch:       r.GetHeadBranch(),
		CommitSHA:    r.GetHeadSHA(),
		Actor:        r.GetActor().GetLogin(),
		Status:       r.GetStatus(),
		Conclusion:   models.ParseStatus(r.GetStatus(), r.GetConclusion()),
		HTMLURL:      r.GetHTMLURL(),
		CreatedAt:    r.GetCreatedAt().Time,
		RunStartedAt: r.GetRunStartedAt().Time,
	}

	latest := max(r.GetRunAttempt(), 1)
	for n := 1; n <= latest; n++ {
		attemptRun := r
		if n != latest {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
			var err error
			attemptRun, _, err = c.client.Actions.GetWorkflowRunAttempt(ctx, c.cfg.Owner, c.cfg.Repo, r.GetID(), n, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to get attempt %d: %w", n, err)
			}
		}

		attempt := &models.Attempt{
			ID:           fmt.Sprintf("%d-%d", r.GetID(), n),
			Number:       n,
			Status:       attemptRun.GetStatus(),
			Conclusion:   models.ParseStatus(attemptRun.GetStatus(), attemptRun.GetConclusion()),
			RunStartedAt: attemptRun.GetRunStartedAt().Time,
			UpdatedAt:    attemptRun.GetUpdatedAt().Time,
		}

		jobs, err := c.listJobs(ctx, r.GetID(), n)
		if err != nil {
			return nil, err
		}
		attempt.Jobs = jobs
		run.Attempts = append(run.Attempts, attempt)
	}

	return run, nil
}

// listJobs pages through every job of an attempt; large matrices span
// several pages.
func (c *Connector) listJobs(ctx context.Context, runID int64, attempt int) ([]*models.Job, error) {
	var jobs []*models.Job
	opts := &github.ListOptions{PerPage: 100}
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		listed, resp, err := c.client.Actions.ListWorkflowJobsAttempt(ctx, c.cfg.Owner, c.cfg.Repo, runID, int64(attempt), opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list jobs for attempt %d: %w", attempt, err)
		}

		for _, j := range listed.Jobs {
			// Jobs that never concluded (skipped matrix legs, queued jobs) are not drawn.
			if j.GetConclusion() == "" {
				continue
			}
			job := mapJob(j)
			if c.cfg.FetchLogs && job.Conclusion == models.StatusFailure {
				c.attachLogs(ctx, j, job)
			}
			jobs = append(jobs, job)
		}

		if resp == nil || resp.NextPage == 0 {
			return jobs, nil
		}
		opts.Page = resp.NextPage
	}
}

func mapJob(j *github.WorkflowJob) *models.Job {
	job := &models.Job{
		ID:          fmt.Sprint(j.GetID()),
		Name:        j.GetName(),
		Status:      j.GetStatus(),
		Conclusion:  models.ParseStatus(j.GetStatus(), j.GetConclusion()),
		RunnerName:  j.GetRunnerName(),
		Labels:      j.Labels,
		HTMLURL:     j.GetHTMLURL(),
		StartedAt:   j.GetStartedAt().Time,
		CompletedAt: j.GetCompletedAt().Time,
	}
	for _, s := range j.Steps {
		job.Steps = append(job.Steps, &models.Step{
			ID:          fmt.Sprintf("%d-%d", j.GetID(), s.GetNumber()),
			Number:      int(s.GetNumber()),
			Name:        s.GetName(),
			Status:      s.GetStatus(),
			Conclusion:  models.ParseStatus(s.GetStatus(), s.GetConclusion()),
			StartedAt:   s.GetStartedAt().Time,
			CompletedAt: s.GetCompletedAt().Time,
		})
	}
	return job
}

// attachLogs downloads the job log and splits it across the job's steps.
// A failed download leaves the steps without logs.
func (c *Connector) attachLogs(ctx context.Context, j *github.WorkflowJob, job *models.Job) {
	if err := c.limiter.Wait(ctx); err != nil {
		return
	}
	rawLog, err := githublogs.GetJobLog(ctx, c.client, c.cfg.Owner, c.cfg.Repo, j.GetID())
	if err != nil {
		c.logger.Warn().
			Err(err).
			Str("job_id", job.ID).
			Str("job", job.Name).
			Msg("Failed to fetch job log")
		return
	}

	windows := make([]githublogs.StepWindow, 0, len(job.Steps))
	for _, s := range job.Steps {
		windows = append(windows, githublogs.StepWindow{
			Number:      s.Number,
			StartedAt:   s.StartedAt,
			CompletedAt: s.CompletedAt,
		})
	}
	perStep := githublogs.SplitByStep(rawLog, windows)
	for _, s := range job.Steps {
		s.Log = perStep[s.Number]
	}
}

// Ensure interface compliance
var _ interfaces.GitHubConnector = (*Connector)(nil)
