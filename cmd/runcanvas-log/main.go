package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/google/go-github/v59/github"
	"golang.org/x/oauth2"

	"github.com/ternarybob/runcanvas/internal/githublogs"
)

// runcanvas-log prints the log of a single job, the same text the canvas log
// panel shows for it.
func main() {
	urlFlag := flag.String("url", "", "GitHub Actions job URL (e.g., https://github.com/owner/repo/actions/runs/runID/job/jobID)")
	raw := flag.Bool("raw", false, "Keep the timestamp prefix on every line")
	full := flag.Bool("full", false, "Print the whole log instead of an excerpt around failures")
	contextLines := flag.Int("context", 10, "Lines kept around each error line in an excerpt")
	tailLines := flag.Int("tail", 50, "Lines kept from the end of the log in an excerpt")
	timeout := flag.Duration("timeout", time.Minute, "Request timeout")
	flag.Parse()

	if *urlFlag == "" {
		fmt.Fprintln(os.Stderr, "Error: -url flag is required")
		flag.Usage()
		os.Exit(1)
	}

	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		fmt.Fprintln(os.Stderr, "Error: GITHUB_TOKEN environment variable is required")
		os.Exit(1)
	}

	owner, repo, jobID, err := githublogs.ParseLogURL(*urlFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing URL: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	client := github.NewClient(oauth2.NewClient(ctx, ts))

	log, err := githublogs.GetJobLog(ctx, client, owner, repo, jobID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error fetching logs: %v\n", err)
		os.Exit(1)
	}

	if !*raw {
		log = githublogs.StripTimestamps(log)
	}
	if !*full {
		log = githublogs.Excerpt(log, *contextLines, *tailLines)
	}

	fmt.Fprintf(os.Stderr, "%s/%s job %d: %d bytes\n", owner, repo, jobID, len(log))
	fmt.Println(log)
}
