package githublogs

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/runcanvas/internal/microprint"
)

func TestParseLogURL(t *testing.T) {
	tests := []struct {
		name      string
		url       string
		wantOwner string
		wantRepo  string
		wantJobID int64
		wantErr   bool
	}{
		{
			name:      "Valid URL",
			url:       "https://github.com/ternarybob/runcanvas/actions/runs/19523113218/job/55890316589",
			wantOwner: "ternarybob",
			wantRepo:  "runcanvas",
			wantJobID: 55890316589,
		},
		{
			name:    "Invalid URL format",
			url:     "https://github.com/ternarybob/runcanvas/issues/1",
			wantErr: true,
		},
		{
			name:    "Invalid Job ID",
			url:     "https://github.com/ternarybob/runcanvas/actions/runs/123/job/abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owner, repo, jobID, err := ParseLogURL(tt.url)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidLogURL)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOwner, owner)
			assert.Equal(t, tt.wantRepo, repo)
			assert.Equal(t, tt.wantJobID, jobID)
		})
	}
}

func TestStripTimestamps(t *testing.T) {
	raw := "2023-10-27T10:00:00.1234567Z Step 1\r\n2023-10-27T10:00:01Z Step 2\nno stamp"
	assert.Equal(t, "Step 1\nStep 2\nno stamp", StripTimestamps(raw))
}

func TestSplitByStep(t *testing.T) {
	base := time.Date(2023, 10, 27, 10, 0, 0, 0, time.UTC)
	steps := []StepWindow{
		{Number: 1, StartedAt: base, CompletedAt: base.Add(2 * time.Second)},
		{Number: 2, StartedAt: base.Add(2 * time.Second), CompletedAt: base.Add(5 * time.Second)},
		{Number: 3, StartedAt: base.Add(9 * time.Second)},
	}
	raw := `2023-10-27T10:00:00.5000000Z Set up job
2023-10-27T10:00:01.9000000Z Runner ready
2023-10-27T10:00:02.4000000Z Run go test ./...
continuation without timestamp
2023-10-27T10:00:04.1000000Z ERROR: TestFoo failed
2023-10-27T10:00:07.0000000Z orphan between steps
2023-10-27T10:00:09.2000000Z Post job cleanup
`

	got := SplitByStep(raw, steps)

	assert.Equal(t, "Set up job\nRunner ready", got[1])
	assert.Equal(t, "Run go test ./...\ncontinuation without timestamp\nERROR: TestFoo failed", got[2])
	assert.Equal(t, "Post job cleanup", got[3])
	assert.NotContains(t, strings.Join([]string{got[1], got[2], got[3]}, "\n"), "orphan")
}

func TestSplitByStep_Empty(t *testing.T) {
	assert.Empty(t, SplitByStep("", []StepWindow{{Number: 1}}))
	assert.Empty(t, SplitByStep("2023-10-27T10:00:00Z x", nil))
}

func TestExcerpt(t *testing.T) {
	rawLog := `Step 1: Setting up
Step 2: Installing dependencies
Step 3: Running tests
Error: Test failed
Stack trace line 1
Stack trace line 2
Step 4: Cleanup
` + strings.Repeat("Normal log line\n", 100) + `
Final summary line 1
Final summary line 2`

	excerpt := Excerpt(rawLog, 10, 50)

	assert.Contains(t, excerpt, "Error: Test failed")
	assert.Contains(t, excerpt, "Stack trace line 1")
	assert.Contains(t, excerpt, "Step 2: Installing dependencies")
	assert.Contains(t, excerpt, "Final summary line 2")
	assert.Contains(t, excerpt, "...", "middle lines are skipped")
}

func TestExcerpt_MatchesMicroprintClassification(t *testing.T) {
	lines := []string{
		"Run go test ./...",
		"java.lang.IllegalStateException: boom",
		"panic occurred in helper",
		"--- FAIL: TestParse (0.00s)",
		"ok  \tgithub.com/example/pkg",
	}

	excerpt := Excerpt(strings.Join(lines, "\n"), 0, 0)

	for _, line := range lines {
		if microprint.IsErrorLine(line) {
			assert.Contains(t, excerpt, line)
		} else {
			assert.NotContains(t, excerpt, line)
		}
	}
	assert.Equal(t, "java.lang.IllegalStateException: boom\n...\n--- FAIL: TestParse (0.00s)", excerpt)
}
