package runsfile

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// flexID accepts JSON numbers and strings, since exports differ on the
// type of "id".
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*f = flexID(n.String())
	return nil
}

// actor accepts either a GitHub user object or a bare login.
type actor string

func (a *actor) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = actor(s)
		return nil
	}
	var u struct {
		Login string `json:"login"`
	}
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}
	*a = actor(u.Login)
	return nil
}

// timestamp treats null and "" as the zero time.
type timestamp time.Time

func (t *timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		*t = timestamp(time.Time{})
		return nil
	}
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	*t = timestamp(parsed)
	return nil
}

func (t timestamp) Time() time.Time { return time.Time(t) }

type wireRun struct {
	ID           flexID        `json:"id"`
	Name         string        `json:"name"`
	DisplayTitle string        `json:"display_title"`
	RunNumber    int           `json:"run_number"`
	Event        string        `json:"event"`
	HeadBranch   string        `json:"head_branch"`
	HeadSHA      string        `json:"head_sha"`
	Actor        actor         `json:"actor"`
	Status       string        `json:"status"`
	Conclusion   string        `json:"conclusion"`
	HTMLURL      string        `json:"html_url"`
	CreatedAt    timestamp     `json:"created_at"`
	RunStartedAt timestamp     `json:"run_started_at"`
	Attempts     []wireAttempt `json:"run_attempts"`
}

type wireAttempt struct {
	RunAttempt   int       `json:"run_attempt"`
	Status       string    `json:"status"`
	Conclusion   string    `json:"conclusion"`
	RunStartedAt timestamp `json:"run_started_at"`
	UpdatedAt    timestamp `json:"updated_at"`
	Jobs         []wireJob `json:"jobs"`
}

type wireJob struct {
	ID          flexID     `json:"id"`
	Name        string     `json:"name"`
	Status      string     `json:"status"`
	Conclusion  string     `json:"conclusion"`
	RunnerName  string     `json:"runner_name"`
	Labels      []string   `json:"labels"`
	HTMLURL     string     `json:"html_url"`
	StartedAt   timestamp  `json:"started_at"`
	CompletedAt timestamp  `json:"completed_at"`
	Steps       []wireStep `json:"steps"`
	Log         string     `json:"log"`
}

type wireStep struct {
	Name        string    `json:"name"`
	Number      int       `json:"number"`
	Status      string    `json:"status"`
	Conclusion  string    `json:"conclusion"`
	StartedAt   timestamp `json:"started_at"`
	CompletedAt timestamp `json:"completed_at"`
	Log         string    `json:"log_content"`
}
