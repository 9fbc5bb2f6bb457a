package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func fileSourceConfig() *Config {
	cfg := NewDefaultConfig()
	cfg.Source.Type = "file"
	cfg.Source.Path = "runs.json"
	return cfg
}

func TestLoadFromFiles_Layering(t *testing.T) {
	base := writeConfig(t, "base.toml", `
[server]
port = 9000

[canvas]
viewport_width = 1280.0

[github]
owner = "octo"
repo = "canvas"
run_limit = 10
`)
	override := writeConfig(t, "override.toml", `
[github]
run_limit = 30
workflow = "ci.yml"
`)

	cfg, err := LoadFromFiles(base, "", override)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host, "defaults survive")
	assert.Equal(t, 1280.0, cfg.Canvas.ViewportWidth)
	assert.Equal(t, 0.1, cfg.Canvas.MinZoom)
	assert.Equal(t, "octo", cfg.GitHub.Owner)
	assert.Equal(t, 30, cfg.GitHub.RunLimit, "later files win")
	assert.Equal(t, "ci.yml", cfg.GitHub.Workflow)
}

func TestLoadFromFiles_Errors(t *testing.T) {
	_, err := LoadFromFiles(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	bad := writeConfig(t, "bad.toml", "[server\nport = ")
	_, err = LoadFromFiles(bad)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("RUNCANVAS_SERVER_PORT", "7070")
	t.Setenv("RUNCANVAS_LOG_OUTPUT", "stdout, file")
	t.Setenv("RUNCANVAS_CANVAS_VIEWPORT_WIDTH", "2560")
	t.Setenv("RUNCANVAS_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "ghp_env")
	t.Setenv("RUNCANVAS_GITHUB_FETCH_LOGS", "false")

	cfg, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, []string{"stdout", "file"}, cfg.Logging.Output)
	assert.Equal(t, 2560.0, cfg.Canvas.ViewportWidth)
	assert.Equal(t, "ghp_env", cfg.GitHub.Token)
	assert.False(t, cfg.GitHub.FetchLogs)
}

func TestEnvOverrides_GitHubTokenDoesNotReplaceConfigured(t *testing.T) {
	path := writeConfig(t, "token.toml", "[github]\ntoken = \"ghp_file\"\n")
	t.Setenv("RUNCANVAS_GITHUB_TOKEN", "")
	t.Setenv("GITHUB_TOKEN", "ghp_env")

	cfg, err := LoadFromFiles(path)
	require.NoError(t, err)
	assert.Equal(t, "ghp_file", cfg.GitHub.Token)
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := NewDefaultConfig()
	ApplyFlagOverrides(cfg, 9999, "0.0.0.0", "export.json")

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, "file", cfg.Source.Type)
	assert.Equal(t, "export.json", cfg.Source.Path)

	ApplyFlagOverrides(cfg, 0, "", "")
	assert.Equal(t, 9999, cfg.Server.Port, "zero values leave config untouched")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "file source defaults", mutate: func(c *Config) {}},
		{
			name: "github source complete",
			mutate: func(c *Config) {
				c.Source = SourceConfig{Type: "github"}
				c.GitHub.Token, c.GitHub.Owner, c.GitHub.Repo = "t", "octo", "canvas"
			},
		},
		{name: "github source without token", mutate: func(c *Config) { c.Source = SourceConfig{Type: "github"} }, wantErr: true},
		{name: "file source without path", mutate: func(c *Config) { c.Source.Path = "" }, wantErr: true},
		{name: "unknown source", mutate: func(c *Config) { c.Source.Type = "s3" }, wantErr: true},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: true},
		{name: "bad level", mutate: func(c *Config) { c.Logging.Level = "verbose" }, wantErr: true},
		{name: "bad output", mutate: func(c *Config) { c.Logging.Output = []string{"syslog"} }, wantErr: true},
		{name: "max zoom below min", mutate: func(c *Config) { c.Canvas.MaxZoom = 0.05 }, wantErr: true},
		{name: "zero cell size", mutate: func(c *Config) { c.Canvas.MicroprintCellSize = 0 }, wantErr: true},
		{name: "run limit too high", mutate: func(c *Config) { c.GitHub.RunLimit = 500 }, wantErr: true},
		{name: "bad request interval", mutate: func(c *Config) { c.GitHub.RequestInterval = "soon" }, wantErr: true},
		{name: "bad frame interval", mutate: func(c *Config) { c.WebSocket.FrameInterval = "-5ms" }, wantErr: true},
		{
			name:    "refresh every second",
			mutate:  func(c *Config) { c.Refresh.Enabled, c.Refresh.Schedule = true, "* * * * * *" },
			wantErr: true,
		},
		{
			name:   "refresh every ten minutes",
			mutate: func(c *Config) { c.Refresh.Enabled, c.Refresh.Schedule = true, "0 */10 * * * *" },
		},
		{
			name:   "disabled refresh is not parsed",
			mutate: func(c *Config) { c.Refresh.Schedule = "nonsense" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fileSourceConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("")
	require.NoError(t, err)
	assert.Zero(t, d)

	d, err = ParseDuration("250ms")
	require.NoError(t, err)
	assert.Equal(t, 250*time.Millisecond, d)
}

func TestNewSessionID(t *testing.T) {
	a, b := NewSessionID(), NewSessionID()
	assert.NotEqual(t, a, b)
	assert.Regexp(t, `^sess_[0-9a-f-]{36}$`, a)
}
