package common

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Canvas    CanvasConfig    `toml:"canvas"`
	Source    SourceConfig    `toml:"source"`
	GitHub    GitHubConfig    `toml:"github"`
	Refresh   RefreshConfig   `toml:"refresh"`
	WebSocket WebSocketConfig `toml:"websocket"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"min=1,max=65535"`
	Host string `toml:"host"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output" validate:"dive,oneof=stdout console file"`
	TimeFormat string   `toml:"time_format"` // Time format for console/file output (default: "15:04:05")
}

// CanvasConfig holds the camera and layout parameters of the diagram
type CanvasConfig struct {
	MinZoom            float64 `toml:"min_zoom" validate:"gt=0"`
	MaxZoom            float64 `toml:"max_zoom" validate:"gtfield=MinZoom"`
	ZoomSensitivity    float64 `toml:"zoom_sensitivity" validate:"gt=0,lt=1"`
	FitMargin          float64 `toml:"fit_margin" validate:"gte=0"`
	ViewportWidth      float64 `toml:"viewport_width" validate:"gt=0"`
	ViewportHeight     float64 `toml:"viewport_height" validate:"gt=0"`
	StartX             float64 `toml:"start_x"`
	StartY             float64 `toml:"start_y"`
	BoxSpacing         float64 `toml:"box_spacing" validate:"gte=0"`
	MicroprintCellSize float64 `toml:"microprint_cell_size" validate:"gt=0"`
	GridSize           float64 `toml:"grid_size" validate:"gt=0"`
	SmallGridSize      float64 `toml:"small_grid_size" validate:"gt=0"`
}

// SourceConfig selects where runs are loaded from
type SourceConfig struct {
	Type string `toml:"type" validate:"oneof=github file"` // "github" or "file"
	Path string `toml:"path" validate:"required_if=Type file"`
}

type GitHubConfig struct {
	Token           string `toml:"token"`
	Owner           string `toml:"owner"`
	Repo            string `toml:"repo"`
	Branch          string `toml:"branch"`
	Status          string `toml:"status"`
	Workflow        string `toml:"workflow"` // Workflow file name (e.g. "ci.yml"); empty loads runs of every workflow
	RunLimit        int    `toml:"run_limit" validate:"min=1,max=100"`
	RequestInterval string `toml:"request_interval"` // e.g. "250ms" between API calls
	FetchLogs       bool   `toml:"fetch_logs"`
	MaxConcurrency  int    `toml:"max_concurrency" validate:"min=1,max=32"`
	BaseURL         string `toml:"base_url" validate:"omitempty,url"`
}

// RefreshConfig controls periodic reloading of runs
type RefreshConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule with seconds field
}

type WebSocketConfig struct {
	FrameInterval string `toml:"frame_interval"` // Minimum spacing between pushed frames, e.g. "16ms"
	ReadLimit     int64  `toml:"read_limit" validate:"min=512"`
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8086,
			Host: "localhost",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Canvas: CanvasConfig{
			MinZoom:            0.1,
			MaxZoom:            3,
			ZoomSensitivity:    0.1,
			FitMargin:          50,
			ViewportWidth:      1920,
			ViewportHeight:     1080,
			StartX:             80,
			StartY:             80,
			BoxSpacing:         10,
			MicroprintCellSize: 9,
			GridSize:           50,
			SmallGridSize:      10,
		},
		Source: SourceConfig{
			Type: "github",
		},
		GitHub: GitHubConfig{
			RunLimit:        20,
			RequestInterval: "250ms",
			FetchLogs:       true,
			MaxConcurrency:  4,
		},
		Refresh: RefreshConfig{
			Enabled:  false,
			Schedule: "0 */5 * * * *",
		},
		WebSocket: WebSocketConfig{
			FrameInterval: "16ms",
			ReadLimit:     4096,
		},
	}
}

// LoadFromFile loads configuration from a single file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration with priority: defaults -> files (in order) -> environment.
// CLI flags are applied afterwards by the caller via ApplyFlagOverrides.
func LoadFromFiles(paths ...string) (*Config, error) {
	// Start with defaults
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier files)
	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	// Apply environment variables (overrides all file configs)
	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	// Server configuration
	if port := os.Getenv("RUNCANVAS_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("RUNCANVAS_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}

	// Logging configuration
	if level := os.Getenv("RUNCANVAS_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("RUNCANVAS_LOG_OUTPUT"); output != "" {
		// Split comma-separated output types
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Canvas configuration
	envFloat("RUNCANVAS_CANVAS_MIN_ZOOM", &config.Canvas.MinZoom)
	envFloat("RUNCANVAS_CANVAS_MAX_ZOOM", &config.Canvas.MaxZoom)
	envFloat("RUNCANVAS_CANVAS_ZOOM_SENSITIVITY", &config.Canvas.ZoomSensitivity)
	envFloat("RUNCANVAS_CANVAS_VIEWPORT_WIDTH", &config.Canvas.ViewportWidth)
	envFloat("RUNCANVAS_CANVAS_VIEWPORT_HEIGHT", &config.Canvas.ViewportHeight)

	// Source configuration
	if sourceType := os.Getenv("RUNCANVAS_SOURCE_TYPE"); sourceType != "" {
		config.Source.Type = sourceType
	}
	if path := os.Getenv("RUNCANVAS_SOURCE_PATH"); path != "" {
		config.Source.Path = path
	}

	// GitHub configuration (GITHUB_TOKEN is the fallback used by Actions and gh)
	if token := os.Getenv("RUNCANVAS_GITHUB_TOKEN"); token != "" {
		config.GitHub.Token = token
	} else if token := os.Getenv("GITHUB_TOKEN"); token != "" && config.GitHub.Token == "" {
		config.GitHub.Token = token
	}
	if owner := os.Getenv("RUNCANVAS_GITHUB_OWNER"); owner != "" {
		config.GitHub.Owner = owner
	}
	if repo := os.Getenv("RUNCANVAS_GITHUB_REPO"); repo != "" {
		config.GitHub.Repo = repo
	}
	if branch := os.Getenv("RUNCANVAS_GITHUB_BRANCH"); branch != "" {
		config.GitHub.Branch = branch
	}
	if workflow := os.Getenv("RUNCANVAS_GITHUB_WORKFLOW"); workflow != "" {
		config.GitHub.Workflow = workflow
	}
	if limit := os.Getenv("RUNCANVAS_GITHUB_RUN_LIMIT"); limit != "" {
		if l, err := strconv.Atoi(limit); err == nil {
			config.GitHub.RunLimit = l
		}
	}
	if fetchLogs := os.Getenv("RUNCANVAS_GITHUB_FETCH_LOGS"); fetchLogs != "" {
		if b, err := strconv.ParseBool(fetchLogs); err == nil {
			config.GitHub.FetchLogs = b
		}
	}

	// Refresh configuration
	if enabled := os.Getenv("RUNCANVAS_REFRESH_ENABLED"); enabled != "" {
		if b, err := strconv.ParseBool(enabled); err == nil {
			config.Refresh.Enabled = b
		}
	}
	if schedule := os.Getenv("RUNCANVAS_REFRESH_SCHEDULE"); schedule != "" {
		config.Refresh.Schedule = schedule
	}
}

func envFloat(name string, target *float64) {
	if v := os.Getenv(name); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*target = f
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, port int, host, runsFile string) {
	// Command-line flags have highest priority
	if port > 0 {
		config.Server.Port = port
	}
	if host != "" {
		config.Server.Host = host
	}
	if runsFile != "" {
		config.Source.Type = "file"
		config.Source.Path = runsFile
	}
}

// Validate checks the merged configuration
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var errs []error
	if c.Source.Type == "github" {
		if c.GitHub.Token == "" {
			errs = append(errs, errors.New("github.token is required for the github source (or set GITHUB_TOKEN)"))
		}
		if c.GitHub.Owner == "" || c.GitHub.Repo == "" {
			errs = append(errs, errors.New("github.owner and github.repo are required for the github source"))
		}
	}
	if _, err := ParseDuration(c.GitHub.RequestInterval); err != nil {
		errs = append(errs, fmt.Errorf("github.request_interval: %w", err))
	}
	if _, err := ParseDuration(c.WebSocket.FrameInterval); err != nil {
		errs = append(errs, fmt.Errorf("websocket.frame_interval: %w", err))
	}
	if c.Refresh.Enabled {
		if err := ValidateRefreshSchedule(c.Refresh.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("refresh.schedule: %w", err))
		}
	}
	return errors.Join(errs...)
}

// ParseDuration parses a duration string, treating "" as zero
func ParseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}

// ValidateRefreshSchedule validates a six-field cron expression and ensures a minimum 1-minute interval
func ValidateRefreshSchedule(schedule string) error {
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(schedule)
	if err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	// Check the gap between the next two activations
	first := sched.Next(time.Now())
	if sched.Next(first).Sub(first) < time.Minute {
		return fmt.Errorf("schedule must have minimum 1-minute interval")
	}
	return nil
}
