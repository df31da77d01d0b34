package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"
)

// Config captures everything molar needs to reach the dashboard and drive a scan.
type Config struct {
	DashboardURL string `validate:"required,url"`
	Username     string
	Password     string

	LogDir    string `validate:"required"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	ExportDir string `validate:"required"`

	// DisplayWidth is the pixel width annotated images are rendered at. Zero
	// keeps the natural width of the capture.
	DisplayWidth int `validate:"gte=0,lte=8192"`

	CaptureDelay         time.Duration `validate:"gte=0"`
	PollInterval         time.Duration `validate:"gt=0"`
	MaxPollAttempts      int           `validate:"gte=0"`
	DeviceStatusInterval time.Duration `validate:"gt=0"`
	RequestRate          float64       `validate:"gt=0"`
}

const (
	defaultConfigPath           = "~/.config/molar/config.toml"
	defaultLogDir               = "~/.local/share/molar/logs"
	defaultExportDir            = "~/.local/share/molar/scans"
	defaultDashboardURL         = "http://127.0.0.1:5000"
	defaultLogLevel             = "info"
	defaultCaptureDelay         = 3 * time.Second
	defaultPollInterval         = 2 * time.Second
	defaultMaxPollAttempts      = 60
	defaultDeviceStatusInterval = 30 * time.Second
	defaultRequestRate          = 5
)

// Environment overrides, applied after the TOML file.
const (
	EnvDashboardURL = "MOLAR_DASHBOARD_URL"
	EnvUsername     = "MOLAR_USERNAME"
	EnvPassword     = "MOLAR_PASSWORD"
	EnvLogLevel     = "MOLAR_LOG_LEVEL"
)

var validate = validator.New()

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DashboardURL:         defaultDashboardURL,
		LogDir:               mustExpand(defaultLogDir),
		LogLevel:             defaultLogLevel,
		ExportDir:            mustExpand(defaultExportDir),
		CaptureDelay:         defaultCaptureDelay,
		PollInterval:         defaultPollInterval,
		MaxPollAttempts:      defaultMaxPollAttempts,
		DeviceStatusInterval: defaultDeviceStatusInterval,
		RequestRate:          defaultRequestRate,
	}
}

// Load locates and parses the molar config, falling back to defaults when missing.
// A .env file in the working directory and MOLAR_* variables override file values.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	bytes, err := readFile(resolved)
	if err != nil {
		return Config{}, err
	}
	if bytes != nil {
		if err := cfg.apply(bytes); err != nil {
			return Config{}, err
		}
	}

	_ = godotenv.Load()
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("invalid config: %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LogPath returns the path to molar's own log file.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.LogDir) == "" {
		return mustExpand(defaultLogDir + "/molar.log")
	}
	return filepath.Join(c.LogDir, "molar.log")
}

// HasCredentials reports whether a dashboard login should be attempted.
func (c Config) HasCredentials() bool {
	return strings.TrimSpace(c.Username) != "" && c.Password != ""
}

func readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return bytes, nil
}

func (c *Config) apply(bytes []byte) error {
	var raw struct {
		DashboardURL         string  `toml:"dashboard_url"`
		Username             string  `toml:"username"`
		Password             string  `toml:"password"`
		LogDir               string  `toml:"log_dir"`
		LogLevel             string  `toml:"log_level"`
		ExportDir            string  `toml:"export_dir"`
		DisplayWidth         int     `toml:"display_width"`
		CaptureDelay         string  `toml:"capture_delay"`
		PollInterval         string  `toml:"poll_interval"`
		MaxPollAttempts      *int    `toml:"max_poll_attempts"`
		DeviceStatusInterval string  `toml:"device_status_interval"`
		RequestRate          float64 `toml:"request_rate"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.DashboardURL); v != "" {
		c.DashboardURL = v
	}
	c.Username = strings.TrimSpace(raw.Username)
	c.Password = raw.Password
	if v := strings.TrimSpace(raw.LogDir); v != "" {
		c.LogDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.LogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := strings.TrimSpace(raw.ExportDir); v != "" {
		c.ExportDir = mustExpand(v)
	}
	c.DisplayWidth = raw.DisplayWidth
	if raw.MaxPollAttempts != nil {
		c.MaxPollAttempts = *raw.MaxPollAttempts
	}
	if raw.RequestRate > 0 {
		c.RequestRate = raw.RequestRate
	}

	durations := []struct {
		name  string
		value string
		dest  *time.Duration
	}{
		{"capture_delay", raw.CaptureDelay, &c.CaptureDelay},
		{"poll_interval", raw.PollInterval, &c.PollInterval},
		{"device_status_interval", raw.DeviceStatusInterval, &c.DeviceStatusInterval},
	}
	for _, d := range durations {
		if strings.TrimSpace(d.value) == "" {
			continue
		}
		parsed, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return fmt.Errorf("parse config: %s: %w", d.name, err)
		}
		*d.dest = parsed
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvDashboardURL)); v != "" {
		c.DashboardURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvUsername)); v != "" {
		c.Username = v
	}
	if v := os.Getenv(EnvPassword); v != "" {
		c.Password = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
}

// PollSeconds overrides the poll interval from a whole-second CLI flag.
func (c *Config) PollSeconds(seconds int) {
	if seconds > 0 {
		c.PollInterval = time.Duration(seconds) * time.Second
	}
}

// String renders the config without the password, for logging.
func (c Config) String() string {
	return fmt.Sprintf("dashboard=%s user=%q log_dir=%s export_dir=%s poll=%s attempts=%s",
		c.DashboardURL, c.Username, c.LogDir, c.ExportDir, c.PollInterval, strconv.Itoa(c.MaxPollAttempts))
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
