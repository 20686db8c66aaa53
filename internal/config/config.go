package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Capture contains screen capture gating configuration.
type Capture struct {
	// Enabled is the privacy gate. When false no frame ever leaves the
	// capture source and detection short-circuits before provider calls.
	Enabled         bool `toml:"enabled"`
	IntervalSeconds int  `toml:"interval_seconds"`
	DebounceSeconds int  `toml:"debounce_seconds"`
	MaxWidth        int  `toml:"max_width"`
	MaxHeight       int  `toml:"max_height"`
}

// OCR contains configuration for the text extraction provider.
type OCR struct {
	Endpoint       string   `toml:"endpoint"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	Languages      []string `toml:"languages"`
}

// Vision contains configuration for the vision classifier provider.
type Vision struct {
	BaseURL        string  `toml:"base_url"`
	Model          string  `toml:"model"`
	TimeoutSeconds int     `toml:"timeout_seconds"`
	// OCRGate skips vision analysis when OCR confidence meets or exceeds
	// this value.
	OCRGate float64 `toml:"ocr_gate"`
}

// LLM contains configuration for the local language model provider.
type LLM struct {
	BaseURL        string `toml:"base_url"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Detection contains blocker detection thresholds.
type Detection struct {
	ActivationThreshold float64 `toml:"activation_threshold"`
	EvictAfterDays      int     `toml:"evict_after_days"`
	EvictSweepMinutes   int     `toml:"evict_sweep_minutes"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic          string `toml:"ntfy_topic"`
	RequestTimeout     int    `toml:"request_timeout"`
	BlockerCreated     bool   `toml:"blocker_created"`
	BlockerResolved    bool   `toml:"blocker_resolved"`
	Errors             bool   `toml:"errors"`
	DedupWindowSeconds int    `toml:"dedup_window_seconds"`
}

// Sync contains configuration for dashboard report synchronization.
type Sync struct {
	Enabled         bool   `toml:"enabled"`
	DashboardURL    string `toml:"dashboard_url"`
	APIKey          string `toml:"api_key"`
	DeveloperID     string `toml:"developer_id"`
	IntervalSeconds int    `toml:"interval_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for FlowSight.
//
// Configuration sections by subsystem:
//   - Paths: directories, state database location, and API bind address
//   - Capture: privacy gate, capture interval, and debounce window
//   - OCR: text extraction service endpoint
//   - Vision: vision classifier model and OCR gating threshold
//   - LLM: local language model connection settings
//   - Detection: consensus threshold and eviction policy
//   - Notifications: ntfy push notification settings
//   - Sync: dashboard report synchronization
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Capture       Capture       `toml:"capture"`
	OCR           OCR           `toml:"ocr"`
	Vision        Vision        `toml:"vision"`
	LLM           LLM           `toml:"llm"`
	Detection     Detection     `toml:"detection"`
	Notifications Notifications `toml:"notifications"`
	Sync          Sync          `toml:"sync"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/flowsight/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config
// has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath("~/.config/flowsight/config.toml")
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("flowsight.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.LogDir, c.Paths.StateDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
