package testsupport

import (
	"path/filepath"
	"testing"

	"flowsight/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Paths.APIBind = "127.0.0.1:0"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}

// WithSync enables cloud sync with the given dashboard endpoint and key.
func WithSync(dashboardURL, apiKey string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Sync.Enabled = true
		cfg.Sync.DashboardURL = dashboardURL
		cfg.Sync.APIKey = apiKey
	}
}

// WithCaptureDisabled turns the privacy gate off for the test config.
func WithCaptureDisabled() ConfigOption {
	return func(cfg *config.Config) {
		cfg.Capture.Enabled = false
	}
}
