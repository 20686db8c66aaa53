package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate checks configuration invariants that normalization cannot repair.
func (c *Config) Validate() error {
	if err := c.validateCapture(); err != nil {
		return err
	}
	if err := c.validateDetection(); err != nil {
		return err
	}
	if err := c.validateSync(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCapture() error {
	if c.Capture.DebounceSeconds > c.Capture.IntervalSeconds {
		return fmt.Errorf(
			"capture.debounce_seconds (%d) must not exceed capture.interval_seconds (%d)",
			c.Capture.DebounceSeconds, c.Capture.IntervalSeconds,
		)
	}
	return nil
}

func (c *Config) validateDetection() error {
	if c.Detection.ActivationThreshold >= 1 {
		return fmt.Errorf(
			"detection.activation_threshold must be below 1.0, got %.2f",
			c.Detection.ActivationThreshold,
		)
	}
	if c.Vision.OCRGate > 1 {
		return fmt.Errorf("vision.ocr_gate must be at most 1.0, got %.2f", c.Vision.OCRGate)
	}
	return nil
}

func (c *Config) validateSync() error {
	if !c.Sync.Enabled {
		return nil
	}
	if c.Sync.APIKey == "" {
		return errors.New("sync.api_key is required when sync is enabled")
	}
	if c.Sync.DashboardURL == "" {
		return errors.New("sync.dashboard_url is required when sync is enabled")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
