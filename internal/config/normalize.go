package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCapture()
	c.normalizeProviders()
	c.normalizeDetection()
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeCapture() {
	if c.Capture.IntervalSeconds <= 0 {
		c.Capture.IntervalSeconds = defaultCaptureInterval
	}
	if c.Capture.DebounceSeconds <= 0 {
		c.Capture.DebounceSeconds = defaultCaptureDebounce
	}
	if c.Capture.MaxWidth <= 0 {
		c.Capture.MaxWidth = defaultCaptureMaxWidth
	}
	if c.Capture.MaxHeight <= 0 {
		c.Capture.MaxHeight = defaultCaptureMaxHeight
	}
}

func (c *Config) normalizeProviders() {
	c.OCR.Endpoint = strings.TrimSpace(c.OCR.Endpoint)
	if c.OCR.TimeoutSeconds <= 0 {
		c.OCR.TimeoutSeconds = defaultOCRTimeoutSeconds
	}
	if len(c.OCR.Languages) == 0 {
		c.OCR.Languages = []string{"en"}
	}

	c.Vision.BaseURL = strings.TrimRight(strings.TrimSpace(c.Vision.BaseURL), "/")
	if c.Vision.BaseURL == "" {
		c.Vision.BaseURL = defaultVisionBaseURL
	}
	c.Vision.Model = strings.TrimSpace(c.Vision.Model)
	if c.Vision.Model == "" {
		c.Vision.Model = defaultVisionModel
	}
	if c.Vision.TimeoutSeconds <= 0 {
		c.Vision.TimeoutSeconds = defaultVisionTimeout
	}
	if c.Vision.OCRGate <= 0 {
		c.Vision.OCRGate = defaultVisionOCRGate
	}

	c.LLM.BaseURL = strings.TrimRight(strings.TrimSpace(c.LLM.BaseURL), "/")
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = defaultLLMBaseURL
	}
	c.LLM.Model = strings.TrimSpace(c.LLM.Model)
	if c.LLM.Model == "" {
		c.LLM.Model = defaultLLMModel
	}
	if c.LLM.TimeoutSeconds <= 0 {
		c.LLM.TimeoutSeconds = defaultLLMTimeoutSeconds
	}
}

func (c *Config) normalizeDetection() {
	if c.Detection.ActivationThreshold <= 0 {
		c.Detection.ActivationThreshold = defaultActivationThreshold
	}
	if c.Detection.EvictAfterDays <= 0 {
		c.Detection.EvictAfterDays = defaultEvictAfterDays
	}
	if c.Detection.EvictSweepMinutes <= 0 {
		c.Detection.EvictSweepMinutes = defaultEvictSweepMinutes
	}
}

func (c *Config) normalizeSync() {
	c.Sync.DashboardURL = strings.TrimRight(strings.TrimSpace(c.Sync.DashboardURL), "/")
	if c.Sync.DashboardURL == "" {
		c.Sync.DashboardURL = defaultSyncDashboardURL
	}
	c.Sync.APIKey = strings.TrimSpace(c.Sync.APIKey)
	c.Sync.DeveloperID = strings.TrimSpace(c.Sync.DeveloperID)
	if c.Sync.IntervalSeconds <= 0 {
		c.Sync.IntervalSeconds = defaultSyncInterval
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays <= 0 {
		c.Logging.RetentionDays = defaultLogRetentionDays
	}
}
