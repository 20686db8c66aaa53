package config

const (
	defaultLogDir              = "~/.local/share/flowsight/logs"
	defaultStateDir            = "~/.local/share/flowsight/state"
	defaultAPIBind             = "127.0.0.1:7319"
	defaultCaptureInterval     = 30
	defaultCaptureDebounce     = 3
	defaultCaptureMaxWidth     = 1024
	defaultCaptureMaxHeight    = 768
	defaultOCREndpoint         = "http://localhost:8884/ocr"
	defaultOCRTimeoutSeconds   = 30
	defaultVisionBaseURL       = "http://localhost:11434"
	defaultVisionModel         = "llava:7b"
	defaultVisionTimeout       = 60
	defaultVisionOCRGate       = 0.7
	defaultLLMBaseURL          = "http://localhost:11434"
	defaultLLMModel            = "llama3.2:3b"
	defaultLLMTimeoutSeconds   = 30
	defaultActivationThreshold = 0.5
	defaultEvictAfterDays      = 7
	defaultEvictSweepMinutes   = 60
	defaultNotifyDedupWindow   = 600
	defaultSyncDashboardURL    = "http://localhost:3000"
	defaultSyncInterval        = 60
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir,
			APIBind:  defaultAPIBind,
		},
		Capture: Capture{
			Enabled:         true,
			IntervalSeconds: defaultCaptureInterval,
			DebounceSeconds: defaultCaptureDebounce,
			MaxWidth:        defaultCaptureMaxWidth,
			MaxHeight:       defaultCaptureMaxHeight,
		},
		OCR: OCR{
			Endpoint:       defaultOCREndpoint,
			TimeoutSeconds: defaultOCRTimeoutSeconds,
			Languages:      []string{"en"},
		},
		Vision: Vision{
			BaseURL:        defaultVisionBaseURL,
			Model:          defaultVisionModel,
			TimeoutSeconds: defaultVisionTimeout,
			OCRGate:        defaultVisionOCRGate,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Detection: Detection{
			ActivationThreshold: defaultActivationThreshold,
			EvictAfterDays:      defaultEvictAfterDays,
			EvictSweepMinutes:   defaultEvictSweepMinutes,
		},
		Notifications: Notifications{
			RequestTimeout:     10,
			BlockerCreated:     true,
			BlockerResolved:    true,
			Errors:             true,
			DedupWindowSeconds: defaultNotifyDedupWindow,
		},
		Sync: Sync{
			DashboardURL:    defaultSyncDashboardURL,
			IntervalSeconds: defaultSyncInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
