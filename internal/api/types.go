package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Blocker describes a detected blocker in a transport-friendly format.
type Blocker struct {
	ID                 string         `json:"id"`
	CreatedAt          string         `json:"createdAt,omitempty"`
	Category           string         `json:"category"`
	Severity           string         `json:"severity"`
	Description        string         `json:"description"`
	Confidence         float64        `json:"confidence"`
	Signals            []string       `json:"signals,omitempty"`
	SuggestedAction    string         `json:"suggestedAction,omitempty"`
	ActivityDurationMs int64          `json:"activityDurationMs"`
	Resolved           bool           `json:"resolved"`
	WindowName         string         `json:"windowName,omitempty"`
	OCRText            string         `json:"ocrText,omitempty"`
	Vision             *VisionVerdict `json:"vision,omitempty"`
}

// VisionVerdict mirrors the vision classifier output captured with a blocker.
type VisionVerdict struct {
	HasError            bool    `json:"hasError"`
	HasStackTrace       bool    `json:"hasStackTrace"`
	HasLoadingIndicator bool    `json:"hasLoadingIndicator"`
	Description         string  `json:"description,omitempty"`
	Confidence          float64 `json:"confidence"`
}

// PipelineHealth summarizes detection readiness for API consumers.
type PipelineHealth struct {
	CaptureEnabled   bool     `json:"captureEnabled"`
	OCRConfigured    bool     `json:"ocrConfigured"`
	VisionConfigured bool     `json:"visionConfigured"`
	LLMConfigured    bool     `json:"llmConfigured"`
	Degraded         bool     `json:"degraded"`
	DegradedReasons  []string `json:"degradedReasons,omitempty"`
	LastDetection    string   `json:"lastDetection,omitempty"`
	LastScore        float64  `json:"lastScore"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	Monitoring   bool           `json:"monitoring"`
	StateDBPath  string         `json:"stateDbPath,omitempty"`
	LockFilePath string         `json:"lockFilePath,omitempty"`
	Pipeline     PipelineHealth `json:"pipeline"`
}

// DetectResponse reports the outcome of a manually triggered detection.
type DetectResponse struct {
	Captured  bool     `json:"captured"`
	Skipped   string   `json:"skipped,omitempty"`
	Score     float64  `json:"score"`
	Activated bool     `json:"activated"`
	Blocker   *Blocker `json:"blocker,omitempty"`
}

// StatsResponse provides normalized blocker statistics.
type StatsResponse struct {
	Total          int            `json:"total"`
	Resolved       int            `json:"resolved"`
	Active         int            `json:"active"`
	ByCategory     map[string]int `json:"byCategory,omitempty"`
	BySeverity     map[string]int `json:"bySeverity,omitempty"`
	Events         map[string]int `json:"events,omitempty"`
	UnsyncedEvents int            `json:"unsyncedEvents"`
}

// BlockerListResponse wraps a collection of blockers for API responses.
type BlockerListResponse struct {
	Blockers []Blocker `json:"blockers"`
}

// BlockerResponse wraps a single blocker.
type BlockerResponse struct {
	Blocker Blocker `json:"blocker"`
}
