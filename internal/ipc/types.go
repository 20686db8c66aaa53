package ipc

import "flowsight/internal/api"

// StartRequest triggers daemon startup.
type StartRequest struct{}

// StartResponse indicates whether the daemon was started.
type StartResponse struct {
	Started bool   `json:"started"`
	Message string `json:"message"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// Blocker mirrors the HTTP API blocker DTO for internal IPC callers.
type Blocker = api.Blocker

// PipelineHealth mirrors the HTTP API pipeline health DTO.
type PipelineHealth = api.PipelineHealth

// StatusResponse represents combined daemon/pipeline status information.
type StatusResponse struct {
	Running     bool           `json:"running"`
	Monitoring  bool           `json:"monitoring"`
	PID         int            `json:"pid"`
	LockPath    string         `json:"lock_path"`
	StateDBPath string         `json:"state_db_path"`
	Pipeline    PipelineHealth `json:"pipeline"`
	ActiveCount int            `json:"active_count"`
	TotalCount  int            `json:"total_count"`
}

// MonitorRequest toggles scheduled detection without stopping the daemon.
type MonitorRequest struct {
	Enable bool `json:"enable"`
}

// MonitorResponse reports the monitoring state after the toggle.
type MonitorResponse struct {
	Monitoring bool   `json:"monitoring"`
	Message    string `json:"message"`
}

// DetectRequest runs one manual detection cycle.
type DetectRequest struct {
	WindowTitle        string `json:"window_title"`
	ActivityDurationMs int64  `json:"activity_duration_ms"`
}

// DetectResponse reports the detection outcome.
type DetectResponse struct {
	Captured  bool     `json:"captured"`
	Skipped   string   `json:"skipped,omitempty"`
	Score     float64  `json:"score"`
	Activated bool     `json:"activated"`
	Blocker   *Blocker `json:"blocker,omitempty"`
}

// BlockersRequest filters the blocker listing.
type BlockersRequest struct {
	ActiveOnly bool `json:"active_only"`
}

// BlockersResponse contains blocker records, newest first.
type BlockersResponse struct {
	Blockers []Blocker `json:"blockers"`
}

// DescribeRequest fetches a single blocker by id.
type DescribeRequest struct {
	ID string `json:"id"`
}

// DescribeResponse contains a single blocker record.
type DescribeResponse struct {
	Blocker Blocker `json:"blocker"`
}

// ResolveRequest marks a blocker resolved.
type ResolveRequest struct {
	ID     string `json:"id"`
	Action string `json:"action"`
}

// ResolveResponse contains the resolved blocker record.
type ResolveResponse struct {
	Blocker Blocker `json:"blocker"`
}

// StatsRequest fetches aggregate counters.
type StatsRequest struct{}

// StatsResponse reports registry and event-store totals.
type StatsResponse struct {
	Total          int            `json:"total"`
	Resolved       int            `json:"resolved"`
	Active         int            `json:"active"`
	ByCategory     map[string]int `json:"by_category"`
	BySeverity     map[string]int `json:"by_severity"`
	Events         map[string]int `json:"events"`
	UnsyncedEvents int            `json:"unsynced_events"`
}

// HistoryRequest fetches persisted blocker events. An empty BlockerID
// returns events across all blockers.
type HistoryRequest struct {
	BlockerID string `json:"blocker_id"`
	Limit     int    `json:"limit"`
}

// HistoryEvent is one persisted blocker event on the wire.
type HistoryEvent struct {
	ID        int64  `json:"id"`
	Type      string `json:"type"`
	BlockerID string `json:"blocker_id"`
	Category  string `json:"category"`
	Severity  string `json:"severity"`
	CreatedAt string `json:"created_at"`
	Synced    bool   `json:"synced"`
}

// HistoryResponse returns blocker events, newest first.
type HistoryResponse struct {
	Events []HistoryEvent `json:"events"`
}

// DatabaseHealthRequest fetches detailed database diagnostics.
type DatabaseHealthRequest struct{}

// DatabaseHealthResponse reports database health information.
type DatabaseHealthResponse struct {
	DBPath           string `json:"db_path"`
	DatabaseExists   bool   `json:"database_exists"`
	DatabaseReadable bool   `json:"database_readable"`
	IntegrityCheck   bool   `json:"integrity_check"`
	Error            string `json:"error"`
}

// TestNotificationRequest triggers a notification test.
type TestNotificationRequest struct{}

// TestNotificationResponse reports notification test outcome.
type TestNotificationResponse struct {
	Sent    bool   `json:"sent"`
	Message string `json:"message"`
}
