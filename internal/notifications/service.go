package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"flowsight/internal/config"
	"flowsight/internal/detect"
)

const userAgent = "FlowSight-Go/0.1.0"

// Service defines the notification surface exposed to the daemon.
type Service interface {
	NotifyBlockerCreated(ctx context.Context, blocker detect.Blocker) error
	NotifyBlockerResolved(ctx context.Context, blocker detect.Blocker) error
	NotifyMonitoringStarted(ctx context.Context) error
	NotifyMonitoringStopped(ctx context.Context) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &http.Client{Timeout: timeout}
	return &ntfyService{
		endpoint:        topic,
		client:          client,
		createdEnabled:  cfg.Notifications.BlockerCreated,
		resolvedEnabled: cfg.Notifications.BlockerResolved,
		errorsEnabled:   cfg.Notifications.Errors,
		dedupWindow:     time.Duration(cfg.Notifications.DedupWindowSeconds) * time.Second,
		now:             time.Now,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client

	createdEnabled  bool
	resolvedEnabled bool
	errorsEnabled   bool

	dedupWindow time.Duration
	now         func() time.Time

	mu       sync.Mutex
	lastSent map[string]time.Time
}

func (n *ntfyService) NotifyBlockerCreated(ctx context.Context, blocker detect.Blocker) error {
	if !n.createdEnabled {
		return nil
	}
	if n.suppressed("created:" + string(blocker.Category)) {
		return nil
	}

	message := fmt.Sprintf("🚧 %s blocker (%s): %s", blocker.Category, blocker.Severity, strings.TrimSpace(blocker.Description))
	if action := strings.TrimSpace(blocker.SuggestedAction); action != "" {
		message = fmt.Sprintf("%s\nSuggestion: %s", message, action)
	}

	data := payload{
		title:   "FlowSight - Blocker Detected",
		message: message,
		tags:    []string{"flowsight", "blocker", string(blocker.Category)},
	}
	if blocker.Severity == detect.SeverityHigh || blocker.Severity == detect.SeverityCritical {
		data.priority = "high"
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyBlockerResolved(ctx context.Context, blocker detect.Blocker) error {
	if !n.resolvedEnabled {
		return nil
	}
	data := payload{
		title:   "FlowSight - Blocker Resolved",
		message: fmt.Sprintf("✅ Resolved: %s", strings.TrimSpace(blocker.Description)),
		tags:    []string{"flowsight", "blocker", "resolved"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMonitoringStarted(ctx context.Context) error {
	data := payload{
		title:   "FlowSight - Monitoring Started",
		message: "👀 Screen monitoring is active",
		tags:    []string{"flowsight", "monitor", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyMonitoringStopped(ctx context.Context) error {
	data := payload{
		title:   "FlowSight - Monitoring Stopped",
		message: "Screen monitoring stopped",
		tags:    []string{"flowsight", "monitor", "stopped"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	if !n.errorsEnabled {
		return nil
	}
	if n.suppressed("error:" + contextLabel) {
		return nil
	}

	var builder strings.Builder
	builder.WriteString("❌ Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" with ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "FlowSight - Error",
		message:  builder.String(),
		tags:     []string{"flowsight", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "FlowSight - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"flowsight", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

// suppressed reports whether a notification with the same dedup key fired
// within the dedup window, recording this attempt either way.
func (n *ntfyService) suppressed(key string) bool {
	if n.dedupWindow <= 0 {
		return false
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now()
	if n.lastSent == nil {
		n.lastSent = make(map[string]time.Time)
	}
	if last, ok := n.lastSent[key]; ok && now.Sub(last) < n.dedupWindow {
		return true
	}
	n.lastSent[key] = now
	return false
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyBlockerCreated(context.Context, detect.Blocker) error  { return nil }
func (noopService) NotifyBlockerResolved(context.Context, detect.Blocker) error { return nil }
func (noopService) NotifyMonitoringStarted(context.Context) error               { return nil }
func (noopService) NotifyMonitoringStopped(context.Context) error               { return nil }
func (noopService) NotifyError(context.Context, error, string) error            { return nil }
func (noopService) TestNotification(context.Context) error                      { return nil }
