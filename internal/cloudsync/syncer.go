package cloudsync

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"flowsight/internal/config"
	"flowsight/internal/logging"
	"flowsight/internal/services"
	"flowsight/internal/store"
)

const (
	userAgent = "FlowSight-Go/0.1.0"

	// batchLimit bounds how many events one delivery attempt carries.
	batchLimit = 50

	// minSyncInterval is the floor between deliveries regardless of how
	// often the caller asks.
	minSyncInterval = 10 * time.Second
)

// Syncer delivers unsynced blocker events to the FlowSight dashboard.
type Syncer struct {
	store  *store.Store
	cfg    config.Sync
	client *http.Client
	logger *slog.Logger
	now    func() time.Time

	lastAttempt time.Time
}

// Option configures optional syncer behavior.
type Option func(*Syncer)

// WithHTTPClient overrides the HTTP client, primarily for tests.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Syncer) {
		if client != nil {
			s.client = client
		}
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Syncer) {
		if now != nil {
			s.now = now
		}
	}
}

// New builds a syncer for the given event store and sync configuration.
func New(eventStore *store.Store, cfg config.Sync, logger *slog.Logger, opts ...Option) *Syncer {
	if logger == nil {
		logger = logging.NewNop()
	}
	s := &Syncer{
		store:  eventStore,
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run delivers events on the configured interval until the context ends.
func (s *Syncer) Run(ctx context.Context) {
	interval := time.Duration(s.cfg.IntervalSeconds) * time.Second
	if interval < minSyncInterval {
		interval = minSyncInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			count, err := s.SyncOnce(ctx)
			if err != nil {
				s.logger.Warn("dashboard sync failed", logging.Error(err))
				continue
			}
			if count > 0 {
				s.logger.Info("dashboard sync delivered", logging.Int("events", count))
			}
		}
	}
}

type report struct {
	EventID   int64           `json:"event_id"`
	EventType string          `json:"event_type"`
	CreatedAt time.Time       `json:"created_at"`
	Blocker   json.RawMessage `json:"blocker"`
}

type reportEnvelope struct {
	DeveloperID string   `json:"developer_id,omitempty"`
	Reports     []report `json:"reports"`
}

// SyncOnce delivers at most one batch of unsynced events. Attempts closer
// together than the rate-limit floor are skipped without touching the store.
func (s *Syncer) SyncOnce(ctx context.Context) (int, error) {
	now := s.now()
	if !s.lastAttempt.IsZero() && now.Sub(s.lastAttempt) < minSyncInterval {
		return 0, nil
	}
	s.lastAttempt = now

	events, err := s.store.Unsynced(ctx, batchLimit)
	if err != nil {
		return 0, fmt.Errorf("load unsynced events: %w", err)
	}
	if len(events) == 0 {
		return 0, nil
	}

	envelope := reportEnvelope{
		DeveloperID: s.cfg.DeveloperID,
		Reports:     make([]report, 0, len(events)),
	}
	ids := make([]int64, 0, len(events))
	for _, event := range events {
		envelope.Reports = append(envelope.Reports, report{
			EventID:   event.ID,
			EventType: event.Type,
			CreatedAt: event.CreatedAt,
			Blocker:   json.RawMessage(event.Payload),
		})
		ids = append(ids, event.ID)
	}

	if err := s.post(ctx, envelope); err != nil {
		return 0, err
	}

	if _, err := s.store.MarkSynced(ctx, ids...); err != nil {
		return 0, fmt.Errorf("mark events synced: %w", err)
	}
	return len(events), nil
}

func (s *Syncer) post(ctx context.Context, envelope reportEnvelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal report envelope: %w", err)
	}

	endpoint := strings.TrimRight(s.cfg.DashboardURL, "/") + "/api/reports"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build report request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return services.Classify(services.Wrap(nil, "dashboard", "sync_reports", "post reports", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return services.Wrap(services.ErrConfiguration, "dashboard", "sync_reports",
			fmt.Sprintf("dashboard rejected API key (status %d)", resp.StatusCode), nil)
	}
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		marker := services.ErrTransient
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusServiceUnavailable {
			marker = services.ErrUnavailable
		}
		return services.Wrap(marker, "dashboard", "sync_reports",
			fmt.Sprintf("dashboard returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))), nil)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
