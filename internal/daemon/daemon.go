package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"flowsight/internal/cloudsync"
	"flowsight/internal/config"
	"flowsight/internal/detect"
	"flowsight/internal/logging"
	"flowsight/internal/notifications"
	"flowsight/internal/pipeline"
	"flowsight/internal/preflight"
	"flowsight/internal/registry"
	"flowsight/internal/store"
)

// Daemon coordinates the background detection services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	registry *registry.Registry
	detector *pipeline.Detector
	notifier notifications.Service
	syncer   *cloudsync.Syncer
	activity ActivitySource
	logPath  string

	lockPath string
	lock     *flock.Flock

	running    atomic.Bool
	monitoring atomic.Bool
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	api        *apiServer
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Monitoring   bool
	PID          int
	StateDBPath  string
	LockFilePath string
	Health       pipeline.Health
}

// New constructs a daemon with initialized dependencies. The syncer and
// activity source may be nil; everything else is required.
func New(cfg *config.Config, eventStore *store.Store, reg *registry.Registry, detector *pipeline.Detector, notifier notifications.Service, syncer *cloudsync.Syncer, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || eventStore == nil || reg == nil || detector == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, registry, detector, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := filepath.Join(cfg.Paths.StateDir, "flowsightd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    eventStore,
		registry: reg,
		detector: detector,
		notifier: notifier,
		syncer:   syncer,
		logPath:  filepath.Join(cfg.Paths.LogDir, "flowsight.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	reg.Subscribe(d.handleRegistryEvent)
	return d, nil
}

// SetActivitySource installs the foreground-activity probe used by the
// monitor loop. Without one, scheduled detections run with an empty window
// context; manual detections are unaffected.
func (d *Daemon) SetActivitySource(source ActivitySource) {
	d.activity = source
}

// handleRegistryEvent fans a registry event out to the event store and the
// notifier. Failures are logged; the detection path never sees them.
func (d *Daemon) handleRegistryEvent(event registry.Event) {
	ctx := context.Background()
	if err := d.store.RecordEvent(ctx, event); err != nil {
		d.logger.Warn("failed to persist blocker event",
			logging.String("event", string(event.Type)),
			logging.String("blocker_id", event.Blocker.ID),
			logging.Error(err))
	}

	var err error
	switch event.Type {
	case registry.EventBlockerCreated:
		err = d.notifier.NotifyBlockerCreated(ctx, event.Blocker)
	case registry.EventBlockerResolved:
		err = d.notifier.NotifyBlockerResolved(ctx, event.Blocker)
	}
	if err != nil {
		d.logger.Warn("failed to send blocker notification",
			logging.String("event", string(event.Type)),
			logging.Error(err))
	}
}

// Start acquires the daemon lock and launches the monitor loop, eviction
// sweep, cloud sync, and HTTP API.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another flowsight daemon instance is already running")
	}

	for _, result := range preflight.RunAll(ctx, d.cfg) {
		if result.Passed {
			continue
		}
		d.logger.Warn("preflight check failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail))
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	server, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("configure api server: %w", err)
	}
	if server != nil {
		if err := server.start(d.ctx); err != nil {
			_ = d.lock.Unlock()
			d.cancel()
			d.ctx = nil
			d.cancel = nil
			return err
		}
		d.api = server
	}

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.monitorLoop(d.ctx)
	}()

	if d.syncer != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.syncer.Run(d.ctx)
		}()
	}

	d.monitoring.Store(d.cfg.Capture.Enabled)
	d.running.Store(true)
	if err := d.notifier.NotifyMonitoringStarted(d.ctx); err != nil {
		d.logger.Warn("failed to send start notification", logging.Error(err))
	}
	d.logger.Info("flowsight daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if err := d.notifier.NotifyMonitoringStopped(context.Background()); err != nil {
		d.logger.Warn("failed to send stop notification", logging.Error(err))
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.stop()
		d.api = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.monitoring.Store(false)
	d.running.Store(false)
	d.logger.Info("flowsight daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// StartMonitoring resumes scheduled detections.
func (d *Daemon) StartMonitoring() bool {
	if !d.running.Load() || !d.cfg.Capture.Enabled {
		return false
	}
	d.monitoring.Store(true)
	d.logger.Info("monitoring resumed")
	return true
}

// StopMonitoring pauses scheduled detections without stopping the daemon.
func (d *Daemon) StopMonitoring() {
	d.monitoring.Store(false)
	d.logger.Info("monitoring paused")
}

// Monitoring reports whether scheduled detections are active.
func (d *Daemon) Monitoring() bool {
	return d.monitoring.Load()
}

// Detect runs one manually triggered detection cycle.
func (d *Daemon) Detect(ctx context.Context, windowTitle string, activityDurationMs int64) pipeline.Outcome {
	return d.detector.Detect(ctx, pipeline.TriggerManual, windowTitle, activityDurationMs)
}

// ListBlockers returns blockers from the registry, newest first.
func (d *Daemon) ListBlockers(activeOnly bool) []detect.Blocker {
	return d.registry.List(activeOnly)
}

// GetBlocker fetches a single blocker by id.
func (d *Daemon) GetBlocker(id string) (detect.Blocker, bool) {
	return d.registry.Get(id)
}

// ResolveBlocker marks a blocker resolved, optionally overwriting its
// suggested action. It reports whether the blocker existed.
func (d *Daemon) ResolveBlocker(id, action string) (detect.Blocker, bool) {
	if _, ok := d.registry.Get(id); !ok {
		return detect.Blocker{}, false
	}
	d.registry.Resolve(id, action)
	return d.registry.Get(id)
}

// Stats aggregates registry counters with event-store totals.
func (d *Daemon) Stats(ctx context.Context) (registry.Stats, map[string]int, int, error) {
	stats := d.registry.Stats()
	events, unsynced, err := d.store.Stats(ctx)
	if err != nil {
		return stats, nil, 0, err
	}
	return stats, events, unsynced, nil
}

// EventHistory returns persisted blocker events, newest first.
func (d *Daemon) EventHistory(ctx context.Context, blockerID string, limit int) ([]store.Event, error) {
	return d.store.History(ctx, blockerID, limit)
}

// DatabaseHealth returns detailed event database diagnostics.
func (d *Daemon) DatabaseHealth(ctx context.Context) (store.DatabaseHealth, error) {
	return d.store.CheckHealth(ctx)
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if d.cfg == nil {
		return false, "configuration unavailable", errors.New("configuration unavailable")
	}
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Monitoring:   d.monitoring.Load(),
		PID:          os.Getpid(),
		StateDBPath:  filepath.Join(d.cfg.Paths.StateDir, "flowsight.db"),
		LockFilePath: d.lockPath,
		Health:       d.detector.Health(),
	}
}
