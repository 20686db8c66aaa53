package daemon

import (
	"context"
	"time"

	"flowsight/internal/logging"
	"flowsight/internal/pipeline"
)

// Activity describes the foreground window at one sampling instant.
type Activity struct {
	WindowTitle string
	DurationMs  int64
}

// ActivitySource reports the current foreground activity. Implementations
// are platform-specific; the daemon degrades to empty context without one.
type ActivitySource interface {
	Current(ctx context.Context) (Activity, error)
}

// monitorLoop drives scheduled detections on the capture interval and runs
// the periodic eviction sweep. It exits when the context ends.
func (d *Daemon) monitorLoop(ctx context.Context) {
	interval := time.Duration(d.cfg.Capture.IntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	sweep := time.Duration(d.cfg.Detection.EvictSweepMinutes) * time.Minute
	if sweep <= 0 {
		sweep = time.Hour
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	sweepTicker := time.NewTicker(sweep)
	defer sweepTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !d.monitoring.Load() {
				continue
			}
			d.runScheduledDetection(ctx)
		case <-sweepTicker.C:
			d.runEvictionSweep(ctx)
		}
	}
}

func (d *Daemon) runScheduledDetection(ctx context.Context) {
	var activity Activity
	if d.activity != nil {
		current, err := d.activity.Current(ctx)
		if err != nil {
			d.logger.Debug("activity probe failed", logging.Error(err))
		} else {
			activity = current
		}
	}

	outcome := d.detector.Detect(ctx, pipeline.TriggerInterval, activity.WindowTitle, activity.DurationMs)
	if outcome.Activated && outcome.Blocker != nil {
		d.logger.Info("scheduled detection found blocker",
			logging.String("blocker_id", outcome.Blocker.ID),
			logging.Float64("score", outcome.Score))
	}
}

func (d *Daemon) runEvictionSweep(ctx context.Context) {
	days := d.cfg.Detection.EvictAfterDays
	evicted := d.registry.EvictOlderThan(days)
	if evicted > 0 {
		d.logger.Info("evicted aged blockers", logging.Int("count", evicted))
	}

	pruned, err := d.store.PruneOlderThan(ctx, d.cfg.Logging.RetentionDays)
	if err != nil {
		d.logger.Warn("event prune failed", logging.Error(err))
		return
	}
	if pruned > 0 {
		d.logger.Info("pruned synced events", logging.Int64("count", pruned))
	}
}
