package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"flowsight/internal/capture"
	"flowsight/internal/detect"
	"flowsight/internal/logging"
	"flowsight/internal/registry"
)

// Trigger names the event that started a detection attempt.
type Trigger string

const (
	TriggerWindowChange Trigger = "window_change"
	TriggerInterval     Trigger = "interval"
	TriggerManual       Trigger = "manual"
)

// Skip reasons reported on Outcome when no analysis ran.
const (
	SkipCaptureDisabled    = "capture disabled"
	SkipDebounced          = "debounced"
	SkipCaptureUnavailable = "capture unavailable"
	SkipUnchanged          = "screen unchanged"
)

// Outcome summarizes one detection attempt.
type Outcome struct {
	Trigger   Trigger
	Captured  bool
	Skipped   string
	Score     float64
	Activated bool
	Blocker   *detect.Blocker
}

// Health reports the pipeline's provider availability and last-run state.
// Degraded means detections still run but with reduced signal quality.
type Health struct {
	CaptureEnabled   bool      `json:"capture_enabled"`
	OCRConfigured    bool      `json:"ocr_configured"`
	VisionConfigured bool      `json:"vision_configured"`
	LLMConfigured    bool      `json:"llm_configured"`
	Degraded         bool      `json:"degraded"`
	DegradedReasons  []string  `json:"degraded_reasons,omitempty"`
	LastDetection    time.Time `json:"last_detection"`
	LastScore        float64   `json:"last_score"`
}

// Detector drives a full detection cycle: capture gate, provider
// orchestration, consensus scoring, and registry materialization.
type Detector struct {
	coordinator  *capture.Coordinator
	orchestrator *detect.Orchestrator
	registry     *registry.Registry
	logger       *slog.Logger

	threshold      float64
	captureEnabled bool

	mu            sync.Mutex
	lastDetection time.Time
	lastScore     float64
	lastReasons   []string
}

// Option configures optional detector behavior.
type Option func(*Detector)

// WithThreshold overrides the activation threshold.
func WithThreshold(threshold float64) Option {
	return func(d *Detector) {
		if threshold > 0 {
			d.threshold = threshold
		}
	}
}

// WithCaptureEnabled sets the privacy gate. When disabled the detector
// refuses every attempt before touching the screen.
func WithCaptureEnabled(enabled bool) Option {
	return func(d *Detector) {
		d.captureEnabled = enabled
	}
}

// NewDetector wires the detection pipeline.
func NewDetector(coordinator *capture.Coordinator, orchestrator *detect.Orchestrator, reg *registry.Registry, logger *slog.Logger, opts ...Option) *Detector {
	if logger == nil {
		logger = logging.NewNop()
	}
	d := &Detector{
		coordinator:    coordinator,
		orchestrator:   orchestrator,
		registry:       reg,
		logger:         logger,
		threshold:      detect.DefaultActivationThreshold,
		captureEnabled: true,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Detect runs one detection cycle. It never fails outright: provider
// problems degrade the signal set and unproductive attempts come back with
// a skip reason. The frame buffer is scrubbed before returning.
func (d *Detector) Detect(ctx context.Context, trigger Trigger, windowTitle string, activityDurationMs int64) Outcome {
	outcome := Outcome{Trigger: trigger}

	if !d.captureEnabled {
		outcome.Skipped = SkipCaptureDisabled
		return outcome
	}

	result, frame := d.coordinator.TryCapture(ctx)
	defer capture.Scrub(&frame)

	if !result.Captured {
		if result.Reject == capture.RejectUnavailable {
			outcome.Skipped = SkipCaptureUnavailable
		} else {
			outcome.Skipped = SkipDebounced
		}
		return outcome
	}
	outcome.Captured = true

	// Re-running every provider on an identical screen only repeats the
	// previous verdict. Manual triggers bypass the content check.
	if !result.Changed && trigger != TriggerManual {
		outcome.Skipped = SkipUnchanged
		return outcome
	}

	scores := d.orchestrator.Analyze(ctx, frame.Data, detect.Context{
		WindowTitle:        windowTitle,
		ActivityDurationMs: activityDurationMs,
		RecentCategories:   d.registry.RecentCategories(),
	})
	outcome.Score = detect.Score(scores)

	d.recordRun(outcome.Score, scores)

	d.logger.Debug("detection scored",
		logging.String("trigger", string(trigger)),
		logging.String("window", windowTitle),
		logging.Float64("score", outcome.Score),
		logging.Bool("rule_matched", scores.Rule.Detected),
		logging.Bool("vision_ran", scores.Vision.Available),
		logging.Bool("llm_fallback", scores.LLM.Fallback))

	if outcome.Score <= d.threshold {
		return outcome
	}

	blocker := d.registry.Create(buildBlocker(scores, outcome.Score, windowTitle, activityDurationMs))
	outcome.Activated = true
	outcome.Blocker = &blocker

	d.logger.Info("blocker detected",
		logging.String("id", blocker.ID),
		logging.String("category", string(blocker.Category)),
		logging.String("severity", string(blocker.Severity)),
		logging.Float64("confidence", blocker.Confidence))

	return outcome
}

// Health reports provider configuration and the most recent run's state.
func (d *Detector) Health() Health {
	ocrReady, visionReady, llmReady := d.orchestrator.ProviderAvailability()

	h := Health{
		CaptureEnabled:   d.captureEnabled,
		OCRConfigured:    ocrReady,
		VisionConfigured: visionReady,
		LLMConfigured:    llmReady,
	}
	if !ocrReady {
		h.DegradedReasons = append(h.DegradedReasons, "ocr provider not configured")
	}
	if !visionReady {
		h.DegradedReasons = append(h.DegradedReasons, "vision provider not configured")
	}
	if !llmReady {
		h.DegradedReasons = append(h.DegradedReasons, "language model not configured")
	}

	d.mu.Lock()
	h.LastDetection = d.lastDetection
	h.LastScore = d.lastScore
	h.DegradedReasons = append(h.DegradedReasons, d.lastReasons...)
	d.mu.Unlock()

	h.Degraded = len(h.DegradedReasons) > 0
	return h
}

func (d *Detector) recordRun(score float64, scores detect.SignalScores) {
	var reasons []string
	if scores.LLM.Fallback {
		reasons = append(reasons, "language model fell back to default judgment")
	}

	d.mu.Lock()
	d.lastDetection = time.Now().UTC()
	d.lastScore = score
	d.lastReasons = reasons
	d.mu.Unlock()
}

// buildBlocker folds the signal set into the durable record. The rule
// signature's category wins over the language model's when both are present;
// the matcher is deterministic and the model is not.
func buildBlocker(scores detect.SignalScores, score float64, windowTitle string, activityDurationMs int64) detect.Blocker {
	category := detect.ParseCategory(scores.LLM.Analysis.Category)
	description := fmt.Sprintf("Possible %s blocker on %q", category, windowTitle)

	if scores.Rule.Detected {
		category = scores.Rule.Signature.Category
		description = scores.Rule.Signature.Name
	}
	if scores.Vision.Available && scores.Vision.Verdict.Description != "" {
		description = scores.Vision.Verdict.Description
	}

	snapshot := detect.Snapshot{
		WindowName: windowTitle,
		OCRText:    detect.TruncateOCRText(scores.OCRText),
	}
	if scores.Vision.Available {
		verdict := scores.Vision.Verdict
		snapshot.Vision = &verdict
	}

	return detect.Blocker{
		Category:           category,
		Severity:           detect.ParseSeverity(scores.LLM.Analysis.Severity),
		Description:        description,
		Confidence:         score,
		Signals:            signalLabels(scores),
		SuggestedAction:    scores.LLM.Analysis.SuggestedAction,
		ActivityDurationMs: activityDurationMs,
		Context:            snapshot,
	}
}

// signalLabels lists each contributing signal for explainability.
func signalLabels(scores detect.SignalScores) []string {
	var labels []string
	if scores.Rule.Detected {
		labels = append(labels, fmt.Sprintf("rule:%s (%.2f)", scores.Rule.Signature.ID, scores.Rule.Confidence))
	}
	if scores.Vision.Available {
		v := scores.Vision.Verdict
		if v.HasError {
			labels = append(labels, "vision:error")
		}
		if v.HasStackTrace {
			labels = append(labels, "vision:stack-trace")
		}
		if v.HasLoadingIndicator {
			labels = append(labels, "vision:loading-indicator")
		}
	}
	if scores.LLM.Fallback {
		labels = append(labels, "llm:fallback")
	} else {
		labels = append(labels, fmt.Sprintf("llm:%s (%.2f)", scores.LLM.Analysis.Category, scores.LLM.Analysis.Confidence))
	}
	labels = append(labels, fmt.Sprintf("ocr:confidence %.2f", scores.OCRConfidence))
	return labels
}
