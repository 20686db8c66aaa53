package api

import (
	"flowsight/internal/detect"
	"flowsight/internal/pipeline"
	"flowsight/internal/registry"
)

// FromBlocker converts a blocker record to its API representation.
func FromBlocker(blocker detect.Blocker) Blocker {
	dto := Blocker{
		ID:                 blocker.ID,
		Category:           string(blocker.Category),
		Severity:           string(blocker.Severity),
		Description:        blocker.Description,
		Confidence:         blocker.Confidence,
		Signals:            blocker.Signals,
		SuggestedAction:    blocker.SuggestedAction,
		ActivityDurationMs: blocker.ActivityDurationMs,
		Resolved:           blocker.Resolved,
		WindowName:         blocker.Context.WindowName,
		OCRText:            blocker.Context.OCRText,
	}
	if !blocker.CreatedAt.IsZero() {
		dto.CreatedAt = blocker.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if vision := blocker.Context.Vision; vision != nil {
		dto.Vision = &VisionVerdict{
			HasError:            vision.HasError,
			HasStackTrace:       vision.HasStackTrace,
			HasLoadingIndicator: vision.HasLoadingIndicator,
			Description:         vision.Description,
			Confidence:          vision.Confidence,
		}
	}
	return dto
}

// FromBlockers converts a slice of blocker records into API DTOs.
func FromBlockers(blockers []detect.Blocker) []Blocker {
	if len(blockers) == 0 {
		return nil
	}
	out := make([]Blocker, 0, len(blockers))
	for _, blocker := range blockers {
		out = append(out, FromBlocker(blocker))
	}
	return out
}

// FromHealth converts pipeline health into its API representation.
func FromHealth(health pipeline.Health) PipelineHealth {
	dto := PipelineHealth{
		CaptureEnabled:   health.CaptureEnabled,
		OCRConfigured:    health.OCRConfigured,
		VisionConfigured: health.VisionConfigured,
		LLMConfigured:    health.LLMConfigured,
		Degraded:         health.Degraded,
		DegradedReasons:  health.DegradedReasons,
		LastScore:        health.LastScore,
	}
	if !health.LastDetection.IsZero() {
		dto.LastDetection = health.LastDetection.UTC().Format(dateTimeFormat)
	}
	return dto
}

// FromOutcome converts a detection outcome into its API representation.
func FromOutcome(outcome pipeline.Outcome) DetectResponse {
	dto := DetectResponse{
		Captured:  outcome.Captured,
		Skipped:   outcome.Skipped,
		Score:     outcome.Score,
		Activated: outcome.Activated,
	}
	if outcome.Blocker != nil {
		blocker := FromBlocker(*outcome.Blocker)
		dto.Blocker = &blocker
	}
	return dto
}

// FromStats merges registry stats with event-store counters into one
// API payload. The event arguments may be zero when no store is attached.
func FromStats(stats registry.Stats, events map[string]int, unsynced int) StatsResponse {
	dto := StatsResponse{
		Total:          stats.Total,
		Resolved:       stats.Resolved,
		Active:         stats.Total - stats.Resolved,
		Events:         events,
		UnsyncedEvents: unsynced,
	}
	if len(stats.ByCategory) > 0 {
		dto.ByCategory = stats.ByCategory
	}
	if len(stats.BySeverity) > 0 {
		dto.BySeverity = stats.BySeverity
	}
	return dto
}
