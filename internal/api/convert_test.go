package api_test

import (
	"reflect"
	"testing"
	"time"

	"flowsight/internal/api"
	"flowsight/internal/detect"
	"flowsight/internal/pipeline"
	"flowsight/internal/registry"
	"flowsight/internal/services/vision"
	"flowsight/internal/testsupport"
)

func TestFromBlockerMapsAllFields(t *testing.T) {
	blocker := testsupport.NewBlocker("b-1")
	blocker.CreatedAt = time.Date(2026, 8, 30, 14, 30, 0, 0, time.UTC)
	blocker.Context.Vision = &vision.Result{
		HasError:    true,
		Description: "red error dialog",
		Confidence:  0.7,
	}

	dto := api.FromBlocker(blocker)
	if dto.ID != "b-1" || dto.Category != "build-error" || dto.Severity != "medium" {
		t.Fatalf("identity fields mismatch: %+v", dto)
	}
	if dto.CreatedAt != "2026-08-30T14:30:00.000Z" {
		t.Fatalf("createdAt = %q", dto.CreatedAt)
	}
	if dto.WindowName != blocker.Context.WindowName || dto.OCRText != blocker.Context.OCRText {
		t.Fatalf("snapshot fields mismatch: %+v", dto)
	}
	if dto.Vision == nil || !dto.Vision.HasError || dto.Vision.Description != "red error dialog" {
		t.Fatalf("vision verdict mismatch: %+v", dto.Vision)
	}
	if !reflect.DeepEqual(dto.Signals, blocker.Signals) {
		t.Fatalf("signals mismatch: %v", dto.Signals)
	}
}

func TestFromBlockerOmitsEmptyOptionalFields(t *testing.T) {
	dto := api.FromBlocker(detect.Blocker{ID: "b-2", Category: detect.CategoryOther, Severity: detect.SeverityLow})
	if dto.CreatedAt != "" || dto.Vision != nil {
		t.Fatalf("zero-value fields leaked: %+v", dto)
	}
}

func TestFromOutcomeCarriesBlocker(t *testing.T) {
	blocker := testsupport.NewBlocker("b-3")
	outcome := pipeline.Outcome{
		Captured:  true,
		Score:     0.82,
		Activated: true,
		Blocker:   &blocker,
	}
	dto := api.FromOutcome(outcome)
	if !dto.Activated || dto.Blocker == nil || dto.Blocker.ID != "b-3" {
		t.Fatalf("outcome conversion mismatch: %+v", dto)
	}

	skipped := api.FromOutcome(pipeline.Outcome{Skipped: pipeline.SkipDebounced})
	if skipped.Blocker != nil || skipped.Skipped != pipeline.SkipDebounced {
		t.Fatalf("skip conversion mismatch: %+v", skipped)
	}
}

func TestFromStatsComputesActive(t *testing.T) {
	dto := api.FromStats(registry.Stats{
		Total:      5,
		Resolved:   2,
		ByCategory: map[string]int{"build-error": 3, "timeout": 2},
		BySeverity: map[string]int{"medium": 5},
	}, map[string]int{"blocker_created": 5}, 1)

	if dto.Active != 3 || dto.Total != 5 || dto.Resolved != 2 {
		t.Fatalf("counts mismatch: %+v", dto)
	}
	if dto.ByCategory["build-error"] != 3 || dto.Events["blocker_created"] != 5 || dto.UnsyncedEvents != 1 {
		t.Fatalf("aggregates mismatch: %+v", dto)
	}
}

func TestFromHealthFormatsTimestamp(t *testing.T) {
	health := pipeline.Health{
		CaptureEnabled: true,
		OCRConfigured:  true,
		LastDetection:  time.Date(2026, 8, 30, 9, 15, 0, 0, time.UTC),
		LastScore:      0.42,
	}
	dto := api.FromHealth(health)
	if dto.LastDetection != "2026-08-30T09:15:00.000Z" || dto.LastScore != 0.42 {
		t.Fatalf("health conversion mismatch: %+v", dto)
	}

	empty := api.FromHealth(pipeline.Health{})
	if empty.LastDetection != "" {
		t.Fatalf("zero time must be omitted, got %q", empty.LastDetection)
	}
}
