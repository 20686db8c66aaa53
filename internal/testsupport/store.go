package testsupport

import (
	"context"
	"testing"
	"time"

	"flowsight/internal/config"
	"flowsight/internal/detect"
	"flowsight/internal/registry"
	"flowsight/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	eventStore, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		eventStore.Close()
	})
	return eventStore
}

// RecordCreated appends a blocker-created event for tests.
func RecordCreated(t testing.TB, eventStore *store.Store, blocker detect.Blocker) {
	t.Helper()

	event := registry.Event{Type: registry.EventBlockerCreated, Blocker: blocker}
	if err := eventStore.RecordEvent(context.Background(), event); err != nil {
		t.Fatalf("store.RecordEvent: %v", err)
	}
}

// NewBlocker builds a plausible blocker record for tests.
func NewBlocker(id string) detect.Blocker {
	return detect.Blocker{
		ID:                 id,
		CreatedAt:          time.Now().UTC(),
		Category:           detect.CategoryBuildError,
		Severity:           detect.SeverityMedium,
		Description:        "Build failure detected",
		Confidence:         0.82,
		Signals:            []string{"rule:build-failure (0.92)"},
		SuggestedAction:    "check the compiler output",
		ActivityDurationMs: 5000,
		Context: detect.Snapshot{
			WindowName: "Terminal",
			OCRText:    "Error: Compilation failed",
		},
	}
}
