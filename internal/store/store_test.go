package store_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"flowsight/internal/detect"
	"flowsight/internal/registry"
	"flowsight/internal/testsupport"
)

func TestOpenAppliesMigrations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eventStore := testsupport.MustOpenStore(t, cfg)

	ctx := context.Background()
	blocker := testsupport.NewBlocker("b-1")
	testsupport.RecordCreated(t, eventStore, blocker)

	events, err := eventStore.Unsynced(ctx, 10)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	event := events[0]
	if event.Type != string(registry.EventBlockerCreated) || event.BlockerID != "b-1" {
		t.Fatalf("unexpected event: %#v", event)
	}
	if event.Category != string(detect.CategoryBuildError) || event.Synced {
		t.Fatalf("unexpected event fields: %#v", event)
	}

	var payload detect.Blocker
	if err := json.Unmarshal([]byte(event.Payload), &payload); err != nil {
		t.Fatalf("payload is not valid blocker JSON: %v", err)
	}
	if payload.ID != "b-1" || payload.Description != blocker.Description {
		t.Fatalf("payload mismatch: %#v", payload)
	}
}

func TestMarkSyncedRemovesFromBacklog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eventStore := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker(fmt.Sprintf("b-%d", i)))
	}

	events, err := eventStore.Unsynced(ctx, 10)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}

	affected, err := eventStore.MarkSynced(ctx, events[0].ID, events[1].ID)
	if err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}
	if affected != 2 {
		t.Fatalf("marked %d rows, want 2", affected)
	}

	remaining, err := eventStore.Unsynced(ctx, 10)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ID != events[2].ID {
		t.Fatalf("unexpected backlog: %#v", remaining)
	}
}

func TestUnsyncedHonorsLimitAndOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eventStore := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker(fmt.Sprintf("b-%d", i)))
	}

	events, err := eventStore.Unsynced(ctx, 2)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].BlockerID != "b-0" || events[1].BlockerID != "b-1" {
		t.Fatalf("events out of insertion order: %#v", events)
	}
}

func TestHistoryFiltersByBlocker(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eventStore := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	blocker := testsupport.NewBlocker("b-1")
	testsupport.RecordCreated(t, eventStore, blocker)
	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-2"))

	resolved := blocker
	resolved.Resolved = true
	if err := eventStore.RecordEvent(ctx, registry.Event{Type: registry.EventBlockerResolved, Blocker: resolved}); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	history, err := eventStore.History(ctx, "b-1", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d events for b-1, want 2", len(history))
	}
	if history[0].Type != string(registry.EventBlockerResolved) {
		t.Fatalf("newest event first expected, got %#v", history[0])
	}

	all, err := eventStore.History(ctx, "", 10)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d events total, want 3", len(all))
	}
}

func TestStatsCountsTypesAndBacklog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eventStore := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-1"))
	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-2"))
	if err := eventStore.RecordEvent(ctx, registry.Event{Type: registry.EventBlockerResolved, Blocker: testsupport.NewBlocker("b-1")}); err != nil {
		t.Fatalf("RecordEvent failed: %v", err)
	}

	events, err := eventStore.Unsynced(ctx, 1)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if _, err := eventStore.MarkSynced(ctx, events[0].ID); err != nil {
		t.Fatalf("MarkSynced failed: %v", err)
	}

	stats, unsynced, err := eventStore.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[string(registry.EventBlockerCreated)] != 2 || stats[string(registry.EventBlockerResolved)] != 1 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
	if unsynced != 2 {
		t.Fatalf("unsynced = %d, want 2", unsynced)
	}
}

func TestCheckHealthReportsReadableDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	eventStore := testsupport.MustOpenStore(t, cfg)

	health, err := eventStore.CheckHealth(context.Background())
	if err != nil {
		t.Fatalf("CheckHealth failed: %v", err)
	}
	if !health.DatabaseExists || !health.DatabaseReadable || !health.IntegrityCheck {
		t.Fatalf("unexpected health: %#v", health)
	}
}
