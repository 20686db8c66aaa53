package cloudsync_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"flowsight/internal/cloudsync"
	"flowsight/internal/services"
	"flowsight/internal/testsupport"
)

type envelope struct {
	DeveloperID string `json:"developer_id"`
	Reports     []struct {
		EventID   int64           `json:"event_id"`
		EventType string          `json:"event_type"`
		Blocker   json.RawMessage `json:"blocker"`
	} `json:"reports"`
}

func TestSyncOnceDeliversAndMarksSynced(t *testing.T) {
	var (
		gotAuth string
		gotBody envelope
		calls   int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/api/reports" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSync(server.URL, "secret-key"))
	cfg.Sync.DeveloperID = "dev-7"
	eventStore := testsupport.MustOpenStore(t, cfg)
	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-1"))
	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-2"))

	syncer := cloudsync.New(eventStore, cfg.Sync, nil)
	count, err := syncer.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if count != 2 || calls != 1 {
		t.Fatalf("delivered %d events in %d calls", count, calls)
	}
	if gotAuth != "Bearer secret-key" {
		t.Fatalf("authorization = %q", gotAuth)
	}
	if gotBody.DeveloperID != "dev-7" || len(gotBody.Reports) != 2 {
		t.Fatalf("unexpected envelope: %+v", gotBody)
	}

	remaining, err := eventStore.Unsynced(context.Background(), 10)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("%d events still unsynced after delivery", len(remaining))
	}
}

func TestSyncOnceRateLimited(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSync(server.URL, "secret-key"))
	eventStore := testsupport.MustOpenStore(t, cfg)
	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-1"))

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	syncer := cloudsync.New(eventStore, cfg.Sync, nil, cloudsync.WithClock(func() time.Time { return now }))

	if _, err := syncer.SyncOnce(context.Background()); err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}

	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-2"))
	now = now.Add(3 * time.Second)
	count, err := syncer.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if count != 0 || calls != 1 {
		t.Fatalf("rate limit ignored: count=%d calls=%d", count, calls)
	}

	now = now.Add(10 * time.Second)
	count, err = syncer.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if count != 1 || calls != 2 {
		t.Fatalf("delivery after rate window: count=%d calls=%d", count, calls)
	}
}

func TestSyncOnceKeepsBacklogOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "dashboard unavailable", http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSync(server.URL, "secret-key"))
	eventStore := testsupport.MustOpenStore(t, cfg)
	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-1"))

	syncer := cloudsync.New(eventStore, cfg.Sync, nil)
	if _, err := syncer.SyncOnce(context.Background()); !errors.Is(err, services.ErrUnavailable) {
		t.Fatalf("expected unavailable error, got %v", err)
	}

	remaining, err := eventStore.Unsynced(context.Background(), 10)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if len(remaining) != 1 {
		t.Fatalf("failed delivery must keep the backlog, got %d events", len(remaining))
	}
}

func TestSyncOnceRejectedKeyIsConfigurationError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSync(server.URL, "wrong-key"))
	eventStore := testsupport.MustOpenStore(t, cfg)
	testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker("b-1"))

	syncer := cloudsync.New(eventStore, cfg.Sync, nil)
	if _, err := syncer.SyncOnce(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSyncOnceBatchesAtLimit(t *testing.T) {
	var batchSizes []int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body envelope
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		batchSizes = append(batchSizes, len(body.Reports))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithSync(server.URL, "secret-key"))
	eventStore := testsupport.MustOpenStore(t, cfg)
	for i := 0; i < 55; i++ {
		testsupport.RecordCreated(t, eventStore, testsupport.NewBlocker(fmt.Sprintf("b-%d", i)))
	}

	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	syncer := cloudsync.New(eventStore, cfg.Sync, nil, cloudsync.WithClock(func() time.Time { return now }))

	count, err := syncer.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if count != 50 {
		t.Fatalf("first batch delivered %d events, want 50", count)
	}

	now = now.Add(15 * time.Second)
	count, err = syncer.SyncOnce(context.Background())
	if err != nil {
		t.Fatalf("SyncOnce failed: %v", err)
	}
	if count != 5 {
		t.Fatalf("second batch delivered %d events, want 5", count)
	}
	if len(batchSizes) != 2 || batchSizes[0] != 50 || batchSizes[1] != 5 {
		t.Fatalf("batch sizes = %v", batchSizes)
	}
}
