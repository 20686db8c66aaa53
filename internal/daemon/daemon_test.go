package daemon_test

import (
	"context"
	"testing"

	"flowsight/internal/capture"
	"flowsight/internal/daemon"
	"flowsight/internal/detect"
	"flowsight/internal/logging"
	"flowsight/internal/pipeline"
	"flowsight/internal/registry"
	"flowsight/internal/services/llm"
	"flowsight/internal/services/ocr"
	"flowsight/internal/testsupport"
)

type idleOCR struct{}

func (idleOCR) Extract(context.Context, []byte) (ocr.Result, error) {
	return ocr.Result{Text: "reading documentation", Confidence: 0.9}, nil
}

type idleLLM struct{}

func (idleLLM) AnalyzeBlocker(context.Context, llm.Request) (llm.Analysis, error) {
	return llm.Analysis{Category: "other", Severity: "low", Confidence: 0.1}, nil
}

func newTestDaemon(t *testing.T) (*daemon.Daemon, *registry.Registry) {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	eventStore := testsupport.MustOpenStore(t, cfg)
	logger := logging.NewNop()

	matcher, err := detect.NewRuleMatcher(detect.DefaultCatalog())
	if err != nil {
		t.Fatalf("detect.NewRuleMatcher: %v", err)
	}
	orchestrator := detect.NewOrchestrator(idleOCR{}, nil, idleLLM{}, matcher, logger)
	coordinator := capture.NewCoordinator(capture.NullSource{}, logger)
	reg := registry.New(logger)
	detector := pipeline.NewDetector(coordinator, orchestrator, reg, logger,
		pipeline.WithThreshold(cfg.Detection.ActivationThreshold),
		pipeline.WithCaptureEnabled(cfg.Capture.Enabled))

	d, err := daemon.New(cfg, eventStore, reg, detector, nil, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d, reg
}

func TestDaemonStartStop(t *testing.T) {
	d, _ := newTestDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if !status.Monitoring {
		t.Fatal("expected monitoring to track the capture setting")
	}

	// Second start should fail
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonMonitoringToggle(t *testing.T) {
	d, _ := newTestDaemon(t)

	if d.StartMonitoring() {
		t.Fatal("monitoring should not start before the daemon runs")
	}

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	d.StopMonitoring()
	if d.Monitoring() {
		t.Fatal("expected monitoring to be paused")
	}
	if !d.StartMonitoring() {
		t.Fatal("expected monitoring to resume")
	}
}

func TestDaemonResolveBlocker(t *testing.T) {
	d, reg := newTestDaemon(t)

	created := reg.Create(testsupport.NewBlocker(""))

	resolved, ok := d.ResolveBlocker(created.ID, "restarted the build")
	if !ok {
		t.Fatalf("expected blocker %s to resolve", created.ID)
	}
	if !resolved.Resolved {
		t.Fatal("expected resolved flag to be set")
	}
	if resolved.SuggestedAction != "restarted the build" {
		t.Fatalf("unexpected suggested action: %q", resolved.SuggestedAction)
	}

	if _, ok := d.ResolveBlocker("missing", ""); ok {
		t.Fatal("expected resolve of unknown id to report not found")
	}
}

func TestDaemonPersistsRegistryEvents(t *testing.T) {
	d, reg := newTestDaemon(t)

	created := reg.Create(testsupport.NewBlocker(""))
	reg.Resolve(created.ID, "")

	events, err := d.EventHistory(context.Background(), created.ID, 10)
	if err != nil {
		t.Fatalf("EventHistory: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != string(registry.EventBlockerResolved) {
		t.Fatalf("expected resolved event first, got %s", events[0].Type)
	}
}
