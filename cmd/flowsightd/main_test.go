package main

import (
	"path/filepath"
	"testing"

	"flowsight/internal/config"
	"flowsight/internal/logging"
	"flowsight/internal/registry"
	"flowsight/internal/testsupport"
)

func TestBuildDetector(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	logger := logging.NewNop()
	reg := registry.New(logger)

	detector, err := buildDetector(cfg, reg, logger)
	if err != nil {
		t.Fatalf("buildDetector: %v", err)
	}

	health := detector.Health()
	if !health.OCRConfigured {
		t.Fatal("expected OCR provider to be configured")
	}
	if !health.LLMConfigured {
		t.Fatal("expected LLM provider to be configured")
	}
	if !health.VisionConfigured {
		t.Fatal("expected vision provider to be configured with default base url")
	}
}

func TestBuildDetectorWithoutVision(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Vision.BaseURL = ""
	logger := logging.NewNop()

	detector, err := buildDetector(cfg, registry.New(logger), logger)
	if err != nil {
		t.Fatalf("buildDetector: %v", err)
	}
	if detector.Health().VisionConfigured {
		t.Fatal("expected vision provider to be absent without a base url")
	}
}

func TestBuildSyncer(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if buildSyncer(cfg, nil, logging.NewNop()) != nil {
		t.Fatal("expected no syncer while sync is disabled")
	}

	cfg = testsupport.NewConfig(t, testsupport.WithSync("http://dashboard.example", "key"))
	eventStore := testsupport.MustOpenStore(t, cfg)
	if buildSyncer(cfg, eventStore, logging.NewNop()) == nil {
		t.Fatal("expected syncer when sync is enabled")
	}
}

func TestBuildSocketPath(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.StateDir = filepath.Join(t.TempDir(), "state")

	expected := filepath.Join(cfg.Paths.StateDir, "flowsight.sock")
	if got := buildSocketPath(&cfg); got != expected {
		t.Fatalf("expected socket path %q, got %q", expected, got)
	}
	if got := buildSocketPath(nil); got != filepath.Join("", "flowsight.sock") {
		t.Fatalf("unexpected default socket path %q", got)
	}
}
