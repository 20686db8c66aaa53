package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowsight/internal/capture"
	"flowsight/internal/config"
	"flowsight/internal/daemon"
	"flowsight/internal/detect"
	"flowsight/internal/ipc"
	"flowsight/internal/logging"
	"flowsight/internal/pipeline"
	"flowsight/internal/registry"
	"flowsight/internal/services/llm"
	"flowsight/internal/services/ocr"
	"flowsight/internal/store"
	"flowsight/internal/testsupport"
)

type quietOCR struct{}

func (quietOCR) Extract(context.Context, []byte) (ocr.Result, error) {
	return ocr.Result{}, nil
}

type quietLLM struct{}

func (quietLLM) AnalyzeBlocker(context.Context, llm.Request) (llm.Analysis, error) {
	return llm.Analysis{Category: "other", Severity: "low", Confidence: 0.1}, nil
}

type cliTestEnv struct {
	cfg        *config.Config
	store      *store.Store
	registry   *registry.Registry
	daemon     *daemon.Daemon
	server     *ipc.Server
	socketPath string
	configPath string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	cfg := testsupport.NewConfig(t)
	cfg.Paths.APIBind = ""
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}

	configPath := filepath.Join(homeDir, ".config", "flowsight", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	eventStore := testsupport.MustOpenStore(t, cfg)

	logger := logging.NewNop()
	matcher, err := detect.NewRuleMatcher(detect.DefaultCatalog())
	if err != nil {
		t.Fatalf("rule matcher: %v", err)
	}
	orchestrator := detect.NewOrchestrator(quietOCR{}, nil, quietLLM{}, matcher, logger)
	coordinator := capture.NewCoordinator(capture.NullSource{}, logger)
	reg := registry.New(logger)
	detector := pipeline.NewDetector(coordinator, orchestrator, reg, logger,
		pipeline.WithThreshold(cfg.Detection.ActivationThreshold),
		pipeline.WithCaptureEnabled(cfg.Capture.Enabled),
	)

	d, err := daemon.New(cfg, eventStore, reg, detector, nil, nil, logger)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	socketPath := filepath.Join(cfg.Paths.StateDir, "cli.sock")
	srv, err := ipc.NewServer(ctx, socketPath, d, logger)
	if err != nil {
		cancel()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()

	env := &cliTestEnv{
		cfg:        cfg,
		store:      eventStore,
		registry:   reg,
		daemon:     d,
		server:     srv,
		socketPath: socketPath,
		configPath: configPath,
	}

	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Stop()
	})

	return env
}

func runCLI(t *testing.T, args []string, socket, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--socket", socket}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nlog_dir = %q\nstate_dir = %q\napi_bind = %q\n",
		cfg.Paths.LogDir,
		cfg.Paths.StateDir,
		cfg.Paths.APIBind,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
