package preflight_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowsight/internal/config"
	"flowsight/internal/preflight"
)

func TestCheckDirectoryAccess(t *testing.T) {
	base := t.TempDir()

	ok := preflight.CheckDirectoryAccess("State directory", base)
	if !ok.Passed {
		t.Fatalf("writable directory failed: %+v", ok)
	}

	missing := preflight.CheckDirectoryAccess("State directory", filepath.Join(base, "nope"))
	if missing.Passed || !strings.Contains(missing.Detail, "does not exist") {
		t.Fatalf("missing directory misreported: %+v", missing)
	}

	file := filepath.Join(base, "file")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	notDir := preflight.CheckDirectoryAccess("State directory", file)
	if notDir.Passed || !strings.Contains(notDir.Detail, "not a directory") {
		t.Fatalf("file misreported: %+v", notDir)
	}
}

func TestCheckOllama(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := preflight.CheckOllama(context.Background(), "Vision model", server.URL, "llava:7b")
	if !result.Passed || !strings.Contains(result.Detail, "llava:7b") {
		t.Fatalf("unexpected result: %+v", result)
	}

	missing := preflight.CheckOllama(context.Background(), "Vision model", "", "llava:7b")
	if missing.Passed || missing.Detail != "missing url" {
		t.Fatalf("missing url misreported: %+v", missing)
	}
}

func TestCheckDashboardAuthFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	result := preflight.CheckDashboard(context.Background(), config.Sync{
		DashboardURL: server.URL,
		APIKey:       "bad-key",
	})
	if result.Passed || !strings.Contains(result.Detail, "auth failed") {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestRunAllSkipsUnconfiguredProviders(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.StateDir = filepath.Join(base, "state")
	cfg.Vision.BaseURL = ""
	cfg.LLM.BaseURL = ""
	cfg.OCR.Endpoint = ""
	cfg.Sync.Enabled = false

	results := preflight.RunAll(context.Background(), &cfg)
	for _, result := range results {
		if result.Name == "Vision model" || result.Name == "Language model" || result.Name == "Dashboard" {
			t.Fatalf("unconfigured provider checked: %+v", result)
		}
	}
	// Log dir, state dir, and the OCR endpoint stub are always evaluated.
	if len(results) != 3 {
		t.Fatalf("got %d results: %+v", len(results), results)
	}
}
