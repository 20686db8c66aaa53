package vision_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"flowsight/internal/services"
	"flowsight/internal/services/vision"
)

func TestAnalyzeParsesVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req struct {
			Model  string   `json:"model"`
			Images []string `json:"images"`
			Stream bool     `json:"stream"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "llava:7b" {
			t.Errorf("model = %q", req.Model)
		}
		if len(req.Images) != 1 || req.Stream {
			t.Errorf("unexpected request shape: %+v", req)
		}
		w.Write([]byte(`{"response":"{\"has_error\":true,\"has_stack_trace\":true,\"has_loading_indicator\":false,\"description\":\"Terminal with a failed build.\",\"confidence\":0.85}"}`))
	}))
	defer srv.Close()

	client := vision.NewClient(vision.Config{BaseURL: srv.URL, Model: "llava:7b"})
	result, err := client.Analyze(context.Background(), []byte{1, 2, 3})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !result.HasError || !result.HasStackTrace || result.HasLoadingIndicator {
		t.Fatalf("unexpected flags: %+v", result)
	}
	if result.Description != "Terminal with a failed build." {
		t.Fatalf("description = %q", result.Description)
	}
	if result.Confidence != 0.85 {
		t.Fatalf("confidence = %v", result.Confidence)
	}
}

func TestAnalyzeModelError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"model not found"}`))
	}))
	defer srv.Close()

	client := vision.NewClient(vision.Config{BaseURL: srv.URL, Model: "llava:7b"})
	_, err := client.Analyze(context.Background(), []byte{1})
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool marker, got %v", err)
	}
}

func TestAnalyzeRequiresModel(t *testing.T) {
	client := vision.NewClient(vision.Config{})
	_, err := client.Analyze(context.Background(), []byte{1})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration marker, got %v", err)
	}
}
