package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"flowsight/internal/services"
)

func TestWrapTagsSentinel(t *testing.T) {
	err := services.Wrap(services.ErrTimeout, "vision", "analyze", "model did not respond", nil)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout marker, got %v", err)
	}
	want := "timeout: vision: analyze: model did not respond"
	if err.Error() != want {
		t.Fatalf("message = %q, want %q", err.Error(), want)
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "ocr", "extract", "", errors.New("boom"))
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"nil", nil, nil},
		{"already tagged", services.Wrap(services.ErrUnavailable, "llm", "chat", "", nil), services.ErrUnavailable},
		{"deadline", fmt.Errorf("call: %w", context.DeadlineExceeded), services.ErrTimeout},
		{"unknown", errors.New("mystery"), services.ErrTransient},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := services.Classify(tc.err)
			if tc.want == nil {
				if got != nil {
					t.Fatalf("expected nil, got %v", got)
				}
				return
			}
			if !errors.Is(got, tc.want) {
				t.Fatalf("Classify(%v) = %v, want marker %v", tc.err, got, tc.want)
			}
		})
	}
}
