package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"flowsight/internal/logs"
)

func collect(t *testing.T, path string, opts logs.TailOptions) []string {
	t.Helper()
	var lines []string
	if err := logs.Tail(context.Background(), path, opts, func(line string) {
		lines = append(lines, line)
	}); err != nil {
		t.Fatalf("tail: %v", err)
	}
	return lines
}

func TestTailReturnsTrailingLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowsight.log")
	content := "one\ntwo\nthree\nfour\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	lines := collect(t, path, logs.TailOptions{Limit: 2})
	if len(lines) != 2 || lines[0] != "three" || lines[1] != "four" {
		t.Fatalf("unexpected lines: %v", lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.log")
	lines := collect(t, path, logs.TailOptions{Limit: 10})
	if len(lines) != 0 {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

func TestTailFollowDeliversAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flowsight.log")
	if err := os.WriteFile(path, []byte("seed\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan string, 8)
	done := make(chan error, 1)
	go func() {
		done <- logs.Tail(ctx, path, logs.TailOptions{
			Limit:        1,
			Follow:       true,
			PollInterval: 10 * time.Millisecond,
		}, func(line string) {
			got <- line
		})
	}()

	if line := <-got; line != "seed" {
		t.Fatalf("expected seed line, got %q", line)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	if _, err := f.WriteString("appended\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	select {
	case line := <-got:
		if line != "appended" {
			t.Fatalf("expected appended line, got %q", line)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for appended line")
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
