package main

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderStatusLineAlignsLabels(t *testing.T) {
	line := renderStatusLine("OCR", statusOK, "Configured", false)
	if !strings.Contains(line, "OCR") || !strings.Contains(line, "Configured") {
		t.Fatalf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "ok") {
		t.Fatalf("expected kind column, got %q", line)
	}
	if strings.Contains(line, ansiGreen) {
		t.Fatalf("expected no color codes, got %q", line)
	}

	other := renderStatusLine("Vision", statusError, "Unreachable", false)
	if strings.Index(line, "Configured") != strings.Index(other, "Unreachable") {
		t.Fatalf("message columns misaligned:\n%q\n%q", line, other)
	}
}

func TestRenderStatusLineColorized(t *testing.T) {
	line := renderStatusLine("Capture", statusWarn, "Disabled", true)
	if !strings.Contains(line, ansiYellow) {
		t.Fatalf("expected warn color, got %q", line)
	}
	if strings.Contains(line, ansiYellow+"Disabled") {
		t.Fatalf("message should stay uncolored: %q", line)
	}
}

func TestRenderSectionHeader(t *testing.T) {
	lines := renderSectionHeader("Blockers", false)
	if len(lines) != 2 {
		t.Fatalf("expected title and rule, got %d lines", len(lines))
	}
	if lines[0] != "Blockers" {
		t.Fatalf("unexpected title: %q", lines[0])
	}
	if lines[1] != strings.Repeat("=", len("Blockers")) {
		t.Fatalf("unexpected rule: %q", lines[1])
	}
}

func TestShouldColorizeRespectsNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")
	if shouldColorize(&bytes.Buffer{}) {
		t.Fatal("expected no color for non-terminal writer")
	}
}
