package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiCyan   = "\x1b[36m"
)

const (
	statusLabelWidth = 18
	statusKindWidth  = 5
	statusIndent     = "  "
)

// renderStatusLine formats one "label  kind  message" status row. Only the
// kind column is colorized so the message stays readable when piped through
// tools that strip partial escape sequences.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	kindText := fmt.Sprintf("%-*s", statusKindWidth, statusKindLabel(kind))
	if colorize {
		if color := statusKindColor(kind); color != "" {
			kindText = color + kindText + ansiReset
		}
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label, kindText)
	if message != "" {
		line += " " + message
	}
	return line
}

func statusKindLabel(kind statusKind) string {
	switch kind {
	case statusOK:
		return "ok"
	case statusWarn:
		return "warn"
	case statusError:
		return "error"
	default:
		return "info"
	}
}

func statusKindColor(kind statusKind) string {
	switch kind {
	case statusOK:
		return ansiGreen
	case statusWarn:
		return ansiYellow
	case statusError:
		return ansiRed
	case statusInfo:
		return ansiBlue
	default:
		return ""
	}
}

// renderSectionHeader returns a section title underlined with '='.
func renderSectionHeader(title string, colorize bool) []string {
	line := strings.TrimSpace(title)
	rule := strings.Repeat("=", len(line))
	if colorize {
		line = ansiCyan + line + ansiReset
		rule = ansiCyan + rule + ansiReset
	}
	return []string{line, rule}
}

// shouldColorize honors NO_COLOR and otherwise colorizes only real TTYs.
func shouldColorize(writer io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
