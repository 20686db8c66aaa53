package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flowsight/internal/daemonctl"
	"flowsight/internal/ipc"
)

func newDaemonCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the flowsight daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.Launched {
				fmt.Fprintln(stdout, "Daemon not running, launching...")
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				fmt.Fprintln(stdout, "Daemon started")
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Message) != "" {
					fmt.Fprintln(stdout, result.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	stopCmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the flowsight daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.socketPath(), ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if !result.StopAcknowledged {
				fmt.Fprintln(stdout, "Stop request sent")
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the flowsight daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.socketPath(),
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}

			switch result.Start.State {
			case daemonctl.StartStateStarted, daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon restarted")
			case daemonctl.StartStateRequested:
				if strings.TrimSpace(result.Start.Message) != "" {
					fmt.Fprintln(stdout, result.Start.Message)
					return nil
				}
				fmt.Fprintln(stdout, "Start request sent")
			}
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and detection pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			status := daemonctl.StatusSnapshot(ctx.socketPath())
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("System Status", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range systemStatusLines(ctx, status, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Detection Pipeline", colorize) {
				fmt.Fprintln(stdout, line)
			}
			for _, line := range pipelineStatusLines(status, colorize) {
				fmt.Fprintln(stdout, line)
			}
			fmt.Fprintln(stdout)

			for _, line := range renderSectionHeader("Blockers", colorize) {
				fmt.Fprintln(stdout, line)
			}
			if status.TotalCount == 0 {
				fmt.Fprintln(stdout, "No blockers recorded")
				return nil
			}
			rows := [][]string{
				{"Active", strconv.Itoa(status.ActiveCount)},
				{"Resolved", strconv.Itoa(status.TotalCount - status.ActiveCount)},
				{"Total", strconv.Itoa(status.TotalCount)},
			}
			fmt.Fprintln(stdout, renderTable([]string{"State", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopCmd, restartCmd, statusCmd}
}

func systemStatusLines(ctx *commandContext, status *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 4)
	if status.Running {
		lines = append(lines, renderStatusLine("FlowSight", statusOK, fmt.Sprintf("Running (pid %d)", status.PID), colorize))
		if status.Monitoring {
			lines = append(lines, renderStatusLine("Monitoring", statusOK, "Active", colorize))
		} else {
			lines = append(lines, renderStatusLine("Monitoring", statusWarn, "Paused", colorize))
		}
	} else {
		lines = append(lines, renderStatusLine("FlowSight", statusWarn, "Not running (run `flowsight start`)", colorize))
	}

	cfg := ctx.configValue()
	if cfg != nil {
		if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
			lines = append(lines, renderStatusLine("Notifications", statusOK, "Configured", colorize))
		} else {
			lines = append(lines, renderStatusLine("Notifications", statusInfo, "Not configured", colorize))
		}
		if cfg.Sync.Enabled {
			lines = append(lines, renderStatusLine("Cloud Sync", statusOK, cfg.Sync.DashboardURL, colorize))
		} else {
			lines = append(lines, renderStatusLine("Cloud Sync", statusInfo, "Disabled", colorize))
		}
	}
	return lines
}

func pipelineStatusLines(status *ipc.StatusResponse, colorize bool) []string {
	health := status.Pipeline
	lines := make([]string, 0, 5)

	providerLine := func(label string, configured bool) string {
		if configured {
			return renderStatusLine(label, statusOK, "Configured", colorize)
		}
		return renderStatusLine(label, statusWarn, "Not configured", colorize)
	}
	lines = append(lines, providerLine("OCR", health.OCRConfigured))
	lines = append(lines, providerLine("Vision", health.VisionConfigured))
	lines = append(lines, providerLine("Language Model", health.LLMConfigured))

	if health.CaptureEnabled {
		lines = append(lines, renderStatusLine("Capture", statusOK, "Enabled", colorize))
	} else {
		lines = append(lines, renderStatusLine("Capture", statusWarn, "Disabled (privacy gate)", colorize))
	}

	if health.Degraded {
		reasons := append([]string(nil), health.DegradedReasons...)
		sort.Strings(reasons)
		lines = append(lines, renderStatusLine("Health", statusWarn, strings.Join(reasons, "; "), colorize))
	} else {
		lines = append(lines, renderStatusLine("Health", statusOK, "All providers ready", colorize))
	}
	if health.LastDetection != "" {
		detail := health.LastDetection
		if health.LastScore > 0 {
			detail = fmt.Sprintf("%s (score %.2f)", health.LastDetection, health.LastScore)
		}
		lines = append(lines, renderStatusLine("Last Detection", statusInfo, detail, colorize))
	}
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.socketFlag != nil {
		if socket := strings.TrimSpace(*ctx.socketFlag); socket != "" {
			opts.SocketPath = socket
		}
	}
	if ctx.configFlag != nil {
		if config := strings.TrimSpace(*ctx.configFlag); config != "" {
			opts.ConfigPath = config
		}
	}
	return opts
}
