package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"flowsight/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var lines int
	var follow bool

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logPath := filepath.Join(cfg.Paths.LogDir, "flowsight.log")

			printed := false
			err = logs.Tail(cmd.Context(), logPath, logs.TailOptions{
				Limit:  lines,
				Follow: follow,
			}, func(line string) {
				printed = true
				fmt.Fprintln(cmd.OutOrStdout(), line)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			if !printed && !follow {
				fmt.Fprintf(cmd.OutOrStdout(), "No log output yet at %s\n", logPath)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 100, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming appended log lines")
	return cmd
}
