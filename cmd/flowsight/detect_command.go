package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowsight/internal/ipc"
)

func newDetectCommand(ctx *commandContext) *cobra.Command {
	var windowTitle string
	var durationMs int64
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Run one detection cycle immediately",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Detect(windowTitle, durationMs)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}

				stdout := cmd.OutOrStdout()
				if resp.Skipped != "" {
					fmt.Fprintf(stdout, "Detection skipped: %s\n", resp.Skipped)
					return nil
				}
				fmt.Fprintf(stdout, "Consensus score: %.2f\n", resp.Score)
				if resp.Activated && resp.Blocker != nil {
					fmt.Fprintf(stdout, "Blocker detected: %s [%s/%s]\n",
						shortID(resp.Blocker.ID), resp.Blocker.Category, resp.Blocker.Severity)
					if resp.Blocker.SuggestedAction != "" {
						fmt.Fprintf(stdout, "Suggestion: %s\n", resp.Blocker.SuggestedAction)
					}
					return nil
				}
				fmt.Fprintln(stdout, "No blocker detected")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&windowTitle, "window", "", "Foreground window title for detection context")
	cmd.Flags().Int64Var(&durationMs, "duration-ms", 0, "Time spent on the current window in milliseconds")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
