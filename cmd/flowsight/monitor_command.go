package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowsight/internal/ipc"
)

func newMonitorCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monitor <pause|resume>",
		Short: "Pause or resume background monitoring",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var enable bool
			switch args[0] {
			case "pause":
				enable = false
			case "resume":
				enable = true
			default:
				return fmt.Errorf("expected pause or resume, got %q", args[0])
			}
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Monitor(enable)
				if err != nil {
					return err
				}
				if enable && !resp.Monitoring {
					fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
					return nil
				}
				if resp.Monitoring {
					fmt.Fprintln(cmd.OutOrStdout(), "Monitoring resumed")
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "Monitoring paused")
				}
				return nil
			})
		},
	}
	return cmd
}
