package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowsight/internal/ipc"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <blocker-id>",
		Short: "Display blocker details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Describe(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}
				printBlockerDetail(cmd, resp.Blocker)
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func printBlockerDetail(cmd *cobra.Command, blocker ipc.Blocker) {
	stdout := cmd.OutOrStdout()
	fmt.Fprintf(stdout, "ID:           %s\n", blocker.ID)
	fmt.Fprintf(stdout, "Created:      %s\n", blocker.CreatedAt)
	fmt.Fprintf(stdout, "Category:     %s\n", blocker.Category)
	fmt.Fprintf(stdout, "Severity:     %s\n", blocker.Severity)
	fmt.Fprintf(stdout, "Confidence:   %.2f\n", blocker.Confidence)
	fmt.Fprintf(stdout, "Resolved:     %s\n", yesNo(blocker.Resolved))
	fmt.Fprintf(stdout, "Description:  %s\n", blocker.Description)
	if blocker.SuggestedAction != "" {
		fmt.Fprintf(stdout, "Suggestion:   %s\n", blocker.SuggestedAction)
	}
	if blocker.WindowName != "" {
		fmt.Fprintf(stdout, "Window:       %s\n", blocker.WindowName)
	}
	if blocker.ActivityDurationMs > 0 {
		fmt.Fprintf(stdout, "Activity:     %dms on the same window\n", blocker.ActivityDurationMs)
	}
	if len(blocker.Signals) > 0 {
		fmt.Fprintln(stdout, "Signals:")
		for _, signal := range blocker.Signals {
			fmt.Fprintf(stdout, "  - %s\n", signal)
		}
	}
	if blocker.Vision != nil {
		fmt.Fprintf(stdout, "Vision:       error=%s stack-trace=%s loading=%s (%.2f)\n",
			yesNo(blocker.Vision.HasError),
			yesNo(blocker.Vision.HasStackTrace),
			yesNo(blocker.Vision.HasLoadingIndicator),
			blocker.Vision.Confidence)
	}
	if blocker.OCRText != "" {
		fmt.Fprintln(stdout, "Screen text:")
		fmt.Fprintf(stdout, "  %s\n", truncate(blocker.OCRText, 200))
	}
}
