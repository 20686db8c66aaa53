package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowsight/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var blockerID string
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded blocker events",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.History(blockerID, limit)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Events) == 0 {
					fmt.Fprintln(stdout, "No events recorded")
					return nil
				}
				rows := make([][]string, 0, len(resp.Events))
				for _, event := range resp.Events {
					rows = append(rows, []string{
						fmt.Sprintf("%d", event.ID),
						event.Type,
						shortID(event.BlockerID),
						event.Category,
						event.Severity,
						event.CreatedAt,
						yesNo(event.Synced),
					})
				}
				headers := []string{"#", "Type", "Blocker", "Category", "Severity", "At", "Synced"}
				aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft}
				fmt.Fprintln(stdout, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&blockerID, "id", "", "Filter events to one blocker")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum events to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}
