package main

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"flowsight/internal/ipc"
)

func printSection(w io.Writer, title string, colorize bool) {
	for _, line := range renderSectionHeader(title, colorize) {
		fmt.Fprintln(w, line)
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show detection statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Stats()
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}

				stdout := cmd.OutOrStdout()
				colorize := shouldColorize(stdout)
				printSection(stdout, "Blockers", colorize)
				summary := [][]string{
					{"Total", fmt.Sprintf("%d", resp.Total)},
					{"Active", fmt.Sprintf("%d", resp.Active)},
					{"Resolved", fmt.Sprintf("%d", resp.Resolved)},
				}
				fmt.Fprintln(stdout, renderTable([]string{"State", "Count"}, summary, []columnAlignment{alignLeft, alignRight}))

				if len(resp.ByCategory) > 0 {
					printSection(stdout, "By Category", colorize)
					fmt.Fprintln(stdout, renderTable([]string{"Category", "Count"}, countRows(resp.ByCategory), []columnAlignment{alignLeft, alignRight}))
				}
				if len(resp.BySeverity) > 0 {
					printSection(stdout, "By Severity", colorize)
					fmt.Fprintln(stdout, renderTable([]string{"Severity", "Count"}, countRows(resp.BySeverity), []columnAlignment{alignLeft, alignRight}))
				}

				printSection(stdout, "Events", colorize)
				events := append(countRows(resp.Events), []string{"Unsynced", fmt.Sprintf("%d", resp.UnsyncedEvents)})
				fmt.Fprintln(stdout, renderTable([]string{"Kind", "Count"}, events, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func countRows(counts map[string]int) [][]string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		rows = append(rows, []string{key, fmt.Sprintf("%d", counts[key])})
	}
	return rows
}
