package main

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"flowsight/internal/ipc"
)

func newBlockersCommand(ctx *commandContext) *cobra.Command {
	var all bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "blockers",
		Short: "List detected blockers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Blockers(!all)
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), resp)
				}

				stdout := cmd.OutOrStdout()
				if len(resp.Blockers) == 0 {
					if all {
						fmt.Fprintln(stdout, "No blockers recorded")
					} else {
						fmt.Fprintln(stdout, "No active blockers")
					}
					return nil
				}

				rows := make([][]string, 0, len(resp.Blockers))
				for _, blocker := range resp.Blockers {
					rows = append(rows, []string{
						shortID(blocker.ID),
						blocker.Category,
						blocker.Severity,
						fmt.Sprintf("%.2f", blocker.Confidence),
						formatAge(blocker.CreatedAt),
						yesNo(blocker.Resolved),
						truncate(blocker.Description, 48),
					})
				}
				headers := []string{"ID", "Category", "Severity", "Confidence", "Age", "Resolved", "Description"}
				aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft, alignLeft}
				fmt.Fprintln(stdout, renderTable(headers, rows, aligns))
				return nil
			})
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "Include resolved blockers")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON output")
	return cmd
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	if limit <= 3 || len(value) <= limit {
		return value
	}
	cut := limit - 3
	for cut > 0 && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return value[:cut] + "..."
}

func formatAge(createdAt string) string {
	if createdAt == "" {
		return ""
	}
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		return createdAt
	}
	age := time.Since(ts)
	switch {
	case age < time.Minute:
		return fmt.Sprintf("%ds", int(age.Seconds()))
	case age < time.Hour:
		return fmt.Sprintf("%dm", int(age.Minutes()))
	case age < 24*time.Hour:
		return fmt.Sprintf("%dh", int(age.Hours()))
	default:
		return fmt.Sprintf("%dd", int(age.Hours()/24))
	}
}
