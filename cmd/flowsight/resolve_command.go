package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"flowsight/internal/ipc"
)

func newResolveCommand(ctx *commandContext) *cobra.Command {
	var action string

	cmd := &cobra.Command{
		Use:   "resolve <blocker-id>",
		Short: "Mark a blocker as resolved",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Resolve(args[0], action)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Blocker %s resolved\n", shortID(resp.Blocker.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&action, "action", "", "Record what resolved the blocker")
	return cmd
}
