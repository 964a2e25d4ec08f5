package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPublishCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publish <job-id> <platform>",
		Short: "Request publishing of a finished job per its posting plan",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Publish(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", resp.Message, resp.Platform)
			return nil
		},
	}
	return cmd
}
