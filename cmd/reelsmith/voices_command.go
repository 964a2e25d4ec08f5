package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVoicesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "voices",
		Short: "List available narration voices",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			resp, err := client.Voices(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, resp)
			}
			out := cmd.OutOrStdout()
			if !resp.OK {
				fmt.Fprintf(out, "Voice catalogue unavailable: %s\n", resp.Message)
				return nil
			}
			if len(resp.Voices) == 0 {
				fmt.Fprintln(out, "No voices available")
				return nil
			}

			rows := make([][]string, 0, len(resp.Voices))
			for _, voice := range resp.Voices {
				rows = append(rows, []string{voice.ID, voice.Name})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Name"},
				rows,
				[]columnAlignment{alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
