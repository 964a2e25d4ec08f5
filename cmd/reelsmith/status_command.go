package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/jobs"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon and pipeline status",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			status, err := client.Status(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			fmt.Fprintln(out, heading("Reelsmith Daemon", colorize))
			fmt.Fprintf(out, "Running:     %s\n", yesNo(status.Running))
			fmt.Fprintf(out, "PID:         %d\n", status.PID)
			fmt.Fprintf(out, "Jobs DB:     %s\n", status.JobsDBPath)
			fmt.Fprintf(out, "Staging dir: %s\n", status.StagingDir)
			if status.LastError != "" {
				fmt.Fprintf(out, "Last error:  %s\n", status.LastError)
			}
			fmt.Fprintln(out)

			statRows := make([][]string, 0, len(jobs.AllStatuses()))
			for _, st := range jobs.AllStatuses() {
				statRows = append(statRows, []string{string(st), fmt.Sprintf("%d", status.JobStats[string(st)])})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Status", "Jobs"},
				statRows,
				[]columnAlignment{alignLeft, alignRight},
			))

			healthRows := make([][]string, 0, len(status.StageHealth))
			for _, health := range status.StageHealth {
				ready := "ready"
				if !health.Ready {
					ready = "unavailable"
				}
				healthRows = append(healthRows, []string{health.Name, ready, health.Detail})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Stage", "Health", "Detail"},
				healthRows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
