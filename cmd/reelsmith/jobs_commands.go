package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelsmith/internal/api"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	jobsCmd := &cobra.Command{
		Use:   "jobs",
		Short: "Inspect submitted jobs",
	}

	jobsCmd.AddCommand(newJobsListCommand(ctx))
	jobsCmd.AddCommand(newJobsShowCommand(ctx))

	return jobsCmd
}

func newJobsListCommand(ctx *commandContext) *cobra.Command {
	var statuses []string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			list, err := client.ListJobs(cmd.Context(), statuses)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, api.JobListResponse{Jobs: list})
			}
			if len(list) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs")
				return nil
			}

			rows := make([][]string, 0, len(list))
			for _, snapshot := range list {
				rows = append(rows, []string{
					snapshot.ID,
					snapshot.Project,
					snapshot.Status,
					snapshot.Stage,
					progressCell(snapshot),
					shortTime(snapshot.CreatedAt),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"ID", "Project", "Status", "Stage", "Progress", "Created"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
			))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&statuses, "status", nil, "Filter by status (repeatable): queued, running, done, failed")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}

func newJobsShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one job in detail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			snapshot, err := client.GetJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, snapshot)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:       %s\n", snapshot.ID)
			fmt.Fprintf(out, "Project:  %s\n", snapshot.Project)
			fmt.Fprintf(out, "Status:   %s\n", snapshot.Status)
			if snapshot.Stage != "" {
				fmt.Fprintf(out, "Stage:    %s\n", snapshot.Stage)
			}
			fmt.Fprintf(out, "Progress: %s\n", progressCell(snapshot))
			if snapshot.Message != "" {
				fmt.Fprintf(out, "Message:  %s\n", snapshot.Message)
			}
			if snapshot.Failure != nil {
				fmt.Fprintf(out, "Failure:  %s\n", failureSummary(snapshot.Failure))
			}
			if snapshot.Result != nil {
				fmt.Fprintf(out, "Result:   %s (from %s stage)\n", snapshot.Result.Name, snapshot.Result.Stage)
			}
			for key, value := range snapshot.Params {
				fmt.Fprintf(out, "Param:    %s=%s\n", key, value)
			}
			fmt.Fprintf(out, "Created:  %s\n", shortTime(snapshot.CreatedAt))
			fmt.Fprintf(out, "Updated:  %s\n", shortTime(snapshot.UpdatedAt))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit machine-readable JSON")
	return cmd
}
