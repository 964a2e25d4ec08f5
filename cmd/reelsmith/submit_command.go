package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newSubmitCommand(ctx *commandContext) *cobra.Command {
	var topic string
	var style string
	var voice string
	var extraParams []string
	var wait bool

	cmd := &cobra.Command{
		Use:   "submit <project>",
		Short: "Submit a new production job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			project := strings.TrimSpace(args[0])
			if project == "" {
				return fmt.Errorf("project name is required")
			}

			params := map[string]string{}
			if strings.TrimSpace(topic) != "" {
				params["topic"] = strings.TrimSpace(topic)
			}
			if strings.TrimSpace(style) != "" {
				params["style"] = strings.TrimSpace(style)
			}
			if strings.TrimSpace(voice) != "" {
				params["voice_id"] = strings.TrimSpace(voice)
			}
			for _, pair := range extraParams {
				key, value, found := strings.Cut(pair, "=")
				if !found || strings.TrimSpace(key) == "" {
					return fmt.Errorf("invalid --param %q, expected key=value", pair)
				}
				params[strings.TrimSpace(key)] = value
			}

			client, err := ctx.apiClient()
			if err != nil {
				return err
			}
			jobID, err := client.Submit(cmd.Context(), project, params)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Job %s queued for project %s\n", jobID, project)
			if !wait {
				return nil
			}

			for {
				select {
				case <-cmd.Context().Done():
					return cmd.Context().Err()
				case <-time.After(time.Second):
				}
				snapshot, err := client.GetJob(cmd.Context(), jobID)
				if err != nil {
					return err
				}
				switch snapshot.Status {
				case "done":
					fmt.Fprintf(out, "Job %s done\n", jobID)
					return nil
				case "failed":
					return fmt.Errorf("job %s failed: %s", jobID, failureSummary(snapshot.Failure))
				default:
					fmt.Fprintf(out, "  %s %s (%s)\n", snapshot.Status, snapshot.Stage, progressCell(snapshot))
				}
			}
		},
	}

	cmd.Flags().StringVar(&topic, "topic", "", "Topic the script stage writes about (required by the pipeline)")
	cmd.Flags().StringVar(&style, "style", "", "Content style: ad, post, or story")
	cmd.Flags().StringVar(&voice, "voice", "", "Narration voice id")
	cmd.Flags().StringArrayVar(&extraParams, "param", nil, "Additional job parameter as key=value (repeatable)")
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job reaches a terminal state")
	return cmd
}
