package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

func newResultCommand(ctx *commandContext) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:     "result <job-id>",
		Aliases: []string{"download"},
		Short:   "Download the finished video of a done job",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.apiClient()
			if err != nil {
				return err
			}

			tmp, err := os.CreateTemp("", "reelsmith-result-*")
			if err != nil {
				return fmt.Errorf("create temp file: %w", err)
			}
			tmpPath := tmp.Name()
			defer os.Remove(tmpPath)

			name, err := client.DownloadResult(cmd.Context(), args[0], tmp)
			closeErr := tmp.Close()
			if err != nil {
				return err
			}
			if closeErr != nil {
				return fmt.Errorf("flush download: %w", closeErr)
			}

			target := strings.TrimSpace(output)
			if target == "" {
				if name == "" {
					name = args[0] + ".mp4"
				}
				target = name
			}
			if dir := filepath.Dir(target); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return fmt.Errorf("create output directory: %w", err)
				}
			}
			if err := os.Rename(tmpPath, target); err != nil {
				// Rename fails across filesystems; fall back to a copy.
				data, readErr := os.ReadFile(tmpPath)
				if readErr != nil {
					return fmt.Errorf("read downloaded result: %w", readErr)
				}
				if writeErr := os.WriteFile(target, data, 0o644); writeErr != nil {
					return fmt.Errorf("write result to %s: %w", target, writeErr)
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Saved result to %s\n", target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination path for the downloaded video")
	return cmd
}
