package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"makeupexam/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var attachment string
	var rosterPath string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check directories, roster, attachment and the browser endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			attachmentPath, err := expandOptional(attachment)
			if err != nil {
				return fmt.Errorf("resolve attachment: %w", err)
			}
			rosterFile, err := expandOptional(rosterPath)
			if err != nil {
				return fmt.Errorf("resolve roster: %w", err)
			}

			results := preflight.RunAll(cmd.Context(), cfg, rosterFile, attachmentPath)
			if ctx.jsonOutput() {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				printCheckResults(cmd, ctx.configPath, results)
			}
			if failed := preflight.Failures(results); len(failed) > 0 {
				return fmt.Errorf("%d of %d checks failed", len(failed), len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&attachment, "attachment", "a", "", "Exam PDF to verify")
	cmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "Students CSV (defaults to roster.path)")
	return cmd
}

func printCheckResults(cmd *cobra.Command, configPath string, results []preflight.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderSectionHeader("Preflight", colorize))
	if configPath != "" {
		fmt.Fprintln(out, renderStatusLine("Config", statusInfo, configPath, colorize))
	}
	for _, result := range results {
		fmt.Fprintln(out, renderStatusLine(result.Name, checkKind(result), result.Detail, colorize))
	}
}
