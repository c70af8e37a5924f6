package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makeupexam/internal/automation"
	"makeupexam/internal/config"
	"makeupexam/internal/preflight"
	"makeupexam/internal/services"
	"makeupexam/internal/tcrform"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var attachment string
	var rosterPath string
	var examFromAttachment bool

	cmd := &cobra.Command{
		Use:   "run [exam.pdf]",
		Short: "Fill one make-up exam request per class in the students CSV",
		Long: "Attach to the debuggable Chrome session, open the Testing Center request form,\n" +
			"and prepare one request per class: header, course, students, exam details and\n" +
			"the attached PDF. Requests are left open for review; nothing is submitted.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				if strings.TrimSpace(attachment) != "" {
					return errors.New("pass the exam file either as an argument or with --attachment, not both")
				}
				attachment = args[0]
			}
			attachmentPath, err := expandOptional(attachment)
			if err != nil {
				return fmt.Errorf("resolve attachment: %w", err)
			}
			rosterFile, err := expandOptional(rosterPath)
			if err != nil {
				return fmt.Errorf("resolve roster: %w", err)
			}

			store := ctx.openHistory(logger)
			if store != nil {
				defer store.Close()
			}
			runner, err := automation.NewRunner(cfg, logger, automation.WithHistory(store))
			if err != nil {
				return err
			}
			defer runner.Close()

			result, runErr := runner.Run(cmd.Context(), automation.Request{
				RosterPath:         rosterFile,
				AttachmentPath:     attachmentPath,
				ExamFromAttachment: examFromAttachment,
				Source:             "cli",
			})
			if ctx.jsonOutput() && result != nil {
				if err := writeJSON(cmd, result); err != nil {
					return err
				}
			} else if result != nil {
				printRunResult(cmd, result)
			}
			if runErr != nil {
				if errors.Is(runErr, services.ErrBusy) {
					return fmt.Errorf("%w (lock %s)", runErr, cfg.LockPath())
				}
				return runErr
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&attachment, "attachment", "a", "", "Exam PDF to upload with each request")
	cmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "Students CSV (defaults to roster.path)")
	cmd.Flags().BoolVar(&examFromAttachment, "exam-from-attachment", false, "Use the attachment file name as the exam name")
	return cmd
}

func printRunResult(cmd *cobra.Command, result *automation.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	fmt.Fprintln(out, renderSectionHeader("Run "+result.RunID, colorize))
	if failed := preflight.Failures(result.Preflight); len(failed) > 0 {
		for _, check := range failed {
			fmt.Fprintln(out, renderStatusLine(check.Name, statusError, check.Detail, colorize))
		}
	}
	printReport(out, result.Report)
	if result.Report != nil {
		for _, class := range result.Report.Classes {
			if class.Status != tcrform.ClassCompleted {
				fmt.Fprintln(out, renderStatusLine(class.Class, classKind(class.Status), class.Error, colorize))
			}
		}
	}
	fmt.Fprintln(out, renderStatusLine("Result", runKind(result.Status), string(result.Status), colorize))
	if result.Success && result.Message != "" {
		fmt.Fprintln(out, result.Message)
		fmt.Fprintln(out, "Review each request in the browser and submit it manually.")
	}
	if result.LogPath != "" {
		fmt.Fprintf(out, "Log: %s\n", result.LogPath)
	}
}

func expandOptional(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	return config.ExpandPath(path)
}
