package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"makeupexam/internal/automation"
	"makeupexam/internal/browser"
)

func newLoginCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Open the portal in a debuggable Chrome so you can sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			opts := automation.LoginOptions(cfg)
			opts.Logger = logger
			result, err := browser.LaunchForLogin(cmd.Context(), opts, cfg.Form.URL)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			if result.Reused {
				fmt.Fprintf(out, "Opened the request form in the running browser (%s)\n", result.Endpoint)
			} else {
				fmt.Fprintf(out, "Launched Chrome (pid %d) with debugging on %s\n", result.PID, result.Endpoint)
			}
			fmt.Fprintln(out, "Sign in to the portal, then start a run.")
			return nil
		},
	}
}
