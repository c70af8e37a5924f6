package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makeupexam/internal/automation"
	"makeupexam/internal/logging"
	"makeupexam/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the make-up exam HTTP API until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if value := strings.TrimSpace(bind); value != "" {
				cfg.Server.Bind = value
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
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

			var opts []server.Option
			if store != nil {
				opts = append(opts, server.WithHistory(store))
			}
			srv, err := server.New(cfg, runner, logger, opts...)
			if err != nil {
				return err
			}
			runCtx := cmd.Context()
			if err := srv.Start(runCtx); err != nil {
				return err
			}
			if cfg.Server.APIToken == "" {
				logging.WarnWithContext(logger, "api token not configured", "api_unauthenticated",
					logging.String(logging.FieldImpact, "any local process can start runs"),
					logging.String(logging.FieldErrorHint, "set server.api_token or MAKEUPEXAM_API_TOKEN"),
				)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Serving on http://%s (Ctrl+C to stop)\n", srv.Addr())

			<-runCtx.Done()
			srv.Stop()
			logger.Info("api server stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to server.bind)")
	return cmd
}
