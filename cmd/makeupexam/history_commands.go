package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"makeupexam/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded automation runs",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list runs: %w", err)
			}
			if ctx.jsonOutput() {
				if runs == nil {
					runs = []history.Run{}
				}
				return writeJSON(cmd, runs)
			}
			printRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")
	return cmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show [run-id]",
		Short: "Show one run with its classes and students (latest when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := resolveRun(cmd, store, args)
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, run)
			}
			printRun(cmd.OutOrStdout(), run)
			return nil
		},
	}
}

func resolveRun(cmd *cobra.Command, store *history.Store, args []string) (*history.Run, error) {
	if len(args) == 0 {
		latest, err := store.LatestRun(cmd.Context())
		if err != nil {
			return nil, fmt.Errorf("latest run: %w", err)
		}
		if latest == nil {
			return nil, errors.New("no runs recorded")
		}
		return store.GetRun(cmd.Context(), latest.ID)
	}
	id := strings.TrimSpace(args[0])
	run, err := store.GetRun(cmd.Context(), id)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, history.ErrRunNotFound) || len(id) >= 36 {
		return nil, err
	}
	// Accept the short ids printed by `history list`.
	runs, listErr := store.ListRuns(cmd.Context(), 500)
	if listErr != nil {
		return nil, listErr
	}
	var match string
	for _, candidate := range runs {
		if strings.HasPrefix(candidate.ID, id) {
			if match != "" {
				return nil, fmt.Errorf("run id %q is ambiguous", id)
			}
			match = candidate.ID
		}
	}
	if match == "" {
		return nil, err
	}
	return store.GetRun(cmd.Context(), match)
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete finished runs from history",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.requireHistory()
			if err != nil {
				return err
			}
			defer store.Close()

			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, map[string]int64{"cleared": removed})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d runs\n", removed)
			return nil
		},
	}
}
