package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"makeupexam/internal/roster"
)

func newRosterCommand(ctx *commandContext) *cobra.Command {
	var rosterPath string

	cmd := &cobra.Command{
		Use:   "roster",
		Short: "Show the students CSV the way a run will read it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := expandOptional(rosterPath)
			if err != nil {
				return fmt.Errorf("resolve roster: %w", err)
			}
			if path == "" {
				path = cfg.Roster.Path
			}
			students, err := roster.Load(path)
			if err != nil {
				return err
			}
			validateErr := students.Validate()

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, struct {
					*roster.Roster
					Path    string              `json:"path"`
					Classes []roster.ClassGroup `json:"classes"`
				}{students, path, students.Groups()}); err != nil {
					return err
				}
				return validateErr
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Roster: %s\nTerm:   %s\nExam:   %s\n", path, students.Term, students.Exam)
			rows := make([][]string, 0, len(students.Students))
			for i, group := range students.Groups() {
				for _, s := range group.Students {
					rows = append(rows, []string{
						strconv.Itoa(i + 1), s.Class, s.Name, s.StartDate, s.EndDate,
						durationCell(s.Hours, s.Minutes), s.Specify,
					})
				}
			}
			if len(rows) > 0 {
				fmt.Fprintln(out, renderTable([]column{
					right("Form"), left("Class"), left("Name"), left("Start"), left("End"), right("Time"), wrapped("Notes", 40),
				}, rows))
			}
			fmt.Fprintf(out, "%d students in %d classes\n", len(students.Students), len(students.Groups()))
			return validateErr
		},
	}

	cmd.Flags().StringVarP(&rosterPath, "roster", "r", "", "Students CSV (defaults to roster.path)")
	return cmd
}

func durationCell(hours, minutes string) string {
	if hours == "" && minutes == "" {
		return ""
	}
	if hours == "" {
		hours = "0"
	}
	if minutes == "" {
		minutes = "0"
	}
	return hours + "h " + minutes + "m"
}
