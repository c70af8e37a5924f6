package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"makeupexam/internal/history"
	"makeupexam/internal/tcrform"
)

const timeLayout = "2006-01-02 15:04:05"

func classRows(report *tcrform.Report) [][]string {
	if report == nil {
		return nil
	}
	rows := make([][]string, 0, len(report.Classes))
	for _, c := range report.Classes {
		rows = append(rows, []string{
			c.Class,
			string(c.Status),
			c.Calculator,
			fmt.Sprintf("%d/%d", c.Selected(), len(c.Students)),
			yesNo(c.Uploaded),
			classNote(c.Step, c.Error),
		})
	}
	return rows
}

func studentRows(report *tcrform.Report) [][]string {
	if report == nil {
		return nil
	}
	var rows [][]string
	for _, c := range report.Classes {
		for _, s := range c.Students {
			rows = append(rows, []string{
				c.Class,
				s.Name,
				string(s.Outcome),
				s.Match,
				formatScore(s.Score),
			})
		}
	}
	return rows
}

func printReport(out io.Writer, report *tcrform.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(out, "Term: %s\nExam: %s\n", report.Term, report.Exam)
	if report.Attachment != "" {
		fmt.Fprintf(out, "Attachment: %s\n", report.Attachment)
	}
	if len(report.Classes) == 0 {
		return
	}
	fmt.Fprintln(out, renderTable([]column{
		left("Class"), left("Status"), left("Calculator"), right("Selected"), left("Uploaded"), wrapped("Note", 48),
	}, classRows(report)))
	if rows := studentRows(report); len(rows) > 0 {
		fmt.Fprintln(out, renderTable([]column{
			left("Class"), left("Student"), left("Outcome"), left("Matched"), right("Score"),
		}, rows))
	}
}

func runRows(runs []history.Run) [][]string {
	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			shortID(run.ID),
			string(run.Status),
			formatTime(run.StartedAt),
			formatDuration(run.Duration()),
			strings.TrimSpace(run.Term + " " + run.Exam),
			fmt.Sprintf("%d/%d", run.PreparedCount, run.ClassCount),
			run.Source,
		})
	}
	return rows
}

func printRuns(out io.Writer, runs []history.Run) {
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded")
		return
	}
	fmt.Fprintln(out, renderTable([]column{
		left("ID"), left("Status"), left("Started"), right("Took"), left("Exam"), right("Prepared"), left("Source"),
	}, runRows(runs)))
}

func printRun(out io.Writer, run *history.Run) {
	fmt.Fprintf(out, "Run:      %s\n", run.ID)
	fmt.Fprintf(out, "Status:   %s\n", run.Status)
	fmt.Fprintf(out, "Started:  %s\n", formatTime(run.StartedAt))
	if !run.FinishedAt.IsZero() {
		fmt.Fprintf(out, "Finished: %s (%s)\n", formatTime(run.FinishedAt), formatDuration(run.Duration()))
	}
	if run.Term != "" || run.Exam != "" {
		fmt.Fprintf(out, "Exam:     %s\n", strings.TrimSpace(run.Term+" "+run.Exam))
	}
	if run.Attachment != "" {
		fmt.Fprintf(out, "File:     %s\n", run.Attachment)
	}
	if run.Message != "" {
		fmt.Fprintf(out, "Result:   %s\n", run.Message)
	}
	if run.Error != "" && run.Error != run.Message {
		fmt.Fprintf(out, "Error:    %s\n", run.Error)
	}
	if len(run.Classes) == 0 {
		return
	}
	classes := make([][]string, 0, len(run.Classes))
	var students [][]string
	for _, c := range run.Classes {
		selected := 0
		for _, s := range c.Students {
			if s.Outcome == string(tcrform.StudentSelected) {
				selected++
			}
			students = append(students, []string{c.Code, s.Name, s.Outcome, s.Match, formatScore(s.Score)})
		}
		classes = append(classes, []string{
			strconv.Itoa(c.Position + 1),
			c.Code,
			c.Status,
			c.Calculator,
			fmt.Sprintf("%d/%d", selected, len(c.Students)),
			yesNo(c.Uploaded),
			classNote(c.Step, c.Error),
		})
	}
	fmt.Fprintln(out, renderTable([]column{
		right("#"), left("Class"), left("Status"), left("Calculator"), right("Selected"), left("Uploaded"), wrapped("Note", 48),
	}, classes))
	if len(students) > 0 {
		fmt.Fprintln(out, renderTable([]column{
			left("Class"), left("Student"), left("Outcome"), left("Matched"), right("Score"),
		}, students))
	}
}

func classNote(step, errMsg string) string {
	switch {
	case errMsg == "":
		return ""
	case step == "":
		return errMsg
	default:
		return step + ": " + errMsg
	}
}

func formatScore(score float64) string {
	if score <= 0 {
		return "-"
	}
	return strconv.FormatFloat(score, 'f', 2, 64)
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
