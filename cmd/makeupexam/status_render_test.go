package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/jedib0t/go-pretty/v6/text"

	"makeupexam/internal/history"
	"makeupexam/internal/preflight"
	"makeupexam/internal/tcrform"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Browser", statusError, "not reachable", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Browser:", "[FAIL] not reachable")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Roster", statusOK, "", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green line, got %q", got)
	}
	if !strings.Contains(got, "[OK]") {
		t.Fatalf("expected OK badge, got %q", got)
	}
}

func TestCheckKind(t *testing.T) {
	cases := []struct {
		result preflight.Result
		want   statusKind
	}{
		{preflight.Result{Passed: true}, statusOK},
		{preflight.Result{Optional: true}, statusWarn},
		{preflight.Result{}, statusError},
	}
	for _, tc := range cases {
		if got := checkKind(tc.result); got != tc.want {
			t.Fatalf("checkKind(%+v) = %v, want %v", tc.result, got, tc.want)
		}
	}
}

func TestClassAndRunKinds(t *testing.T) {
	classes := map[tcrform.ClassStatus]statusKind{
		tcrform.ClassCompleted:    statusOK,
		tcrform.ClassUploadFailed: statusWarn,
		tcrform.ClassSkipped:      statusWarn,
		tcrform.ClassFailed:       statusError,
	}
	for status, want := range classes {
		if got := classKind(status); got != want {
			t.Fatalf("classKind(%q) = %v, want %v", status, got, want)
		}
	}
	runs := map[history.RunStatus]statusKind{
		history.RunCompleted: statusOK,
		history.RunRunning:   statusInfo,
		history.RunCancelled: statusWarn,
		history.RunRejected:  statusError,
		history.RunFailed:    statusError,
	}
	for status, want := range runs {
		if got := runKind(status); got != want {
			t.Fatalf("runKind(%q) = %v, want %v", status, got, want)
		}
	}
}

func TestUnknownStatusKindFallsBackToInfo(t *testing.T) {
	if got := renderStatusLine("Note", statusKind(42), " spaced ", false); !strings.Contains(got, "[INFO] spaced") {
		t.Fatalf("expected INFO badge with trimmed message, got %q", got)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{left("Class"), right("Selected"), {header: "Note", align: text.AlignLeft}}, [][]string{
		{"MATH-1314-20001", "2/2"},
	})
	for _, want := range []string{"CLASS", "SELECTED", "NOTE", "MATH-1314-20001", "2/2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected table to contain %q:\n%s", want, out)
		}
	}
	if renderTable(nil, nil) != "" {
		t.Fatal("expected empty output without columns")
	}
}

func TestClassRowsSummarizeReport(t *testing.T) {
	report := &tcrform.Report{Classes: []tcrform.ClassResult{{
		Class:      "MATH-1324-20002",
		Status:     tcrform.ClassUploadFailed,
		Calculator: "Any",
		Step:       "upload",
		Error:      "file input not found anywhere",
		Students: []tcrform.StudentResult{
			{Name: "Carol White", Outcome: tcrform.StudentSelected, Score: 0.93},
			{Name: "Dan Brown", Outcome: tcrform.StudentNoMatch},
		},
	}}}

	rows := classRows(report)
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	want := []string{"MATH-1324-20002", "upload_failed", "Any", "1/2", "no", "upload: file input not found anywhere"}
	for i, cell := range want {
		if rows[0][i] != cell {
			t.Fatalf("column %d = %q, want %q", i, rows[0][i], cell)
		}
	}
	students := studentRows(report)
	if len(students) != 2 || students[0][4] != "0.93" || students[1][4] != "-" {
		t.Fatalf("unexpected student rows: %v", students)
	}
}

func TestDurationCell(t *testing.T) {
	cases := map[[2]string]string{
		{"2", "30"}: "2h 30m",
		{"", "45"}:  "0h 45m",
		{"1", ""}:   "1h 0m",
		{"", ""}:    "",
	}
	for in, want := range cases {
		if got := durationCell(in[0], in[1]); got != want {
			t.Fatalf("durationCell(%q, %q) = %q, want %q", in[0], in[1], got, want)
		}
	}
}
