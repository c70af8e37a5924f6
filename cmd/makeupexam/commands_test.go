package main

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"makeupexam/internal/history"
	"makeupexam/internal/preflight"
	"makeupexam/internal/services"
	"makeupexam/internal/testsupport"
)

func TestRosterCommand(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRoster(testsupport.SampleRoster))

	out, _, err := runCLI(t, []string{"roster"}, env.configPath)
	if err != nil {
		t.Fatalf("roster: %v", err)
	}
	requireContains(t, out, "Fall 2025")
	requireContains(t, out, "Midterm")
	requireContains(t, out, "Carol White")
	requireContains(t, out, "Formula sheet")
	requireContains(t, out, "3 students in 2 classes")
}

func TestRosterCommandJSON(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRoster(testsupport.SampleRoster))

	out, _, err := runCLI(t, []string{"roster", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("roster --json: %v", err)
	}
	var payload struct {
		Term     string            `json:"term"`
		Path     string            `json:"path"`
		Students []json.RawMessage `json:"students"`
		Classes  []struct {
			Class    string            `json:"class"`
			Students []json.RawMessage `json:"students"`
		} `json:"classes"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode roster json: %v\n%s", err, out)
	}
	if payload.Term != "Fall 2025" || payload.Path != env.cfg.Roster.Path {
		t.Fatalf("unexpected roster payload: %+v", payload)
	}
	if len(payload.Students) != 3 || len(payload.Classes) != 2 || len(payload.Classes[0].Students) != 2 {
		t.Fatalf("unexpected grouping: %+v", payload.Classes)
	}
}

func TestRosterCommandMissingFile(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"roster"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "CSV file not found") {
		t.Fatalf("expected missing roster error, got %v", err)
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCheckReportsUnreachableBrowser(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRoster(testsupport.SampleRoster))

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "1 of 5 checks failed") {
		t.Fatalf("expected browser failure, got %v", err)
	}
	requireContains(t, out, "[OK] Fall 2025 / Midterm: 3 students in 2 classes")
	requireContains(t, out, "Browser:")
	requireContains(t, out, "[FAIL]")
}

func TestCheckJSONIncludesAttachment(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRoster(testsupport.SampleRoster))
	attachment := filepath.Join(env.baseDir, "exam.pdf")
	testsupport.WritePDF(t, attachment)

	out, _, err := runCLI(t, []string{"check", "--json", "--attachment", attachment}, env.configPath)
	if err == nil {
		t.Fatal("expected browser check to fail")
	}
	var results []preflight.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode check json: %v\n%s", err, out)
	}
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d", len(results))
	}
	failed := preflight.Failures(results)
	if len(failed) != 1 || failed[0].Name != "Browser" {
		t.Fatalf("expected only the browser check to fail, got %+v", failed)
	}
}

func TestRunRejectsMissingRosterAndRecordsHistory(t *testing.T) {
	env := setupCLITestEnv(t)
	attachment := filepath.Join(env.baseDir, "exam.pdf")
	testsupport.WritePDF(t, attachment)

	out, _, err := runCLI(t, []string{"run", attachment}, env.configPath)
	if err == nil || !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected missing roster error, got %v", err)
	}
	requireContains(t, out, "rejected")

	out, _, err = runCLI(t, []string{"history", "list", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	var runs []history.Run
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode runs: %v\n%s", err, out)
	}
	if len(runs) != 1 || runs[0].Status != history.RunRejected || runs[0].Source != "cli" {
		t.Fatalf("unexpected history: %+v", runs)
	}
}

func TestRunRejectsNonPDFAttachment(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithRoster(testsupport.SampleRoster))
	attachment := filepath.Join(env.baseDir, "exam.pdf")
	testsupport.WriteText(t, attachment, "not really a pdf")

	out, _, err := runCLI(t, []string{"run", "--attachment", attachment}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	requireContains(t, out, "Attachment:")
}

func TestRunRejectsDuplicateAttachment(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"run", "a.pdf", "--attachment", "b.pdf"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "not both") {
		t.Fatalf("expected argument conflict error, got %v", err)
	}
}

func seedHistory(t *testing.T, env *cliTestEnv) {
	t.Helper()
	store := testsupport.MustOpenHistory(t, env.cfg)
	ctx := context.Background()
	if _, err := store.BeginRun(ctx, history.RunStart{ID: "run-alpha", Term: "Fall 2025", Exam: "Midterm", Source: "api"}); err != nil {
		t.Fatalf("BeginRun: %v", err)
	}
	class := history.Class{
		Code:       "MATH-1314-20001",
		Status:     "completed",
		Calculator: "Scientific",
		Uploaded:   true,
		Students: []history.Student{
			{Row: 0, Name: "Alice Smith", Outcome: "selected", Match: "alice smith", Score: 1},
			{Row: 1, Name: "Bob Jones", Outcome: "no_match", Score: 0.2},
		},
	}
	if err := store.RecordClass(ctx, "run-alpha", class); err != nil {
		t.Fatalf("RecordClass: %v", err)
	}
	if err := store.FinishRun(ctx, "run-alpha", history.RunCompleted, "Automation completed: 1 of 1 classes prepared", ""); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}
}

func TestHistoryShowListAndClear(t *testing.T) {
	env := setupCLITestEnv(t)
	seedHistory(t, env)

	out, _, err := runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	requireContains(t, out, "run-alph")
	requireContains(t, out, "1/1")

	out, _, err = runCLI(t, []string{"history", "show", "run-al"}, env.configPath)
	if err != nil {
		t.Fatalf("history show: %v", err)
	}
	requireContains(t, out, "run-alpha")
	requireContains(t, out, "MATH-1314-20001")
	requireContains(t, out, "Bob Jones")
	requireContains(t, out, "1/2")

	out, _, err = runCLI(t, []string{"history", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("history show latest: %v", err)
	}
	requireContains(t, out, "Automation completed")

	if _, _, err := runCLI(t, []string{"history", "show", "nope"}, env.configPath); !errors.Is(err, history.ErrRunNotFound) {
		t.Fatalf("expected ErrRunNotFound, got %v", err)
	}

	out, _, err = runCLI(t, []string{"history", "clear"}, env.configPath)
	if err != nil {
		t.Fatalf("history clear: %v", err)
	}
	requireContains(t, out, "Cleared 1 runs")

	out, _, err = runCLI(t, []string{"history", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("history list after clear: %v", err)
	}
	requireContains(t, out, "No runs recorded")
}

func TestHistoryListRejectsBadLimit(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"history", "list", "--limit", "0"}, env.configPath); err == nil {
		t.Fatal("expected error for zero limit")
	}
}

func TestHistoryShowWithoutRuns(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"history", "show"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "no runs recorded") {
		t.Fatalf("expected empty history error, got %v", err)
	}
}
