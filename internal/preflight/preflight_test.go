package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"makeupexam/internal/services"
	"makeupexam/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckRoster(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.csv")
	testsupport.WriteText(t, good, testsupport.SampleRoster)

	result := CheckRoster(good)
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "3 students in 2 classes") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}

	short := filepath.Join(dir, "short.csv")
	testsupport.WriteText(t, short, "Term,Exam\nFall,Midterm\n")
	if CheckRoster(short).Passed {
		t.Fatal("expected failure for roster without students")
	}
	if CheckRoster(filepath.Join(dir, "missing.csv")).Passed {
		t.Fatal("expected failure for missing roster")
	}
}

func TestCheckAttachment(t *testing.T) {
	dir := t.TempDir()
	pdf := filepath.Join(dir, "exam.pdf")
	testsupport.WritePDF(t, pdf)
	if result := CheckAttachment(pdf); !result.Passed {
		t.Fatalf("expected pass for pdf, got: %s", result.Detail)
	}

	text := filepath.Join(dir, "exam.pdf.txt")
	testsupport.WriteText(t, text, "just some notes\n")
	result := CheckAttachment(text)
	if result.Passed {
		t.Fatal("expected failure for text attachment")
	}
	if !strings.Contains(result.Detail, "not a PDF") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}

	if CheckAttachment(dir).Passed {
		t.Fatal("expected failure for directory")
	}
	if CheckAttachment(filepath.Join(dir, "missing.pdf")).Passed {
		t.Fatal("expected failure for missing file")
	}
}

func TestDetectPDF(t *testing.T) {
	mtype, err := DetectPDF(strings.NewReader(string(testsupport.PDFBytes())))
	if err != nil {
		t.Fatalf("DetectPDF returned error: %v", err)
	}
	if mtype != "application/pdf" {
		t.Fatalf("unexpected type: %s", mtype)
	}
	if _, err := DetectPDF(strings.NewReader("<html></html>")); !errors.Is(err, ErrNotPDF) {
		t.Fatalf("expected ErrNotPDF, got %v", err)
	}
}

func TestCheckBrowser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Browser":"Chrome/126.0","Protocol-Version":"1.3"}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithCDPEndpoint(srv.URL))
	result := CheckBrowser(context.Background(), cfg)
	if !result.Passed || !strings.Contains(result.Detail, "Chrome/126.0") {
		t.Fatalf("expected reachable browser, got: %+v", result)
	}
}

func TestCheckBrowserUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithCDPEndpoint(endpoint))
	cfg.Browser.LaunchOnFailure = false
	if result := CheckBrowser(context.Background(), cfg); result.Passed {
		t.Fatalf("expected failure without launch fallback, got: %+v", result)
	}

	cfg = testsupport.NewConfig(t, testsupport.WithCDPEndpoint(endpoint), testsupport.WithStubbedBrowser())
	cfg.Browser.LaunchOnFailure = true
	result := CheckBrowser(context.Background(), cfg)
	if !result.Passed || !strings.Contains(result.Detail, "will launch") {
		t.Fatalf("expected launch fallback to pass, got: %+v", result)
	}
}

func TestRunAllAndError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"Browser":"Chrome/126.0"}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t,
		testsupport.WithCDPEndpoint(srv.URL),
		testsupport.WithRoster(testsupport.SampleRoster),
	)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	pdf := filepath.Join(cfg.Paths.UploadDir, "exam.pdf")
	testsupport.WritePDF(t, pdf)

	results := RunAll(context.Background(), cfg, "", pdf)
	if len(results) != 6 {
		t.Fatalf("expected 6 results, got %d: %+v", len(results), results)
	}
	if err := Error(results); err != nil {
		t.Fatalf("expected all checks to pass, got %v", err)
	}

	results = RunAll(context.Background(), cfg, filepath.Join(t.TempDir(), "missing.csv"), "")
	if len(results) != 5 {
		t.Fatalf("expected attachment check skipped, got %d results", len(results))
	}
	err := Error(results)
	if !errors.Is(err, services.ErrValidation) || !strings.Contains(err.Error(), "Roster") {
		t.Fatalf("expected roster validation error, got %v", err)
	}
}

func TestFailuresIgnoresOptional(t *testing.T) {
	results := []Result{
		{Name: "a", Passed: true},
		{Name: "b", Optional: true},
		{Name: "c"},
	}
	failed := Failures(results)
	if len(failed) != 1 || failed[0].Name != "c" {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}
