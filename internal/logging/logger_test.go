package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"makeupexam/internal/config"
	"makeupexam/internal/logging"
	"makeupexam/internal/services"
)

func newFileLogger(t *testing.T, format, level string) (*slog.Logger, string) {
	t.Helper()
	logPath := filepath.Join(t.TempDir(), "test.log")
	logger, err := logging.New(logging.Options{
		Format:           format,
		Level:            level,
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return logger, logPath
}

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("hello from config")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, "makeupexam.log"))
	if !strings.Contains(content, "hello from config") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestConsoleLoggerFormatsComponentAndClass(t *testing.T) {
	logger, path := newFileLogger(t, "console", "info")

	logging.NewComponentLogger(logger, "tcrform").Info("student selected",
		logging.String(logging.FieldClass, "MATH-1314-20001"),
		logging.String("name", "Jane Doe"),
		logging.Float64("score", 0.91),
	)

	content := readLog(t, path)
	for _, want := range []string{" INFO ", "[MATH-1314-20001] tcrform: student selected", `name="Jane Doe"`, "score=0.91"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
	if strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logger, path := newFileLogger(t, "console", "debug")
	logger.Debug("with caller")
	if content := readLog(t, path); !strings.Contains(content, ".go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestJSONLoggerRenamesKeys(t *testing.T) {
	logger, path := newFileLogger(t, "json", "info")
	logger.Warn("json line", logging.Error(errors.New("boom")))

	var entry map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(readLog(t, path))), &entry); err != nil {
		t.Fatalf("decode json log: %v", err)
	}
	if entry["level"] != "warn" {
		t.Fatalf("expected lowercase level, got %v", entry["level"])
	}
	if _, ok := entry["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", entry)
	}
	if entry["msg"] != "json line" || entry["error"] != "boom" {
		t.Fatalf("unexpected entry: %v", entry)
	}
}

func TestWithContextAddsRunFields(t *testing.T) {
	logger, path := newFileLogger(t, "json", "info")
	ctx := services.WithRunID(context.Background(), "run-9")
	ctx = services.WithClass(ctx, "MATH-1324-1")

	logging.WithContext(ctx, logger).Info("contextual")

	content := readLog(t, path)
	if !strings.Contains(content, `"run_id":"run-9"`) || !strings.Contains(content, `"class":"MATH-1324-1"`) {
		t.Fatalf("expected context fields in %q", content)
	}
}

func TestWarnWithContextFillsDefaults(t *testing.T) {
	logger, path := newFileLogger(t, "json", "info")
	logging.WarnWithContext(logger, "no match", "student_no_match", logging.String(logging.FieldImpact, "student left blank"))

	content := readLog(t, path)
	for _, want := range []string{`"event_type":"student_no_match"`, `"error_hint":"check logs for details"`, `"impact":"student left blank"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %s in %q", want, content)
		}
	}
}

func TestOpenRunLogTeesToRunFile(t *testing.T) {
	var base bytes.Buffer
	logDir := t.TempDir()
	logger, path, closeLog, err := logging.OpenRunLog(slog.New(slog.NewTextHandler(&base, nil)), logDir, "run-1")
	if err != nil {
		t.Fatalf("OpenRunLog returned error: %v", err)
	}
	logger.Debug("debug detail")
	logger.Info("run started")
	if err := closeLog(); err != nil {
		t.Fatalf("close run log: %v", err)
	}

	if path != logging.RunLogPath(logDir, "run-1") {
		t.Fatalf("unexpected run log path %q", path)
	}
	content := readLog(t, path)
	if !strings.Contains(content, "debug detail") || !strings.Contains(content, `"run_id":"run-1"`) {
		t.Fatalf("expected debug line with run id in run log, got %q", content)
	}
	if strings.Contains(base.String(), "debug detail") {
		t.Fatal("base logger should keep its own level")
	}
	if !strings.Contains(base.String(), "run started") {
		t.Fatalf("expected info line in base output, got %q", base.String())
	}
}

func TestPruneRunLogsRemovesOldFiles(t *testing.T) {
	logDir := t.TempDir()
	runDir := logging.RunLogDir(logDir)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	oldPath := filepath.Join(runDir, "old.log")
	newPath := filepath.Join(runDir, "new.log")
	for _, p := range []string{oldPath, newPath} {
		if err := os.WriteFile(p, []byte("{}"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	past := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(oldPath, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	if removed := logging.PruneRunLogs(logging.NewNop(), logDir, 5); removed != 1 {
		t.Fatalf("expected one file removed, got %d", removed)
	}
	if _, err := os.Stat(oldPath); !os.IsNotExist(err) {
		t.Fatalf("expected old log removed, stat err=%v", err)
	}
	if _, err := os.Stat(newPath); err != nil {
		t.Fatalf("expected new log kept: %v", err)
	}
	if removed := logging.PruneRunLogs(nil, logDir, 0); removed != 0 {
		t.Fatal("expected retention 0 to disable pruning")
	}
}
