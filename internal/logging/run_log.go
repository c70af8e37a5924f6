package logging

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
)

// RunLogDir returns the directory holding per-run log files.
func RunLogDir(logDir string) string {
	return filepath.Join(logDir, "runs")
}

// RunLogPath returns the JSON log file for a single automation run.
func RunLogPath(logDir, runID string) string {
	return filepath.Join(RunLogDir(logDir), runID+".log")
}

// OpenRunLog tees base into a debug-level JSON file dedicated to runID.
// The returned close function flushes and closes the file; it is safe to call
// when logDir is empty, in which case base is returned unchanged.
func OpenRunLog(base *slog.Logger, logDir, runID string) (*slog.Logger, string, func() error, error) {
	if base == nil {
		base = NewNop()
	}
	if strings.TrimSpace(logDir) == "" || strings.TrimSpace(runID) == "" {
		return base, "", func() error { return nil }, nil
	}
	path := RunLogPath(logDir, runID)
	file, err := openLogFile(path)
	if err != nil {
		return base, "", func() error { return nil }, fmt.Errorf("open run log: %w", err)
	}
	handler := newJSONHandler(file, slog.LevelDebug, false)
	logger := TeeLogger(base, handler).With(String(FieldRunID, runID))
	return logger, path, file.Close, nil
}
