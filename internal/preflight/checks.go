package preflight

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/sys/unix"

	"makeupexam/internal/browser"
	"makeupexam/internal/config"
	"makeupexam/internal/roster"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckRoster parses and validates the students CSV.
func CheckRoster(path string) Result {
	const name = "Roster"

	r, err := roster.Load(path)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if err := r.Validate(); err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	return Result{
		Name:   name,
		Passed: true,
		Detail: fmt.Sprintf("%s / %s: %d students in %d classes", r.Term, r.Exam, len(r.Students), len(r.Groups())),
	}
}

// ErrNotPDF reports an attachment whose content is not a PDF document.
var ErrNotPDF = errors.New("attachment is not a PDF")

// DetectPDF sniffs r and returns the detected media type. The error wraps
// ErrNotPDF when the content is anything other than a PDF.
func DetectPDF(r io.Reader) (string, error) {
	mtype, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect content type: %w", err)
	}
	if !mtype.Is("application/pdf") {
		return mtype.String(), fmt.Errorf("%w (detected %s)", ErrNotPDF, mtype.String())
	}
	return mtype.String(), nil
}

// CheckAttachment verifies the exam attachment exists and is a PDF.
func CheckAttachment(path string) Result {
	const name = "Attachment"

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if _, err := DetectPDF(f); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (PDF, %d bytes)", path, info.Size())}
}

// CheckBrowser verifies the DevTools endpoint answers. When the endpoint is
// down but launching is enabled the check passes if a Chrome binary exists.
func CheckBrowser(ctx context.Context, cfg *config.Config) Result {
	const name = "Browser"

	status := CheckBrowser(ctx, cfg)
	if status.Reachable {
		return Result{Name: name, Passed: true, Detail: status.Detail()}
	}
	if !cfg.Browser.LaunchOnFailure {
		return Result{Name: name, Detail: status.Detail() + "; start Chrome with --remote-debugging-port or run `makeupexam login`"}
	}
	path, err := browser.FindExecutable(cfg.Browser.ExecPath)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s; cannot launch one: %v", status.Detail(), err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s; will launch %s", status.Detail(), path)}
}
