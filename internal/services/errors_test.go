package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"makeupexam/internal/history"
	"makeupexam/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrBrowser, "form", "fill", "term field", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrBrowser) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"form", "fill", "term field"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "automation failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestFailureStatusMapping(t *testing.T) {
	validationErr := services.Wrap(services.ErrValidation, "roster", "parse", "missing term", nil)
	if status := services.FailureStatus(validationErr); status != history.RunRejected {
		t.Fatalf("expected rejected for validation error, got %s", status)
	}

	browserErr := services.Wrap(services.ErrBrowser, "browser", "connect", "cdp unreachable", errors.New("dial"))
	if status := services.FailureStatus(browserErr); status != history.RunFailed {
		t.Fatalf("expected failed for browser error, got %s", status)
	}

	cancelled := fmt.Errorf("run: %w", context.Canceled)
	if status := services.FailureStatus(cancelled); status != history.RunCancelled {
		t.Fatalf("expected cancelled, got %s", status)
	}

	if status := services.FailureStatus(nil); status != history.RunFailed {
		t.Fatalf("expected failed for nil error, got %s", status)
	}
}

func TestIsTimeout(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{services.Wrap(services.ErrTimeout, "browser", "wait", "10s", nil), true},
		{fmt.Errorf("navigate: %w", context.DeadlineExceeded), true},
		{services.Wrap(services.ErrBrowser, "browser", "attach", "", errors.New("refused")), false},
		{context.Canceled, false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := services.IsTimeout(tc.err); got != tc.want {
			t.Fatalf("IsTimeout(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
