package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"makeupexam/internal/history"
	"makeupexam/internal/preflight"
	"makeupexam/internal/tcrform"
)

type statusKind int

const (
	statusInfo statusKind = iota
	statusOK
	statusWarn
	statusError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

const (
	statusLabelWidth = 18
	statusIndent     = "  "
)

var statusStyles = map[statusKind]struct{ badge, color string }{
	statusInfo:  {"INFO", ansiBlue},
	statusOK:    {"OK", ansiGreen},
	statusWarn:  {"WARN", ansiYellow},
	statusError: {"FAIL", ansiRed},
}

// renderStatusLine prints "  Label:   [BADGE] message", colored as a whole.
func renderStatusLine(label string, kind statusKind, message string, colorize bool) string {
	style, ok := statusStyles[kind]
	if !ok {
		style = statusStyles[statusInfo]
	}
	badge := "[" + style.badge + "]"
	if message = strings.TrimSpace(message); message != "" {
		badge += " " + message
	}
	line := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, label+":", badge)
	if !colorize {
		return line
	}
	return style.color + line + ansiReset
}

func renderSectionHeader(title string, colorize bool) string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	if colorize {
		return ansiBlue + line + ansiReset
	}
	return line
}

func checkKind(result preflight.Result) statusKind {
	switch {
	case result.Passed:
		return statusOK
	case result.Optional:
		return statusWarn
	default:
		return statusError
	}
}

// classKind maps a class outcome onto a status badge. Upload failures are a
// warning: the request is prepared and only the attachment is missing.
func classKind(status tcrform.ClassStatus) statusKind {
	switch status {
	case tcrform.ClassCompleted:
		return statusOK
	case tcrform.ClassUploadFailed, tcrform.ClassSkipped:
		return statusWarn
	case tcrform.ClassFailed:
		return statusError
	default:
		return statusInfo
	}
}

func runKind(status history.RunStatus) statusKind {
	switch status {
	case history.RunCompleted:
		return statusOK
	case history.RunRunning:
		return statusInfo
	case history.RunCancelled:
		return statusWarn
	default:
		return statusError
	}
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
