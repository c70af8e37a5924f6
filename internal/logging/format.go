package logging

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"
)

const (
	logTimestampLayout = "2006-01-02 15:04:05.000"
	// maxValueRunes caps console values; CDP errors can embed whole documents.
	maxValueRunes = 240
)

func formatTimestamp(ts time.Time) string {
	if ts.IsZero() {
		ts = time.Now()
	}
	return ts.In(time.Local).Format(logTimestampLayout)
}

// plainValue renders the value used in the line prefix, unquoted.
func plainValue(v slog.Value) string {
	return truncateValue(renderValue(v.Resolve()))
}

// formatValue renders a key=value attribute, quoting when the text would be
// ambiguous on a single line.
func formatValue(v slog.Value) string {
	v = v.Resolve()
	s := truncateValue(renderValue(v))
	switch v.Kind() {
	case slog.KindString, slog.KindAny:
		if needsQuotes(s) {
			return strconv.Quote(s)
		}
	}
	return s
}

func renderValue(v slog.Value) string {
	switch v.Kind() {
	case slog.KindString:
		return v.String()
	case slog.KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', 4, 64)
	case slog.KindDuration:
		d := v.Duration()
		if d >= time.Millisecond {
			d = d.Round(time.Millisecond)
		}
		return d.String()
	case slog.KindTime:
		return formatTimestamp(v.Time())
	case slog.KindAny:
		switch value := v.Any().(type) {
		case error:
			return value.Error()
		case fmt.Stringer:
			return value.String()
		default:
			return fmt.Sprint(value)
		}
	default:
		return v.String()
	}
}

func truncateValue(s string) string {
	if utf8.RuneCountInString(s) <= maxValueRunes {
		return s
	}
	runes := []rune(s)
	return string(runes[:maxValueRunes]) + "…"
}

func needsQuotes(s string) bool {
	if s == "" {
		return true
	}
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			return true
		}
	}
	return false
}
