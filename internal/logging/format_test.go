package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestFormatValue(t *testing.T) {
	cases := []struct {
		name  string
		value slog.Value
		want  string
	}{
		{"plain string", slog.StringValue("selected"), "selected"},
		{"spaced string", slog.StringValue("Jane Doe"), `"Jane Doe"`},
		{"empty string", slog.StringValue(""), `""`},
		{"score", slog.Float64Value(0.916666), "0.9167"},
		{"whole float", slog.Float64Value(1), "1"},
		{"int", slog.IntValue(42), "42"},
		{"bool", slog.BoolValue(true), "true"},
		{"duration", slog.DurationValue(1234567 * time.Microsecond), "1.235s"},
		{"short duration", slog.DurationValue(250 * time.Microsecond), "250µs"},
		{"error", slog.AnyValue(errors.New("frame not found")), `"frame not found"`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatValue(tc.value); got != tc.want {
				t.Fatalf("formatValue = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestPlainValueIsUnquoted(t *testing.T) {
	if got := plainValue(slog.StringValue("MATH 1314")); got != "MATH 1314" {
		t.Fatalf("plainValue = %q", got)
	}
}

func TestFormatValueTruncatesLongText(t *testing.T) {
	long := strings.Repeat("x", maxValueRunes+50)
	got := formatValue(slog.StringValue(long))
	if !strings.HasSuffix(got, "…\"") && !strings.HasSuffix(got, "…") {
		t.Fatalf("expected truncation marker, got suffix %q", got[len(got)-5:])
	}
	if n := len([]rune(got)); n > maxValueRunes+3 {
		t.Fatalf("expected value capped near %d runes, got %d", maxValueRunes, n)
	}
}

func TestFormatTimestampUsesLocalMillis(t *testing.T) {
	ts := time.Date(2025, 10, 1, 8, 30, 15, 123_000_000, time.Local)
	if got := formatTimestamp(ts); got != "2025-10-01 08:30:15.123" {
		t.Fatalf("formatTimestamp = %q", got)
	}
}

func TestScoreRoundsToThreeDecimals(t *testing.T) {
	attr := Score("score", 0.87654)
	if attr.Key != "score" || attr.Value.Float64() != 0.877 {
		t.Fatalf("unexpected score attr: %v", attr)
	}
	if got := plainValue(attr.Value); got != "0.877" {
		t.Fatalf("plainValue = %q, want 0.877", got)
	}
}
