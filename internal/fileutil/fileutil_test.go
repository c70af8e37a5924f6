package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFileName(t *testing.T) {
	cases := map[string]string{
		"Midterm Exam.pdf":         "Midterm Exam.pdf",
		"  quiz.pdf  ":             "quiz.pdf",
		"../../etc/passwd":         "passwd",
		`C:\Users\me\Final.pdf`:    "Final.pdf",
		"Ch 3: Limits?.pdf":        "Ch 3- Limits.pdf",
		".hidden.pdf":              "",
		"uploads/":                 "",
		"":                         "",
		`exam "v2" <draft>|a*.pdf`: "exam v2 drafta-.pdf",
	}
	for in, want := range cases {
		if got := SanitizeFileName(in); got != want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")

	path, err := WriteFileAtomic(dir, "exam.pdf", strings.NewReader("first"), 0o644)
	if err != nil {
		t.Fatalf("WriteFileAtomic: %v", err)
	}
	if path != filepath.Join(dir, "exam.pdf") {
		t.Fatalf("unexpected path %q", path)
	}
	if _, err := WriteFileAtomic(dir, "exam.pdf", strings.NewReader("second"), 0o644); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected only the final file, got %d entries", len(entries))
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteFileAtomicRemovesPartialFile(t *testing.T) {
	dir := t.TempDir()

	if _, err := WriteFileAtomic(dir, "exam.pdf", failingReader{}, 0o644); err == nil {
		t.Fatal("expected error from failing reader")
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected no files left behind, got %d", len(entries))
	}
}
