package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// SampleRoster is a students CSV with two classes and three students.
const SampleRoster = "Term,Exam\n" +
	"Fall 2025,Midterm\n" +
	"Class,Name,Start Date,End Date,Hours,Minutes,Specify\n" +
	"MATH-1314-20001,Alice Smith,10/01/2025,10/03/2025,2,30,\n" +
	"MATH-1324-20002,Carol White,10/02/2025,10/04/2025,1,0,Formula sheet\n" +
	"MATH-1314-20001,Bob Jones,10/05/2025,10/06/2025,3,0,\n"

// minimalPDF is enough of a PDF for content sniffing.
const minimalPDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n<< /Root 1 0 R >>\n%%EOF\n"

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// WritePDF writes a minimal PDF document to path.
func WritePDF(t testing.TB, path string) {
	t.Helper()
	WriteText(t, path, minimalPDF)
}

// PDFBytes returns the minimal PDF document used by WritePDF.
func PDFBytes() []byte {
	return []byte(minimalPDF)
}

// WriteText writes contents to path, creating parent directories.
func WriteText(t testing.TB, path, contents string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
