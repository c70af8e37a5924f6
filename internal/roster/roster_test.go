package roster_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"makeupexam/internal/roster"
	"makeupexam/internal/services"
)

const sampleCSV = "Term,Exam\r\n" +
	"Fall 2024,Final Exam\r\n" +
	"\r\n" +
	"Class,Name,Start Date,End Date,Hours,Minutes,Specify,Notes\r\n" +
	"MATH-1314-20001,\"Doe, Jane\",12/01/2024,12/05/2024,2,30,Extra time,front row\r\n" +
	"MATH-1324-20002,John Smith,12/02/2024,12/06/2024,1,0,,\r\n" +
	",Missing Class,12/02/2024,12/06/2024,1,0,,\r\n" +
	"MATH-1314-20001,Ana Lopez,12/01/2024,12/05/2024,2\r\n"

func TestParseReadsTermExamAndStudents(t *testing.T) {
	r, err := roster.Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if r.Term != "Fall 2024" || r.Exam != "Final Exam" {
		t.Fatalf("unexpected term/exam: %q %q", r.Term, r.Exam)
	}
	if len(r.Students) != 3 {
		t.Fatalf("expected 3 students (row without class skipped), got %d", len(r.Students))
	}
	first := r.Students[0]
	if first.Name != "Doe, Jane" {
		t.Fatalf("expected quoted comma to stay in one cell, got %q", first.Name)
	}
	if first.Hours != "2" || first.Minutes != "30" || first.Specify != "Extra time" {
		t.Fatalf("unexpected first student: %+v", first)
	}
	if first.Extra["Notes"] != "front row" {
		t.Fatalf("expected extra column preserved, got %v", first.Extra)
	}
	last := r.Students[2]
	if last.Minutes != "" || last.Specify != "" {
		t.Fatalf("expected missing trailing cells to read empty, got %+v", last)
	}
}

func TestParseToleratesBOM(t *testing.T) {
	data := "\ufeff" + sampleCSV
	r, err := roster.Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if r.Term != "Fall 2024" {
		t.Fatalf("expected BOM stripped from header, got term %q", r.Term)
	}
}

func TestParseTermExamInAnyColumn(t *testing.T) {
	data := "Instructor,Exam,Term\nSmith,Midterm\nClass,Name\nA,B\n"
	r, err := roster.Parse(strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if r.Exam != "Midterm" {
		t.Fatalf("unexpected exam %q", r.Exam)
	}
	if r.Term != "" {
		t.Fatalf("expected short data row to yield empty term, got %q", r.Term)
	}
	if err := r.Validate(); err == nil {
		t.Fatal("expected validation error for empty term")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want error
	}{
		{"too few lines", "Term,Exam\nFall,Final\n\nClass,Name\n", roster.ErrMissingRows},
		{"missing exam header", "Term,Test\nFall,Final\nClass,Name\nA,B\n", services.ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := roster.Parse(strings.NewReader(tt.data))
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGroupsPreserveFirstAppearanceOrder(t *testing.T) {
	r, err := roster.Parse(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	groups := r.Groups()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].Class != "MATH-1314-20001" || groups[1].Class != "MATH-1324-20002" {
		t.Fatalf("unexpected group order: %q, %q", groups[0].Class, groups[1].Class)
	}
	names := []string{groups[0].Students[0].Name, groups[0].Students[1].Name}
	if names[0] != "Doe, Jane" || names[1] != "Ana Lopez" {
		t.Fatalf("unexpected row order within class: %v", names)
	}
}

func TestLoadMissingFileIsNotFound(t *testing.T) {
	_, err := roster.Load(filepath.Join(t.TempDir(), "Students.csv"))
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestLoadReadsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Students.csv")
	if err := os.WriteFile(path, []byte(sampleCSV), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	r, err := roster.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if err := r.Validate(); err != nil {
		t.Fatalf("expected valid roster: %v", err)
	}
}

func TestValidateRequiresStudents(t *testing.T) {
	r := &roster.Roster{Term: "Fall", Exam: "Final"}
	if err := r.Validate(); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
