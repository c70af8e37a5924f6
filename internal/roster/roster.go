package roster

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"makeupexam/internal/services"
)

// Column names recognised in the student header row.
const (
	ColumnClass     = "Class"
	ColumnName      = "Name"
	ColumnStartDate = "Start Date"
	ColumnEndDate   = "End Date"
	ColumnHours     = "Hours"
	ColumnMinutes   = "Minutes"
	ColumnSpecify   = "Specify"
)

var knownColumns = map[string]struct{}{
	ColumnClass:     {},
	ColumnName:      {},
	ColumnStartDate: {},
	ColumnEndDate:   {},
	ColumnHours:     {},
	ColumnMinutes:   {},
	ColumnSpecify:   {},
}

// ErrMissingRows reports a file with fewer than the four required lines.
var ErrMissingRows = errors.New("missing required rows")

// Student is one row of the student table.
type Student struct {
	Class     string            `json:"class"`
	Name      string            `json:"name"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Hours     string            `json:"hours"`
	Minutes   string            `json:"minutes"`
	Specify   string            `json:"specify"`
	Extra     map[string]string `json:"extra,omitempty"`
}

// ClassGroup holds every student filed under one class code.
type ClassGroup struct {
	Class    string    `json:"class"`
	Students []Student `json:"students"`
}

// Roster is a parsed students CSV.
type Roster struct {
	Term     string    `json:"term"`
	Exam     string    `json:"exam"`
	Students []Student `json:"students"`
}

// Load opens and parses the CSV at path.
func Load(path string) (*Roster, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrNotFound, "roster", "open", fmt.Sprintf("CSV file not found at %s", path), err)
		}
		return nil, services.Wrap(services.ErrValidation, "roster", "open", path, err)
	}
	defer file.Close()

	r, err := Parse(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Parse reads a roster from r. A leading UTF-8 byte order mark is ignored.
func Parse(r io.Reader) (*Roster, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	lines, err := nonBlankLines(decoded)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "roster", "read", "", err)
	}
	if len(lines) < 4 {
		return nil, services.Wrap(services.ErrValidation, "roster", "parse", "", ErrMissingRows)
	}

	header, err := parseRecord(lines[0])
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "roster", "parse", "term/exam header", err)
	}
	termIdx, examIdx := indexOf(header, "Term"), indexOf(header, "Exam")
	if termIdx < 0 || examIdx < 0 {
		return nil, services.Wrap(services.ErrValidation, "roster", "parse", "header row must contain Term and Exam columns", nil)
	}
	data, err := parseRecord(lines[1])
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "roster", "parse", "term/exam row", err)
	}

	roster := &Roster{
		Term: cell(data, termIdx),
		Exam: cell(data, examIdx),
	}

	students, err := parseStudents(lines[2:])
	if err != nil {
		return nil, err
	}
	roster.Students = students
	return roster, nil
}

func parseStudents(lines []string) ([]Student, error) {
	reader := csv.NewReader(strings.NewReader(strings.Join(lines, "\n")))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	columns, err := reader.Read()
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "roster", "parse", "student header", err)
	}
	for i := range columns {
		columns[i] = strings.TrimSpace(columns[i])
	}

	var students []Student
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "roster", "parse", "student row", err)
		}
		row := make(map[string]string, len(columns))
		for i, column := range columns {
			if column == "" {
				continue
			}
			row[column] = cell(record, i)
		}
		student := Student{
			Class:     row[ColumnClass],
			Name:      row[ColumnName],
			StartDate: row[ColumnStartDate],
			EndDate:   row[ColumnEndDate],
			Hours:     row[ColumnHours],
			Minutes:   row[ColumnMinutes],
			Specify:   row[ColumnSpecify],
		}
		if student.Class == "" || student.Name == "" {
			continue
		}
		for column, value := range row {
			if _, known := knownColumns[column]; known {
				continue
			}
			if student.Extra == nil {
				student.Extra = make(map[string]string)
			}
			student.Extra[column] = value
		}
		students = append(students, student)
	}
	return students, nil
}

// Validate reports whether the roster carries everything a run needs.
func (r *Roster) Validate() error {
	if r == nil || strings.TrimSpace(r.Term) == "" || strings.TrimSpace(r.Exam) == "" || len(r.Students) == 0 {
		return services.Wrap(services.ErrValidation, "roster", "validate", "CSV missing term, exam, or student rows", nil)
	}
	return nil
}

// Groups returns students grouped by class, ordered by each class's first
// appearance and preserving row order within a class.
func (r *Roster) Groups() []ClassGroup {
	if r == nil {
		return nil
	}
	index := make(map[string]int)
	var groups []ClassGroup
	for _, student := range r.Students {
		pos, ok := index[student.Class]
		if !ok {
			pos = len(groups)
			index[student.Class] = pos
			groups = append(groups, ClassGroup{Class: student.Class})
		}
		groups[pos].Students = append(groups[pos].Students, student)
	}
	return groups
}

func nonBlankLines(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

func parseRecord(line string) ([]string, error) {
	reader := csv.NewReader(strings.NewReader(line))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	record, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i := range record {
		record[i] = strings.TrimSpace(record[i])
	}
	return record, nil
}

func indexOf(values []string, want string) int {
	for i, value := range values {
		if value == want {
			return i
		}
	}
	return -1
}

func cell(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
