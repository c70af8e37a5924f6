package tcrform

import (
	"fmt"
	"time"
)

// ClassStatus is the outcome of filing one class group.
type ClassStatus string

const (
	// ClassCompleted means the form was prepared and the attachment uploaded.
	ClassCompleted ClassStatus = "completed"
	// ClassSkipped means the form frame never appeared.
	ClassSkipped ClassStatus = "skipped"
	// ClassFailed means a header, course or exam detail step failed.
	ClassFailed ClassStatus = "failed"
	// ClassUploadFailed means the form was prepared but the attachment was not uploaded.
	ClassUploadFailed ClassStatus = "upload_failed"
)

// StudentOutcome is the result of selecting one student in the lookup modal.
type StudentOutcome string

const (
	StudentSelected     StudentOutcome = "selected"
	StudentNoMatch      StudentOutcome = "no_match"
	StudentLookupFailed StudentOutcome = "lookup_failed"
)

// StudentResult records how one roster row was matched.
type StudentResult struct {
	Row     int            `json:"row"`
	Name    string         `json:"name"`
	Outcome StudentOutcome `json:"outcome"`
	Match   string         `json:"match,omitempty"`
	Score   float64        `json:"score"`
	Error   string         `json:"error,omitempty"`
}

// ClassResult records the outcome of one class group.
type ClassResult struct {
	Class      string          `json:"class"`
	Status     ClassStatus     `json:"status"`
	Calculator string          `json:"calculator"`
	Uploaded   bool            `json:"uploaded"`
	Step       string          `json:"step,omitempty"`
	Error      string          `json:"error,omitempty"`
	Students   []StudentResult `json:"students"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
}

// Selected counts the students picked from the lookup modal.
func (c ClassResult) Selected() int {
	n := 0
	for _, s := range c.Students {
		if s.Outcome == StudentSelected {
			n++
		}
	}
	return n
}

// Report is the outcome of one automation run.
type Report struct {
	RunID      string        `json:"run_id"`
	Term       string        `json:"term"`
	Exam       string        `json:"exam"`
	Attachment string        `json:"attachment,omitempty"`
	Classes    []ClassResult `json:"classes"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
}

// Counts tallies classes by status.
func (r *Report) Counts() map[ClassStatus]int {
	counts := make(map[ClassStatus]int, 4)
	if r == nil {
		return counts
	}
	for _, c := range r.Classes {
		counts[c.Status]++
	}
	return counts
}

// Students tallies students by outcome across all classes.
func (r *Report) Students() map[StudentOutcome]int {
	counts := make(map[StudentOutcome]int, 3)
	if r == nil {
		return counts
	}
	for _, c := range r.Classes {
		for _, s := range c.Students {
			counts[s.Outcome]++
		}
	}
	return counts
}

// Summary is a one-line description suitable for API responses and logs.
func (r *Report) Summary() string {
	if r == nil || len(r.Classes) == 0 {
		return "Automation completed: no classes processed"
	}
	counts := r.Counts()
	students := r.Students()
	total := 0
	for _, n := range students {
		total += n
	}
	msg := fmt.Sprintf("Automation completed: %d of %d classes prepared, %d of %d students selected",
		counts[ClassCompleted], len(r.Classes), students[StudentSelected], total)
	if n := counts[ClassUploadFailed]; n > 0 {
		msg += fmt.Sprintf(", %d upload failed", n)
	}
	if n := counts[ClassFailed] + counts[ClassSkipped]; n > 0 {
		msg += fmt.Sprintf(", %d not prepared", n)
	}
	return msg
}
