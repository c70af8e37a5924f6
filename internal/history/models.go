package history

import "time"

// RunStatus is the lifecycle state of an automation run.
type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
	// RunRejected marks runs refused before the browser was touched.
	RunRejected  RunStatus = "rejected"
	RunCancelled RunStatus = "cancelled"
)

// Terminal reports whether the status is final.
func (s RunStatus) Terminal() bool {
	return s != RunRunning && s != ""
}

// RunStart describes a run being opened.
type RunStart struct {
	ID         string
	Term       string
	Exam       string
	RosterPath string
	Attachment string
	// Source names the surface that started the run, such as cli or api.
	Source string
}

// Student is one lookup outcome within a class.
type Student struct {
	Row     int     `json:"row"`
	Name    string  `json:"name"`
	Outcome string  `json:"outcome"`
	Match   string  `json:"match,omitempty"`
	Score   float64 `json:"score"`
	Error   string  `json:"error,omitempty"`
}

// Class is one class group filed during a run.
type Class struct {
	Position   int       `json:"position"`
	Code       string    `json:"class"`
	Status     string    `json:"status"`
	Step       string    `json:"step,omitempty"`
	Calculator string    `json:"calculator,omitempty"`
	Uploaded   bool      `json:"uploaded"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Students   []Student `json:"students,omitempty"`
}

// Run is a persisted automation run.
type Run struct {
	ID         string    `json:"id"`
	Status     RunStatus `json:"status"`
	Term       string    `json:"term,omitempty"`
	Exam       string    `json:"exam,omitempty"`
	RosterPath string    `json:"roster_path,omitempty"`
	Attachment string    `json:"attachment,omitempty"`
	Source     string    `json:"source,omitempty"`
	Message    string    `json:"message,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitzero"`
	// ClassCount and PreparedCount are filled by ListRuns.
	ClassCount    int     `json:"class_count"`
	PreparedCount int     `json:"prepared_count"`
	Classes       []Class `json:"classes,omitempty"`
}

// Duration returns how long the run took, or zero while it is running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
