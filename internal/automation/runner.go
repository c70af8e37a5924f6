package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"makeupexam/internal/config"
	"makeupexam/internal/history"
	"makeupexam/internal/logging"
	"makeupexam/internal/preflight"
	"makeupexam/internal/roster"
	"makeupexam/internal/services"
	"makeupexam/internal/tcrform"
)

// Request describes one automation run.
type Request struct {
	// RosterPath defaults to the configured roster when empty.
	RosterPath     string
	AttachmentPath string
	// ExamFromAttachment types the attachment file name as the exam title.
	// The configured form.exam_from_attachment also enables it.
	ExamFromAttachment bool
	// Source names the surface that started the run, such as cli or api.
	Source string
}

// Result is the outcome of Runner.Run. Success mirrors whether the form
// sequence finished; class-level problems are reported in Report.
type Result struct {
	RunID     string             `json:"run_id"`
	Status    history.RunStatus  `json:"status"`
	Success   bool               `json:"success"`
	Message   string             `json:"message"`
	LogPath   string             `json:"log_path,omitempty"`
	Preflight []preflight.Result `json:"preflight,omitempty"`
	Report    *tcrform.Report    `json:"report,omitempty"`
	// BrowserLaunched is set when no browser answered and one was started.
	BrowserLaunched bool `json:"browser_launched,omitempty"`
}

// Status describes the runner for status endpoints.
type Status struct {
	Running      bool      `json:"running"`
	RunID        string    `json:"run_id,omitempty"`
	StartedAt    time.Time `json:"started_at,omitzero"`
	SessionReady bool      `json:"session_ready"`
	LockPath     string    `json:"lock_path"`
}

// Option customizes a Runner.
type Option func(*Runner)

// WithConnector replaces the browser connector.
func WithConnector(connect Connector) Option {
	return func(r *Runner) {
		if connect != nil {
			r.connect = connect
		}
	}
}

// WithHistory records runs in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) {
		r.store = store
	}
}

// Runner executes automation runs one at a time.
type Runner struct {
	cfg     *config.Config
	logger  *slog.Logger
	store   *history.Store
	connect Connector

	runMu sync.Mutex

	// mu guards the fields below. It is never held while talking to the browser.
	mu        sync.Mutex
	session   Browser
	activeID  string
	startedAt time.Time
}

// NewRunner constructs a runner. A nil logger discards output.
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("runner requires configuration")
	}
	r := &Runner{
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "automation"),
		connect: connectSession,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Status reports whether a run is in progress.
func (r *Runner) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Status{
		Running:      r.activeID != "",
		RunID:        r.activeID,
		StartedAt:    r.startedAt,
		SessionReady: r.session != nil,
		LockPath:     r.cfg.LockPath(),
	}
}

// Close detaches from the cached browser session. The browser tab stays open.
func (r *Runner) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropSession()
}

// Run executes one automation run. The returned Result is non-nil whenever a
// run id was assigned, including failed runs.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if !r.runMu.TryLock() {
		return nil, services.Wrap(services.ErrBusy, "automation", "start", "a run is already in progress", nil)
	}
	defer r.runMu.Unlock()

	if err := r.cfg.EnsureDirectories(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "automation", "prepare directories", "", err)
	}
	lock := flock.New(r.cfg.LockPath())
	locked, err := lock.TryLock()
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "automation", "acquire lock", r.cfg.LockPath(), err)
	}
	if !locked {
		return nil, services.Wrap(services.ErrBusy, "automation", "acquire lock", "another makeupexam process is running the form", nil)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			r.logger.Warn("failed to release automation lock", logging.Error(err))
		}
	}()

	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	rosterPath := strings.TrimSpace(req.RosterPath)
	if rosterPath == "" {
		rosterPath = r.cfg.Roster.Path
	}

	logger, logPath, closeLog, logErr := logging.OpenRunLog(r.logger, r.cfg.Paths.LogDir, runID)
	defer func() { _ = closeLog() }()
	logger = logging.WithContext(ctx, logger)
	if logErr != nil {
		logging.WarnWithContext(logger, "run log unavailable", "run_log_failed",
			logging.Error(logErr),
			logging.String(logging.FieldImpact, "this run is only logged to the main log"),
		)
	}

	r.setActive(runID)
	defer r.setActive("")

	result := &Result{RunID: runID, Status: history.RunRunning, LogPath: logPath}
	r.beginHistory(ctx, logger, history.RunStart{
		ID:         runID,
		RosterPath: rosterPath,
		Attachment: req.AttachmentPath,
		Source:     req.Source,
	})
	logger.Info("automation run started",
		logging.String("roster", rosterPath),
		logging.String("attachment", req.AttachmentPath),
		logging.String("source", req.Source),
	)

	report, err := r.execute(ctx, logger, req, rosterPath, result)
	result.Report = report
	if err != nil {
		result.Status = services.FailureStatus(err)
		result.Message = err.Error()
		logging.ErrorWithContext(logger, "automation run failed", "run_failed",
			logging.String("status", string(result.Status)),
			logging.Error(err),
		)
	} else {
		result.Status = history.RunCompleted
		result.Success = true
		result.Message = report.Summary()
		logger.Info("automation run finished", logging.String("summary", result.Message))
	}
	r.finishHistory(logger, result, err)
	logging.PruneRunLogs(logger, r.cfg.Paths.LogDir, r.cfg.Logging.RetentionDays)
	return result, err
}

func (r *Runner) execute(ctx context.Context, logger *slog.Logger, req Request, rosterPath string, result *Result) (*tcrform.Report, error) {
	students, err := roster.Load(rosterPath)
	if err != nil {
		return nil, err
	}
	if err := students.Validate(); err != nil {
		return nil, err
	}
	r.updateHistory(ctx, logger, result.RunID, students)

	result.Preflight = preflight.RunInputs(r.cfg, rosterPath, req.AttachmentPath)
	if err := preflight.Error(result.Preflight); err != nil {
		return nil, err
	}

	cfg := *r.cfg
	cfg.Form.ExamFromAttachment = cfg.Form.ExamFromAttachment || req.ExamFromAttachment
	automator := tcrform.New(&cfg, logger)

	page, launched, err := r.acquire(ctx, logger)
	result.BrowserLaunched = launched
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}

	report, err := automator.Run(ctx, page, students, req.AttachmentPath)
	if report != nil {
		report.RunID = result.RunID
		r.recordClasses(logger, result.RunID, report)
	}
	if err != nil && errors.Is(err, services.ErrBrowser) {
		r.mu.Lock()
		r.dropSession()
		r.mu.Unlock()
	}
	return report, err
}

func (r *Runner) setActive(runID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activeID = runID
	if runID == "" {
		r.startedAt = time.Time{}
	} else {
		r.startedAt = time.Now()
	}
}

func (r *Runner) beginHistory(ctx context.Context, logger *slog.Logger, start history.RunStart) {
	if r.store == nil {
		return
	}
	// The file lock is held, so any run still marked running was interrupted.
	if n, err := r.store.MarkInterrupted(ctx); err == nil && n > 0 {
		logger.Info("marked interrupted runs as failed", logging.Int("runs", int(n)))
	}
	if _, err := r.store.BeginRun(ctx, start); err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "this run will not appear in history"),
		)
	}
}

func (r *Runner) updateHistory(ctx context.Context, logger *slog.Logger, runID string, students *roster.Roster) {
	if r.store == nil {
		return
	}
	if err := r.store.UpdateRunDetails(ctx, runID, students.Term, students.Exam); err != nil {
		logger.Debug("history update skipped", logging.Error(err))
	}
}

// recordClasses and finishHistory use a fresh context so cancelled runs are
// still written down.
func (r *Runner) recordClasses(logger *slog.Logger, runID string, report *tcrform.Report) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for i, class := range report.Classes {
		if err := r.store.RecordClass(ctx, runID, historyClass(i, class)); err != nil {
			logger.Debug("history class record skipped", logging.Class(class.Class), logging.Error(err))
		}
	}
}

func (r *Runner) finishHistory(logger *slog.Logger, result *Result, runErr error) {
	if r.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	message := ""
	if result.Success {
		message = result.Message
	}
	if err := r.store.FinishRun(ctx, result.RunID, result.Status, message, errMsg); err != nil {
		logger.Debug("history finish skipped", logging.Error(err))
	}
}

func historyClass(position int, c tcrform.ClassResult) history.Class {
	students := make([]history.Student, 0, len(c.Students))
	for _, s := range c.Students {
		students = append(students, history.Student{
			Row:     s.Row,
			Name:    s.Name,
			Outcome: string(s.Outcome),
			Match:   s.Match,
			Score:   s.Score,
			Error:   s.Error,
		})
	}
	return history.Class{
		Position:   position,
		Code:       c.Class,
		Status:     string(c.Status),
		Step:       c.Step,
		Calculator: c.Calculator,
		Uploaded:   c.Uploaded,
		Error:      c.Error,
		StartedAt:  c.StartedAt,
		FinishedAt: c.FinishedAt,
		Students:   students,
	}
}

// ErrorSummary renders err for API responses, without the marker prefix when
// the error is a plain validation problem.
func ErrorSummary(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, marker := range []error{services.ErrValidation, services.ErrNotFound} {
		if errors.Is(err, marker) {
			return strings.TrimPrefix(msg, fmt.Sprintf("%s: ", marker))
		}
	}
	return msg
}
