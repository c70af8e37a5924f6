package tcrform

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"makeupexam/internal/browser"
	"makeupexam/internal/config"
	"makeupexam/internal/logging"
	"makeupexam/internal/roster"
	"makeupexam/internal/services"
)

// pause waits between form steps so PeopleSoft can finish its postbacks.
// It is a package-level variable so tests can skip the waits.
var pause = func(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// SetPauseForTests overrides the settle pause during tests.
func SetPauseForTests(fn func(context.Context, time.Duration) error) func() {
	previous := pause
	pause = fn
	return func() {
		pause = previous
	}
}

// Automator fills the request form for every class in a roster.
type Automator struct {
	form       config.Form
	timing     config.Timing
	calculator func(string) string
	logger     *slog.Logger
	now        func() time.Time
}

// New builds an Automator from the form and timing configuration.
func New(cfg *config.Config, logger *slog.Logger) *Automator {
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	return &Automator{
		form:       cfg.Form,
		timing:     cfg.Timing,
		calculator: cfg.CalculatorFor,
		logger:     logging.NewComponentLogger(logger, "tcrform"),
		now:        time.Now,
	}
}

// ExamName returns the exam title typed into the form: the attachment file
// name without extension when fromAttachment is set, otherwise the roster exam.
func ExamName(rosterExam, attachment string, fromAttachment bool) string {
	if fromAttachment && strings.TrimSpace(attachment) != "" {
		base := filepath.Base(attachment)
		if name := strings.TrimSuffix(base, filepath.Ext(base)); name != "" {
			return name
		}
	}
	return rosterExam
}

// Run prepares one request per class group. Class-level problems are recorded
// in the report; an error is returned only when the run cannot proceed at all.
func (a *Automator) Run(ctx context.Context, page browser.Page, r *roster.Roster, attachment string) (*Report, error) {
	if page == nil {
		return nil, services.Wrap(services.ErrBrowser, "automation", "start", "no browser page", nil)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	runID, _ := services.RunIDFromContext(ctx)
	report := &Report{
		RunID:      runID,
		Term:       r.Term,
		Exam:       ExamName(r.Exam, attachment, a.form.ExamFromAttachment),
		Attachment: attachment,
		StartedAt:  a.now(),
	}
	defer func() { report.FinishedAt = a.now() }()

	logger := logging.WithContext(ctx, a.logger)
	groups := r.Groups()
	logger.Info("starting form automation",
		logging.String("term", report.Term),
		logging.String("exam", report.Exam),
		logging.Int("classes", len(groups)),
		logging.Int("students", len(r.Students)),
	)

	if err := page.Navigate(ctx, a.form.URL, config.Millis(a.timing.NavigationTimeout)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return report, ctxErr
		}
		if !services.IsTimeout(err) {
			return report, services.Wrap(services.ErrBrowser, "navigate", "open form", a.form.URL, err)
		}
		logging.WarnWithContext(logger, "form page did not finish loading", "navigate_timeout",
			logging.String("url", a.form.URL),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "continuing; check that the portal session is still logged in"),
		)
	}
	if err := pause(ctx, config.Millis(a.timing.AfterNavigate)); err != nil {
		return report, err
	}

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Classes = append(report.Classes, a.fileClass(ctx, page, i, group, report.Term, report.Exam, attachment))
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}

	logger.Info("form automation finished", logging.String("summary", report.Summary()))
	return report, nil
}

func (a *Automator) fileClass(ctx context.Context, page browser.Page, index int, group roster.ClassGroup, term, exam, attachment string) ClassResult {
	ctx = services.WithClass(ctx, group.Class)
	logger := logging.WithContext(ctx, a.logger)
	result := ClassResult{
		Class:      group.Class,
		Calculator: a.calculator(group.Class),
		StartedAt:  a.now(),
	}
	defer func() { result.FinishedAt = a.now() }()

	fail := func(step string, err error) ClassResult {
		result.Status = ClassFailed
		result.Step = step
		result.Error = err.Error()
		result.FinishedAt = a.now()
		logging.ErrorWithContext(logger, "class abandoned", "class_failed",
			logging.String(logging.FieldStep, step),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "fill the remaining fields for this class by hand"),
		)
		return result
	}

	logger.Info("processing class", logging.Int("students", len(group.Students)))

	if index > 0 {
		logger.Info("reloading form for next class")
		if err := page.Reload(ctx, config.Millis(a.timing.NavigationTimeout)); err != nil && (ctx.Err() != nil || !services.IsTimeout(err)) {
			return fail("reload", err)
		}
		if err := pause(ctx, config.Millis(a.timing.AfterNavigate)); err != nil {
			return fail("reload", err)
		}
	}

	frame, ok, err := page.Frame(ctx, FrameTargetContent, config.Millis(a.timing.ElementTimeout))
	if err != nil {
		return fail("frame", err)
	}
	if !ok {
		result.Status = ClassSkipped
		result.Step = "frame"
		result.Error = "could not find TargetContent iframe"
		logging.ErrorWithContext(logger, "could not find TargetContent iframe", "frame_missing",
			logging.String(logging.FieldErrorHint, "confirm the portal form is open in the attached tab"),
		)
		return result
	}

	if err := a.fillHeader(ctx, frame, term, exam); err != nil {
		return fail("header", err)
	}
	if err := a.fillCourse(ctx, frame, group.Class); err != nil {
		return fail("course", err)
	}
	result.Students = a.selectStudents(ctx, page, frame, group.Students)
	if err := ctx.Err(); err != nil {
		return fail("students", err)
	}
	if err := a.fillDetails(ctx, frame, group.Students[0], result.Calculator); err != nil {
		return fail("details", err)
	}

	if strings.TrimSpace(attachment) == "" {
		logging.WarnWithContext(logger, "no attachment supplied; skipping upload", "upload_skipped",
			logging.String(logging.FieldImpact, "attach the exam file by hand before submitting"),
		)
		result.Status = ClassCompleted
		return result
	}
	if err := a.upload(ctx, page, frame, attachment); err != nil {
		result.Status = ClassUploadFailed
		result.Step = "upload"
		result.Error = err.Error()
		logging.ErrorWithContext(logger, "attachment upload failed", "upload_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "attach the exam file by hand before submitting"),
		)
		return result
	}
	result.Uploaded = true
	result.Status = ClassCompleted
	logger.Info("class prepared for review",
		logging.Int("selected", result.Selected()),
		logging.String("calculator", result.Calculator),
	)
	return result
}

func (a *Automator) fillHeader(ctx context.Context, frame browser.Scope, term, exam string) error {
	err := applyFields(ctx, frame, []field{
		{kind: fieldFill, selector: SelectorTerm, value: term},
		{kind: fieldFill, selector: SelectorExamName, value: exam},
		{kind: fieldClick, selector: SelectorAddButton},
	})
	if err != nil {
		return err
	}
	return pause(ctx, config.Millis(a.timing.AfterAdd))
}

func (a *Automator) fillCourse(ctx context.Context, frame browser.Scope, class string) error {
	err := applyFields(ctx, frame, []field{
		{kind: fieldFill, selector: SelectorOfficeLocation, value: a.form.OfficeLocation},
		{kind: fieldFill, selector: SelectorBackupPhone, value: a.form.BackupPhone},
		{kind: fieldFill, selector: SelectorCampus, value: a.form.Campus},
		{kind: fieldCheck, selector: SelectorCourseInfoRadio},
		{kind: fieldCheck, selector: SelectorWebcamAck},
		{kind: fieldCheck, selector: SelectorExamAck},
		{kind: fieldFill, selector: SelectorCourseNumber, value: class},
		{kind: fieldClick, selector: SelectorIndividualStudent},
	})
	if err != nil {
		return err
	}
	return pause(ctx, config.Millis(a.timing.AfterRowAction))
}

func (a *Automator) fillDetails(ctx context.Context, frame browser.Scope, first roster.Student, calculator string) error {
	fields := []field{
		{kind: fieldCheck, selector: SelectorExamTest},
		{kind: fieldFill, selector: SelectorStartDate, value: first.StartDate},
		{kind: fieldFill, selector: SelectorEndDate, value: first.EndDate},
		{kind: fieldFill, selector: SelectorLimitHours, value: first.Hours},
		{kind: fieldFill, selector: SelectorLimitMinutes, value: first.Minutes},
		{kind: fieldCheck, selector: SelectorPickupEmail},
		{kind: fieldCheck, selector: SelectorScratchPaper},
		{kind: fieldSelect, selector: SelectorCalculator, value: calculator},
	}
	if strings.TrimSpace(first.Specify) != "" {
		fields = append(fields, field{kind: fieldFill, selector: SelectorOther, value: first.Specify})
	}
	fields = append(fields, field{kind: fieldCheck, selector: a.form.CampusSelector})
	return applyFields(ctx, frame, fields)
}

type fieldKind int

const (
	fieldFill fieldKind = iota
	fieldCheck
	fieldSelect
	fieldClick
)

func (k fieldKind) String() string {
	switch k {
	case fieldFill:
		return "fill"
	case fieldCheck:
		return "check"
	case fieldSelect:
		return "select"
	case fieldClick:
		return "click"
	default:
		return "unknown"
	}
}

type field struct {
	kind     fieldKind
	selector string
	value    string
}

func applyFields(ctx context.Context, scope browser.Scope, fields []field) error {
	for _, f := range fields {
		var err error
		switch f.kind {
		case fieldFill:
			err = scope.Fill(ctx, f.selector, f.value)
		case fieldCheck:
			err = scope.Check(ctx, f.selector)
		case fieldSelect:
			err = scope.SelectByLabel(ctx, f.selector, f.value)
		case fieldClick:
			err = scope.Click(ctx, f.selector)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return services.Wrap(services.ErrBrowser, f.kind.String(), f.selector, "", err)
		}
	}
	return nil
}
