package tcrform

import (
	"context"
	"fmt"
	"strings"

	"makeupexam/internal/browser"
	"makeupexam/internal/config"
	"makeupexam/internal/logging"
	"makeupexam/internal/match"
	"makeupexam/internal/roster"
)

// MagnifierSelector returns the lookup icon of student row i.
func MagnifierSelector(row int) string {
	return fmt.Sprintf(selectorMagnifierFormat, row)
}

func (a *Automator) selectStudents(ctx context.Context, page browser.Page, frame browser.Scope, students []roster.Student) []StudentResult {
	logger := logging.WithContext(ctx, a.logger)
	results := make([]StudentResult, 0, len(students))
	for i, student := range students {
		if ctx.Err() != nil {
			break
		}
		results = append(results, a.selectStudent(ctx, page, frame, i, student))

		if i == len(students)-1 {
			continue
		}
		if err := frame.Click(ctx, SelectorAddRow); err != nil {
			logging.WarnWithContext(logger, "could not add a student row", "add_row_failed",
				logging.Int("row", i+1),
				logging.Error(err),
				logging.String(logging.FieldImpact, "remaining students in this class may land in the wrong row"),
			)
			continue
		}
		if err := pause(ctx, config.Millis(a.timing.AfterRowAction)); err != nil {
			break
		}
	}
	return results
}

func (a *Automator) selectStudent(ctx context.Context, page browser.Page, frame browser.Scope, row int, student roster.Student) StudentResult {
	logger := logging.WithContext(ctx, a.logger).With(
		logging.Student(student.Name),
		logging.Int("row", row),
	)
	result := StudentResult{Row: row, Name: student.Name}
	lookupFailed := func(msg string, err error) StudentResult {
		result.Outcome = StudentLookupFailed
		if err != nil {
			result.Error = fmt.Sprintf("%s: %v", msg, err)
		} else {
			result.Error = msg
		}
		attrs := []logging.Attr{
			logging.String(logging.FieldImpact, "select this student by hand"),
		}
		if err != nil {
			attrs = append(attrs, logging.Error(err))
		}
		logging.WarnWithContext(logger, msg, "student_lookup_failed", attrs...)
		return result
	}

	magnifier := MagnifierSelector(row)
	if err := frame.WaitVisible(ctx, magnifier, config.Millis(a.timing.ElementTimeout)); err != nil {
		return lookupFailed("could not find magnifier", err)
	}
	if err := frame.Click(ctx, magnifier); err != nil {
		return lookupFailed("could not open student lookup", err)
	}

	lookupTimeout := config.Millis(a.timing.LookupTimeout)
	modal, ok, err := page.FrameWithPrefix(ctx, LookupFramePrefix, lookupTimeout)
	if err != nil {
		return lookupFailed("student lookup frame unavailable", err)
	}
	if !ok {
		return lookupFailed("could not find student lookup frame", nil)
	}
	if err := modal.WaitVisible(ctx, SelectorResultLinks, lookupTimeout); err != nil {
		return lookupFailed("no search results appeared", err)
	}
	links, err := modal.Elements(ctx, SelectorResultLinks)
	if err != nil {
		return lookupFailed("could not read search results", err)
	}

	texts := make([]string, len(links))
	for i, link := range links {
		texts[i] = link.Text()
	}
	best, ok := match.Best(texts, student.Name, a.form.MatchThreshold)
	result.Score = best.Score
	if best.Index >= 0 {
		result.Match = strings.ToLower(strings.TrimSpace(best.Text))
	}
	if !ok {
		result.Outcome = StudentNoMatch
		logging.WarnWithContext(logger, "no good match found", "student_no_match",
			logging.Score("best_score", best.Score),
			logging.String("best_text", result.Match),
			logging.Int("candidates", len(links)),
			logging.String(logging.FieldImpact, "select this student by hand"),
		)
		return result
	}
	if err := links[best.Index].Click(ctx); err != nil {
		return lookupFailed("could not click best match", err)
	}
	result.Outcome = StudentSelected
	logger.Info("selected best match",
		logging.String("match", result.Match),
		logging.Score("score", best.Score),
	)
	return result
}
