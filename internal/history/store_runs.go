package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrRunNotFound reports an unknown run identifier.
var ErrRunNotFound = errors.New("run not found")

const runColumns = "id, status, term, exam, roster_path, attachment, source, message, error_message, started_at, finished_at"

// BeginRun records a run as running.
func (s *Store) BeginRun(ctx context.Context, start RunStart) (*Run, error) {
	start.ID = strings.TrimSpace(start.ID)
	if start.ID == "" {
		return nil, errors.New("begin run: id is required")
	}
	now := time.Now().UTC()
	_, err := s.exec(ctx,
		`INSERT INTO runs (id, status, term, exam, roster_path, attachment, source, started_at)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		start.ID,
		RunRunning,
		nullable(start.Term),
		nullable(start.Exam),
		nullable(start.RosterPath),
		nullable(start.Attachment),
		nullable(start.Source),
		now.Format(timestampLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("insert run: %w", err)
	}
	return &Run{
		ID:         start.ID,
		Status:     RunRunning,
		Term:       start.Term,
		Exam:       start.Exam,
		RosterPath: start.RosterPath,
		Attachment: start.Attachment,
		Source:     start.Source,
		StartedAt:  now,
	}, nil
}

// UpdateRunDetails fills in roster fields learned after the run was opened.
func (s *Store) UpdateRunDetails(ctx context.Context, id, term, exam string) error {
	res, err := s.exec(ctx,
		`UPDATE runs SET term = ?, exam = ? WHERE id = ?`,
		nullable(term), nullable(exam), id,
	)
	if err != nil {
		return fmt.Errorf("update run %s: %w", id, err)
	}
	return requireRow(res, id)
}

// FinishRun stores the terminal status of a run.
func (s *Store) FinishRun(ctx context.Context, id string, status RunStatus, message, errMsg string) error {
	if !status.Terminal() {
		return fmt.Errorf("finish run %s: status %q is not terminal", id, status)
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, message = ?, error_message = ?, finished_at = ? WHERE id = ?`,
		status,
		nullable(message),
		nullable(errMsg),
		time.Now().UTC().Format(timestampLayout),
		id,
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", id, err)
	}
	return requireRow(res, id)
}

// RecordClass stores one class result and its student outcomes.
func (s *Store) RecordClass(ctx context.Context, runID string, class Class) error {
	ctx = orBackground(ctx)
	return withLockRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin class tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		res, err := tx.ExecContext(ctx,
			`INSERT INTO classes (
                run_id, position, class_code, status, step, calculator,
                uploaded, error_message, started_at, finished_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			runID,
			class.Position,
			class.Code,
			class.Status,
			nullable(class.Step),
			nullable(class.Calculator),
			boolToInt(class.Uploaded),
			nullable(class.Error),
			formatTime(class.StartedAt),
			formatTime(class.FinishedAt),
		)
		if err != nil {
			return fmt.Errorf("insert class %s: %w", class.Code, err)
		}
		classID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("class id: %w", err)
		}
		for _, student := range class.Students {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO students (class_id, row_index, name, outcome, match_text, score, error_message)
                VALUES (?, ?, ?, ?, ?, ?, ?)`,
				classID,
				student.Row,
				student.Name,
				student.Outcome,
				nullable(student.Match),
				student.Score,
				nullable(student.Error),
			); err != nil {
				return fmt.Errorf("insert student %s: %w", student.Name, err)
			}
		}
		return tx.Commit()
	})
}

// ListRuns returns the most recent runs first. A limit <= 0 returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + prefixed("r", runColumns) + `,
            (SELECT COUNT(1) FROM classes c WHERE c.run_id = r.id),
            (SELECT COUNT(1) FROM classes c WHERE c.run_id = r.id AND c.status = 'completed')
        FROM runs r
        ORDER BY r.started_at DESC, r.rowid DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(orBackground(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var classCount, prepared int
		run, err := scanRun(rows, &classCount, &prepared)
		if err != nil {
			return nil, err
		}
		run.ClassCount = classCount
		run.PreparedCount = prepared
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// GetRun returns a run with its classes and students.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = orBackground(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	classes, err := s.loadClasses(ctx, id)
	if err != nil {
		return nil, err
	}
	run.Classes = classes
	run.ClassCount = len(classes)
	for _, c := range classes {
		if c.Status == "completed" {
			run.PreparedCount++
		}
	}
	return run, nil
}

// LatestRun returns the most recently started run, or nil when none exist.
func (s *Store) LatestRun(ctx context.Context) (*Run, error) {
	runs, err := s.ListRuns(ctx, 1)
	if err != nil || len(runs) == 0 {
		return nil, err
	}
	return s.GetRun(ctx, runs[0].ID)
}

// MarkInterrupted fails runs left running by a process that exited mid-run.
func (s *Store) MarkInterrupted(ctx context.Context) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		RunFailed,
		"interrupted before completion",
		time.Now().UTC().Format(timestampLayout),
		RunRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("mark interrupted runs: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every finished run and returns how many were deleted. Running
// runs are kept.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	ctx = orBackground(ctx)
	var removed int64
	err := withLockRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin clear tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		statements := []string{
			`DELETE FROM students WHERE class_id IN (
                SELECT c.id FROM classes c JOIN runs r ON r.id = c.run_id WHERE r.status != 'running')`,
			`DELETE FROM classes WHERE run_id IN (SELECT id FROM runs WHERE status != 'running')`,
		}
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("clear history: %w", err)
			}
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE status != 'running'`)
		if err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
		if removed, err = res.RowsAffected(); err != nil {
			return err
		}
		return tx.Commit()
	})
	return removed, err
}

func (s *Store) loadClasses(ctx context.Context, runID string) ([]Class, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, position, class_code, status, step, calculator, uploaded, error_message, started_at, finished_at
        FROM classes WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("load classes: %w", err)
	}
	var (
		classes []Class
		ids     []int64
	)
	for rows.Next() {
		var (
			id                    int64
			c                     Class
			step, calc, errMsg    sql.NullString
			startedRaw, finishRaw sql.NullString
			uploaded              int
		)
		if err := rows.Scan(&id, &c.Position, &c.Code, &c.Status, &step, &calc, &uploaded, &errMsg, &startedRaw, &finishRaw); err != nil {
			rows.Close()
			return nil, err
		}
		c.Step = step.String
		c.Calculator = calc.String
		c.Uploaded = uploaded != 0
		c.Error = errMsg.String
		c.StartedAt = parseTime(startedRaw)
		c.FinishedAt = parseTime(finishRaw)
		classes = append(classes, c)
		ids = append(ids, id)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i, id := range ids {
		students, err := s.loadStudents(ctx, id)
		if err != nil {
			return nil, err
		}
		classes[i].Students = students
	}
	return classes, nil
}

func (s *Store) loadStudents(ctx context.Context, classID int64) ([]Student, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT row_index, name, outcome, match_text, score, error_message
        FROM students WHERE class_id = ? ORDER BY row_index, id`, classID)
	if err != nil {
		return nil, fmt.Errorf("load students: %w", err)
	}
	defer rows.Close()

	var students []Student
	for rows.Next() {
		var (
			st            Student
			match, errMsg sql.NullString
		)
		if err := rows.Scan(&st.Row, &st.Name, &st.Outcome, &match, &st.Score, &errMsg); err != nil {
			return nil, err
		}
		st.Match = match.String
		st.Error = errMsg.String
		students = append(students, st)
	}
	return students, rows.Err()
}
