package history

import (
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// timestampLayout is fixed width so stored timestamps sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

func scanRun(scanner interface{ Scan(dest ...any) error }, extra ...any) (*Run, error) {
	var (
		run        Run
		statusStr  string
		term       sql.NullString
		exam       sql.NullString
		rosterPath sql.NullString
		attachment sql.NullString
		source     sql.NullString
		message    sql.NullString
		errMsg     sql.NullString
		startedRaw sql.NullString
		finishRaw  sql.NullString
	)
	dest := []any{
		&run.ID,
		&statusStr,
		&term,
		&exam,
		&rosterPath,
		&attachment,
		&source,
		&message,
		&errMsg,
		&startedRaw,
		&finishRaw,
	}
	if err := scanner.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	run.Status = RunStatus(statusStr)
	run.Term = term.String
	run.Exam = exam.String
	run.RosterPath = rosterPath.String
	run.Attachment = attachment.String
	run.Source = source.String
	run.Message = message.String
	run.Error = errMsg.String
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finishRaw)
	return &run, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, part := range parts {
		parts[i] = alias + "." + strings.TrimSpace(part)
	}
	return strings.Join(parts, ", ")
}

func nullable(value string) sql.NullString {
	value = strings.TrimSpace(value)
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}

func formatTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(timestampLayout), Valid: true}
}

func parseTime(raw sql.NullString) time.Time {
	if !raw.Valid || raw.String == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, raw.String)
	if err != nil {
		return time.Time{}
	}
	return t
}
