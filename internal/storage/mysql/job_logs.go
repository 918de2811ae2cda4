package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shopfloor-terminal/internal/storage"
)

const jobLogColumns = `log_id, lookup_code, user_id, machine_id, state, start_time, end_time, completed_qty,
	comments, inspection_type, inspection_passed, inspection_qty`

func scanJobLog(row rowScanner) (*storage.JobLog, error) {
	var (
		l        storage.JobLog
		endTime  sql.NullTime
		qty      sql.NullInt64
		comments sql.NullString
		inspType sql.NullString
		passed   sql.NullBool
		inspQty  sql.NullInt64
	)

	err := row.Scan(&l.LogID, &l.LookupCode, &l.UserID, &l.MachineID, &l.State, &l.StartTime,
		&endTime, &qty, &comments, &inspType, &passed, &inspQty)
	if err != nil {
		return nil, err
	}

	if endTime.Valid {
		l.EndTime = &endTime.Time
	}
	if qty.Valid {
		v := int(qty.Int64)
		l.CompletedQty = &v
	}
	if comments.Valid {
		l.Comments = &comments.String
	}
	if inspType.Valid {
		l.InspectionType = &inspType.String
	}
	if passed.Valid {
		l.InspectionPassed = &passed.Bool
	}
	if inspQty.Valid {
		v := int(inspQty.Int64)
		l.InspectionQty = &v
	}

	return &l, nil
}

func (s *Storage) InsertJobLog(ctx context.Context, l storage.JobLog) (int64, error) {
	const op = "storage.mysql.InsertJobLog"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO job_logs (lookup_code, user_id, machine_id, state, start_time, end_time, completed_qty,
			comments, inspection_type, inspection_passed, inspection_qty)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		l.LookupCode, l.UserID, l.MachineID, l.State, l.StartTime, l.EndTime, l.CompletedQty,
		l.Comments, l.InspectionType, l.InspectionPassed, l.InspectionQty,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: ошибка создания лога: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// CloseJobLog ставит end_time и разрешённые поля закрытия. Закрытый лог повторно не пишется.
func (s *Storage) CloseJobLog(ctx context.Context, logID int64, c storage.LogClose) error {
	const op = "storage.mysql.CloseJobLog"

	sets := []string{"end_time = ?"}
	args := []any{c.EndTime}

	if c.CompletedQty != nil {
		sets = append(sets, "completed_qty = ?")
		args = append(args, *c.CompletedQty)
	}
	if c.Comments != nil {
		sets = append(sets, "comments = ?")
		args = append(args, *c.Comments)
	}
	if c.InspectionPassed != nil {
		sets = append(sets, "inspection_passed = ?")
		args = append(args, *c.InspectionPassed)
	}
	if c.InspectionQty != nil {
		sets = append(sets, "inspection_qty = ?")
		args = append(args, *c.InspectionQty)
	}

	query := `UPDATE job_logs SET ` + strings.Join(sets, ", ") + ` WHERE log_id = ? AND end_time IS NULL`
	args = append(args, logID)

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM job_logs WHERE log_id = ?`, logID).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%s: log %d: %w", op, logID, storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		return fmt.Errorf("%s: log %d: %w", op, logID, storage.ErrLogClosed)
	}

	return nil
}

// GetOpenJobLog последний открытый лог по lookup_code. Пустой state означает любой.
func (s *Storage) GetOpenJobLog(ctx context.Context, lookupCode, state string) (*storage.JobLog, error) {
	const op = "storage.mysql.GetOpenJobLog"

	query := `SELECT ` + jobLogColumns + ` FROM job_logs WHERE lookup_code = ?`
	args := []any{lookupCode}

	if state != "" {
		query += ` AND state = ?`
		args = append(args, state)
	}
	query += ` AND end_time IS NULL ORDER BY start_time DESC LIMIT 1`

	l, err := scanJobLog(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return l, nil
}

func (s *Storage) GetJobLogByID(ctx context.Context, logID int64) (*storage.JobLog, error) {
	const op = "storage.mysql.GetJobLogByID"

	l, err := scanJobLog(s.db.QueryRowContext(ctx, `SELECT `+jobLogColumns+` FROM job_logs WHERE log_id = ?`, logID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return l, nil
}
