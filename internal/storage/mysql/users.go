package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopfloor-terminal/internal/storage"
)

func (s *Storage) GetUserByEmployeeID(ctx context.Context, employeeID string) (*storage.User, error) {
	const op = "storage.mysql.GetUserByEmployeeID"

	var u storage.User
	err := s.db.QueryRowContext(ctx, `
		SELECT employee_id, name, can_operate, can_setup, can_inspect, can_remanufacture, active
		FROM users WHERE employee_id = ?`, employeeID,
	).Scan(&u.EmployeeID, &u.Name, &u.CanOperate, &u.CanSetup, &u.CanInspect, &u.CanRemanufacture, &u.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &u, nil
}

func (s *Storage) GetTerminalByID(ctx context.Context, terminalID int64) (*storage.Terminal, error) {
	const op = "storage.mysql.GetTerminalByID"

	var (
		t           storage.Terminal
		operationID sql.NullInt64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT terminal_id, terminal_name, operation_code, operation_id, password_hash, active
		FROM terminals WHERE terminal_id = ?`, terminalID,
	).Scan(&t.TerminalID, &t.TerminalName, &t.OperationCode, &operationID, &t.PasswordHash, &t.Active)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if operationID.Valid {
		t.OperationID = &operationID.Int64
	}

	return &t, nil
}

func (s *Storage) ListUsers(ctx context.Context) ([]storage.User, error) {
	const op = "storage.mysql.ListUsers"

	rows, err := s.db.QueryContext(ctx, `
		SELECT employee_id, name, can_operate, can_setup, can_inspect, can_remanufacture, active
		FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var users []storage.User
	for rows.Next() {
		var u storage.User
		if err := rows.Scan(&u.EmployeeID, &u.Name, &u.CanOperate, &u.CanSetup, &u.CanInspect, &u.CanRemanufacture, &u.Active); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return users, nil
}

func (s *Storage) InsertUser(ctx context.Context, u storage.User) error {
	const op = "storage.mysql.InsertUser"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (employee_id, name, can_operate, can_setup, can_inspect, can_remanufacture, active)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.EmployeeID, u.Name, u.CanOperate, u.CanSetup, u.CanInspect, u.CanRemanufacture, u.Active,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateUsers обновляет пачку пользователей одной транзакцией: либо все, либо никто.
func (s *Storage) UpdateUsers(ctx context.Context, users []storage.User) error {
	const op = "storage.mysql.UpdateUsers"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE users
		SET name = ?, can_operate = ?, can_setup = ?, can_inspect = ?, can_remanufacture = ?, active = ?
		WHERE employee_id = ?`)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for _, u := range users {
		res, err := stmt.ExecContext(ctx, u.Name, u.CanOperate, u.CanSetup, u.CanInspect, u.CanRemanufacture, u.Active, u.EmployeeID)
		if err != nil {
			return fmt.Errorf("%s: update %s: %w", op, u.EmployeeID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: rows affected: %w", op, err)
		}
		if n == 0 {
			return fmt.Errorf("%s: user %s: %w", op, u.EmployeeID, storage.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}

func (s *Storage) InsertTerminal(ctx context.Context, t storage.Terminal) error {
	const op = "storage.mysql.InsertTerminal"

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO terminals (terminal_id, terminal_name, operation_code, operation_id, password_hash, active)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.TerminalID, t.TerminalName, t.OperationCode, t.OperationID, t.PasswordHash, t.Active,
	)
	if err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
