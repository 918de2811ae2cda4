package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"shopfloor-terminal/internal/storage"
)

const jobColumns = `id, lookup_code, route_card, contract_number, op_code, part_number, customer_name,
	description, due_date, quantity, completed_qty, balance, status, planned_setup_time, planned_run_time,
	user_added, one_off, replaces_operations, additional_operation, added_by, added_at, version`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*storage.JobOperation, error) {
	var (
		job      storage.JobOperation
		dueDate  sql.NullTime
		replaces sql.NullString
		addedBy  sql.NullString
		addedAt  sql.NullTime
	)

	err := row.Scan(&job.ID, &job.LookupCode, &job.RouteCard, &job.ContractNumber, &job.OpCode,
		&job.PartNumber, &job.CustomerName, &job.Description, &dueDate, &job.Quantity, &job.CompletedQty,
		&job.Balance, &job.Status, &job.PlannedSetupTime, &job.PlannedRunTime, &job.UserAdded, &job.OneOff,
		&replaces, &job.AdditionalOperation, &addedBy, &addedAt, &job.Version)
	if err != nil {
		return nil, err
	}

	if dueDate.Valid {
		job.DueDate = &dueDate.Time
	}
	if replaces.Valid {
		job.ReplacesOperations = &replaces.String
	}
	if addedBy.Valid {
		job.AddedBy = &addedBy.String
	}
	if addedAt.Valid {
		job.AddedAt = &addedAt.Time
	}

	return &job, nil
}

func (s *Storage) GetJobByLookupCode(ctx context.Context, lookupCode string) (*storage.JobOperation, error) {
	const op = "storage.mysql.GetJobByLookupCode"

	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE lookup_code = ?`, lookupCode)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: ошибка получения задания: %w", op, err)
	}

	return job, nil
}

// GetOperationsByRouteCard все операции, заведённые на маршрутную карту.
func (s *Storage) GetOperationsByRouteCard(ctx context.Context, routeCard string) ([]storage.RouteCardOperation, error) {
	const op = "storage.mysql.GetOperationsByRouteCard"

	rows, err := s.db.QueryContext(ctx,
		`SELECT op_code, description, contract_number FROM jobs WHERE route_card = ? ORDER BY op_code`, routeCard)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var ops []storage.RouteCardOperation
	for rows.Next() {
		var o storage.RouteCardOperation
		if err := rows.Scan(&o.OpCode, &o.Description, &o.ContractNumber); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		ops = append(ops, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ops, nil
}

// GetSiblingJob любая строка той же маршрутной карты, с которой копируются данные заказа.
func (s *Storage) GetSiblingJob(ctx context.Context, routeCard string) (*storage.JobOperation, error) {
	const op = "storage.mysql.GetSiblingJob"

	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE route_card = ? ORDER BY id LIMIT 1`, routeCard)

	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return job, nil
}

func (s *Storage) InsertJobOperation(ctx context.Context, job storage.JobOperation) (int64, error) {
	const op = "storage.mysql.InsertJobOperation"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO jobs (lookup_code, route_card, contract_number, op_code, part_number, customer_name,
			description, due_date, quantity, completed_qty, balance, status, planned_setup_time, planned_run_time,
			user_added, one_off, replaces_operations, additional_operation, added_by, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.LookupCode, job.RouteCard, job.ContractNumber, job.OpCode, job.PartNumber, job.CustomerName,
		job.Description, job.DueDate, job.Quantity, job.CompletedQty, job.Balance, job.Status,
		job.PlannedSetupTime, job.PlannedRunTime, job.UserAdded, job.OneOff, job.ReplacesOperations,
		job.AdditionalOperation, job.AddedBy, job.AddedAt,
	)
	if err != nil {
		if isDuplicate(err) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
		return 0, fmt.Errorf("%s: ошибка вставки операции: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// UpdateJobCompletion пишет количество с проверкой версии строки.
func (s *Storage) UpdateJobCompletion(ctx context.Context, upd storage.CompletionUpdate) (int64, error) {
	const op = "storage.mysql.UpdateJobCompletion"

	res, err := s.db.ExecContext(ctx, `
		UPDATE jobs SET completed_qty = ?, balance = ?, status = ?, version = version + 1
		WHERE lookup_code = ? AND version = ?`,
		upd.CompletedQty, upd.Balance, upd.Status, upd.LookupCode, upd.ExpectedVersion,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if affected == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM jobs WHERE lookup_code = ?`, upd.LookupCode).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		if err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return 0, fmt.Errorf("%s: %w", op, storage.ErrVersionConflict)
	}

	return upd.ExpectedVersion + 1, nil
}
