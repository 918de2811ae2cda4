package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"shopfloor-terminal/internal/storage"
)

func (s *Storage) InsertReject(ctx context.Context, r storage.RejectRecord) (*storage.RejectRecord, error) {
	const op = "storage.mysql.InsertReject"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO rejects (customer_name, contract_number, route_card, part_number, qty_rejected,
			operator_id, supervisor_id, reason, remanufacture_qty, machine_id, operation_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.CustomerName, r.ContractNumber, r.RouteCard, r.PartNumber, r.QtyRejected,
		r.OperatorID, r.SupervisorID, r.Reason, r.RemanufactureQty, r.MachineID, r.OperationCode, r.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: ошибка сохранения брака: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	r.RejectID = id
	return &r, nil
}

func (s *Storage) ListRejects(ctx context.Context, f storage.RejectFilter) ([]storage.RejectRecord, error) {
	const op = "storage.mysql.ListRejects"

	var (
		where []string
		args  []any
	)

	if f.RejectID > 0 {
		where = append(where, "reject_id = ?")
		args = append(args, f.RejectID)
	}
	if f.ContractNumber != "" {
		where = append(where, "contract_number = ?")
		args = append(args, f.ContractNumber)
	}
	if f.RouteCard != "" {
		where = append(where, "route_card = ?")
		args = append(args, f.RouteCard)
	}
	if f.OperationCode != "" {
		where = append(where, "operation_code = ?")
		args = append(args, f.OperationCode)
	}
	if f.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "created_at < ?")
		args = append(args, *f.To)
	}

	query := `SELECT reject_id, customer_name, contract_number, route_card, part_number, qty_rejected,
		operator_id, supervisor_id, reason, remanufacture_qty, machine_id, operation_code, created_at
		FROM rejects`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	if f.Limit >= 0 {
		limit := f.Limit
		if limit == 0 {
			limit = defaultListLimit
		}
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	rejects := []storage.RejectRecord{}
	for rows.Next() {
		var r storage.RejectRecord
		err := rows.Scan(&r.RejectID, &r.CustomerName, &r.ContractNumber, &r.RouteCard, &r.PartNumber,
			&r.QtyRejected, &r.OperatorID, &r.SupervisorID, &r.Reason, &r.RemanufactureQty, &r.MachineID,
			&r.OperationCode, &r.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		rejects = append(rejects, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return rejects, nil
}

// GetRejectReasons причины брака, привязанные к операции. "Other" сюда не входит.
func (s *Storage) GetRejectReasons(ctx context.Context, operationCode string) ([]storage.RejectReason, error) {
	const op = "storage.mysql.GetRejectReasons"

	rows, err := s.db.QueryContext(ctx, `
		SELECT rr.reason_id, rr.reason_name, rr.description
		FROM reject_reasons rr
		JOIN operation_rejects orj ON orj.reason_id = rr.reason_id
		WHERE orj.operation_code = ? AND rr.reason_name <> ?
		ORDER BY rr.reason_name`, operationCode, storage.OtherReasonName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	reasons := []storage.RejectReason{}
	for rows.Next() {
		var (
			r    storage.RejectReason
			desc sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &desc); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		if desc.Valid {
			r.Description = &desc.String
		}
		reasons = append(reasons, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return reasons, nil
}

func (s *Storage) GetRejectReasonByName(ctx context.Context, name string) (*storage.RejectReason, error) {
	const op = "storage.mysql.GetRejectReasonByName"

	var (
		r    storage.RejectReason
		desc sql.NullString
	)

	err := s.db.QueryRowContext(ctx,
		`SELECT reason_id, reason_name, description FROM reject_reasons WHERE reason_name = ?`, name,
	).Scan(&r.ID, &r.Name, &desc)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if desc.Valid {
		r.Description = &desc.String
	}

	return &r, nil
}

func (s *Storage) InsertRejectReason(ctx context.Context, name string, description *string) (*storage.RejectReason, error) {
	const op = "storage.mysql.InsertRejectReason"

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reject_reasons (reason_name, description) VALUES (?, ?)`, name, description)
	if err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &storage.RejectReason{ID: id, Name: name, Description: description}, nil
}

// SetOperationReasons заменяет набор причин брака операции целиком.
func (s *Storage) SetOperationReasons(ctx context.Context, operationCode string, reasonIDs []int64) error {
	const op = "storage.mysql.SetOperationReasons"

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin: %w", op, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM operation_rejects WHERE operation_code = ?`, operationCode); err != nil {
		return fmt.Errorf("%s: delete: %w", op, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO operation_rejects (operation_code, reason_id)
		SELECT ?, reason_id FROM reject_reasons WHERE reason_id = ?`)
	if err != nil {
		return fmt.Errorf("%s: prepare: %w", op, err)
	}
	defer stmt.Close()

	for _, id := range reasonIDs {
		res, err := stmt.ExecContext(ctx, operationCode, id)
		if err != nil {
			if isDuplicate(err) {
				continue
			}
			return fmt.Errorf("%s: insert %d: %w", op, id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("%s: rows affected: %w", op, err)
		}
		if n == 0 {
			return fmt.Errorf("%s: reason %d: %w", op, id, storage.ErrNotFound)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}

	return nil
}
