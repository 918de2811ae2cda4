package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"shopfloor-terminal/internal/storage"
)

const defaultListLimit = 10

func (s *Storage) InsertEfficiencyMetric(ctx context.Context, m storage.EfficiencyMetric) (int64, error) {
	const op = "storage.mysql.InsertEfficiencyMetric"

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO efficiency_metrics (job_log_id, lookup_code, metric_type, planned_time, actual_time,
			efficiency_percentage, time_saved, planned_qty, planned_per_item, completed_qty, operator_id, machine_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.JobLogID, m.LookupCode, m.MetricType, m.PlannedTime, m.ActualTime,
		m.EfficiencyPercentage, m.TimeSaved, m.PlannedQty, m.PlannedPerItem, m.CompletedQty, m.OperatorID, m.MachineID,
	)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func (s *Storage) ListEfficiencyMetrics(ctx context.Context, f storage.EfficiencyFilter) ([]storage.EfficiencyMetric, error) {
	const op = "storage.mysql.ListEfficiencyMetrics"

	var (
		where []string
		args  []any
	)

	if f.JobLogID > 0 {
		where = append(where, "job_log_id = ?")
		args = append(args, f.JobLogID)
	}
	if f.LookupCode != "" {
		where = append(where, "lookup_code = ?")
		args = append(args, f.LookupCode)
	}
	if f.MetricType != "" {
		where = append(where, "metric_type = ?")
		args = append(args, f.MetricType)
	}
	if f.From != nil {
		where = append(where, "created_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "created_at < ?")
		args = append(args, *f.To)
	}

	query := `SELECT metric_id, job_log_id, lookup_code, metric_type, planned_time, actual_time,
		efficiency_percentage, time_saved, planned_qty, planned_per_item, completed_qty, operator_id, machine_id, created_at
		FROM efficiency_metrics`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	// для отчёта лимит не нужен
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

	metrics := []storage.EfficiencyMetric{}
	for rows.Next() {
		var (
			m          storage.EfficiencyMetric
			plannedQty sql.NullInt64
			perItem    sql.NullFloat64
			doneQty    sql.NullInt64
			operator   sql.NullString
			machine    sql.NullString
		)

		err := rows.Scan(&m.MetricID, &m.JobLogID, &m.LookupCode, &m.MetricType, &m.PlannedTime, &m.ActualTime,
			&m.EfficiencyPercentage, &m.TimeSaved, &plannedQty, &perItem, &doneQty, &operator, &machine, &m.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}

		if plannedQty.Valid {
			v := int(plannedQty.Int64)
			m.PlannedQty = &v
		}
		if perItem.Valid {
			m.PlannedPerItem = &perItem.Float64
		}
		if doneQty.Valid {
			v := int(doneQty.Int64)
			m.CompletedQty = &v
		}
		if operator.Valid {
			m.OperatorID = &operator.String
		}
		if machine.Valid {
			m.MachineID = &machine.String
		}

		metrics = append(metrics, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return metrics, nil
}
