package efficiency

import (
	"context"
	"log/slog"
	"time"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type MetricStore interface {
	InsertEfficiencyMetric(ctx context.Context, m storage.EfficiencyMetric) (int64, error)
	ListEfficiencyMetrics(ctx context.Context, f storage.EfficiencyFilter) ([]storage.EfficiencyMetric, error)
}

type Logger struct {
	log   *slog.Logger
	store MetricStore
}

func NewLogger(log *slog.Logger, store MetricStore) *Logger {
	return &Logger{log: log, store: store}
}

type LogParams struct {
	JobLogID   int64
	LookupCode string
	LogType    string
	StartTime  time.Time
	EndTime    time.Time
	Job        *storage.JobOperation
	Quantity   *int
	OperatorID string
	MachineID  string
}

// LogResult метрики считаются всегда, ошибка записи отдаётся отдельно в PersistErr.
type LogResult struct {
	Metrics    Metrics
	MetricID   int64
	PersistErr error
}

func (l *Logger) LogEfficiency(ctx context.Context, p LogParams) (*LogResult, error) {
	const op = "efficiency.Logger.LogEfficiency"

	if p.Job == nil {
		return nil, apperr.MissingData(op, "job data is required to calculate efficiency")
	}
	if p.LogType == storage.MetricTypeRunning && p.Quantity == nil {
		return nil, apperr.MissingData(op, "quantity is required for RUNNING efficiency")
	}

	metrics, err := JobEfficiency(*p.Job, p.LogType, p.StartTime, p.EndTime, p.Quantity)
	if err != nil {
		return nil, err
	}

	record := storage.EfficiencyMetric{
		JobLogID:             p.JobLogID,
		LookupCode:           p.LookupCode,
		MetricType:           p.LogType,
		PlannedTime:          metrics.Planned,
		ActualTime:           metrics.Actual,
		EfficiencyPercentage: metrics.Efficiency,
		TimeSaved:            metrics.TimeSaved,
		OperatorID:           optional(p.OperatorID),
		MachineID:            optional(p.MachineID),
	}
	if p.LogType == storage.MetricTypeRunning {
		plannedQty := p.Job.Quantity
		record.PlannedQty = &plannedQty
		record.PlannedPerItem = metrics.PlannedPerItem
		record.CompletedQty = p.Quantity
	}

	result := &LogResult{Metrics: metrics}

	id, err := l.store.InsertEfficiencyMetric(ctx, record)
	if err != nil {
		l.log.Warn("failed to store efficiency metric",
			slog.String("op", op),
			slog.Int64("job_log_id", p.JobLogID),
			slog.String("error", err.Error()),
		)
		result.PersistErr = apperr.Persistence(op, err)
		return result, nil
	}

	result.MetricID = id

	l.log.Debug("efficiency stored",
		slog.Int64("metric_id", id),
		slog.String("lookup_code", p.LookupCode),
		slog.String("type", p.LogType),
		slog.Int("efficiency", metrics.Efficiency),
	)

	return result, nil
}

// GetEfficiencyForLog отсутствие метрики - обычная ситуация, found=false.
func (l *Logger) GetEfficiencyForLog(ctx context.Context, jobLogID int64) (*storage.EfficiencyMetric, bool, error) {
	const op = "efficiency.Logger.GetEfficiencyForLog"

	metrics, err := l.store.ListEfficiencyMetrics(ctx, storage.EfficiencyFilter{JobLogID: jobLogID, Limit: 1})
	if err != nil {
		return nil, false, apperr.Persistence(op, err)
	}
	if len(metrics) == 0 {
		return nil, false, nil
	}

	return &metrics[0], true, nil
}

func (l *Logger) GetEfficiencyForJob(ctx context.Context, lookupCode, metricType string, limit int) ([]storage.EfficiencyMetric, error) {
	const op = "efficiency.Logger.GetEfficiencyForJob"

	if limit <= 0 {
		limit = 10
	}

	metrics, err := l.store.ListEfficiencyMetrics(ctx, storage.EfficiencyFilter{
		LookupCode: lookupCode,
		MetricType: metricType,
		Limit:      limit,
	})
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}

	return metrics, nil
}

// ListMetrics произвольная выборка для GET /api/efficiency.
func (l *Logger) ListMetrics(ctx context.Context, f storage.EfficiencyFilter) ([]storage.EfficiencyMetric, error) {
	const op = "efficiency.Logger.ListMetrics"

	metrics, err := l.store.ListEfficiencyMetrics(ctx, f)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}

	return metrics, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
