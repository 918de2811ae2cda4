// Package ledger ведёт журнал интервалов работы (наладка, работа, пауза, контроль)
// по операции задания.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type LogStore interface {
	InsertJobLog(ctx context.Context, l storage.JobLog) (int64, error)
	CloseJobLog(ctx context.Context, logID int64, c storage.LogClose) error
	GetOpenJobLog(ctx context.Context, lookupCode, state string) (*storage.JobLog, error)
	GetJobLogByID(ctx context.Context, logID int64) (*storage.JobLog, error)
}

type Ledger struct {
	log   *slog.Logger
	store LogStore
	now   func() time.Time
}

func New(log *slog.Logger, store LogStore) *Ledger {
	return &Ledger{log: log, store: store, now: time.Now}
}

// WithClock подменяет часы, нужен тестам машины состояний.
func (l *Ledger) WithClock(now func() time.Time) *Ledger {
	l.now = now
	return l
}

type NewLog struct {
	LookupCode     string
	UserID         string
	MachineID      string
	State          string
	StartTime      *time.Time
	Comments       *string
	InspectionType *string
	InspectionQty  *int
	// EndTime и InspectionPassed записывают уже завершённый контроль одной строкой.
	EndTime          *time.Time
	InspectionPassed *bool
	CompletedQty     *int
}

func (l *Ledger) CreateLog(ctx context.Context, nl NewLog) (int64, error) {
	const op = "ledger.CreateLog"

	switch {
	case nl.LookupCode == "":
		return 0, apperr.Validation(op, "lookup_code is required")
	case nl.UserID == "":
		return 0, apperr.Validation(op, "user_id is required")
	case nl.MachineID == "":
		return 0, apperr.Validation(op, "machine_id is required")
	case !validState(nl.State):
		return 0, apperr.Validation(op, "state must be one of SETUP, RUNNING, PAUSED, INSPECTION")
	}

	start := l.now()
	if nl.StartTime != nil {
		start = *nl.StartTime
	}
	if nl.EndTime != nil && nl.EndTime.Before(start) {
		return 0, apperr.Validation(op, "end_time is before start_time")
	}

	id, err := l.store.InsertJobLog(ctx, storage.JobLog{
		LookupCode:       nl.LookupCode,
		UserID:           nl.UserID,
		MachineID:        nl.MachineID,
		State:            nl.State,
		StartTime:        start,
		EndTime:          nl.EndTime,
		CompletedQty:     nl.CompletedQty,
		Comments:         nl.Comments,
		InspectionType:   nl.InspectionType,
		InspectionPassed: nl.InspectionPassed,
		InspectionQty:    nl.InspectionQty,
	})
	if err != nil {
		l.log.Error("failed to create job log",
			slog.String("op", op),
			slog.String("lookup_code", nl.LookupCode),
			slog.String("state", nl.State),
			slog.String("error", err.Error()),
		)
		return 0, apperr.Persistence(op, err)
	}

	return id, nil
}

type CloseParams struct {
	EndTime *time.Time
	// EndNow конец интервала = текущее время сервера
	EndNow           bool
	CompletedQty     *int
	Comments         *string
	InspectionPassed *bool
	InspectionQty    *int
	// ExpectLookupCode если задан, лог другой операции закрыть нельзя
	ExpectLookupCode string
}

// CloseLog закрывает открытый лог и возвращает его в закрытом виде.
func (l *Ledger) CloseLog(ctx context.Context, logID int64, p CloseParams) (*storage.JobLog, error) {
	const op = "ledger.CloseLog"

	if p.CompletedQty != nil && *p.CompletedQty < 0 {
		return nil, apperr.Validation(op, "completed_qty cannot be negative")
	}

	current, err := l.store.GetJobLogByID(ctx, logID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(op, "job log not found")
		}
		return nil, apperr.Persistence(op, err)
	}
	if !current.IsOpen() {
		return nil, apperr.Conflict(op, "job log is already closed")
	}
	if p.ExpectLookupCode != "" && current.LookupCode != p.ExpectLookupCode {
		return nil, apperr.Conflict(op, "job log belongs to another job")
	}

	end := l.now()
	if p.EndTime != nil && !p.EndNow {
		end = *p.EndTime
	}
	if end.Before(current.StartTime) {
		return nil, apperr.Validation(op, "end_time is before start_time")
	}

	err = l.store.CloseJobLog(ctx, logID, storage.LogClose{
		EndTime:          end,
		CompletedQty:     p.CompletedQty,
		Comments:         p.Comments,
		InspectionPassed: p.InspectionPassed,
		InspectionQty:    p.InspectionQty,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, apperr.NotFound(op, "job log not found")
		case errors.Is(err, storage.ErrLogClosed):
			return nil, apperr.Conflict(op, "job log is already closed")
		}
		l.log.Error("failed to close job log",
			slog.String("op", op),
			slog.Int64("log_id", logID),
			slog.String("error", err.Error()),
		)
		return nil, apperr.Persistence(op, err)
	}

	closed := *current
	closed.EndTime = &end
	if p.CompletedQty != nil {
		closed.CompletedQty = p.CompletedQty
	}
	if p.Comments != nil {
		closed.Comments = p.Comments
	}
	if p.InspectionPassed != nil {
		closed.InspectionPassed = p.InspectionPassed
	}
	if p.InspectionQty != nil {
		closed.InspectionQty = p.InspectionQty
	}

	return &closed, nil
}

// GetOpenLog found=false, если открытого лога нет.
func (l *Ledger) GetOpenLog(ctx context.Context, lookupCode, state string) (*storage.JobLog, bool, error) {
	const op = "ledger.GetOpenLog"

	if lookupCode == "" {
		return nil, false, apperr.Validation(op, "lookup_code is required")
	}
	if state != "" && !validState(state) {
		return nil, false, apperr.Validation(op, "unknown log state "+state)
	}

	openLog, err := l.store.GetOpenJobLog(ctx, lookupCode, state)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, apperr.Persistence(op, err)
	}

	return openLog, true, nil
}

func (l *Ledger) GetLogByID(ctx context.Context, logID int64) (*storage.JobLog, error) {
	const op = "ledger.GetLogByID"

	found, err := l.store.GetJobLogByID(ctx, logID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(op, "job log not found")
		}
		return nil, apperr.Persistence(op, err)
	}

	return found, nil
}

func validState(state string) bool {
	switch state {
	case storage.LogStateSetup, storage.LogStateRunning, storage.LogStatePaused, storage.LogStateInspection:
		return true
	}
	return false
}
