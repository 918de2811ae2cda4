package jobs

import (
	"context"
	"errors"
	"log/slog"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

// ApplyCompletion считает новое выполненное количество, остаток и статус.
func ApplyCompletion(quantity, completed, delta int, incremental bool) (newCompleted, balance int, status string, err error) {
	const op = "jobs.ApplyCompletion"

	if delta < 0 {
		return 0, 0, "", apperr.Validation(op, "completed quantity cannot be negative")
	}

	newCompleted = delta
	if incremental {
		newCompleted = completed + delta
	}

	balance = max(0, quantity-newCompleted)

	status = storage.JobStatusWIP
	if balance == 0 {
		status = storage.JobStatusComplete
	}

	return newCompleted, balance, status, nil
}

// UpdateJobCompletion перечитывает строку и пишет её с проверкой версии.
// При гонке двух терминалов проигравший получает Conflict, повтора нет.
func (s *Service) UpdateJobCompletion(ctx context.Context, job *storage.JobOperation, delta int, incremental bool) (*storage.JobOperation, error) {
	const op = "jobs.Service.UpdateJobCompletion"

	if job == nil || job.LookupCode == "" {
		return nil, apperr.MissingData(op, "job lookup_code is required")
	}
	if delta < 0 {
		return nil, apperr.Validation(op, "completed quantity cannot be negative")
	}

	current, err := s.store.GetJobByLookupCode(ctx, job.LookupCode)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(op, "job not found")
		}
		return nil, apperr.Persistence(op, err)
	}

	newCompleted, balance, status, err := ApplyCompletion(current.Quantity, current.CompletedQty, delta, incremental)
	if err != nil {
		return nil, err
	}

	version, err := s.store.UpdateJobCompletion(ctx, storage.CompletionUpdate{
		LookupCode:      current.LookupCode,
		CompletedQty:    newCompleted,
		Balance:         balance,
		Status:          status,
		ExpectedVersion: current.Version,
	})
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrVersionConflict):
			return nil, apperr.Conflict(op, "job was updated by another terminal, reload and retry")
		case errors.Is(err, storage.ErrNotFound):
			return nil, apperr.NotFound(op, "job not found")
		}
		s.log.Error("failed to update job completion",
			slog.String("op", op),
			slog.String("lookup_code", current.LookupCode),
			slog.String("error", err.Error()),
		)
		return nil, apperr.Persistence(op, err)
	}

	updated := *current
	updated.CompletedQty = newCompleted
	updated.Balance = balance
	updated.Status = status
	updated.Version = version

	s.log.Info("job completion updated",
		slog.String("lookup_code", updated.LookupCode),
		slog.Int("completed_qty", newCompleted),
		slog.Int("balance", balance),
		slog.String("status", status),
	)

	return &updated, nil
}
