// Package jobs находит операцию задания по скану маршрутной карты, добавляет
// недостающие операции и ведёт выполненное количество.
package jobs

import (
	"context"
	"log/slog"
	"time"

	"shopfloor-terminal/internal/notify"
	"shopfloor-terminal/internal/storage"
)

type JobStore interface {
	GetJobByLookupCode(ctx context.Context, lookupCode string) (*storage.JobOperation, error)
	GetOperationsByRouteCard(ctx context.Context, routeCard string) ([]storage.RouteCardOperation, error)
	GetSiblingJob(ctx context.Context, routeCard string) (*storage.JobOperation, error)
	InsertJobOperation(ctx context.Context, job storage.JobOperation) (int64, error)
	UpdateJobCompletion(ctx context.Context, upd storage.CompletionUpdate) (int64, error)
}

type NotFoundNotifier interface {
	SendJobNotFound(ctx context.Context, n notify.JobNotFound) error
}

type Service struct {
	log      *slog.Logger
	store    JobStore
	notifier NotFoundNotifier
	now      func() time.Time
}

func NewService(log *slog.Logger, store JobStore, notifier NotFoundNotifier) *Service {
	return &Service{log: log, store: store, notifier: notifier, now: time.Now}
}
