package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/notify"
	"shopfloor-terminal/internal/storage"
)

type LookupKind string

const (
	LookupFound                LookupKind = "FOUND"
	LookupNotFound             LookupKind = "NOT_FOUND"
	LookupOperationNotAssigned LookupKind = "OPERATION_NOT_ASSIGNED"
)

type LookupResult struct {
	Kind               LookupKind                   `json:"code"`
	Job                *storage.JobOperation        `json:"job,omitempty"`
	LookupCode         string                       `json:"lookup_code"`
	RouteCard          string                       `json:"route_card"`
	OperationCode      string                       `json:"operation_code"`
	ContractNumber     string                       `json:"contract_number,omitempty"`
	ExistingOperations []storage.RouteCardOperation `json:"existing_operations,omitempty"`
}

// ScanContext кто и где отсканировал, нужен только для письма о ненайденном задании.
type ScanContext struct {
	TerminalName string
	UserName     string
}

// LookupJob разбор настоящего скана. Если маршрутной карты нет вообще,
// уходит письмо администратору; ошибка отправки не влияет на результат.
func (s *Service) LookupJob(ctx context.Context, scan, operationCode string, sc ScanContext) (*LookupResult, error) {
	const op = "jobs.Service.LookupJob"

	res, err := s.resolve(ctx, op, scan, operationCode)
	if err != nil {
		return nil, err
	}

	if res.Kind == LookupNotFound && s.notifier != nil {
		err := s.notifier.SendJobNotFound(ctx, notify.JobNotFound{
			RouteCard:     res.RouteCard,
			Scan:          strings.TrimSpace(scan),
			OperationCode: res.OperationCode,
			TerminalName:  sc.TerminalName,
			UserName:      sc.UserName,
			ScannedAt:     s.now(),
		})
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, notify.ErrThrottled) || errors.Is(err, notify.ErrDisabled) {
				level = slog.LevelDebug
			}
			s.log.Log(ctx, level, "job not found notification failed",
				slog.String("op", op),
				slog.String("route_card", res.RouteCard),
				slog.String("error", err.Error()),
			)
		}
	}

	return res, nil
}

// CheckJob тот же разбор без побочных эффектов.
func (s *Service) CheckJob(ctx context.Context, scan, operationCode string) (*LookupResult, error) {
	return s.resolve(ctx, "jobs.Service.CheckJob", scan, operationCode)
}

func (s *Service) GetJob(ctx context.Context, lookupCode string) (*storage.JobOperation, error) {
	const op = "jobs.Service.GetJob"

	job, err := s.store.GetJobByLookupCode(ctx, lookupCode)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(op, "job not found")
		}
		return nil, apperr.Persistence(op, err)
	}

	return job, nil
}

func (s *Service) resolve(ctx context.Context, op, scan, operationCode string) (*LookupResult, error) {
	scan = strings.TrimSpace(scan)
	operationCode = strings.TrimSpace(operationCode)

	if scan == "" {
		return nil, apperr.Validation(op, "scan code is required")
	}
	if operationCode == "" {
		return nil, apperr.Validation(op, "operation code is required")
	}

	lookupCode := scan + "-" + operationCode
	routeCard := RouteCardFromScan(scan)

	res := &LookupResult{
		LookupCode:    lookupCode,
		RouteCard:     routeCard,
		OperationCode: operationCode,
	}

	job, err := s.store.GetJobByLookupCode(ctx, lookupCode)
	switch {
	case err == nil:
		res.Kind = LookupFound
		res.Job = job
		res.ContractNumber = job.ContractNumber
		return res, nil
	case !errors.Is(err, storage.ErrNotFound):
		return nil, apperr.Persistence(op, err)
	}

	existing, err := s.store.GetOperationsByRouteCard(ctx, routeCard)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}

	if len(existing) == 0 {
		res.Kind = LookupNotFound
		return res, nil
	}

	// голый скан маршрутной карты не совпадает с ключом route-contract-op
	for _, e := range existing {
		if e.OpCode != operationCode {
			continue
		}
		job, err := s.store.GetJobByLookupCode(ctx, storage.LookupCode(routeCard, e.ContractNumber, operationCode))
		switch {
		case err == nil:
			res.Kind = LookupFound
			res.Job = job
			res.LookupCode = job.LookupCode
			res.ContractNumber = job.ContractNumber
			return res, nil
		case !errors.Is(err, storage.ErrNotFound):
			return nil, apperr.Persistence(op, err)
		}
	}

	res.Kind = LookupOperationNotAssigned
	res.ExistingOperations = existing
	res.ContractNumber = existing[0].ContractNumber

	return res, nil
}

// RouteCardFromScan скан бывает "1001" или "1001-C55"; маршрутная карта - часть до первого дефиса.
// Нечисловые значения не отбрасываются.
func RouteCardFromScan(scan string) string {
	scan = strings.TrimSpace(scan)
	if i := strings.Index(scan, "-"); i > 0 {
		return scan[:i]
	}
	return scan
}
