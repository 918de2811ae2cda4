package jobs

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type AddOperationParams struct {
	RouteCard           string
	ContractNumber      string
	OperationCode       string
	OneOff              bool
	ReplacesOperations  *string
	AdditionalOperation bool
	AddedBy             *string
}

// AddOperation заводит операцию, которой нет на маршрутной карте, копируя данные заказа с соседней строки.
func (s *Service) AddOperation(ctx context.Context, p AddOperationParams) (*storage.JobOperation, error) {
	const op = "jobs.Service.AddOperation"

	p.RouteCard = strings.TrimSpace(p.RouteCard)
	p.OperationCode = strings.TrimSpace(p.OperationCode)
	p.ContractNumber = strings.TrimSpace(p.ContractNumber)

	if p.RouteCard == "" || p.OperationCode == "" {
		return nil, apperr.Validation(op, "route_card and operation_code are required")
	}

	sibling, err := s.store.GetSiblingJob(ctx, p.RouteCard)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.NotFound(op, "no existing job found for route card "+p.RouteCard)
		}
		return nil, apperr.Persistence(op, err)
	}

	// операция уникальна в пределах маршрутной карты, контракт не учитывается
	existing, err := s.store.GetOperationsByRouteCard(ctx, p.RouteCard)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	for _, e := range existing {
		if e.OpCode == p.OperationCode {
			return nil, apperr.Conflict(op, "operation "+p.OperationCode+" already exists for route card "+p.RouteCard)
		}
	}

	contract := p.ContractNumber
	if contract == "" {
		contract = sibling.ContractNumber
	}
	lookupCode := storage.LookupCode(p.RouteCard, contract, p.OperationCode)

	addedAt := s.now()
	job := storage.JobOperation{
		LookupCode:          lookupCode,
		RouteCard:           p.RouteCard,
		ContractNumber:      contract,
		OpCode:              p.OperationCode,
		PartNumber:          sibling.PartNumber,
		CustomerName:        sibling.CustomerName,
		Description:         "User added operation: " + p.OperationCode,
		DueDate:             sibling.DueDate,
		Quantity:            sibling.Quantity,
		Balance:             sibling.Balance,
		Status:              storage.JobStatusReady,
		UserAdded:           true,
		OneOff:              p.OneOff,
		ReplacesOperations:  p.ReplacesOperations,
		AdditionalOperation: p.AdditionalOperation,
		AddedBy:             p.AddedBy,
		AddedAt:             &addedAt,
	}

	id, err := s.store.InsertJobOperation(ctx, job)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperr.Conflict(op, "operation "+p.OperationCode+" already exists for route card "+p.RouteCard)
		}
		return nil, apperr.Persistence(op, err)
	}
	job.ID = id

	s.log.Info("operation added to route card",
		slog.String("lookup_code", lookupCode),
		slog.Bool("one_off", p.OneOff),
	)

	return &job, nil
}
