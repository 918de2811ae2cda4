// Package reject оформляет заявки на переделку брака.
package reject

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/notify"
	"shopfloor-terminal/internal/service/identity"
	"shopfloor-terminal/internal/storage"
)

type Store interface {
	InsertReject(ctx context.Context, r storage.RejectRecord) (*storage.RejectRecord, error)
	ListRejects(ctx context.Context, f storage.RejectFilter) ([]storage.RejectRecord, error)
	GetRejectReasons(ctx context.Context, operationCode string) ([]storage.RejectReason, error)
	GetRejectReasonByName(ctx context.Context, name string) (*storage.RejectReason, error)
	InsertRejectReason(ctx context.Context, name string, description *string) (*storage.RejectReason, error)
	SetOperationReasons(ctx context.Context, operationCode string, reasonIDs []int64) error
}

type JobReader interface {
	GetJob(ctx context.Context, lookupCode string) (*storage.JobOperation, error)
}

type Approver interface {
	Authenticate(ctx context.Context, employeeID string, role identity.Role) (*identity.User, error)
}

type Mailer interface {
	SendRemanufacture(ctx context.Context, r notify.Remanufacture) (string, error)
}

type Service struct {
	log      *slog.Logger
	store    Store
	jobs     JobReader
	approver Approver
	mailer   Mailer
	now      func() time.Time
}

func NewService(log *slog.Logger, store Store, jobs JobReader, approver Approver, mailer Mailer) *Service {
	return &Service{
		log:      log,
		store:    store,
		jobs:     jobs,
		approver: approver,
		mailer:   mailer,
		now:      time.Now,
	}
}

type Request struct {
	LookupCode       string `json:"lookup_code" validate:"required"`
	QtyRejected      int    `json:"qty_rejected" validate:"gte=0"`
	OperatorID       string `json:"operator_id" validate:"required"`
	SupervisorID     string `json:"supervisor_id" validate:"required"`
	Reason           string `json:"reason" validate:"required"`
	RemanufactureQty int    `json:"remanufacture_qty" validate:"gt=0"`
	MachineID        string `json:"machine_id" validate:"required"`
}

type Result struct {
	Record    *storage.RejectRecord `json:"reject"`
	EmailSent bool                  `json:"email_sent"`
	MessageID string                `json:"message_id,omitempty"`
}

// ValidateQuantity количество на переделку не больше количества по заданию.
func ValidateQuantity(qty, jobQuantity int) error {
	const op = "reject.ValidateQuantity"

	if qty <= 0 {
		return apperr.Validation(op, "remanufacture quantity must be greater than zero")
	}
	if qty > jobQuantity {
		return apperr.Validation(op, "remanufacture quantity cannot exceed job quantity")
	}
	return nil
}

// CreateReject сохраняет заявку и затем пытается отправить письмо в производство.
// Ошибка отправки письма не отменяет заявку.
func (s *Service) CreateReject(ctx context.Context, req Request) (*Result, error) {
	const op = "reject.Service.CreateReject"

	log := s.log.With(slog.String("op", op), slog.String("lookup_code", req.LookupCode))

	if strings.TrimSpace(req.Reason) == "" {
		return nil, apperr.Validation(op, "reason is required")
	}
	if req.OperatorID == "" || req.MachineID == "" {
		return nil, apperr.Validation(op, "operator_id and machine_id are required")
	}
	if req.QtyRejected < 0 {
		return nil, apperr.Validation(op, "qty_rejected cannot be negative")
	}

	job, err := s.jobs.GetJob(ctx, req.LookupCode)
	if err != nil {
		return nil, err
	}

	if err := ValidateQuantity(req.RemanufactureQty, job.Quantity); err != nil {
		return nil, err
	}

	if _, err := s.approver.Authenticate(ctx, req.SupervisorID, identity.RoleRemanufacture); err != nil {
		return nil, err
	}

	rec, err := s.store.InsertReject(ctx, storage.RejectRecord{
		CustomerName:     job.CustomerName,
		ContractNumber:   job.ContractNumber,
		RouteCard:        job.RouteCard,
		PartNumber:       job.PartNumber,
		QtyRejected:      req.QtyRejected,
		OperatorID:       req.OperatorID,
		SupervisorID:     req.SupervisorID,
		Reason:           strings.TrimSpace(req.Reason),
		RemanufactureQty: req.RemanufactureQty,
		MachineID:        req.MachineID,
		OperationCode:    job.OpCode,
		CreatedAt:        s.now().UTC(),
	})
	if err != nil {
		log.Error("failed to save reject", slog.String("error", err.Error()))
		return nil, apperr.Persistence(op, err)
	}

	res := &Result{Record: rec}

	messageID, err := s.mailer.SendRemanufacture(ctx, notify.Remanufacture{
		RejectID:         rec.RejectID,
		CustomerName:     rec.CustomerName,
		ContractNumber:   rec.ContractNumber,
		RouteCard:        rec.RouteCard,
		PartNumber:       rec.PartNumber,
		OperationCode:    rec.OperationCode,
		QtyRejected:      rec.QtyRejected,
		RemanufactureQty: rec.RemanufactureQty,
		Reason:           rec.Reason,
		OperatorID:       rec.OperatorID,
		SupervisorID:     rec.SupervisorID,
		MachineID:        rec.MachineID,
		CreatedAt:        rec.CreatedAt,
	})
	if err != nil {
		level := slog.LevelWarn
		if errors.Is(err, notify.ErrDisabled) {
			level = slog.LevelInfo
		}
		log.Log(ctx, level, "remanufacture email not sent",
			slog.Int64("reject_id", rec.RejectID),
			slog.String("error", err.Error()),
		)
		return res, nil
	}

	res.EmailSent = true
	res.MessageID = messageID

	log.Info("reject created", slog.Int64("reject_id", rec.RejectID), slog.String("message_id", messageID))

	return res, nil
}

// Reasons причины брака для операции, "Other" всегда последней.
func (s *Service) Reasons(ctx context.Context, operationCode string) ([]storage.RejectReason, error) {
	const op = "reject.Service.Reasons"

	reasons, err := s.store.GetRejectReasons(ctx, operationCode)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}

	other, err := s.store.GetRejectReasonByName(ctx, storage.OtherReasonName)
	switch {
	case err == nil:
		reasons = append(reasons, *other)
	case errors.Is(err, storage.ErrNotFound):
		desc := "Reason not listed"
		reasons = append(reasons, storage.RejectReason{Name: storage.OtherReasonName, Description: &desc})
	default:
		return nil, apperr.Persistence(op, err)
	}

	return reasons, nil
}

func (s *Service) AddReason(ctx context.Context, name string, description *string) (*storage.RejectReason, error) {
	const op = "reject.Service.AddReason"

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation(op, "reason name is required")
	}

	r, err := s.store.InsertRejectReason(ctx, name, description)
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperr.Conflict(op, "reject reason already exists")
		}
		return nil, apperr.Persistence(op, err)
	}

	return r, nil
}

// AssignReasons задаёт, какие причины брака видит терминал операции.
func (s *Service) AssignReasons(ctx context.Context, operationCode string, reasonIDs []int64) error {
	const op = "reject.Service.AssignReasons"

	operationCode = strings.TrimSpace(operationCode)
	if operationCode == "" {
		return apperr.Validation(op, "operation_code is required")
	}

	if err := s.store.SetOperationReasons(ctx, operationCode, reasonIDs); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(op, "reject reason not found")
		}
		return apperr.Persistence(op, err)
	}

	s.log.Info("operation reasons assigned",
		slog.String("operation_code", operationCode),
		slog.Int("count", len(reasonIDs)),
	)

	return nil
}

func (s *Service) ListRejects(ctx context.Context, f storage.RejectFilter) ([]storage.RejectRecord, error) {
	const op = "reject.Service.ListRejects"

	rejects, err := s.store.ListRejects(ctx, f)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}

	return rejects, nil
}
