package reject

import (
	"context"
	"strings"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/service/identity"
	"shopfloor-terminal/internal/storage"
)

type Step string

const (
	StepConfirmation Step = "CONFIRMATION"
	StepApproval     Step = "APPROVAL"
	StepReason       Step = "REASON"
	StepQuantity     Step = "QUANTITY"
	StepSummary      Step = "SUMMARY"
	StepSubmitted    Step = "SUBMITTED"
	StepCancelled    Step = "CANCELLED"
)

// Wizard пошаговое оформление заявки на терминале.
// Шаги идут строго по порядку, Cancel доступен на любом незавершённом шаге.
type Wizard struct {
	svc *Service

	step         Step
	job          storage.JobOperation
	completedQty int
	operatorID   string
	machineID    string
	reasons      []storage.RejectReason

	supervisorID string
	reason       string
	otherText    string
	quantity     int
	result       *Result
}

type Summary struct {
	LookupCode       string `json:"lookup_code"`
	RouteCard        string `json:"route_card"`
	PartNumber       string `json:"part_number"`
	SupervisorID     string `json:"supervisor_id"`
	Reason           string `json:"reason"`
	QtyRejected      int    `json:"qty_rejected"`
	RemanufactureQty int    `json:"remanufacture_qty"`
}

// Decision заранее принятые ответы на все шаги мастера.
type Decision struct {
	SupervisorID string `json:"supervisor_id"`
	Reason       string `json:"reason"`
	OtherText    string `json:"other_text,omitempty"`
	// 0 - остаток по заданию
	Quantity int `json:"quantity,omitempty"`
}

// NewWizard completedQty - количество, сданное этим завершением.
func (s *Service) NewWizard(ctx context.Context, job storage.JobOperation, completedQty int, operatorID, machineID string) (*Wizard, error) {
	reasons, err := s.Reasons(ctx, job.OpCode)
	if err != nil {
		return nil, err
	}

	return &Wizard{
		svc:          s,
		step:         StepConfirmation,
		job:          job,
		completedQty: completedQty,
		operatorID:   operatorID,
		machineID:    machineID,
		reasons:      reasons,
	}, nil
}

// Prepare проводит мастер до шага SUMMARY, ничего не сохраняя.
func (s *Service) Prepare(ctx context.Context, job storage.JobOperation, completedQty int, operatorID, machineID string, d Decision) (*Wizard, error) {
	w, err := s.NewWizard(ctx, job, completedQty, operatorID, machineID)
	if err != nil {
		return nil, err
	}

	if err := w.Confirm(); err != nil {
		return nil, err
	}
	if err := w.Approve(ctx, d.SupervisorID); err != nil {
		return nil, err
	}
	if err := w.SelectReason(d.Reason, d.OtherText); err != nil {
		return nil, err
	}

	qty := d.Quantity
	if qty == 0 {
		qty = w.DefaultQuantity()
	}
	if err := w.SetQuantity(qty); err != nil {
		return nil, err
	}

	return w, nil
}

func (w *Wizard) Step() Step { return w.step }

func (w *Wizard) Reasons() []storage.RejectReason { return w.reasons }

func (w *Wizard) Confirm() error {
	if err := w.expect("reject.Wizard.Confirm", StepConfirmation); err != nil {
		return err
	}
	w.step = StepApproval
	return nil
}

func (w *Wizard) Approve(ctx context.Context, supervisorID string) error {
	const op = "reject.Wizard.Approve"

	if err := w.expect(op, StepApproval); err != nil {
		return err
	}
	if supervisorID == "" {
		return apperr.Validation(op, "supervisor_id is required")
	}

	if _, err := w.svc.approver.Authenticate(ctx, supervisorID, identity.RoleRemanufacture); err != nil {
		return err
	}

	w.supervisorID = supervisorID
	w.step = StepReason
	return nil
}

func (w *Wizard) SelectReason(name, otherText string) error {
	const op = "reject.Wizard.SelectReason"

	if err := w.expect(op, StepReason); err != nil {
		return err
	}

	known := false
	for _, r := range w.reasons {
		if r.Name == name {
			known = true
			break
		}
	}
	if !known {
		return apperr.Validation(op, "unknown reject reason "+name)
	}

	otherText = strings.TrimSpace(otherText)
	if name == storage.OtherReasonName && otherText == "" {
		return apperr.Validation(op, "a description is required for Other")
	}

	w.reason = name
	w.otherText = otherText
	w.step = StepQuantity
	return nil
}

// DefaultQuantity остаток по заданию после этого завершения.
func (w *Wizard) DefaultQuantity() int {
	return max(0, w.job.Balance-w.completedQty)
}

func (w *Wizard) SetQuantity(qty int) error {
	const op = "reject.Wizard.SetQuantity"

	if err := w.expect(op, StepQuantity); err != nil {
		return err
	}
	if err := ValidateQuantity(qty, w.job.Quantity); err != nil {
		return err
	}

	w.quantity = qty
	w.step = StepSummary
	return nil
}

// Back возвращает с итогового шага к выбору причины.
func (w *Wizard) Back() error {
	if err := w.expect("reject.Wizard.Back", StepSummary); err != nil {
		return err
	}
	w.reason, w.otherText, w.quantity = "", "", 0
	w.step = StepReason
	return nil
}

func (w *Wizard) Summary() (Summary, error) {
	if err := w.expect("reject.Wizard.Summary", StepSummary); err != nil {
		return Summary{}, err
	}

	reason := w.reason
	if reason == storage.OtherReasonName {
		reason = storage.OtherReasonName + ": " + w.otherText
	}

	return Summary{
		LookupCode:       w.job.LookupCode,
		RouteCard:        w.job.RouteCard,
		PartNumber:       w.job.PartNumber,
		SupervisorID:     w.supervisorID,
		Reason:           reason,
		QtyRejected:      w.DefaultQuantity(),
		RemanufactureQty: w.quantity,
	}, nil
}

func (w *Wizard) Submit(ctx context.Context) (*Result, error) {
	const op = "reject.Wizard.Submit"

	if err := w.expect(op, StepSummary); err != nil {
		return nil, err
	}

	reason := w.reason
	if reason == storage.OtherReasonName {
		reason = w.otherText
	}

	res, err := w.svc.CreateReject(ctx, Request{
		LookupCode:       w.job.LookupCode,
		QtyRejected:      w.DefaultQuantity(),
		OperatorID:       w.operatorID,
		SupervisorID:     w.supervisorID,
		Reason:           reason,
		RemanufactureQty: w.quantity,
		MachineID:        w.machineID,
	})
	if err != nil {
		return nil, err
	}

	w.result = res
	w.step = StepSubmitted
	return res, nil
}

func (w *Wizard) Cancel() error {
	const op = "reject.Wizard.Cancel"

	if w.step == StepSubmitted || w.step == StepCancelled {
		return apperr.Validation(op, "reject flow already finished")
	}

	w.supervisorID, w.reason, w.otherText, w.quantity = "", "", "", 0
	w.step = StepCancelled
	return nil
}

func (w *Wizard) expect(op string, step Step) error {
	if w.step != step {
		return apperr.Validation(op, "reject flow is at step "+string(w.step)+", not "+string(step))
	}
	return nil
}
