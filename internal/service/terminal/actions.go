package terminal

import (
	"context"
	"encoding/json"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/service/reject"
)

type ActionType string

const (
	ActionScanJob           ActionType = "SCAN_JOB"
	ActionStartSetup        ActionType = "START_SETUP"
	ActionCompleteSetup     ActionType = "COMPLETE_SETUP"
	ActionRecordInspection  ActionType = "RECORD_INSPECTION"
	ActionRequestInspection ActionType = "REQUEST_INSPECTION"
	ActionCancelInspection  ActionType = "CANCEL_INSPECTION"
	ActionStartRunning      ActionType = "START_RUNNING"
	ActionPause             ActionType = "PAUSE"
	ActionResume            ActionType = "RESUME"
	ActionComplete          ActionType = "COMPLETE"
	ActionAbandon           ActionType = "ABANDON"
)

// Action закрытый набор действий терминала. Каждое действие
// передаётся ровно одному обработчику машины.
type Action interface {
	Type() ActionType
	apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error)
}

type ScanJob struct {
	Scan     string `json:"scan"`
	UserName string `json:"user_name,omitempty"`
	// AllowComplete загрузить задание, даже если оно уже выполнено
	AllowComplete bool `json:"allow_complete,omitempty"`
}

type StartSetup struct {
	EmployeeID string `json:"employee_id"`
}

type CompleteSetup struct{}

type RecordInspection struct {
	EmployeeID string `json:"employee_id"`
	Passed     bool   `json:"passed"`
	Comments   string `json:"comments,omitempty"`
	Qty        *int   `json:"qty,omitempty"`
}

type RequestInspection struct{}

type CancelInspection struct{}

type StartRunning struct {
	EmployeeID string `json:"employee_id"`
}

type Pause struct {
	CompletedQty int    `json:"completed_qty"`
	Reason       string `json:"reason"`
}

type Resume struct {
	EmployeeID string `json:"employee_id"`
}

type Complete struct {
	CompletedQty int              `json:"completed_qty"`
	Reject       *reject.Decision `json:"reject,omitempty"`
}

type Abandon struct {
	CompletedQty int    `json:"completed_qty"`
	Reason       string `json:"reason"`
}

func (ScanJob) Type() ActionType           { return ActionScanJob }
func (StartSetup) Type() ActionType        { return ActionStartSetup }
func (CompleteSetup) Type() ActionType     { return ActionCompleteSetup }
func (RecordInspection) Type() ActionType  { return ActionRecordInspection }
func (RequestInspection) Type() ActionType { return ActionRequestInspection }
func (CancelInspection) Type() ActionType  { return ActionCancelInspection }
func (StartRunning) Type() ActionType      { return ActionStartRunning }
func (Pause) Type() ActionType             { return ActionPause }
func (Resume) Type() ActionType            { return ActionResume }
func (Complete) Type() ActionType          { return ActionComplete }
func (Abandon) Type() ActionType           { return ActionAbandon }

func (a ScanJob) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.scanJob(ctx, s, a)
}

func (a StartSetup) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.startSetup(ctx, s, a)
}

func (a CompleteSetup) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.completeSetup(ctx, s, a)
}

func (a RecordInspection) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.recordInspection(ctx, s, a)
}

func (a RequestInspection) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.requestInspection(ctx, s, a)
}

func (a CancelInspection) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.cancelInspection(ctx, s, a)
}

func (a StartRunning) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.startRunning(ctx, s, a)
}

func (a Pause) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.pause(ctx, s, a)
}

func (a Resume) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.resume(ctx, s, a)
}

func (a Complete) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.complete(ctx, s, a)
}

func (a Abandon) apply(ctx context.Context, m *Machine, s Session) (Session, *Outcome, error) {
	return m.abandon(ctx, s, a)
}

// DecodeAction собирает действие из типа и JSON-полезной нагрузки.
func DecodeAction(t ActionType, payload json.RawMessage) (Action, error) {
	const op = "terminal.DecodeAction"

	var a Action
	switch t {
	case ActionScanJob:
		a = &ScanJob{}
	case ActionStartSetup:
		a = &StartSetup{}
	case ActionCompleteSetup:
		a = &CompleteSetup{}
	case ActionRecordInspection:
		a = &RecordInspection{}
	case ActionRequestInspection:
		a = &RequestInspection{}
	case ActionCancelInspection:
		a = &CancelInspection{}
	case ActionStartRunning:
		a = &StartRunning{}
	case ActionPause:
		a = &Pause{}
	case ActionResume:
		a = &Resume{}
	case ActionComplete:
		a = &Complete{}
	case ActionAbandon:
		a = &Abandon{}
	default:
		return nil, apperr.Validation(op, "unknown action type "+string(t))
	}

	if len(payload) > 0 && string(payload) != "null" {
		if err := json.Unmarshal(payload, a); err != nil {
			return nil, apperr.Validation(op, "invalid payload for "+string(t)+": "+err.Error())
		}
	}

	return a, nil
}
