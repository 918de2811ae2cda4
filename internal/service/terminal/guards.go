package terminal

import (
	"fmt"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

// GuardResult итог проверки перехода.
type GuardResult struct {
	Allowed bool
	Reason  string
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(format string, args ...any) GuardResult {
	return GuardResult{Allowed: false, Reason: fmt.Sprintf(format, args...)}
}

// Err InvalidTransition, если переход запрещён.
func (r GuardResult) Err(op string) error {
	if r.Allowed {
		return nil
	}
	return apperr.InvalidTransition(op, r.Reason)
}

func CanScanJob(s Session) GuardResult {
	if s.State != StateIdle {
		return deny("cannot scan a job in state %s", s.State)
	}
	return allow()
}

func CanStartSetup(s Session) GuardResult {
	if s.State != StateIdle {
		return deny("cannot start setup in state %s", s.State)
	}
	if s.CurrentJob == nil {
		return deny("scan a job before starting setup")
	}
	return allow()
}

func CanCompleteSetup(s Session) GuardResult {
	if s.State != StateSetup {
		return deny("cannot complete setup in state %s", s.State)
	}
	if s.PendingInspection != nil {
		return deny("first-off inspection is already waiting")
	}
	if s.ActiveLogID == nil || s.ActiveLogState != storage.LogStateSetup {
		return deny("no open setup log")
	}
	return allow()
}

func CanRecordInspection(s Session) GuardResult {
	p := s.PendingInspection
	if p == nil {
		return deny("no inspection is waiting")
	}
	switch {
	case p.Type == storage.InspectionFirstOff && s.State == StateSetup:
		if s.ActiveLogID == nil || s.ActiveLogState != storage.LogStateSetup {
			return deny("no open setup log")
		}
		return allow()
	case p.Type == storage.InspectionInProcess && s.State == StateRunning:
		return allow()
	}
	return deny("cannot record %s inspection in state %s", p.Type, s.State)
}

func CanRequestInspection(s Session) GuardResult {
	if s.State != StateRunning {
		return deny("in-process inspection is only available while running")
	}
	if s.PendingInspection != nil {
		return deny("an inspection is already waiting")
	}
	return allow()
}

func CanCancelInspection(s Session) GuardResult {
	if s.PendingInspection == nil {
		return deny("no inspection to cancel")
	}
	return allow()
}

func CanStartRunning(s Session) GuardResult {
	if s.State != StateInspectionRequired {
		return deny("cannot start running in state %s", s.State)
	}
	if s.CurrentJob == nil {
		return deny("no job loaded")
	}
	return allow()
}

func CanPause(s Session) GuardResult {
	if s.State != StateRunning {
		return deny("cannot pause in state %s", s.State)
	}
	if s.PendingInspection != nil {
		return deny("record or cancel the inspection first")
	}
	if s.ActiveLogID == nil || s.ActiveLogState != storage.LogStateRunning {
		return deny("no open running log")
	}
	if s.CurrentJob == nil {
		return deny("no job loaded")
	}
	if s.User == nil {
		return deny("no operator is signed in")
	}
	return allow()
}

func CanResume(s Session) GuardResult {
	if s.State != StatePaused {
		return deny("cannot resume in state %s", s.State)
	}
	if s.CurrentJob == nil {
		return deny("no job loaded")
	}
	return allow()
}

func CanComplete(s Session) GuardResult {
	if s.State != StateRunning {
		return deny("cannot complete in state %s", s.State)
	}
	if s.PendingInspection != nil {
		return deny("record or cancel the inspection first")
	}
	if s.ActiveLogID == nil || s.ActiveLogState != storage.LogStateRunning {
		return deny("no open running log")
	}
	if s.CurrentJob == nil {
		return deny("no job loaded")
	}
	return allow()
}

func CanAbandon(s Session) GuardResult {
	if s.State == StateIdle && s.CurrentJob == nil {
		return deny("nothing to abandon")
	}
	return allow()
}
