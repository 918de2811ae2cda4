package terminal

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/service/efficiency"
	"shopfloor-terminal/internal/service/identity"
	"shopfloor-terminal/internal/service/jobs"
	"shopfloor-terminal/internal/service/ledger"
	"shopfloor-terminal/internal/service/reject"
	"shopfloor-terminal/internal/storage"
)

type Authenticator interface {
	Authenticate(ctx context.Context, employeeID string, role identity.Role) (*identity.User, error)
}

type JobService interface {
	LookupJob(ctx context.Context, scan, operationCode string, sc jobs.ScanContext) (*jobs.LookupResult, error)
	GetJob(ctx context.Context, lookupCode string) (*storage.JobOperation, error)
	UpdateJobCompletion(ctx context.Context, job *storage.JobOperation, delta int, incremental bool) (*storage.JobOperation, error)
}

type Ledger interface {
	CreateLog(ctx context.Context, nl ledger.NewLog) (int64, error)
	CloseLog(ctx context.Context, logID int64, p ledger.CloseParams) (*storage.JobLog, error)
}

type EfficiencyLogger interface {
	LogEfficiency(ctx context.Context, p efficiency.LogParams) (*efficiency.LogResult, error)
}

type RejectFlow interface {
	Prepare(ctx context.Context, job storage.JobOperation, completedQty int, operatorID, machineID string, d reject.Decision) (*reject.Wizard, error)
}

type Deps struct {
	Auth       Authenticator
	Jobs       JobService
	Ledger     Ledger
	Efficiency EfficiencyLogger
	Rejects    RejectFlow
}

// Outcome всё, что клиенту нужно показать после действия, кроме самой сессии.
type Outcome struct {
	Lookup     *jobs.LookupResult    `json:"lookup,omitempty"`
	Job        *storage.JobOperation `json:"job,omitempty"`
	ClosedLog  *storage.JobLog       `json:"closed_log,omitempty"`
	Inspection *storage.JobLog       `json:"inspection,omitempty"`
	Efficiency *efficiency.Metrics   `json:"efficiency,omitempty"`
	Reject     *reject.Result        `json:"reject,omitempty"`
	Alerts     []string              `json:"alerts,omitempty"`
	Warnings   []string              `json:"warnings,omitempty"`
}

type Machine struct {
	log  *slog.Logger
	deps Deps
	now  func() time.Time
}

func NewMachine(log *slog.Logger, deps Deps) *Machine {
	return &Machine{log: log, deps: deps, now: time.Now}
}

func (m *Machine) WithClock(now func() time.Time) *Machine {
	m.now = now
	return m
}

// Apply применяет действие к сессии. При ошибке до первой записи возвращается
// исходная сессия. Если лог уже закрыт, а следующий шаг упал, возвращается
// продвинутая сессия вместе с ошибкой: она совпадает с тем, что записано в БД.
func (m *Machine) Apply(ctx context.Context, s Session, a Action) (Session, *Outcome, error) {
	const op = "terminal.Machine.Apply"

	if a == nil {
		return s, &Outcome{}, apperr.Validation(op, "action is required")
	}

	next, out, err := a.apply(ctx, m, s.clone())
	if out == nil {
		out = &Outcome{}
	}
	if next.State != s.State {
		next.LastStateChange = m.now()
	}

	log := m.log.With(
		slog.String("op", op),
		slog.String("action", string(a.Type())),
		slog.Int64("terminal_id", s.TerminalID),
	)
	if err != nil {
		log.Info("action failed",
			slog.String("state", string(next.State)),
			slog.String("error", err.Error()),
		)
		return next, out, err
	}

	log.Debug("action applied", slog.String("from", string(s.State)), slog.String("to", string(next.State)))

	return next, out, nil
}

func (m *Machine) scanJob(ctx context.Context, s Session, a ScanJob) (Session, *Outcome, error) {
	const op = "terminal.Machine.scanJob"

	if err := CanScanJob(s).Err(op); err != nil {
		return s, nil, err
	}

	res, err := m.deps.Jobs.LookupJob(ctx, a.Scan, s.OperationCode, jobs.ScanContext{
		TerminalName: s.TerminalName,
		UserName:     a.UserName,
	})
	if err != nil {
		return s, nil, err
	}

	out := &Outcome{Lookup: res}
	if res.Kind != jobs.LookupFound {
		return s, out, nil
	}

	if res.Job.Status == storage.JobStatusComplete && !a.AllowComplete {
		return s, out, apperr.Conflict(op, "job is already complete")
	}

	next := s
	next.CurrentJob = res.Job
	out.Job = res.Job

	return next, out, nil
}

func (m *Machine) startSetup(ctx context.Context, s Session, a StartSetup) (Session, *Outcome, error) {
	const op = "terminal.Machine.startSetup"

	if err := CanStartSetup(s).Err(op); err != nil {
		return s, nil, err
	}

	u, err := m.deps.Auth.Authenticate(ctx, a.EmployeeID, identity.RoleSetup)
	if err != nil {
		return s, nil, err
	}

	id, err := m.deps.Ledger.CreateLog(ctx, ledger.NewLog{
		LookupCode: s.CurrentJob.LookupCode,
		UserID:     u.EmployeeID,
		MachineID:  s.MachineID(),
		State:      storage.LogStateSetup,
	})
	if err != nil {
		return s, nil, err
	}

	next := s.withActiveLog(id, storage.LogStateSetup)
	next.State = StateSetup
	next.User = &User{EmployeeID: u.EmployeeID, Name: u.Name}

	return next, nil, nil
}

func (m *Machine) completeSetup(_ context.Context, s Session, _ CompleteSetup) (Session, *Outcome, error) {
	const op = "terminal.Machine.completeSetup"

	if err := CanCompleteSetup(s).Err(op); err != nil {
		return s, nil, err
	}

	next := s
	next.PendingInspection = &PendingInspection{Type: storage.InspectionFirstOff, RequestedAt: m.now()}

	return next, nil, nil
}

func (m *Machine) requestInspection(_ context.Context, s Session, _ RequestInspection) (Session, *Outcome, error) {
	const op = "terminal.Machine.requestInspection"

	if err := CanRequestInspection(s).Err(op); err != nil {
		return s, nil, err
	}

	next := s
	next.PendingInspection = &PendingInspection{Type: storage.InspectionInProcess, RequestedAt: m.now()}

	return next, nil, nil
}

func (m *Machine) cancelInspection(_ context.Context, s Session, _ CancelInspection) (Session, *Outcome, error) {
	const op = "terminal.Machine.cancelInspection"

	if err := CanCancelInspection(s).Err(op); err != nil {
		return s, nil, err
	}

	next := s
	next.PendingInspection = nil

	return next, nil, nil
}

// recordInspection пишет контроль одной строкой (начало, конец, результат).
// Успешный контроль первой детали закрывает наладку.
func (m *Machine) recordInspection(ctx context.Context, s Session, a RecordInspection) (Session, *Outcome, error) {
	const op = "terminal.Machine.recordInspection"

	if err := CanRecordInspection(s).Err(op); err != nil {
		return s, nil, err
	}
	if a.Qty != nil && *a.Qty < 0 {
		return s, nil, apperr.Validation(op, "inspection qty cannot be negative")
	}
	if s.CurrentJob == nil {
		return s, nil, apperr.MissingData(op, "no job loaded")
	}

	u, err := m.deps.Auth.Authenticate(ctx, a.EmployeeID, identity.RoleInspect)
	if err != nil {
		return s, nil, err
	}

	pending := *s.PendingInspection
	start := pending.RequestedAt
	end := m.now()
	if end.Before(start) {
		end = start
	}
	passed := a.Passed

	nl := ledger.NewLog{
		LookupCode:       s.CurrentJob.LookupCode,
		UserID:           u.EmployeeID,
		MachineID:        s.MachineID(),
		State:            storage.LogStateInspection,
		StartTime:        &start,
		EndTime:          &end,
		InspectionType:   &pending.Type,
		InspectionPassed: &passed,
		InspectionQty:    a.Qty,
	}
	if c := strings.TrimSpace(a.Comments); c != "" {
		nl.Comments = &c
	}

	id, err := m.deps.Ledger.CreateLog(ctx, nl)
	if err != nil {
		return s, nil, err
	}

	out := &Outcome{Inspection: &storage.JobLog{
		LogID:            id,
		LookupCode:       nl.LookupCode,
		UserID:           nl.UserID,
		MachineID:        nl.MachineID,
		State:            nl.State,
		StartTime:        start,
		EndTime:          &end,
		Comments:         nl.Comments,
		InspectionType:   nl.InspectionType,
		InspectionPassed: &passed,
		InspectionQty:    a.Qty,
	}}

	next := s
	next.PendingInspection = nil

	if pending.Type == storage.InspectionInProcess {
		if !passed {
			out.Alerts = append(out.Alerts, "In-process inspection failed")
			m.log.Warn("in-process inspection failed",
				slog.String("lookup_code", s.CurrentJob.LookupCode),
				slog.String("inspector", u.EmployeeID),
			)
		}
		return next, out, nil
	}

	if !passed {
		out.Alerts = append(out.Alerts, "First-off inspection failed, adjust setup and inspect again")
		return next, out, nil
	}

	closed, err := m.deps.Ledger.CloseLog(ctx, *s.ActiveLogID, ledger.CloseParams{
		EndNow:           true,
		ExpectLookupCode: s.CurrentJob.LookupCode,
	})
	if err != nil {
		return next, out, err
	}
	out.ClosedLog = closed

	m.logEfficiency(ctx, out, closed, s.CurrentJob, nil)

	next = next.withoutActiveLog()
	next.State = StateInspectionRequired

	return next, out, nil
}

// startRunning подхватывает RUNNING-лог, открытый при возобновлении.
// Если станок принимает другой оператор, лог возобновившего закрывается и открывается новый.
func (m *Machine) startRunning(ctx context.Context, s Session, a StartRunning) (Session, *Outcome, error) {
	const op = "terminal.Machine.startRunning"

	if err := CanStartRunning(s).Err(op); err != nil {
		return s, nil, err
	}

	u, err := m.deps.Auth.Authenticate(ctx, a.EmployeeID, identity.RoleOperate)
	if err != nil {
		return s, nil, err
	}

	var out *Outcome
	next := s

	adopt := s.ActiveLogID != nil && s.ActiveLogState == storage.LogStateRunning
	if adopt && s.userID() != u.EmployeeID {
		closed, err := m.deps.Ledger.CloseLog(ctx, *s.ActiveLogID, ledger.CloseParams{
			EndNow:           true,
			ExpectLookupCode: s.CurrentJob.LookupCode,
		})
		if err != nil {
			return s, nil, err
		}
		out = &Outcome{ClosedLog: closed}
		next = next.withoutActiveLog()
		adopt = false
	}

	next.User = &User{EmployeeID: u.EmployeeID, Name: u.Name}

	if !adopt {
		id, err := m.deps.Ledger.CreateLog(ctx, ledger.NewLog{
			LookupCode: s.CurrentJob.LookupCode,
			UserID:     u.EmployeeID,
			MachineID:  s.MachineID(),
			State:      storage.LogStateRunning,
		})
		if err != nil {
			return next, out, err
		}
		next = next.withActiveLog(id, storage.LogStateRunning)
	}

	next.State = StateRunning

	return next, out, nil
}

func (m *Machine) pause(ctx context.Context, s Session, a Pause) (Session, *Outcome, error) {
	const op = "terminal.Machine.pause"

	if err := CanPause(s).Err(op); err != nil {
		return s, nil, err
	}
	reason := strings.TrimSpace(a.Reason)
	if reason == "" {
		return s, nil, apperr.Validation(op, "pause reason is required")
	}
	if a.CompletedQty < 0 {
		return s, nil, apperr.Validation(op, "completed quantity cannot be negative")
	}

	qty := a.CompletedQty
	closed, err := m.deps.Ledger.CloseLog(ctx, *s.ActiveLogID, ledger.CloseParams{
		EndNow:           true,
		CompletedQty:     &qty,
		ExpectLookupCode: s.CurrentJob.LookupCode,
	})
	if err != nil {
		return s, nil, err
	}

	out := &Outcome{ClosedLog: closed}
	m.logEfficiency(ctx, out, closed, s.CurrentJob, &qty)

	next := s.withoutActiveLog()
	next.State = StatePaused
	next.User = nil

	id, err := m.deps.Ledger.CreateLog(ctx, ledger.NewLog{
		LookupCode: s.CurrentJob.LookupCode,
		UserID:     s.userID(),
		MachineID:  s.MachineID(),
		State:      storage.LogStatePaused,
		Comments:   &reason,
	})
	if err != nil {
		return next, out, err
	}
	next = next.withActiveLog(id, storage.LogStatePaused)

	if qty > 0 {
		job, err := m.deps.Jobs.UpdateJobCompletion(ctx, s.CurrentJob, qty, true)
		if err != nil {
			return next, out, err
		}
		next.CurrentJob = job
		out.Job = job
	}

	return next, out, nil
}

// resume закрывает паузу и сразу открывает RUNNING-лог; перед работой
// терминал снова ждёт оператора в INSPECTION_REQUIRED.
func (m *Machine) resume(ctx context.Context, s Session, a Resume) (Session, *Outcome, error) {
	const op = "terminal.Machine.resume"

	if err := CanResume(s).Err(op); err != nil {
		return s, nil, err
	}

	u, err := m.deps.Auth.Authenticate(ctx, a.EmployeeID, identity.RoleOperate)
	if err != nil {
		return s, nil, err
	}

	out := &Outcome{}
	next := s

	if s.ActiveLogID != nil {
		closed, err := m.deps.Ledger.CloseLog(ctx, *s.ActiveLogID, ledger.CloseParams{
			EndNow:           true,
			ExpectLookupCode: s.CurrentJob.LookupCode,
		})
		if err != nil {
			return s, nil, err
		}
		out.ClosedLog = closed
		next = next.withoutActiveLog()
	}

	next.State = StateInspectionRequired
	next.User = &User{EmployeeID: u.EmployeeID, Name: u.Name}

	id, err := m.deps.Ledger.CreateLog(ctx, ledger.NewLog{
		LookupCode: s.CurrentJob.LookupCode,
		UserID:     u.EmployeeID,
		MachineID:  s.MachineID(),
		State:      storage.LogStateRunning,
	})
	if err != nil {
		return next, out, err
	}
	next = next.withActiveLog(id, storage.LogStateRunning)

	job, err := m.deps.Jobs.GetJob(ctx, s.CurrentJob.LookupCode)
	if err != nil {
		out.Warnings = append(out.Warnings, "job data not refreshed: "+apperr.Message(err))
	} else {
		next.CurrentJob = job
		out.Job = job
	}

	return next, out, nil
}

// complete заявка на брак проверяется до любых записей,
// а сохраняется после обновления задания, если остаток больше нуля.
func (m *Machine) complete(ctx context.Context, s Session, a Complete) (Session, *Outcome, error) {
	const op = "terminal.Machine.complete"

	if err := CanComplete(s).Err(op); err != nil {
		return s, nil, err
	}
	if a.CompletedQty <= 0 {
		return s, nil, apperr.Validation(op, "completed quantity must be greater than zero")
	}

	qty := a.CompletedQty
	out := &Outcome{}

	var wizard *reject.Wizard
	if a.Reject != nil {
		_, balance, _, err := jobs.ApplyCompletion(s.CurrentJob.Quantity, s.CurrentJob.CompletedQty, qty, true)
		if err != nil {
			return s, nil, err
		}
		if balance > 0 {
			wizard, err = m.deps.Rejects.Prepare(ctx, *s.CurrentJob, qty, s.userID(), s.MachineID(), *a.Reject)
			if err != nil {
				return s, nil, err
			}
		} else {
			out.Warnings = append(out.Warnings, "job is complete, reject request ignored")
		}
	}

	closed, err := m.deps.Ledger.CloseLog(ctx, *s.ActiveLogID, ledger.CloseParams{
		EndNow:           true,
		CompletedQty:     &qty,
		ExpectLookupCode: s.CurrentJob.LookupCode,
	})
	if err != nil {
		return s, nil, err
	}
	out.ClosedLog = closed

	m.logEfficiency(ctx, out, closed, s.CurrentJob, &qty)

	next := s.reset()

	job, err := m.deps.Jobs.UpdateJobCompletion(ctx, s.CurrentJob, qty, true)
	if err != nil {
		return next, out, err
	}
	out.Job = job

	if wizard != nil {
		if job.Balance == 0 {
			out.Warnings = append(out.Warnings, "job is complete, reject request ignored")
			return next, out, nil
		}

		res, err := wizard.Submit(ctx)
		if err != nil {
			m.log.Warn("reject not saved after completion",
				slog.String("op", op),
				slog.String("lookup_code", job.LookupCode),
				slog.String("error", err.Error()),
			)
			out.Warnings = append(out.Warnings, "reject not saved: "+apperr.Message(err))
			return next, out, nil
		}

		out.Reject = res
		if !res.EmailSent {
			out.Warnings = append(out.Warnings, "remanufacture email not sent")
		}
	}

	return next, out, nil
}

// abandon закрывает активный лог с пометкой ABANDONED и выходит в IDLE.
func (m *Machine) abandon(ctx context.Context, s Session, a Abandon) (Session, *Outcome, error) {
	const op = "terminal.Machine.abandon"

	if err := CanAbandon(s).Err(op); err != nil {
		return s, nil, err
	}
	reason := strings.TrimSpace(a.Reason)
	if reason == "" {
		return s, nil, apperr.Validation(op, "abandon reason is required")
	}
	if a.CompletedQty < 0 {
		return s, nil, apperr.Validation(op, "completed quantity cannot be negative")
	}

	out := &Outcome{}
	running := s.ActiveLogState == storage.LogStateRunning && s.ActiveLogID != nil
	qty := a.CompletedQty

	if s.ActiveLogID != nil {
		comment := "ABANDONED: " + reason
		p := ledger.CloseParams{EndNow: true, Comments: &comment}
		if s.CurrentJob != nil {
			p.ExpectLookupCode = s.CurrentJob.LookupCode
		}
		if running {
			p.CompletedQty = &qty
		}

		closed, err := m.deps.Ledger.CloseLog(ctx, *s.ActiveLogID, p)
		if err != nil {
			return s, nil, err
		}
		out.ClosedLog = closed

		switch {
		case closed.State == storage.LogStateSetup:
			m.logEfficiency(ctx, out, closed, s.CurrentJob, nil)
		case running && qty > 0:
			m.logEfficiency(ctx, out, closed, s.CurrentJob, &qty)
		}
	}

	next := s.reset()

	if running && qty > 0 {
		job, err := m.deps.Jobs.UpdateJobCompletion(ctx, s.CurrentJob, qty, true)
		if err != nil {
			return next, out, err
		}
		out.Job = job
	}

	m.log.Info("job abandoned",
		slog.Int64("terminal_id", s.TerminalID),
		slog.String("state", string(s.State)),
		slog.String("reason", reason),
	)

	return next, out, nil
}

// logEfficiency ошибки расчёта и записи только попадают в предупреждения.
func (m *Machine) logEfficiency(ctx context.Context, out *Outcome, closed *storage.JobLog, job *storage.JobOperation, qty *int) {
	res, err := m.deps.Efficiency.LogEfficiency(ctx, efficiency.LogParams{
		JobLogID:   closed.LogID,
		LookupCode: closed.LookupCode,
		LogType:    closed.State,
		StartTime:  closed.StartTime,
		EndTime:    *closed.EndTime,
		Job:        job,
		Quantity:   qty,
		OperatorID: closed.UserID,
		MachineID:  closed.MachineID,
	})
	if err != nil {
		out.Warnings = append(out.Warnings, "efficiency not calculated: "+apperr.Message(err))
		return
	}

	out.Efficiency = &res.Metrics
	if res.PersistErr != nil {
		out.Warnings = append(out.Warnings, "efficiency not saved")
	}
}
