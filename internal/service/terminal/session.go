// Package terminal машина состояний терминала на участке: скан задания,
// наладка, контроль первой детали, работа, пауза, завершение и отказ.
package terminal

import (
	"strconv"
	"time"

	"shopfloor-terminal/internal/service/identity"
	"shopfloor-terminal/internal/storage"
)

type State string

const (
	StateIdle               State = "IDLE"
	StateSetup              State = "SETUP"
	StateRunning            State = "RUNNING"
	StatePaused             State = "PAUSED"
	StateInspectionRequired State = "INSPECTION_REQUIRED"
)

type User struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
}

// PendingInspection начатый, но ещё не записанный контроль.
type PendingInspection struct {
	Type        string    `json:"type"`
	RequestedAt time.Time `json:"requested_at"`
}

// Session состояние одного терминала. Хранится у клиента и приходит
// целиком с каждым действием; машина возвращает новое значение.
type Session struct {
	TerminalID        int64                 `json:"terminal_id"`
	TerminalName      string                `json:"terminal_name"`
	OperationCode     string                `json:"operation_code"`
	User              *User                 `json:"logged_in_user,omitempty"`
	State             State                 `json:"terminal_state"`
	LastStateChange   time.Time             `json:"last_state_change"`
	CurrentJob        *storage.JobOperation `json:"current_job,omitempty"`
	ActiveLogID       *int64                `json:"active_log_id,omitempty"`
	ActiveLogState    string                `json:"active_log_state,omitempty"`
	PendingInspection *PendingInspection    `json:"pending_inspection,omitempty"`
}

func NewSession(t identity.Terminal, now time.Time) Session {
	return Session{
		TerminalID:      t.TerminalID,
		TerminalName:    t.TerminalName,
		OperationCode:   t.OperationCode,
		State:           StateIdle,
		LastStateChange: now,
	}
}

// MachineID идентификатор станка в логах и заявках - id терминала.
func (s Session) MachineID() string {
	return strconv.FormatInt(s.TerminalID, 10)
}

func (s Session) userID() string {
	if s.User == nil {
		return ""
	}
	return s.User.EmployeeID
}

func (s Session) withActiveLog(id int64, state string) Session {
	s.ActiveLogID = &id
	s.ActiveLogState = state
	return s
}

func (s Session) withoutActiveLog() Session {
	s.ActiveLogID = nil
	s.ActiveLogState = ""
	return s
}

// reset выход в IDLE без задания и без пользователя.
func (s Session) reset() Session {
	s = s.withoutActiveLog()
	s.State = StateIdle
	s.User = nil
	s.CurrentJob = nil
	s.PendingInspection = nil
	return s
}

// clone копия без общих указателей с исходной сессией.
func (s Session) clone() Session {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	if s.CurrentJob != nil {
		j := *s.CurrentJob
		s.CurrentJob = &j
	}
	if s.ActiveLogID != nil {
		id := *s.ActiveLogID
		s.ActiveLogID = &id
	}
	if s.PendingInspection != nil {
		p := *s.PendingInspection
		s.PendingInspection = &p
	}
	return s
}
