// Package identity проверяет права сотрудника на роль и вход терминала.
package identity

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type Role string

const (
	RoleOperate       Role = "can_operate"
	RoleSetup         Role = "can_setup"
	RoleInspect       Role = "can_inspect"
	RoleRemanufacture Role = "can_remanufacture"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOperate, RoleSetup, RoleInspect, RoleRemanufacture:
		return true
	}
	return false
}

// label название права в сообщении об ошибке: "User does not have setup permissions".
func (r Role) label() string {
	switch r {
	case RoleOperate:
		return "operate"
	case RoleSetup:
		return "setup"
	case RoleInspect:
		return "inspect"
	case RoleRemanufacture:
		return "remanufacture"
	}
	return string(r)
}

type UserStore interface {
	GetUserByEmployeeID(ctx context.Context, employeeID string) (*storage.User, error)
}

type TerminalStore interface {
	GetTerminalByID(ctx context.Context, terminalID int64) (*storage.Terminal, error)
}

type User struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
}

type Terminal struct {
	TerminalID    int64  `json:"terminal_id"`
	TerminalName  string `json:"terminal_name"`
	OperationCode string `json:"operation_code"`
	OperationID   *int64 `json:"operation_id,omitempty"`
}

type Service struct {
	log       *slog.Logger
	users     UserStore
	terminals TerminalStore
}

func NewService(log *slog.Logger, users UserStore, terminals TerminalStore) *Service {
	return &Service{log: log, users: users, terminals: terminals}
}

func (s *Service) Authenticate(ctx context.Context, employeeID string, role Role) (*User, error) {
	const op = "identity.Service.Authenticate"

	if employeeID == "" {
		return nil, apperr.Validation(op, "employee_id is required")
	}
	if !role.Valid() {
		return nil, apperr.Validation(op, "unknown role "+string(role))
	}

	u, err := s.users.GetUserByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Authentication(op, "User not found")
		}
		return nil, apperr.Persistence(op, err)
	}

	if !u.Active {
		return nil, apperr.Authentication(op, "User is inactive")
	}

	if !hasRole(u, role) {
		s.log.Info("permission denied",
			slog.String("employee_id", employeeID),
			slog.String("role", string(role)),
		)
		return nil, apperr.Authentication(op, "User does not have "+role.label()+" permissions")
	}

	return &User{EmployeeID: u.EmployeeID, Name: u.Name}, nil
}

func (s *Service) TerminalLogin(ctx context.Context, terminalID int64, password string) (*Terminal, error) {
	const op = "identity.Service.TerminalLogin"

	if terminalID <= 0 || password == "" {
		return nil, apperr.Validation(op, "terminal_id and password are required")
	}

	t, err := s.terminals.GetTerminalByID(ctx, terminalID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Authentication(op, "Terminal not found")
		}
		return nil, apperr.Persistence(op, err)
	}

	if !t.Active {
		return nil, apperr.Authentication(op, "Terminal is inactive")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(t.PasswordHash), []byte(password)); err != nil {
		s.log.Warn("terminal login failed", slog.Int64("terminal_id", terminalID))
		return nil, apperr.Authentication(op, "Invalid password")
	}

	return &Terminal{
		TerminalID:    t.TerminalID,
		TerminalName:  t.TerminalName,
		OperationCode: t.OperationCode,
		OperationID:   t.OperationID,
	}, nil
}

func hasRole(u *storage.User, role Role) bool {
	switch role {
	case RoleOperate:
		return u.CanOperate
	case RoleSetup:
		return u.CanSetup
	case RoleInspect:
		return u.CanInspect
	case RoleRemanufacture:
		return u.CanRemanufacture
	}
	return false
}
