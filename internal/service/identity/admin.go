package identity

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type AdminStore interface {
	ListUsers(ctx context.Context) ([]storage.User, error)
	InsertUser(ctx context.Context, u storage.User) error
	UpdateUsers(ctx context.Context, users []storage.User) error
	InsertTerminal(ctx context.Context, t storage.Terminal) error
}

// Admin управление пользователями и терминалами из админки.
type Admin struct {
	log   *slog.Logger
	store AdminStore
}

func NewAdmin(log *slog.Logger, store AdminStore) *Admin {
	return &Admin{log: log, store: store}
}

type NewTerminal struct {
	TerminalID    int64  `json:"terminal_id" validate:"gt=0"`
	TerminalName  string `json:"terminal_name" validate:"required"`
	OperationCode string `json:"operation_code" validate:"required"`
	OperationID   *int64 `json:"operation_id,omitempty"`
	Password      string `json:"password" validate:"required,min=6"`
}

func (a *Admin) ListUsers(ctx context.Context) ([]storage.User, error) {
	const op = "identity.Admin.ListUsers"

	users, err := a.store.ListUsers(ctx)
	if err != nil {
		return nil, apperr.Persistence(op, err)
	}
	if users == nil {
		users = []storage.User{}
	}

	return users, nil
}

func (a *Admin) CreateUser(ctx context.Context, u storage.User) (*storage.User, error) {
	const op = "identity.Admin.CreateUser"

	u.EmployeeID = strings.TrimSpace(u.EmployeeID)
	u.Name = strings.TrimSpace(u.Name)
	if err := checkUser(op, u); err != nil {
		return nil, err
	}

	if err := a.store.InsertUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperr.Conflict(op, "user "+u.EmployeeID+" already exists")
		}
		return nil, apperr.Persistence(op, err)
	}

	a.log.Info("user created", slog.String("employee_id", u.EmployeeID))

	return &u, nil
}

// UpdateUsers неизвестный employee_id отменяет всю пачку.
func (a *Admin) UpdateUsers(ctx context.Context, users []storage.User) error {
	const op = "identity.Admin.UpdateUsers"

	if len(users) == 0 {
		return apperr.Validation(op, "no users to update")
	}
	for i := range users {
		users[i].Name = strings.TrimSpace(users[i].Name)
		if err := checkUser(op, users[i]); err != nil {
			return err
		}
	}

	if err := a.store.UpdateUsers(ctx, users); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.NotFound(op, "user not found")
		}
		return apperr.Persistence(op, err)
	}

	a.log.Info("users updated", slog.Int("count", len(users)))

	return nil
}

// CreateTerminal пароль хранится только в виде bcrypt-хеша.
func (a *Admin) CreateTerminal(ctx context.Context, nt NewTerminal) (*Terminal, error) {
	const op = "identity.Admin.CreateTerminal"

	if nt.TerminalID <= 0 || nt.TerminalName == "" || nt.OperationCode == "" {
		return nil, apperr.Validation(op, "terminal_id, terminal_name and operation_code are required")
	}
	if nt.Password == "" {
		return nil, apperr.Validation(op, "password is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(nt.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperr.Validation(op, "password cannot be hashed")
	}

	err = a.store.InsertTerminal(ctx, storage.Terminal{
		TerminalID:    nt.TerminalID,
		TerminalName:  nt.TerminalName,
		OperationCode: nt.OperationCode,
		OperationID:   nt.OperationID,
		PasswordHash:  string(hash),
		Active:        true,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, apperr.Conflict(op, "terminal already exists")
		}
		return nil, apperr.Persistence(op, err)
	}

	a.log.Info("terminal created", slog.Int64("terminal_id", nt.TerminalID))

	return &Terminal{
		TerminalID:    nt.TerminalID,
		TerminalName:  nt.TerminalName,
		OperationCode: nt.OperationCode,
		OperationID:   nt.OperationID,
	}, nil
}

func checkUser(op string, u storage.User) error {
	if u.EmployeeID == "" {
		return apperr.Validation(op, "employee_id is required")
	}
	if u.Name == "" {
		return apperr.Validation(op, "name is required")
	}
	return nil
}
