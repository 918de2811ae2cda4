package identity

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
	"shopfloor-terminal/internal/storage/storagetest"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("lathe-3"), bcrypt.MinCost)
	require.NoError(t, err)

	store := storagetest.NewUserStore(
		storage.User{EmployeeID: "E7", Name: "Dana", CanOperate: true, CanSetup: true, Active: true},
		storage.User{EmployeeID: "E8", Name: "Former", CanOperate: true, Active: false},
	).
		AddTerminal(storage.Terminal{TerminalID: 3, TerminalName: "Lathe 3", OperationCode: "OP10", PasswordHash: string(hash), Active: true}).
		AddTerminal(storage.Terminal{TerminalID: 4, TerminalName: "Old mill", OperationCode: "OP20", PasswordHash: string(hash), Active: false})

	return NewService(slog.Default(), store, store)
}

func TestAuthenticate(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name    string
		id      string
		role    Role
		wantErr string
		kind    apperr.Kind
	}{
		{"setter ok", "E7", RoleSetup, "", ""},
		{"operator ok", "E7", RoleOperate, "", ""},
		{"missing permission", "E7", RoleInspect, "User does not have inspect permissions", apperr.KindAuthentication},
		{"inactive", "E8", RoleOperate, "User is inactive", apperr.KindAuthentication},
		{"unknown user", "E404", RoleOperate, "User not found", apperr.KindAuthentication},
		{"unknown role", "E7", Role("can_fly"), "unknown role can_fly", apperr.KindValidation},
		{"empty id", "", RoleOperate, "employee_id is required", apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := svc.Authenticate(context.Background(), tt.id, tt.role)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Dana", u.Name)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
			assert.Equal(t, tt.wantErr, apperr.Message(err))
		})
	}
}

func TestTerminalLogin(t *testing.T) {
	svc := newTestService(t)

	term, err := svc.TerminalLogin(context.Background(), 3, "lathe-3")
	require.NoError(t, err)
	assert.Equal(t, "Lathe 3", term.TerminalName)
	assert.Equal(t, "OP10", term.OperationCode)

	_, err = svc.TerminalLogin(context.Background(), 3, "wrong")
	assert.Equal(t, "Invalid password", apperr.Message(err))

	_, err = svc.TerminalLogin(context.Background(), 4, "lathe-3")
	assert.Equal(t, "Terminal is inactive", apperr.Message(err))

	_, err = svc.TerminalLogin(context.Background(), 9, "lathe-3")
	assert.Equal(t, "Terminal not found", apperr.Message(err))
	assert.True(t, apperr.Is(err, apperr.KindAuthentication))
}
