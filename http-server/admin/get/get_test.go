package get

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type MockUserLister struct {
	mock.Mock
}

func (m *MockUserLister) ListUsers(ctx context.Context) ([]storage.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]storage.User), args.Error(1)
}

func TestGetUsersAdmin(t *testing.T) {
	lister := new(MockUserLister)
	lister.On("ListUsers", mock.Anything).Return([]storage.User{
		{EmployeeID: "S1", Name: "Boris", CanRemanufacture: true, Active: true},
	}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rr := httptest.NewRecorder()

	GetUsersAdmin(slog.Default(), lister, time.Second).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var users []storage.User
	require.NoError(t, render.DecodeJSON(rr.Body, &users))
	require.Len(t, users, 1)
	assert.True(t, users[0].CanRemanufacture)
}

func TestGetUsersAdmin_StorageError(t *testing.T) {
	lister := new(MockUserLister)
	lister.On("ListUsers", mock.Anything).Return(nil, apperr.Persistence("identity.Admin.ListUsers", errors.New("db down")))

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	rr := httptest.NewRecorder()

	GetUsersAdmin(slog.Default(), lister, time.Second).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "db down")
}
