package authenticate

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/render"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/service/identity"
)

type MockUserAuthenticator struct {
	mock.Mock
}

func (m *MockUserAuthenticator) Authenticate(ctx context.Context, employeeID string, role identity.Role) (*identity.User, error) {
	args := m.Called(ctx, employeeID, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func TestAuthenticate(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setup      func(m *MockUserAuthenticator)
		wantStatus int
		wantError  string
	}{
		{
			name: "granted",
			body: `{"employee_id":"E7","role_required":"can_setup"}`,
			setup: func(m *MockUserAuthenticator) {
				m.On("Authenticate", mock.Anything, "E7", identity.RoleSetup).
					Return(&identity.User{EmployeeID: "E7", Name: "Dana"}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name: "no permission",
			body: `{"employee_id":"E7","role_required":"can_inspect"}`,
			setup: func(m *MockUserAuthenticator) {
				m.On("Authenticate", mock.Anything, "E7", identity.RoleInspect).
					Return(nil, apperr.Authentication("op", "User does not have inspect permissions"))
			},
			wantStatus: http.StatusUnauthorized,
			wantError:  "User does not have inspect permissions",
		},
		{
			name:       "unknown role",
			body:       `{"employee_id":"E7","role_required":"can_fly"}`,
			setup:      func(m *MockUserAuthenticator) {},
			wantStatus: http.StatusBadRequest,
			wantError:  "field role_required must be one of [can_operate can_setup can_inspect can_remanufacture]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := new(MockUserAuthenticator)
			tt.setup(auth)

			req := httptest.NewRequest(http.MethodPost, "/api/users/authenticate", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()

			Authenticate(slog.Default(), auth, time.Second).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)

			if tt.wantError != "" {
				var body response.ErrorBody
				require.NoError(t, render.DecodeJSON(rr.Body, &body))
				assert.Equal(t, tt.wantError, body.Error)
				return
			}

			var resp Response
			require.NoError(t, render.DecodeJSON(rr.Body, &resp))
			assert.True(t, resp.Success)
			assert.Equal(t, "Dana", resp.Name)
			auth.AssertExpectations(t)
		})
	}
}
