package authenticate

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/service/identity"
)

type UserAuthenticator interface {
	Authenticate(ctx context.Context, employeeID string, role identity.Role) (*identity.User, error)
}

type Request struct {
	EmployeeID   string        `json:"employee_id" validate:"required"`
	RoleRequired identity.Role `json:"role_required" validate:"required,oneof=can_operate can_setup can_inspect can_remanufacture"`
}

type Response struct {
	Success    bool   `json:"success"`
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
}

func Authenticate(log *slog.Logger, auth UserAuthenticator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.users.authenticate.Authenticate"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		u, err := auth.Authenticate(ctx, req.EmployeeID, req.RoleRequired)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, Response{Success: true, EmployeeID: u.EmployeeID, Name: u.Name})
	}
}
