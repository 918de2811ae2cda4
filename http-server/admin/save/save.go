package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/service/identity"
	"shopfloor-terminal/internal/storage"
)

type UserCreator interface {
	CreateUser(ctx context.Context, u storage.User) (*storage.User, error)
}

type TerminalCreator interface {
	CreateTerminal(ctx context.Context, nt identity.NewTerminal) (*identity.Terminal, error)
}

type UserRequest struct {
	EmployeeID       string `json:"employee_id" validate:"required"`
	Name             string `json:"name" validate:"required"`
	CanOperate       bool   `json:"can_operate"`
	CanSetup         bool   `json:"can_setup"`
	CanInspect       bool   `json:"can_inspect"`
	CanRemanufacture bool   `json:"can_remanufacture"`
	// nil - активен
	Active *bool `json:"active,omitempty"`
}

func SaveUserAdmin(log *slog.Logger, creator UserCreator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.admin.save.SaveUserAdmin"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req UserRequest
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		active := true
		if req.Active != nil {
			active = *req.Active
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		u, err := creator.CreateUser(ctx, storage.User{
			EmployeeID:       req.EmployeeID,
			Name:             req.Name,
			CanOperate:       req.CanOperate,
			CanSetup:         req.CanSetup,
			CanInspect:       req.CanInspect,
			CanRemanufacture: req.CanRemanufacture,
			Active:           active,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, u)
	}
}

func SaveTerminalAdmin(log *slog.Logger, creator TerminalCreator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.admin.save.SaveTerminalAdmin"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req identity.NewTerminal
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		t, err := creator.CreateTerminal(ctx, req)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, t)
	}
}
