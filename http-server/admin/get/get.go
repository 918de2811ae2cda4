package get

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/storage"
)

type UserLister interface {
	ListUsers(ctx context.Context) ([]storage.User, error)
}

func GetUsersAdmin(log *slog.Logger, users UserLister, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.admin.get.GetUsersAdmin"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		list, err := users.ListUsers(ctx)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, list)
	}
}
