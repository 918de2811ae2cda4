package update

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

type UserUpdater interface {
	UpdateUsers(ctx context.Context, users []storage.User) error
}

type Response struct {
	Updated int `json:"updated"`
}

// UpdateUsersAdmin тело - массив пользователей целиком, как их показывает админка.
func UpdateUsersAdmin(log *slog.Logger, updater UserUpdater, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.admin.update.UpdateUsersAdmin"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var users []storage.User
		if err := response.Decode(r, &users); err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := updater.UpdateUsers(ctx, users); err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, Response{Updated: len(users)})
	}
}
