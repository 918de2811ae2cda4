package login

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/service/identity"
	"shopfloor-terminal/internal/service/terminal"
)

type TerminalAuthenticator interface {
	TerminalLogin(ctx context.Context, terminalID int64, password string) (*identity.Terminal, error)
}

type Request struct {
	TerminalID int64  `json:"terminal_id" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

type Response struct {
	Terminal *identity.Terminal `json:"terminal"`
	Session  terminal.Session   `json:"session"`
}

// Login вход терминала, в ответе новая сессия в IDLE.
func Login(log *slog.Logger, auth TerminalAuthenticator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.terminals.login.Login"

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

		t, err := auth.TerminalLogin(ctx, req.TerminalID, req.Password)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("terminal logged in", slog.Int64("terminal_id", t.TerminalID))

		render.JSON(w, r, Response{
			Terminal: t,
			Session:  terminal.NewSession(*t, time.Now().UTC()),
		})
	}
}
