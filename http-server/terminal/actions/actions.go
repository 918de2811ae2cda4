package actions

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/service/terminal"
)

type ActionApplier interface {
	Apply(ctx context.Context, s terminal.Session, a terminal.Action) (terminal.Session, *terminal.Outcome, error)
}

type Request struct {
	Session terminal.Session    `json:"session"`
	Type    terminal.ActionType `json:"type" validate:"required"`
	Payload json.RawMessage     `json:"payload,omitempty"`
}

// Response сессия возвращается и при ошибке: после закрытого лога
// она уже продвинута и должна замениться у клиента.
type Response struct {
	Session terminal.Session  `json:"session"`
	Outcome *terminal.Outcome `json:"outcome,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
}

func Apply(log *slog.Logger, machine ActionApplier, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.terminal.actions.Apply"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		action, err := terminal.DecodeAction(req.Type, req.Payload)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		next, out, err := machine.Apply(ctx, req.Session, action)
		if err != nil {
			status := apperr.HTTPStatus(err)
			if status >= http.StatusInternalServerError {
				log.Error("action failed", slog.String("type", string(req.Type)), slog.String("error", err.Error()))
			} else {
				log.Info("action rejected", slog.String("type", string(req.Type)), slog.String("error", err.Error()))
			}

			render.Status(r, status)
			render.JSON(w, r, Response{
				Session: next,
				Outcome: out,
				Error:   apperr.Message(err),
				Code:    string(apperr.KindOf(err)),
			})
			return
		}

		render.JSON(w, r, Response{Session: next, Outcome: out})
	}
}
