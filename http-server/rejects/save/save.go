package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/service/reject"
	"shopfloor-terminal/internal/storage"
)

type RejectCreator interface {
	CreateReject(ctx context.Context, req reject.Request) (*reject.Result, error)
}

type ReasonAdder interface {
	AddReason(ctx context.Context, name string, description *string) (*storage.RejectReason, error)
}

// SaveReject запись брака сохраняется даже если письмо не ушло, см. email_sent.
func SaveReject(log *slog.Logger, creator RejectCreator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.rejects.save.SaveReject"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req reject.Request
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		res, err := creator.CreateReject(ctx, req)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("reject saved",
			slog.Int64("reject_id", res.Record.RejectID),
			slog.Bool("email_sent", res.EmailSent),
		)

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, res)
	}
}

type ReasonRequest struct {
	Name        string  `json:"reason_name" validate:"required"`
	Description *string `json:"description,omitempty"`
}

func SaveReason(log *slog.Logger, adder ReasonAdder, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.rejects.save.SaveReason"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req ReasonRequest
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		reason, err := adder.AddReason(ctx, req.Name, req.Description)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("reject reason added", slog.String("reason", reason.Name))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, reason)
	}
}
