package update

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
)

type ReasonAssigner interface {
	AssignReasons(ctx context.Context, operationCode string, reasonIDs []int64) error
}

type Request struct {
	ReasonIDs []int64 `json:"reason_ids"`
}

type Response struct {
	OperationCode string  `json:"operation_code"`
	ReasonIDs     []int64 `json:"reason_ids"`
}

// AssignReasonsAdmin PUT /reject-reasons/{operation_code}, набор заменяется целиком.
func AssignReasonsAdmin(log *slog.Logger, assigner ReasonAssigner, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.rejects.update.AssignReasonsAdmin"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		code := chi.URLParam(r, "operation_code")

		var req Request
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := assigner.AssignReasons(ctx, code, req.ReasonIDs); err != nil {
			response.Error(w, r, log, err)
			return
		}

		if req.ReasonIDs == nil {
			req.ReasonIDs = []int64{}
		}

		render.JSON(w, r, Response{OperationCode: code, ReasonIDs: req.ReasonIDs})
	}
}
