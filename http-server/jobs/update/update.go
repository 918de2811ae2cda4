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

type CompletionUpdater interface {
	UpdateJobCompletion(ctx context.Context, job *storage.JobOperation, delta int, incremental bool) (*storage.JobOperation, error)
}

type Request struct {
	LookupCode   string `json:"lookup_code" validate:"required"`
	CompletedQty int    `json:"completed_qty" validate:"gte=0"`
	// по умолчанию количество прибавляется к уже выполненному
	IsIncremental *bool `json:"is_incremental"`
}

type Response struct {
	LookupCode   string `json:"lookup_code"`
	CompletedQty int    `json:"completed_qty"`
	Balance      int    `json:"balance"`
	Status       string `json:"status"`
}

func UpdateCompletion(log *slog.Logger, updater CompletionUpdater, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.jobs.update.UpdateCompletion"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		var req Request
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		incremental := req.IsIncremental == nil || *req.IsIncremental

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		job, err := updater.UpdateJobCompletion(ctx, &storage.JobOperation{LookupCode: req.LookupCode}, req.CompletedQty, incremental)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("job completion updated",
			slog.String("lookup_code", job.LookupCode),
			slog.Int("completed_qty", job.CompletedQty),
			slog.String("status", job.Status),
		)

		render.JSON(w, r, Response{
			LookupCode:   job.LookupCode,
			CompletedQty: job.CompletedQty,
			Balance:      job.Balance,
			Status:       job.Status,
		})
	}
}
