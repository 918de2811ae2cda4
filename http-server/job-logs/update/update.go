package update

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/service/ledger"
	"shopfloor-terminal/internal/storage"
)

type LogCloser interface {
	CloseLog(ctx context.Context, logID int64, p ledger.CloseParams) (*storage.JobLog, error)
}

// Request другие поля лога закрытием не меняются.
type Request struct {
	EndTime          *time.Time `json:"end_time,omitempty"`
	EndNow           bool       `json:"end_now"`
	CompletedQty     *int       `json:"completed_qty,omitempty"`
	Comments         *string    `json:"comments,omitempty"`
	InspectionPassed *bool      `json:"inspection_passed,omitempty"`
	InspectionQty    *int       `json:"inspection_qty,omitempty"`
	LookupCode       string     `json:"lookup_code,omitempty"`
}

func CloseLog(log *slog.Logger, closer LogCloser, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.job-logs.update.CloseLog"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			response.Error(w, r, log, apperr.Validation(op, "invalid log id"))
			return
		}

		var req Request
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, r, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		closed, err := closer.CloseLog(ctx, id, ledger.CloseParams{
			EndTime:          req.EndTime,
			EndNow:           req.EndNow,
			CompletedQty:     req.CompletedQty,
			Comments:         req.Comments,
			InspectionPassed: req.InspectionPassed,
			InspectionQty:    req.InspectionQty,
			ExpectLookupCode: req.LookupCode,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("job log closed", slog.Int64("log_id", closed.LogID), slog.String("state", closed.State))

		render.JSON(w, r, closed)
	}
}
