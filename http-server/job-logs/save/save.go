package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/service/ledger"
)

type LogCreator interface {
	CreateLog(ctx context.Context, nl ledger.NewLog) (int64, error)
}

// Request state и обязательные поля проверяет сам ledger, здесь только формат.
type Request struct {
	LookupCode       string     `json:"lookup_code"`
	UserID           string     `json:"user_id"`
	MachineID        string     `json:"machine_id"`
	State            string     `json:"state"`
	StartTime        *time.Time `json:"start_time,omitempty"`
	EndTime          *time.Time `json:"end_time,omitempty"`
	CompletedQty     *int       `json:"completed_qty,omitempty" validate:"omitempty,gte=0"`
	Comments         *string    `json:"comments,omitempty"`
	InspectionType   *string    `json:"inspection_type,omitempty" validate:"omitempty,oneof=1st_off in_process"`
	InspectionPassed *bool      `json:"inspection_passed,omitempty"`
	InspectionQty    *int       `json:"inspection_qty,omitempty" validate:"omitempty,gte=0"`
}

type Response struct {
	LogID int64 `json:"log_id"`
}

func CreateLog(log *slog.Logger, creator LogCreator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.job-logs.save.CreateLog"

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

		id, err := creator.CreateLog(ctx, ledger.NewLog{
			LookupCode:       req.LookupCode,
			UserID:           req.UserID,
			MachineID:        req.MachineID,
			State:            req.State,
			StartTime:        req.StartTime,
			EndTime:          req.EndTime,
			CompletedQty:     req.CompletedQty,
			Comments:         req.Comments,
			InspectionType:   req.InspectionType,
			InspectionPassed: req.InspectionPassed,
			InspectionQty:    req.InspectionQty,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("job log created", slog.Int64("log_id", id), slog.String("state", req.State))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, Response{LogID: id})
	}
}
