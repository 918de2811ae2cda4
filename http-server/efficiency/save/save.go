package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/service/efficiency"
	"shopfloor-terminal/internal/storage"
)

type JobReader interface {
	GetJob(ctx context.Context, lookupCode string) (*storage.JobOperation, error)
}

type EfficiencyLogger interface {
	LogEfficiency(ctx context.Context, p efficiency.LogParams) (*efficiency.LogResult, error)
}

type Request struct {
	JobLogID   int64     `json:"job_log_id" validate:"gt=0"`
	LookupCode string    `json:"lookup_code" validate:"required"`
	LogType    string    `json:"log_type" validate:"required,oneof=SETUP RUNNING"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
	Quantity   *int      `json:"quantity,omitempty" validate:"omitempty,gte=0"`
	OperatorID string    `json:"operator_id,omitempty"`
	MachineID  string    `json:"machine_id,omitempty"`
}

type Response struct {
	Metrics  efficiency.Metrics `json:"metrics"`
	MetricID int64              `json:"metric_id,omitempty"`
	Saved    bool               `json:"saved"`
	Warning  string             `json:"warning,omitempty"`
}

// LogEfficiency метрика считается по плановым временам задания из базы.
// Если запись не удалась, клиент всё равно получает расчёт с saved=false.
func LogEfficiency(log *slog.Logger, jobs JobReader, logger EfficiencyLogger, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.efficiency.save.LogEfficiency"

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

		job, err := jobs.GetJob(ctx, req.LookupCode)
		if err != nil {
			if apperr.Is(err, apperr.KindNotFound) {
				err = apperr.MissingData(op, "job data is required to calculate efficiency")
			}
			response.Error(w, r, log, err)
			return
		}

		res, err := logger.LogEfficiency(ctx, efficiency.LogParams{
			JobLogID:   req.JobLogID,
			LookupCode: req.LookupCode,
			LogType:    req.LogType,
			StartTime:  req.StartTime,
			EndTime:    req.EndTime,
			Job:        job,
			Quantity:   req.Quantity,
			OperatorID: req.OperatorID,
			MachineID:  req.MachineID,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		resp := Response{Metrics: res.Metrics, MetricID: res.MetricID, Saved: res.PersistErr == nil}
		if res.PersistErr != nil {
			resp.Warning = "efficiency calculated but not saved"
			render.JSON(w, r, resp)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, resp)
	}
}
