package get

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type MetricReader interface {
	GetEfficiencyForLog(ctx context.Context, jobLogID int64) (*storage.EfficiencyMetric, bool, error)
	ListMetrics(ctx context.Context, f storage.EfficiencyFilter) ([]storage.EfficiencyMetric, error)
}

type LogMetricResponse struct {
	Found  bool                      `json:"found"`
	Metric *storage.EfficiencyMetric `json:"metric,omitempty"`
}

func GetEfficiency(log *slog.Logger, reader MetricReader, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.efficiency.get.GetEfficiency"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		q := r.URL.Query()

		if raw := q.Get("job_log_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				response.Error(w, r, log, apperr.Validation(op, "invalid job_log_id"))
				return
			}

			m, found, err := reader.GetEfficiencyForLog(ctx, id)
			if err != nil {
				response.Error(w, r, log, err)
				return
			}

			render.JSON(w, r, LogMetricResponse{Found: found, Metric: m})
			return
		}

		filter := storage.EfficiencyFilter{
			LookupCode: q.Get("lookup_code"),
			MetricType: q.Get("metric_type"),
		}
		if raw := q.Get("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil {
				response.Error(w, r, log, apperr.Validation(op, "invalid limit"))
				return
			}
			filter.Limit = limit
		}

		metrics, err := reader.ListMetrics(ctx, filter)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}
		if metrics == nil {
			metrics = []storage.EfficiencyMetric{}
		}

		render.JSON(w, r, metrics)
	}
}
