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

type LogReader interface {
	GetOpenLog(ctx context.Context, lookupCode, state string) (*storage.JobLog, bool, error)
	GetLogByID(ctx context.Context, logID int64) (*storage.JobLog, error)
}

type OpenLogResponse struct {
	Found bool            `json:"found"`
	Log   *storage.JobLog `json:"log,omitempty"`
}

// GetLogs ?id= возвращает лог, ?lookup_code=&state= - открытый лог, если он есть.
func GetLogs(log *slog.Logger, reader LogReader, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.job-logs.get.GetLogs"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		q := r.URL.Query()

		if raw := q.Get("id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil || id <= 0 {
				response.Error(w, r, log, apperr.Validation(op, "invalid log id"))
				return
			}

			jl, err := reader.GetLogByID(ctx, id)
			if err != nil {
				response.Error(w, r, log, err)
				return
			}

			render.JSON(w, r, jl)
			return
		}

		lookupCode, state := q.Get("lookup_code"), q.Get("state")
		if lookupCode == "" || state == "" {
			response.Error(w, r, log, apperr.Validation(op, "id or lookup_code and state are required"))
			return
		}

		jl, found, err := reader.GetOpenLog(ctx, lookupCode, state)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, OpenLogResponse{Found: found, Log: jl})
	}
}
