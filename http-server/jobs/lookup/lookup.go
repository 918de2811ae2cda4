package lookup

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/service/jobs"
)

type JobLookuper interface {
	LookupJob(ctx context.Context, scan, operationCode string, sc jobs.ScanContext) (*jobs.LookupResult, error)
	CheckJob(ctx context.Context, scan, operationCode string) (*jobs.LookupResult, error)
}

type Request struct {
	Scan          string `json:"scan" validate:"required"`
	OperationCode string `json:"operation_code" validate:"required"`
	TerminalName  string `json:"terminal_name,omitempty"`
	UserName      string `json:"user_name,omitempty"`
}

// Lookup NOT_FOUND и OPERATION_NOT_ASSIGNED - обычный ответ 200 с полем code.
func Lookup(log *slog.Logger, lookuper JobLookuper, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.jobs.lookup.Lookup"

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

		res, err := lookuper.LookupJob(ctx, req.Scan, req.OperationCode, jobs.ScanContext{
			TerminalName: req.TerminalName,
			UserName:     req.UserName,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Debug("job lookup", slog.String("lookup_code", res.LookupCode), slog.String("code", string(res.Kind)))

		render.JSON(w, r, res)
	}
}

// Check то же без уведомлений.
func Check(log *slog.Logger, lookuper JobLookuper, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.jobs.lookup.Check"

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

		res, err := lookuper.CheckJob(ctx, req.Scan, req.OperationCode)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, res)
	}
}
