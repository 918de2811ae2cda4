package get

import (
	"context"
	"errors"
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

type RejectReader interface {
	ListRejects(ctx context.Context, f storage.RejectFilter) ([]storage.RejectRecord, error)
}

type ReasonReader interface {
	Reasons(ctx context.Context, operationCode string) ([]storage.RejectReason, error)
}

func GetRejects(log *slog.Logger, reader RejectReader, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.rejects.get.GetRejects"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		filter, err := parseFilter(r)
		if err != nil {
			response.Error(w, r, log, apperr.Validation(op, err.Error()))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		rejects, err := reader.ListRejects(ctx, filter)
		if err != nil {
			response.Error(w, r, log, err)
			return
		}
		if rejects == nil {
			rejects = []storage.RejectRecord{}
		}

		render.JSON(w, r, rejects)
	}
}

func parseFilter(r *http.Request) (storage.RejectFilter, error) {
	q := r.URL.Query()

	f := storage.RejectFilter{
		ContractNumber: q.Get("contract_number"),
		RouteCard:      q.Get("route_card"),
		OperationCode:  q.Get("operation_code"),
	}

	if raw := q.Get("reject_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return f, errInvalid("reject_id")
		}
		f.RejectID = id
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			return f, errInvalid("limit")
		}
		f.Limit = limit
	}
	for name, dst := range map[string]**time.Time{"from": &f.From, "to": &f.To} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			return f, errInvalid(name)
		}
		if name == "to" {
			t = t.AddDate(0, 0, 1)
		}
		*dst = &t
	}

	return f, nil
}

func errInvalid(name string) error {
	return errors.New("invalid " + name)
}

// GetReasons список причин брака, "Other" всегда последним.
func GetReasons(log *slog.Logger, reader ReasonReader, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.rejects.get.GetReasons"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		reasons, err := reader.Reasons(ctx, r.URL.Query().Get("operation_code"))
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		render.JSON(w, r, reasons)
	}
}
