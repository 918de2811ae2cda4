package save

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/service/jobs"
	"shopfloor-terminal/internal/storage"
)

type OperationAdder interface {
	AddOperation(ctx context.Context, p jobs.AddOperationParams) (*storage.JobOperation, error)
}

type Request struct {
	RouteCard           string  `json:"route_card" validate:"required"`
	ContractNumber      string  `json:"contract_number,omitempty"`
	OperationCode       string  `json:"operation_code" validate:"required"`
	OneOff              bool    `json:"one_off"`
	ReplacesOperations  *string `json:"replaces_operations,omitempty"`
	AdditionalOperation bool    `json:"additional_operation"`
	AddedBy             *string `json:"added_by,omitempty"`
}

func AddOperation(log *slog.Logger, adder OperationAdder, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.jobs.save.AddOperation"

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

		job, err := adder.AddOperation(ctx, jobs.AddOperationParams{
			RouteCard:           req.RouteCard,
			ContractNumber:      req.ContractNumber,
			OperationCode:       req.OperationCode,
			OneOff:              req.OneOff,
			ReplacesOperations:  req.ReplacesOperations,
			AdditionalOperation: req.AdditionalOperation,
			AddedBy:             req.AddedBy,
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		log.Info("operation added", slog.String("lookup_code", job.LookupCode))

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, job)
	}
}
