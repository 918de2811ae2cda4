package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"shopfloor-terminal/http-server/response"
	"shopfloor-terminal/internal/apperr"
	report "shopfloor-terminal/internal/service/generate-excel"
)

type ReportGenerator interface {
	GenerateExcel(ctx context.Context, filter report.ReportFilter) ([]byte, error)
}

// GenerateReportExcel без from отчёт начинается с первого числа месяца,
// to включается в период целиком.
func GenerateReportExcel(log *slog.Logger, gen ReportGenerator, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handler.generate_excel.GenerateReportExcel"

		log := log.With(
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		q := r.URL.Query()
		fromStr, toStr := q.Get("from"), q.Get("to")

		now := time.Now()
		from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		to := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		if fromStr != "" {
			d, err := time.ParseInLocation(time.DateOnly, fromStr, now.Location())
			if err != nil {
				response.Error(w, r, log, apperr.Validation(op, "invalid from date"))
				return
			}
			from = d
		}
		if toStr != "" {
			d, err := time.ParseInLocation(time.DateOnly, toStr, now.Location())
			if err != nil {
				response.Error(w, r, log, apperr.Validation(op, "invalid to date"))
				return
			}
			to = d
		}
		to = to.AddDate(0, 0, 1)

		if !from.Before(to) {
			response.Error(w, r, log, apperr.Validation(op, "from date is after to date"))
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		excelBytes, err := gen.GenerateExcel(ctx, report.ReportFilter{
			From:       from,
			To:         to,
			LookupCode: q.Get("lookup_code"),
			RouteCard:  q.Get("route_card"),
		})
		if err != nil {
			response.Error(w, r, log, err)
			return
		}

		fileName := fmt.Sprintf("Shopfloor_Report_%s.xlsx", now.Format("2006-01-02_150405"))

		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+fileName)
		if _, err := w.Write(excelBytes); err != nil {
			log.Warn("failed to write report", slog.String("error", err.Error()))
		}
	}
}
