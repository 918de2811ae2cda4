// Package generate_excel строит отчёт по эффективности и заявкам на переделку.
package generate_excel

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"

	"shopfloor-terminal/internal/storage"
)

const (
	sheetEfficiency    = "Efficiency"
	sheetRemanufacture = "Remanufacture"
)

type ReportStorage interface {
	ListEfficiencyMetrics(ctx context.Context, f storage.EfficiencyFilter) ([]storage.EfficiencyMetric, error)
	ListRejects(ctx context.Context, f storage.RejectFilter) ([]storage.RejectRecord, error)
}

// ReportFilter период [From, To). LookupCode ограничивает эффективность,
// RouteCard - заявки на переделку.
type ReportFilter struct {
	From       time.Time
	To         time.Time
	LookupCode string
	RouteCard  string
}

type GenerateExcelService struct {
	log     *slog.Logger
	storage ReportStorage
}

func NewGenerateService(log *slog.Logger, storage ReportStorage) *GenerateExcelService {
	return &GenerateExcelService{log: log, storage: storage}
}

func (g *GenerateExcelService) GenerateExcel(ctx context.Context, filter ReportFilter) ([]byte, error) {
	const op = "service.generate_excel.GenerateExcel"

	var (
		metrics []storage.EfficiencyMetric
		rejects []storage.RejectRecord
	)

	// обе выборки независимы, грузим параллельно
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		var err error
		metrics, err = g.storage.ListEfficiencyMetrics(egCtx, storage.EfficiencyFilter{
			LookupCode: filter.LookupCode,
			From:       &filter.From,
			To:         &filter.To,
			Limit:      -1,
		})
		if err != nil {
			return fmt.Errorf("efficiency: %w", err)
		}
		return nil
	})

	eg.Go(func() error {
		var err error
		rejects, err = g.storage.ListRejects(egCtx, storage.RejectFilter{
			RouteCard: filter.RouteCard,
			From:      &filter.From,
			To:        &filter.To,
			Limit:     -1,
		})
		if err != nil {
			return fmt.Errorf("rejects: %w", err)
		}
		return nil
	})

	if err := eg.Wait(); err != nil {
		return nil, fmt.Errorf("%s: fetch data: %w", op, err)
	}

	g.log.Debug("report data loaded",
		slog.String("op", op),
		slog.Int("metrics", len(metrics)),
		slog.Int("rejects", len(rejects)),
	)

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"E0E0E0"}, Pattern: 1},
		Border: []excelize.Border{{Type: "bottom", Color: "000000", Style: 2}},
	})
	if err != nil {
		return nil, fmt.Errorf("%s: style: %w", op, err)
	}

	if err := f.SetSheetName("Sheet1", sheetEfficiency); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if _, err := f.NewSheet(sheetRemanufacture); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	writeEfficiency(f, headerStyle, metrics)
	writeRemanufacture(f, headerStyle, rejects)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("%s: write: %w", op, err)
	}

	return buf.Bytes(), nil
}

var efficiencyHeaders = []string{
	"Date", "Lookup code", "Type", "Operator", "Machine",
	"Planned, min", "Actual, min", "Efficiency, %", "Time saved, min", "Planned qty", "Completed qty",
}

func writeEfficiency(f *excelize.File, headerStyle int, metrics []storage.EfficiencyMetric) {
	sheet := sheetEfficiency
	writeHeader(f, sheet, headerStyle, efficiencyHeaders)

	var planned, actual float64
	for i, m := range metrics {
		row := i + 2

		f.SetCellValue(sheet, cellName(1, row), m.CreatedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, cellName(2, row), m.LookupCode)
		f.SetCellValue(sheet, cellName(3, row), m.MetricType)
		f.SetCellValue(sheet, cellName(4, row), deref(m.OperatorID))
		f.SetCellValue(sheet, cellName(5, row), deref(m.MachineID))
		f.SetCellValue(sheet, cellName(6, row), m.PlannedTime)
		f.SetCellValue(sheet, cellName(7, row), m.ActualTime)
		f.SetCellValue(sheet, cellName(8, row), m.EfficiencyPercentage)
		f.SetCellValue(sheet, cellName(9, row), m.TimeSaved)
		if m.PlannedQty != nil {
			f.SetCellValue(sheet, cellName(10, row), *m.PlannedQty)
		}
		if m.CompletedQty != nil {
			f.SetCellValue(sheet, cellName(11, row), *m.CompletedQty)
		}

		planned += m.PlannedTime
		actual += m.ActualTime
	}

	// итоговая строка: общая эффективность по сумме времени
	total := len(metrics) + 2
	f.SetCellValue(sheet, cellName(1, total), "Total")
	f.SetCellValue(sheet, cellName(6, total), math.Round(planned*10)/10)
	f.SetCellValue(sheet, cellName(7, total), math.Round(actual*10)/10)
	f.SetCellValue(sheet, cellName(8, total), totalEfficiency(planned, actual))
	f.SetCellValue(sheet, cellName(9, total), math.Round((planned-actual)*10)/10)

	freezeHeader(f, sheet)
	f.SetColWidth(sheet, "A", "E", 18)
}

var remanufactureHeaders = []string{
	"Request #", "Date", "Customer", "Contract", "Route card", "Part number", "Operation",
	"Qty rejected", "Remanufacture qty", "Reason", "Operator", "Supervisor", "Machine",
}

func writeRemanufacture(f *excelize.File, headerStyle int, rejects []storage.RejectRecord) {
	sheet := sheetRemanufacture
	writeHeader(f, sheet, headerStyle, remanufactureHeaders)

	for i, r := range rejects {
		row := i + 2

		f.SetCellValue(sheet, cellName(1, row), r.RejectID)
		f.SetCellValue(sheet, cellName(2, row), r.CreatedAt.Format("2006-01-02 15:04"))
		f.SetCellValue(sheet, cellName(3, row), r.CustomerName)
		f.SetCellValue(sheet, cellName(4, row), r.ContractNumber)
		f.SetCellValue(sheet, cellName(5, row), r.RouteCard)
		f.SetCellValue(sheet, cellName(6, row), r.PartNumber)
		f.SetCellValue(sheet, cellName(7, row), r.OperationCode)
		f.SetCellValue(sheet, cellName(8, row), r.QtyRejected)
		f.SetCellValue(sheet, cellName(9, row), r.RemanufactureQty)
		f.SetCellValue(sheet, cellName(10, row), r.Reason)
		f.SetCellValue(sheet, cellName(11, row), r.OperatorID)
		f.SetCellValue(sheet, cellName(12, row), r.SupervisorID)
		f.SetCellValue(sheet, cellName(13, row), r.MachineID)
	}

	freezeHeader(f, sheet)
	f.SetColWidth(sheet, "B", "G", 15)
	f.SetColWidth(sheet, "J", "J", 30)
}

func writeHeader(f *excelize.File, sheet string, style int, headers []string) {
	for i, name := range headers {
		f.SetCellValue(sheet, cellName(i+1, 1), name)
	}
	f.SetCellStyle(sheet, "A1", cellName(len(headers), 1), style)
}

func freezeHeader(f *excelize.File, sheet string) {
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
	})
}

func totalEfficiency(planned, actual float64) int {
	if actual == 0 {
		return 100
	}
	return int(math.Floor(planned/actual*100 + 0.5))
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
