// Package efficiency считает эффективность наладки и работы по времени лога
// и плановому времени задания, и сохраняет результат.
package efficiency

import (
	"math"
	"time"

	"shopfloor-terminal/internal/apperr"
	"shopfloor-terminal/internal/storage"
)

type Metrics struct {
	Planned        float64  `json:"planned"`
	Actual         float64  `json:"actual"`
	Efficiency     int      `json:"efficiency"`
	TimeSaved      float64  `json:"time_saved"`
	Quantity       *int     `json:"quantity,omitempty"`
	PlannedPerItem *float64 `json:"planned_per_item,omitempty"`
}

// SetupEfficiency plannedMinutes в минутах на всю наладку.
func SetupEfficiency(plannedMinutes float64, start, end time.Time) (Metrics, error) {
	const op = "efficiency.SetupEfficiency"

	if err := checkPlanned(op, plannedMinutes); err != nil {
		return Metrics{}, err
	}

	actual, err := actualMinutes(op, start, end)
	if err != nil {
		return Metrics{}, err
	}

	return Metrics{
		Planned:    plannedMinutes,
		Actual:     roundTo(actual, 1),
		Efficiency: percentage(plannedMinutes, actual),
		TimeSaved:  roundTo(plannedMinutes-actual, 1),
	}, nil
}

// RunningEfficiency считает скорость, а не выполнение всего заказа:
// плановое время пересчитывается на фактически сделанное количество.
func RunningEfficiency(plannedForFullQty float64, totalQty, completedQty int, start, end time.Time) (Metrics, error) {
	const op = "efficiency.RunningEfficiency"

	if err := checkPlanned(op, plannedForFullQty); err != nil {
		return Metrics{}, err
	}
	if totalQty <= 0 {
		return Metrics{}, apperr.Validation(op, "total quantity must be greater than zero")
	}
	if completedQty < 0 {
		return Metrics{}, apperr.Validation(op, "completed quantity cannot be negative")
	}

	actual, err := actualMinutes(op, start, end)
	if err != nil {
		return Metrics{}, err
	}

	perItem := plannedForFullQty / float64(totalQty)
	adjusted := perItem * float64(completedQty)
	perItemRounded := roundTo(perItem, 2)
	qty := completedQty

	return Metrics{
		Planned:        roundTo(adjusted, 1),
		Actual:         roundTo(actual, 1),
		Efficiency:     percentage(adjusted, actual),
		TimeSaved:      roundTo(adjusted-actual, 1),
		Quantity:       &qty,
		PlannedPerItem: &perItemRounded,
	}, nil
}

// JobEfficiency выбирает плановое время задания по типу лога.
func JobEfficiency(job storage.JobOperation, logType string, start, end time.Time, completedQty *int) (Metrics, error) {
	const op = "efficiency.JobEfficiency"

	switch logType {
	case storage.MetricTypeSetup:
		return SetupEfficiency(job.PlannedSetupTime, start, end)
	case storage.MetricTypeRunning:
		if completedQty == nil {
			return Metrics{}, apperr.MissingData(op, "completed quantity is required for RUNNING efficiency")
		}
		return RunningEfficiency(job.PlannedRunTime, job.Quantity, *completedQty, start, end)
	default:
		return Metrics{}, apperr.Validation(op, "unsupported log type "+logType)
	}
}

// FromRecord восстанавливает метрики из сохранённой строки для отображения.
func FromRecord(m storage.EfficiencyMetric) Metrics {
	out := Metrics{
		Planned:    m.PlannedTime,
		Actual:     m.ActualTime,
		Efficiency: m.EfficiencyPercentage,
		TimeSaved:  m.TimeSaved,
		Quantity:   m.CompletedQty,
	}

	if m.MetricType == storage.MetricTypeRunning && m.PlannedPerItem != nil {
		perItem := *m.PlannedPerItem
		out.PlannedPerItem = &perItem
	}

	return out
}

func checkPlanned(op string, planned float64) error {
	if math.IsNaN(planned) || math.IsInf(planned, 0) {
		return apperr.Validation(op, "planned time is not a number")
	}
	if planned < 0 {
		return apperr.Validation(op, "planned time cannot be negative")
	}
	return nil
}

func actualMinutes(op string, start, end time.Time) (float64, error) {
	if start.IsZero() || end.IsZero() {
		return 0, apperr.Validation(op, "start and end time are required")
	}
	if end.Before(start) {
		return 0, apperr.Validation(op, "end time is before start time")
	}
	return end.Sub(start).Minutes(), nil
}

func percentage(planned, actual float64) int {
	if actual == 0 {
		return 100
	}
	return int(roundTo(planned/actual*100, 0))
}

// roundTo округляет половину вверх, как это делает терминал в браузере.
func roundTo(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Floor(x*p+0.5) / p
}
