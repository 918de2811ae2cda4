package storage

import "time"

const (
	MetricTypeSetup   = "SETUP"
	MetricTypeRunning = "RUNNING"
)

type EfficiencyMetric struct {
	MetricID             int64     `json:"metric_id"`
	JobLogID             int64     `json:"job_log_id"`
	LookupCode           string    `json:"lookup_code"`
	MetricType           string    `json:"metric_type"`
	PlannedTime          float64   `json:"planned_time"`
	ActualTime           float64   `json:"actual_time"`
	EfficiencyPercentage int       `json:"efficiency_percentage"`
	TimeSaved            float64   `json:"time_saved"`
	PlannedQty           *int      `json:"planned_qty"`
	PlannedPerItem       *float64  `json:"planned_per_item"`
	CompletedQty         *int      `json:"completed_qty"`
	OperatorID           *string   `json:"operator_id"`
	MachineID            *string   `json:"machine_id"`
	CreatedAt            time.Time `json:"created_at"`
}

type EfficiencyFilter struct {
	JobLogID   int64
	LookupCode string
	MetricType string
	From       *time.Time
	To         *time.Time
	// 0 - по умолчанию 10, меньше нуля - без лимита
	Limit int
}
