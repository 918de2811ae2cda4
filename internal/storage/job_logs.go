package storage

import "time"

const (
	LogStateSetup      = "SETUP"
	LogStateRunning    = "RUNNING"
	LogStatePaused     = "PAUSED"
	LogStateInspection = "INSPECTION"
)

const (
	InspectionFirstOff  = "1st_off"
	InspectionInProcess = "in_process"
)

type JobLog struct {
	LogID            int64      `json:"log_id"`
	LookupCode       string     `json:"lookup_code"`
	UserID           string     `json:"user_id"`
	MachineID        string     `json:"machine_id"`
	State            string     `json:"state"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	CompletedQty     *int       `json:"completed_qty"`
	Comments         *string    `json:"comments"`
	InspectionType   *string    `json:"inspection_type"`
	InspectionPassed *bool      `json:"inspection_passed"`
	InspectionQty    *int       `json:"inspection_qty"`
}

// LogClose поля, которые разрешено записать при закрытии лога.
type LogClose struct {
	EndTime          time.Time
	CompletedQty     *int
	Comments         *string
	InspectionPassed *bool
	InspectionQty    *int
}

func (l *JobLog) IsOpen() bool {
	return l.EndTime == nil
}
