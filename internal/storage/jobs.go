package storage

import (
	"strings"
	"time"
)

const (
	JobStatusUnstarted = "Unstarted"
	JobStatusWIP       = "WIP"
	JobStatusComplete  = "Complete"
	JobStatusReady     = "Ready"
)

type JobOperation struct {
	ID                  int64      `json:"id"`
	LookupCode          string     `json:"lookup_code"`
	RouteCard           string     `json:"route_card"`
	ContractNumber      string     `json:"contract_number"`
	OpCode              string     `json:"op_code"`
	PartNumber          string     `json:"part_number"`
	CustomerName        string     `json:"customer_name"`
	Description         string     `json:"description"`
	DueDate             *time.Time `json:"due_date,omitempty"`
	Quantity            int        `json:"quantity"`
	CompletedQty        int        `json:"completed_qty"`
	Balance             int        `json:"balance"`
	Status              string     `json:"status"`
	PlannedSetupTime    float64    `json:"planned_setup_time"`
	PlannedRunTime      float64    `json:"planned_run_time"`
	UserAdded           bool       `json:"user_added"`
	OneOff              bool       `json:"one_off"`
	ReplacesOperations  *string    `json:"replaces_operations,omitempty"`
	AdditionalOperation bool       `json:"additional_operation"`
	AddedBy             *string    `json:"added_by,omitempty"`
	AddedAt             *time.Time `json:"added_at,omitempty"`
	Version             int64      `json:"version"`
}

// RouteCardOperation операция, уже назначенная на маршрутную карту.
type RouteCardOperation struct {
	OpCode         string `json:"op_code"`
	Description    string `json:"description"`
	ContractNumber string `json:"contract_number"`
}

// CompletionUpdate новые значения выполненного количества для строки jobs.
type CompletionUpdate struct {
	LookupCode      string
	CompletedQty    int
	Balance         int
	Status          string
	ExpectedVersion int64
}

// LookupCode собирает составной ключ route_card-contract_number-op_code.
func LookupCode(routeCard, contractNumber, opCode string) string {
	return strings.Join([]string{routeCard, contractNumber, opCode}, "-")
}
