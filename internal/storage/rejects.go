package storage

import "time"

const OtherReasonName = "Other"

type RejectRecord struct {
	RejectID         int64     `json:"reject_id"`
	CustomerName     string    `json:"customer_name"`
	ContractNumber   string    `json:"contract_number"`
	RouteCard        string    `json:"route_card"`
	PartNumber       string    `json:"part_number"`
	QtyRejected      int       `json:"qty_rejected"`
	OperatorID       string    `json:"operator_id"`
	SupervisorID     string    `json:"supervisor_id"`
	Reason           string    `json:"reason"`
	RemanufactureQty int       `json:"remanufacture_qty"`
	MachineID        string    `json:"machine_id"`
	OperationCode    string    `json:"operation_code"`
	CreatedAt        time.Time `json:"created_at"`
}

type RejectReason struct {
	ID          int64   `json:"reason_id"`
	Name        string  `json:"reason_name"`
	Description *string `json:"description,omitempty"`
}

type RejectFilter struct {
	RejectID       int64
	ContractNumber string
	RouteCard      string
	OperationCode  string
	From           *time.Time
	To             *time.Time
	// 0 - по умолчанию 10, меньше нуля - без лимита
	Limit int
}
