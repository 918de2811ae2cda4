package storage

type User struct {
	EmployeeID       string `json:"employee_id"`
	Name             string `json:"name"`
	CanOperate       bool   `json:"can_operate"`
	CanSetup         bool   `json:"can_setup"`
	CanInspect       bool   `json:"can_inspect"`
	CanRemanufacture bool   `json:"can_remanufacture"`
	Active           bool   `json:"active"`
}

type Terminal struct {
	TerminalID    int64  `json:"terminal_id"`
	TerminalName  string `json:"terminal_name"`
	OperationCode string `json:"operation_code"`
	OperationID   *int64 `json:"operation_id,omitempty"`
	PasswordHash  string `json:"-"`
	Active        bool   `json:"active"`
}
