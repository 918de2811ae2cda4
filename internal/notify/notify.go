// Package notify отправляет письма о браке и о ненайденных маршрутных картах.
package notify

import (
	"bytes"
	"text/template"
	"time"
)

type JobNotFound struct {
	RouteCard     string
	Scan          string
	OperationCode string
	TerminalName  string
	UserName      string
	ScannedAt     time.Time
}

type Remanufacture struct {
	RejectID         int64
	CustomerName     string
	ContractNumber   string
	RouteCard        string
	PartNumber       string
	OperationCode    string
	QtyRejected      int
	RemanufactureQty int
	Reason           string
	OperatorID       string
	SupervisorID     string
	MachineID        string
	CreatedAt        time.Time
}

var remanufactureTmpl = template.Must(template.New("remanufacture").Parse(
	`A remanufacture request has been submitted.

Request #{{.RejectID}}
Customer:           {{.CustomerName}}
Contract number:    {{.ContractNumber}}
Route card:         {{.RouteCard}}
Part number:        {{.PartNumber}}
Operation:          {{.OperationCode}}
Quantity rejected:  {{.QtyRejected}}
Remanufacture qty:  {{.RemanufactureQty}}
Reason:             {{.Reason}}
Operator:           {{.OperatorID}}
Supervisor:         {{.SupervisorID}}
Machine:            {{.MachineID}}
Submitted:          {{.CreatedAt.Format "2006-01-02 15:04"}}
`))

var notFoundTmpl = template.Must(template.New("not-found").Parse(
	`A route card was scanned on a terminal but does not exist in the job list.

Scanned value:  {{.Scan}}
Route card:     {{.RouteCard}}
Operation:      {{.OperationCode}}
Terminal:       {{.TerminalName}}
User:           {{if .UserName}}{{.UserName}}{{else}}-{{end}}
Scanned at:     {{.ScannedAt.Format "2006-01-02 15:04:05"}}
`))

func remanufactureSubject(r Remanufacture) string {
	return "Remanufacture Request #" + itoa(r.RejectID) + " - " + r.PartNumber
}

func notFoundSubject(n JobNotFound) string {
	return "Job not found: route card " + n.RouteCard
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
