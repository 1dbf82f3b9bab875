// Package accounting defines the record the kernel saves for every ended
// process.
package accounting

import (
	"strconv"
	"time"

	"github.com/viant/minikernel/service/dao"
	"github.com/viant/minikernel/service/dao/criteria"
)

// Termination reasons
const (
	ReasonExit  = "exit"
	ReasonFault = "fault"
)

// Record is the accounting entry of an ended process.
type Record struct {
	ID          string    `json:"id" yaml:"id"`
	BootID      string    `json:"bootId,omitempty" yaml:"bootId,omitempty"`
	PID         int       `json:"pid" yaml:"pid"`
	Program     string    `json:"program" yaml:"program"`
	UserTicks   int       `json:"userTicks" yaml:"userTicks"`
	SystemTicks int       `json:"systemTicks" yaml:"systemTicks"`
	CreatedTick int       `json:"createdTick" yaml:"createdTick"`
	EndedTick   int       `json:"endedTick" yaml:"endedTick"`
	Reason      string    `json:"reason" yaml:"reason"`
	Detail      string    `json:"detail,omitempty" yaml:"detail,omitempty"`
	EndedAt     time.Time `json:"endedAt" yaml:"endedAt"`
}

// Service stores accounting records by id.
type Service = dao.Service[string, Record]

// Key returns the record id.
func Key(r *Record) string {
	return r.ID
}

// Match filters records by Program, Reason, PID or BootID parameters.
func Match(r *Record, parameters []*dao.Parameter) bool {
	return criteria.Match(map[string]string{
		"Program": r.Program,
		"Reason":  r.Reason,
		"PID":     strconv.Itoa(r.PID),
		"BootID":  r.BootID,
	}, parameters)
}
