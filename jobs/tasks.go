package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypePayrollRefresh recomputes one teacher's monthly payment summary.
	TaskTypePayrollRefresh = "payroll:refresh"
	// TaskTypePayrollSweep closes the previous month for all active teachers.
	TaskTypePayrollSweep = "payroll:sweep"
)

// PayrollRefreshPayload identifies the summary to recompute. Zero Year/Month
// means the month containing the processing time.
type PayrollRefreshPayload struct {
	TeacherID int64      `json:"teacher_id"`
	Year      int        `json:"year,omitempty"`
	Month     time.Month `json:"month,omitempty"`
}

// NewPayrollRefreshTask constructs an Asynq task.
func NewPayrollRefreshTask(payload PayrollRefreshPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePayrollRefresh, data), nil
}

// NewPayrollSweepTask constructs the monthly sweep task. It carries no payload.
func NewPayrollSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypePayrollSweep, nil)
}
