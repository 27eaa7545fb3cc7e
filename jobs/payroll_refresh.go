package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/lessonflow/lessonflow/internal/jobs"
	"github.com/lessonflow/lessonflow/internal/payroll"
)

// PayrollCloser is the slice of the payroll service the refresh handler uses.
type PayrollCloser interface {
	ClosePaymentMonth(ctx context.Context, teacherID int64, year int, month time.Month, now time.Time) (payroll.Statement, error)
}

// NewPayrollRefreshHandler builds the handler for TaskTypePayrollRefresh.
// metrics may be nil.
func NewPayrollRefreshHandler(logger *slog.Logger, closer PayrollCloser, metrics *jobmetrics.Metrics, now func() time.Time) asynq.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("payroll_refresh")
		var payload PayrollRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return tracker.End(asynq.SkipRetry)
		}
		if payload.TeacherID == 0 {
			return tracker.End(asynq.SkipRetry)
		}
		statement, err := closer.ClosePaymentMonth(ctx, payload.TeacherID, payload.Year, payload.Month, now())
		if err != nil {
			logger.Error("payroll refresh", slog.Any("error", err), slog.Int64("teacher_id", payload.TeacherID))
			return tracker.End(err)
		}
		logger.Info("payroll summary refreshed",
			slog.Int64("teacher_id", payload.TeacherID),
			slog.String("payable", statement.PayableAmount.StringFixed(2)))
		return tracker.End(nil)
	}
}
