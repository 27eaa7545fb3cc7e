package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/lessonflow/lessonflow/internal/jobs"
	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/scheduling"
)

// TeacherLister provides the active teacher pool for the monthly sweep.
type TeacherLister interface {
	ListActiveTeachers(ctx context.Context) ([]scheduling.Teacher, error)
}

// NewPayrollSweepHandler closes the previous month's payment summary for every
// active teacher. Registered on a monthly cron so statements are frozen even
// when nobody opened them through the API.
func NewPayrollSweepHandler(logger *slog.Logger, teachers TeacherLister, closer PayrollCloser, metrics *jobmetrics.Metrics, now func() time.Time) asynq.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(ctx context.Context, t *asynq.Task) error {
		tracker := metrics.Track("payroll_sweep")
		at := now()
		// Anchor on the first of the schedule-local month before stepping
		// back: AddDate on a day-29..31 instant normalises into the current
		// month and would close the wrong one.
		local := schedtime.In(at)
		monthStart := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, schedtime.Location())
		prev := monthStart.AddDate(0, -1, 0)
		pool, err := teachers.ListActiveTeachers(ctx)
		if err != nil {
			return tracker.End(err)
		}
		var failed int
		for _, teacher := range pool {
			if _, err := closer.ClosePaymentMonth(ctx, teacher.ID, prev.Year(), prev.Month(), at); err != nil {
				failed++
				logger.Error("payroll sweep close",
					slog.Int64("teacher_id", teacher.ID),
					slog.Any("error", err))
			}
		}
		logger.Info("payroll sweep finished",
			slog.Int("teachers", len(pool)),
			slog.Int("failed", failed),
			slog.Int("year", prev.Year()),
			slog.String("month", prev.Month().String()))
		return tracker.End(nil)
	}
}
