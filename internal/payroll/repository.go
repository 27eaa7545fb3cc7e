package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lessonflow/lessonflow/internal/shared"
)

// Repository provides PostgreSQL backed persistence for payroll.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTeacherRate fetches the payroll view of a teacher.
func (r *Repository) GetTeacherRate(ctx context.Context, teacherID int64) (*TeacherRate, error) {
	var t TeacherRate
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, hourly_rate FROM teachers WHERE id = $1`, teacherID,
	).Scan(&t.ID, &t.Name, &t.HourlyRate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("teacher %d: %w", teacherID, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("payroll: get teacher rate: %w", err)
	}
	return &t, nil
}

// GetPaymentMonth fetches the override record for (teacher, year, month).
// Absence is not an error; callers fall back to teacher defaults.
func (r *Repository) GetPaymentMonth(ctx context.Context, teacherID int64, year int, month time.Month) (*PaymentMonth, error) {
	var pm PaymentMonth
	var monthNum int
	err := r.pool.QueryRow(ctx, `
		SELECT teacher_id, year, month, period_start, period_end, period_amount, extra_amount, payment_status
		FROM teacher_payment_months
		WHERE teacher_id = $1 AND year = $2 AND month = $3`,
		teacherID, year, int(month),
	).Scan(&pm.TeacherID, &pm.Year, &monthNum, &pm.PeriodStart, &pm.PeriodEnd,
		&pm.PeriodAmount, &pm.ExtraAmount, &pm.Status)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("payroll: get payment month: %w", err)
	}
	pm.Month = time.Month(monthNum)
	return &pm, nil
}

// GetConfirmedRecords returns the teacher's confirmed lesson records whose
// parent lesson starts within [periodStart, periodEnd] inclusive, joined with
// the enrollment facts the pause rule needs.
func (r *Repository) GetConfirmedRecords(ctx context.Context, teacherID int64, periodStart, periodEnd time.Time) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT rec.id, rec.lesson_id, l.teacher_id, l.enrollment_id,
		       l.start_at, l.duration_minutes, rec.actual_minutes, rec.status,
		       e.lesson_type, e.paused_at
		FROM lesson_records rec
		JOIN lessons l ON l.id = rec.lesson_id
		JOIN enrollments e ON e.id = l.enrollment_id
		WHERE l.teacher_id = $1
		  AND rec.status = $2
		  AND l.start_at >= $3 AND l.start_at <= $4
		ORDER BY l.start_at, rec.id`,
		teacherID, RecordConfirmed, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("payroll: get records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.LessonID, &rec.TeacherID, &rec.EnrollmentID,
			&rec.LessonStartAt, &rec.LessonMinutes, &rec.ActualMinutes, &rec.Status,
			&rec.LessonType, &rec.EnrollmentPause); err != nil {
			return nil, fmt.Errorf("payroll: scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// GetScheduledLessons returns the teacher's non-cancelled lessons in the
// period, used solely for the estimated-hours reconciliation figure.
func (r *Repository) GetScheduledLessons(ctx context.Context, teacherID int64, periodStart, periodEnd time.Time) ([]ScheduledLesson, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT l.id, l.start_at, l.duration_minutes, e.lesson_type, e.paused_at
		FROM lessons l
		JOIN enrollments e ON e.id = l.enrollment_id
		WHERE l.teacher_id = $1
		  AND l.status <> 'CANCELLED'
		  AND l.start_at >= $2 AND l.start_at <= $3
		ORDER BY l.start_at`,
		teacherID, periodStart, periodEnd)
	if err != nil {
		return nil, fmt.Errorf("payroll: get scheduled lessons: %w", err)
	}
	defer rows.Close()

	var lessons []ScheduledLesson
	for rows.Next() {
		var l ScheduledLesson
		if err := rows.Scan(&l.ID, &l.StartAt, &l.DurationMinutes, &l.LessonType, &l.EnrollmentPause); err != nil {
			return nil, fmt.Errorf("payroll: scan scheduled lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

// LoadHolidays reads the shared holiday calendar for a date range. Used as
// the cache loader.
func (r *Repository) LoadHolidays(ctx context.Context, rangeStart, rangeEnd time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT holiday_date::text FROM holidays
		WHERE holiday_date >= $1::date AND holiday_date <= $2::date
		ORDER BY holiday_date`,
		rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("payroll: load holidays: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("payroll: scan holiday: %w", err)
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// UpsertSummary persists the monthly computation result.
func (r *Repository) UpsertSummary(ctx context.Context, summary Summary) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO teacher_payment_summaries (teacher_id, year, month, registered_hours, payable_amount, payment_status, computed_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (teacher_id, year, month) DO UPDATE SET
			registered_hours = EXCLUDED.registered_hours,
			payable_amount = EXCLUDED.payable_amount,
			payment_status = EXCLUDED.payment_status,
			computed_at = NOW()`,
		summary.TeacherID, summary.Year, int(summary.Month),
		summary.RegisteredHours, summary.PayableAmount, summary.Status)
	if err != nil {
		return fmt.Errorf("payroll: upsert summary: %w", err)
	}
	return nil
}
