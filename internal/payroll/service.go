package payroll

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/shared"
)

var sixty = decimal.NewFromInt(60)

// RepositoryPort defines data access for payroll.
type RepositoryPort interface {
	GetTeacherRate(ctx context.Context, teacherID int64) (*TeacherRate, error)
	// GetPaymentMonth returns nil when no override exists for the pair.
	GetPaymentMonth(ctx context.Context, teacherID int64, year int, month time.Month) (*PaymentMonth, error)
	GetConfirmedRecords(ctx context.Context, teacherID int64, periodStart, periodEnd time.Time) ([]Record, error)
	GetScheduledLessons(ctx context.Context, teacherID int64, periodStart, periodEnd time.Time) ([]ScheduledLesson, error)
	UpsertSummary(ctx context.Context, summary Summary) error
}

// HolidaySource yields the shared holiday calendar as a set of date keys.
// There is one calendar for the whole school; per-teacher calendars are an
// explicit non-feature.
type HolidaySource interface {
	Holidays(ctx context.Context, rangeStart, rangeEnd time.Time) (map[string]struct{}, error)
}

// Service computes teacher payables for billing periods.
type Service struct {
	repo     RepositoryPort
	holidays HolidaySource
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort, holidays HolidaySource) *Service {
	return &Service{repo: repo, holidays: holidays}
}

// ComputeInput carries everything the pure computation needs. Fixed inputs
// always produce bit-identical output; now never leaks in here.
type ComputeInput struct {
	TeacherID    int64
	PeriodStart  time.Time
	PeriodEnd    time.Time
	Records      []Record
	Scheduled    []ScheduledLesson
	HolidaySet   map[string]struct{}
	HourlyRate   decimal.Decimal
	PeriodAmount decimal.Decimal
	ExtraAmount  decimal.Decimal
	Status       PaymentStatus
}

// Compute is the pure proration core. Registered hours come from confirmed
// records after holiday exclusion and paused-enrollment truncation; estimated
// hours come from scheduled lessons through the same filters and never feed
// the payable amount.
func Compute(in ComputeInput) (Statement, error) {
	var registeredMinutes int64
	var registeredCount int
	for _, record := range in.Records {
		if record.TeacherID != in.TeacherID {
			continue
		}
		if record.Status != RecordConfirmed {
			continue
		}
		if !schedtime.PeriodContains(in.PeriodStart, in.PeriodEnd, record.LessonStartAt) {
			continue
		}
		dateKey := schedtime.DateKey(record.LessonStartAt)
		if _, holiday := in.HolidaySet[dateKey]; holiday {
			continue
		}
		if pauseExcludes(record.LessonType, record.EnrollmentPause, dateKey) {
			continue
		}
		minutes := record.Minutes()
		if minutes < 0 {
			return Statement{}, fmt.Errorf("%w: record %d has negative minutes", shared.ErrComputationInconsistency, record.ID)
		}
		registeredMinutes += int64(minutes)
		registeredCount++
	}

	var estimatedMinutes int64
	var estimatedCount int
	for _, lesson := range in.Scheduled {
		if !schedtime.PeriodContains(in.PeriodStart, in.PeriodEnd, lesson.StartAt) {
			continue
		}
		dateKey := schedtime.DateKey(lesson.StartAt)
		if _, holiday := in.HolidaySet[dateKey]; holiday {
			continue
		}
		if pauseExcludes(lesson.LessonType, lesson.EnrollmentPause, dateKey) {
			continue
		}
		if lesson.DurationMinutes < 0 {
			return Statement{}, fmt.Errorf("%w: lesson %d has negative duration", shared.ErrComputationInconsistency, lesson.ID)
		}
		estimatedMinutes += int64(lesson.DurationMinutes)
		estimatedCount++
	}

	registeredHours := decimal.NewFromInt(registeredMinutes).Div(sixty).Round(2)
	estimatedHours := decimal.NewFromInt(estimatedMinutes).Div(sixty).Round(2)

	// Each additive term is rounded once; rounding is never compounded
	// across terms.
	payable := registeredHours.Mul(in.HourlyRate).Round(2).
		Add(in.PeriodAmount).
		Add(in.ExtraAmount)

	return Statement{
		TeacherID:       in.TeacherID,
		PeriodStart:     in.PeriodStart,
		PeriodEnd:       in.PeriodEnd,
		RegisteredHours: registeredHours,
		RegisteredCount: registeredCount,
		EstimatedHours:  estimatedHours,
		EstimatedCount:  estimatedCount,
		PayableAmount:   payable,
		Status:          in.Status,
	}, nil
}

// pauseExcludes applies the paused-enrollment rule: for an individual
// enrollment, lessons dated on or after the pause date stopped being billed
// even when a record exists. Registered and estimated hours share it.
func pauseExcludes(lessonType LessonType, pause *time.Time, dateKey string) bool {
	if lessonType == LessonGroup {
		return false
	}
	if pause == nil {
		return false
	}
	return dateKey >= schedtime.DateKey(*pause)
}

// ComputeStatement resolves the teacher's period and rates, loads the facts,
// and runs the pure computation. A zero year or month defaults to the
// calendar month containing now in the schedule timezone.
func (s *Service) ComputeStatement(ctx context.Context, teacherID int64, year int, month time.Month, now time.Time) (Statement, error) {
	if teacherID == 0 {
		return Statement{}, shared.Validationf("teacher id required")
	}
	if now.IsZero() {
		return Statement{}, shared.Validationf("reference time required")
	}
	if year == 0 || month == 0 {
		local := schedtime.In(now)
		year, month = local.Year(), local.Month()
	}
	if month < time.January || month > time.December {
		return Statement{}, shared.Validationf("month %d out of range", month)
	}

	teacher, err := s.repo.GetTeacherRate(ctx, teacherID)
	if err != nil {
		return Statement{}, err
	}

	periodStart, periodEnd := schedtime.MonthBounds(year, month)
	periodAmount := decimal.Zero
	extraAmount := decimal.Zero
	status := PaymentOpen

	override, err := s.repo.GetPaymentMonth(ctx, teacherID, year, month)
	if err != nil {
		return Statement{}, err
	}
	if override != nil {
		if override.PeriodStart != nil && override.PeriodEnd != nil {
			periodStart, periodEnd = *override.PeriodStart, *override.PeriodEnd
		}
		if override.PeriodAmount.Valid {
			periodAmount = override.PeriodAmount.Decimal
		}
		if override.ExtraAmount.Valid {
			extraAmount = override.ExtraAmount.Decimal
		}
		if override.Status != "" {
			status = override.Status
		}
	}

	records, err := s.repo.GetConfirmedRecords(ctx, teacherID, periodStart, periodEnd)
	if err != nil {
		return Statement{}, err
	}
	scheduled, err := s.repo.GetScheduledLessons(ctx, teacherID, periodStart, periodEnd)
	if err != nil {
		return Statement{}, err
	}
	holidaySet, err := s.holidays.Holidays(ctx, periodStart, periodEnd)
	if err != nil {
		return Statement{}, err
	}

	rate := decimal.Zero
	if teacher.HourlyRate.Valid {
		rate = teacher.HourlyRate.Decimal
	}

	return Compute(ComputeInput{
		TeacherID:    teacherID,
		PeriodStart:  periodStart,
		PeriodEnd:    periodEnd,
		Records:      records,
		Scheduled:    scheduled,
		HolidaySet:   holidaySet,
		HourlyRate:   rate,
		PeriodAmount: periodAmount,
		ExtraAmount:  extraAmount,
		Status:       status,
	})
}

// ClosePaymentMonth computes the statement and persists the monthly summary.
func (s *Service) ClosePaymentMonth(ctx context.Context, teacherID int64, year int, month time.Month, now time.Time) (Statement, error) {
	statement, err := s.ComputeStatement(ctx, teacherID, year, month, now)
	if err != nil {
		return Statement{}, err
	}
	if year == 0 || month == 0 {
		local := schedtime.In(now)
		year, month = local.Year(), local.Month()
	}
	err = s.repo.UpsertSummary(ctx, Summary{
		TeacherID:       teacherID,
		Year:            year,
		Month:           month,
		RegisteredHours: statement.RegisteredHours,
		PayableAmount:   statement.PayableAmount,
		Status:          statement.Status,
	})
	if err != nil {
		return Statement{}, err
	}
	return statement, nil
}
