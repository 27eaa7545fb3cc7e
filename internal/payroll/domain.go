package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecordStatus enumerates lesson record states.
type RecordStatus string

const (
	RecordConfirmed RecordStatus = "CONFIRMED"
	RecordCancelled RecordStatus = "CANCELLED"
)

// PaymentStatus enumerates monthly payment states, kept in the source
// system's vocabulary.
type PaymentStatus string

const (
	PaymentPaid PaymentStatus = "PAGO"
	PaymentOpen PaymentStatus = "EM_ABERTO"
)

// LessonType distinguishes individual from group enrollments.
type LessonType string

const (
	LessonIndividual LessonType = "INDIVIDUAL"
	LessonGroup      LessonType = "GROUP"
)

// TeacherRate is the payroll view of a teacher.
type TeacherRate struct {
	ID         int64
	Name       string
	HourlyRate decimal.NullDecimal
}

// Record is one confirmed-occurrence fact, joined with enough of its parent
// lesson and enrollment to filter without further fetches. It is ground
// truth for payment; scheduled lessons are a reconciliation signal only.
type Record struct {
	ID              int64
	LessonID        int64
	TeacherID       int64
	EnrollmentID    int64
	LessonStartAt   time.Time
	LessonMinutes   int
	ActualMinutes   *int
	Status          RecordStatus
	LessonType      LessonType
	EnrollmentPause *time.Time
}

// Minutes returns the record's billable minutes, falling back to the parent
// lesson's duration when no actual duration was registered.
func (r Record) Minutes() int {
	if r.ActualMinutes != nil {
		return *r.ActualMinutes
	}
	return r.LessonMinutes
}

// ScheduledLesson is the slice of a lesson the estimator needs. It carries
// the same enrollment facts as Record so estimated hours pass through the
// same holiday and pause filters as registered hours.
type ScheduledLesson struct {
	ID              int64
	StartAt         time.Time
	DurationMinutes int
	LessonType      LessonType
	EnrollmentPause *time.Time
}

// PaymentMonth is the per-teacher, per-(year, month) override record. When
// present its window and amounts supersede the teacher's defaults for that
// computation only.
type PaymentMonth struct {
	TeacherID    int64
	Year         int
	Month        time.Month
	PeriodStart  *time.Time
	PeriodEnd    *time.Time
	PeriodAmount decimal.NullDecimal
	ExtraAmount  decimal.NullDecimal
	Status       PaymentStatus
}

// Statement is the payable computation output for one teacher and period.
type Statement struct {
	TeacherID       int64
	PeriodStart     time.Time
	PeriodEnd       time.Time
	RegisteredHours decimal.Decimal
	RegisteredCount int
	EstimatedHours  decimal.Decimal
	EstimatedCount  int
	PayableAmount   decimal.Decimal
	Status          PaymentStatus
}

// Summary is the persisted monthly result.
type Summary struct {
	TeacherID       int64
	Year            int
	Month           time.Month
	RegisteredHours decimal.Decimal
	PayableAmount   decimal.Decimal
	Status          PaymentStatus
}
