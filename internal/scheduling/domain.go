package scheduling

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/lessonflow/lessonflow/internal/schedtime"
)

// TeacherStatus enumerates teacher lifecycle states.
type TeacherStatus string

const (
	TeacherActive   TeacherStatus = "ACTIVE"
	TeacherInactive TeacherStatus = "INACTIVE"
)

// LessonStatus enumerates scheduled lesson states. Lessons are never hard
// deleted; cancellation is a status change.
type LessonStatus string

const (
	LessonConfirmed LessonStatus = "CONFIRMED"
	LessonCancelled LessonStatus = "CANCELLED"
	LessonMakeup    LessonStatus = "MAKEUP"
)

// DefaultLessonMinutes applies when a lesson carries no explicit duration.
const DefaultLessonMinutes = 60

// Teacher model. Created and edited by admin workflows; read-only here.
type Teacher struct {
	ID         int64
	Name       string
	HourlyRate decimal.NullDecimal
	Status     TeacherStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AvailabilitySlot is a recurring weekly interval in which a teacher accepts
// lessons. A teacher with zero slots is available at any time; that is
// explicit policy, not an edge case.
type AvailabilitySlot struct {
	ID          int64
	TeacherID   int64
	DayOfWeek   int
	StartMinute int
	EndMinute   int
}

// WeeklySlot is a slot requirement detached from any teacher, used when
// matching the whole pool against a recurring schedule.
type WeeklySlot struct {
	DayOfWeek   int
	StartMinute int
	EndMinute   int
}

// Lesson is one scheduled occurrence between a teacher and an enrollment.
// StudentName is denormalised from the enrollment so conflict reasons can
// name the counterpart without a second fetch.
type Lesson struct {
	ID              int64
	TeacherID       int64
	EnrollmentID    int64
	StudentName     string
	StartAt         time.Time
	DurationMinutes int
	Status          LessonStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Window returns the lesson's effective [start, end) interval.
func (l Lesson) Window() (time.Time, time.Time) {
	minutes := l.DurationMinutes
	if minutes <= 0 {
		minutes = DefaultLessonMinutes
	}
	return l.StartAt, l.StartAt.Add(time.Duration(minutes) * time.Minute)
}

// CandidateWindow is an absolute lesson window under evaluation.
type CandidateWindow struct {
	StartAt         time.Time
	DurationMinutes int
}

// Bounds returns the candidate's [start, end) interval.
func (w CandidateWindow) Bounds() (time.Time, time.Time) {
	return w.StartAt, w.StartAt.Add(time.Duration(w.DurationMinutes) * time.Minute)
}

// dayMinutes derives the weekly-grid coordinates of the candidate in the
// canonical schedule timezone.
func (w CandidateWindow) dayMinutes() (dow, startMinute, endMinute int) {
	dow = schedtime.DayOfWeek(w.StartAt)
	startMinute = schedtime.MinuteOfDay(w.StartAt)
	return dow, startMinute, startMinute + w.DurationMinutes
}

// Availability is the outcome of a conflict-resolver check.
type Availability struct {
	Available           bool
	Reason              string
	ConflictingLessonID int64
}

// CreateLessonInput carries the fields needed to schedule a lesson.
type CreateLessonInput struct {
	TeacherID       int64
	EnrollmentID    int64
	StartAt         time.Time
	DurationMinutes int
	Status          LessonStatus
}
