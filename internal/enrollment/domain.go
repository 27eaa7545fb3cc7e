package enrollment

import "time"

// Status enumerates the enrollment lifecycle.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusPaused    Status = "PAUSED"
	StatusFinished  Status = "FINISHED"
	StatusCancelled Status = "CANCELLED"
)

// LessonType distinguishes individual from group enrollments.
type LessonType string

const (
	TypeIndividual LessonType = "INDIVIDUAL"
	TypeGroup      LessonType = "GROUP"
)

// Enrollment model. GroupName is meaningful only when Type is GROUP.
type Enrollment struct {
	ID          int64
	StudentName string
	Status      Status
	PausedAt    *time.Time
	Type        LessonType
	GroupName   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Coverage reports whether one enrollment has a teacher assigned this week.
type Coverage struct {
	EnrollmentID int64
	StudentName  string
	GroupName    string
	HasTeacher   bool
}
