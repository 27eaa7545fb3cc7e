package scheduling

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lessonflow/lessonflow/internal/platform/db"
	"github.com/lessonflow/lessonflow/internal/shared"
)

// Repository provides PostgreSQL backed persistence for scheduling.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const lessonColumns = `
	l.id, l.teacher_id, l.enrollment_id, COALESCE(e.student_name, ''),
	l.start_at, l.duration_minutes, l.status, l.created_at, l.updated_at`

// GetTeacher fetches one teacher by id.
func (r *Repository) GetTeacher(ctx context.Context, id int64) (*Teacher, error) {
	var t Teacher
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, hourly_rate, status, created_at, updated_at
		FROM teachers WHERE id = $1`, id,
	).Scan(&t.ID, &t.Name, &t.HourlyRate, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("teacher %d: %w", id, shared.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scheduling: get teacher: %w", err)
	}
	return &t, nil
}

// ListActiveTeachers returns the active pool ordered by id.
func (r *Repository) ListActiveTeachers(ctx context.Context) ([]Teacher, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, hourly_rate, status, created_at, updated_at
		FROM teachers WHERE status = $1 ORDER BY id`, TeacherActive)
	if err != nil {
		return nil, fmt.Errorf("scheduling: list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []Teacher
	for rows.Next() {
		var t Teacher
		if err := rows.Scan(&t.ID, &t.Name, &t.HourlyRate, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scheduling: scan teacher: %w", err)
		}
		teachers = append(teachers, t)
	}
	return teachers, rows.Err()
}

// GetTeacherSlots returns the teacher's recurring weekly availability.
func (r *Repository) GetTeacherSlots(ctx context.Context, teacherID int64) ([]AvailabilitySlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, teacher_id, day_of_week, start_minute, end_minute
		FROM availability_slots
		WHERE teacher_id = $1
		ORDER BY day_of_week, start_minute`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("scheduling: get slots: %w", err)
	}
	defer rows.Close()

	var slots []AvailabilitySlot
	for rows.Next() {
		var s AvailabilitySlot
		if err := rows.Scan(&s.ID, &s.TeacherID, &s.DayOfWeek, &s.StartMinute, &s.EndMinute); err != nil {
			return nil, fmt.Errorf("scheduling: scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// GetTeacherLessons returns the teacher's non-cancelled lessons from the
// given instant onward. A zero from returns the teacher's whole calendar.
func (r *Repository) GetTeacherLessons(ctx context.Context, teacherID int64, from time.Time) ([]Lesson, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lessonColumns+`
		FROM lessons l
		LEFT JOIN enrollments e ON e.id = l.enrollment_id
		WHERE l.teacher_id = $1
		  AND l.status <> $2
		  AND ($3::timestamptz IS NULL OR l.start_at >= $3)
		ORDER BY l.start_at`, teacherID, LessonCancelled, nullableTime(from))
	if err != nil {
		return nil, fmt.Errorf("scheduling: get lessons: %w", err)
	}
	defer rows.Close()
	return scanLessons(rows)
}

// CreateLesson inserts a lesson. The lessons table carries an exclusion
// constraint over (teacher_id, effective window) for non-cancelled statuses,
// so two racing inserts cannot both commit an overlap. That violation maps to
// the same ConflictError the pre-flight check produces.
func (r *Repository) CreateLesson(ctx context.Context, input CreateLessonInput) (*Lesson, error) {
	var lesson Lesson
	err := r.pool.QueryRow(ctx, `
		INSERT INTO lessons (teacher_id, enrollment_id, start_at, duration_minutes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW(), NOW())
		RETURNING id, created_at, updated_at`,
		input.TeacherID, input.EnrollmentID, input.StartAt, input.DurationMinutes, input.Status,
	).Scan(&lesson.ID, &lesson.CreatedAt, &lesson.UpdatedAt)
	if err != nil {
		if isOverlapViolation(err) {
			return nil, &shared.ConflictError{Reason: "time conflicts with an existing lesson"}
		}
		return nil, fmt.Errorf("scheduling: create lesson: %w", err)
	}
	lesson.TeacherID = input.TeacherID
	lesson.EnrollmentID = input.EnrollmentID
	lesson.StartAt = input.StartAt
	lesson.DurationMinutes = input.DurationMinutes
	lesson.Status = input.Status
	return &lesson, nil
}

// CancelLesson flips the lesson to CANCELLED and appends an audit entry in
// the same transaction.
func (r *Repository) CancelLesson(ctx context.Context, lessonID int64, actor string) (*Lesson, error) {
	var lesson Lesson
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `
			UPDATE lessons l SET status = $1, updated_at = NOW()
			FROM enrollments e
			WHERE l.id = $2 AND e.id = l.enrollment_id
			RETURNING `+lessonColumns,
			LessonCancelled, lessonID,
		).Scan(&lesson.ID, &lesson.TeacherID, &lesson.EnrollmentID, &lesson.StudentName,
			&lesson.StartAt, &lesson.DurationMinutes, &lesson.Status, &lesson.CreatedAt, &lesson.UpdatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("lesson %d: %w", lessonID, shared.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("scheduling: cancel lesson: %w", err)
		}
		_, err = shared.AppendAudit(ctx, tx, shared.AuditEntry{
			LessonID: lessonID,
			Actor:    actor,
			Action:   "lesson.cancel",
			Detail:   fmt.Sprintf("lesson on %s cancelled", lesson.StartAt.Format("2006-01-02 15:04")),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return &lesson, nil
}

func scanLessons(rows pgx.Rows) ([]Lesson, error) {
	var lessons []Lesson
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.TeacherID, &l.EnrollmentID, &l.StudentName,
			&l.StartAt, &l.DurationMinutes, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scheduling: scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

// isOverlapViolation detects the no_overlapping_teacher_lessons exclusion
// constraint (SQLSTATE 23P01) and plain unique violations (23505).
func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01" || pgErr.Code == "23505"
}
