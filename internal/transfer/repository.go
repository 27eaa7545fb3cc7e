package transfer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lessonflow/lessonflow/internal/platform/db"
	"github.com/lessonflow/lessonflow/internal/scheduling"
	"github.com/lessonflow/lessonflow/internal/shared"
)

// Repository provides PostgreSQL backed persistence for transfers.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetTeacherName fetches a teacher's display name.
func (r *Repository) GetTeacherName(ctx context.Context, teacherID int64) (string, error) {
	var name string
	err := r.pool.QueryRow(ctx, `SELECT name FROM teachers WHERE id = $1`, teacherID).Scan(&name)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", fmt.Errorf("teacher %d: %w", teacherID, shared.ErrNotFound)
	}
	if err != nil {
		return "", fmt.Errorf("transfer: get teacher name: %w", err)
	}
	return name, nil
}

const lessonColumns = `
	l.id, l.teacher_id, l.enrollment_id, COALESCE(e.student_name, ''),
	l.start_at, l.duration_minutes, l.status, l.created_at, l.updated_at`

// GetSourceLessons returns all of the teacher's lessons from the instant
// onward, every status included.
func (r *Repository) GetSourceLessons(ctx context.Context, teacherID int64, from time.Time) ([]scheduling.Lesson, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lessonColumns+`
		FROM lessons l
		LEFT JOIN enrollments e ON e.id = l.enrollment_id
		WHERE l.teacher_id = $1 AND l.start_at >= $2
		ORDER BY l.start_at`, teacherID, from)
	if err != nil {
		return nil, fmt.Errorf("transfer: get source lessons: %w", err)
	}
	defer rows.Close()
	return scanLessons(rows)
}

// GetTeacherSlots returns the destination teacher's weekly availability.
func (r *Repository) GetTeacherSlots(ctx context.Context, teacherID int64) ([]scheduling.AvailabilitySlot, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, teacher_id, day_of_week, start_minute, end_minute
		FROM availability_slots
		WHERE teacher_id = $1
		ORDER BY day_of_week, start_minute`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("transfer: get slots: %w", err)
	}
	defer rows.Close()

	var slots []scheduling.AvailabilitySlot
	for rows.Next() {
		var s scheduling.AvailabilitySlot
		if err := rows.Scan(&s.ID, &s.TeacherID, &s.DayOfWeek, &s.StartMinute, &s.EndMinute); err != nil {
			return nil, fmt.Errorf("transfer: scan slot: %w", err)
		}
		slots = append(slots, s)
	}
	return slots, rows.Err()
}

// GetTeacherLessons returns the teacher's non-cancelled lessons from the
// instant onward; a zero from returns the whole calendar.
func (r *Repository) GetTeacherLessons(ctx context.Context, teacherID int64, from time.Time) ([]scheduling.Lesson, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+lessonColumns+`
		FROM lessons l
		LEFT JOIN enrollments e ON e.id = l.enrollment_id
		WHERE l.teacher_id = $1
		  AND l.status <> 'CANCELLED'
		  AND ($2::timestamptz IS NULL OR l.start_at >= $2)
		ORDER BY l.start_at`, teacherID, nullableTime(from))
	if err != nil {
		return nil, fmt.Errorf("transfer: get lessons: %w", err)
	}
	defer rows.Close()
	return scanLessons(rows)
}

// ReassignLessons moves the lessons to the destination teacher and appends
// the audit entries, all or nothing, under serializable isolation. A
// concurrent insert that would make the move conflict surfaces as a
// TransferAbortedError through the overlap exclusion constraint.
func (r *Repository) ReassignLessons(ctx context.Context, lessonIDs []int64, destTeacherID int64, entries []shared.AuditEntry) (int, error) {
	var count int
	err := db.WithSerializableTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			UPDATE lessons SET teacher_id = $1, updated_at = NOW()
			WHERE id = ANY($2)`, destTeacherID, lessonIDs)
		if err != nil {
			if isOverlapViolation(err) {
				return &shared.TransferAbortedError{Reason: "destination schedule changed during transfer"}
			}
			return fmt.Errorf("transfer: reassign lessons: %w", err)
		}
		count = int(tag.RowsAffected())
		for _, entry := range entries {
			if _, err := shared.AppendAudit(ctx, tx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func scanLessons(rows pgx.Rows) ([]scheduling.Lesson, error) {
	var lessons []scheduling.Lesson
	for rows.Next() {
		var l scheduling.Lesson
		if err := rows.Scan(&l.ID, &l.TeacherID, &l.EnrollmentID, &l.StudentName,
			&l.StartAt, &l.DurationMinutes, &l.Status, &l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("transfer: scan lesson: %w", err)
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

func isOverlapViolation(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23P01" || pgErr.Code == "23505"
}
