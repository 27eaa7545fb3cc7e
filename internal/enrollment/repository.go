package enrollment

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository provides PostgreSQL backed persistence for enrollments.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListActiveEnrollments returns enrollments in ACTIVE status ordered by id.
func (r *Repository) ListActiveEnrollments(ctx context.Context) ([]Enrollment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, student_name, status, paused_at, lesson_type, COALESCE(group_name, ''), created_at, updated_at
		FROM enrollments
		WHERE status = $1
		ORDER BY id`, StatusActive)
	if err != nil {
		return nil, fmt.Errorf("enrollment: list active: %w", err)
	}
	defer rows.Close()

	var enrollments []Enrollment
	for rows.Next() {
		var e Enrollment
		if err := rows.Scan(&e.ID, &e.StudentName, &e.Status, &e.PausedAt,
			&e.Type, &e.GroupName, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("enrollment: scan: %w", err)
		}
		enrollments = append(enrollments, e)
	}
	return enrollments, rows.Err()
}

// CoveredEnrollmentIDs returns ids with at least one non-cancelled,
// teacher-assigned lesson in the half-open week window.
func (r *Repository) CoveredEnrollmentIDs(ctx context.Context, weekStart, weekEnd time.Time) (map[int64]bool, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT enrollment_id
		FROM lessons
		WHERE status <> 'CANCELLED'
		  AND teacher_id IS NOT NULL
		  AND start_at >= $1 AND start_at < $2`, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("enrollment: covered ids: %w", err)
	}
	defer rows.Close()

	covered := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("enrollment: scan covered id: %w", err)
		}
		covered[id] = true
	}
	return covered, rows.Err()
}
