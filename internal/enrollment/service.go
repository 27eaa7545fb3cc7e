package enrollment

import (
	"context"
	"time"

	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/shared"
)

// RepositoryPort defines data access for enrollments.
type RepositoryPort interface {
	ListActiveEnrollments(ctx context.Context) ([]Enrollment, error)
	// CoveredEnrollmentIDs returns the ids of enrollments having at least one
	// non-cancelled lesson with an assigned teacher in [weekStart, weekEnd).
	CoveredEnrollmentIDs(ctx context.Context, weekStart, weekEnd time.Time) (map[int64]bool, error)
}

// Service produces weekly coverage reports.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// WeeklyCoverage reports, for every active enrollment, whether a teacher is
// assigned during the week containing ref, with group propagation applied.
func (s *Service) WeeklyCoverage(ctx context.Context, ref time.Time) ([]Coverage, error) {
	if ref.IsZero() {
		return nil, shared.Validationf("reference time required")
	}
	weekStart := schedtime.StartOfWeek(ref)
	weekEnd := weekStart.AddDate(0, 0, 7)

	enrollments, err := s.repo.ListActiveEnrollments(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := s.repo.CoveredEnrollmentIDs(ctx, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	covered := PropagateGroupCoverage(enrollments, raw)

	report := make([]Coverage, 0, len(enrollments))
	for _, e := range enrollments {
		report = append(report, Coverage{
			EnrollmentID: e.ID,
			StudentName:  e.StudentName,
			GroupName:    e.GroupName,
			HasTeacher:   covered[e.ID],
		})
	}
	return report, nil
}
