package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lessonflow/lessonflow/internal/scheduling"
	"github.com/lessonflow/lessonflow/internal/shared"
)

// RepositoryPort defines data access for schedule transfers.
type RepositoryPort interface {
	GetTeacherName(ctx context.Context, teacherID int64) (string, error)
	// GetSourceLessons returns every lesson of the teacher starting at or
	// after from, all statuses included: cancelled lessons carry no conflict
	// risk and transfer purely for historical continuity.
	GetSourceLessons(ctx context.Context, teacherID int64, from time.Time) ([]scheduling.Lesson, error)
	GetTeacherSlots(ctx context.Context, teacherID int64) ([]scheduling.AvailabilitySlot, error)
	// GetTeacherLessons returns only non-cancelled lessons.
	GetTeacherLessons(ctx context.Context, teacherID int64, from time.Time) ([]scheduling.Lesson, error)
	// ReassignLessons moves the lessons to the destination and appends one
	// audit entry per lesson, all inside a single serializable transaction.
	ReassignLessons(ctx context.Context, lessonIDs []int64, destTeacherID int64, entries []shared.AuditEntry) (int, error)
}

// RefreshEnqueuer schedules payroll summary recomputation after a transfer.
type RefreshEnqueuer interface {
	EnqueuePayrollRefresh(ctx context.Context, teacherID int64) error
}

// Service orchestrates the transfer workflow: validate every future lesson
// against the destination, then commit all of them or none.
type Service struct {
	logger   *slog.Logger
	repo     RepositoryPort
	enqueuer RefreshEnqueuer
}

// NewService builds a Service instance. enqueuer may be nil.
func NewService(logger *slog.Logger, repo RepositoryPort, enqueuer RefreshEnqueuer) *Service {
	return &Service{logger: logger, repo: repo, enqueuer: enqueuer}
}

// TransferSchedule reassigns the source teacher's whole future schedule to
// the destination. Validation failure aborts with no writes; success moves
// every lesson, cancelled ones included, and appends an audit entry per
// lesson. The write runs under serializable isolation, and the database's
// overlap exclusion constraint backstops anything created between validation
// and commit.
func (s *Service) TransferSchedule(ctx context.Context, input Input) (Result, error) {
	if input.SourceTeacherID == 0 || input.DestTeacherID == 0 {
		return Result{}, shared.Validationf("source and destination teacher ids required")
	}
	if input.SourceTeacherID == input.DestTeacherID {
		return Result{}, shared.Validationf("source and destination must differ")
	}
	if input.From.IsZero() {
		return Result{}, shared.Validationf("from date required")
	}
	if input.Actor == "" {
		return Result{}, shared.Validationf("actor required")
	}

	sourceName, err := s.repo.GetTeacherName(ctx, input.SourceTeacherID)
	if err != nil {
		return Result{}, err
	}
	destName, err := s.repo.GetTeacherName(ctx, input.DestTeacherID)
	if err != nil {
		return Result{}, err
	}

	lessons, err := s.repo.GetSourceLessons(ctx, input.SourceTeacherID, input.From)
	if err != nil {
		return Result{}, err
	}
	if len(lessons) == 0 {
		return Result{TransferredCount: 0}, nil
	}

	destSlots, err := s.repo.GetTeacherSlots(ctx, input.DestTeacherID)
	if err != nil {
		return Result{}, err
	}
	destLessons, err := s.repo.GetTeacherLessons(ctx, input.DestTeacherID, time.Time{})
	if err != nil {
		return Result{}, err
	}

	for _, lesson := range lessons {
		if lesson.Status == scheduling.LessonCancelled {
			continue
		}
		result := scheduling.Evaluate(scheduling.CandidateWindow{
			StartAt:         lesson.StartAt,
			DurationMinutes: lesson.DurationMinutes,
		}, destSlots, destLessons, 0)
		if !result.Available {
			return Result{}, &shared.TransferAbortedError{
				LessonID: lesson.ID,
				StartAt:  lesson.StartAt,
				Reason:   result.Reason,
			}
		}
	}

	ids := make([]int64, 0, len(lessons))
	entries := make([]shared.AuditEntry, 0, len(lessons))
	detail := fmt.Sprintf("transferred from %s to %s", sourceName, destName)
	for _, lesson := range lessons {
		ids = append(ids, lesson.ID)
		entries = append(entries, shared.AuditEntry{
			LessonID: lesson.ID,
			Actor:    input.Actor,
			Action:   "lesson.transfer",
			Detail:   detail,
		})
	}

	count, err := s.repo.ReassignLessons(ctx, ids, input.DestTeacherID, entries)
	if err != nil {
		return Result{}, err
	}

	s.enqueueRefresh(ctx, input.SourceTeacherID)
	s.enqueueRefresh(ctx, input.DestTeacherID)

	return Result{TransferredCount: count}, nil
}

// FindCandidates lists teachers able to absorb the source teacher's whole
// future schedule, reusing the conflict resolver's pool scan.
func (s *Service) FindCandidates(ctx context.Context, scheduler *scheduling.Service, sourceTeacherID int64, from time.Time) ([]scheduling.Teacher, error) {
	if sourceTeacherID == 0 {
		return nil, shared.Validationf("source teacher id required")
	}
	if from.IsZero() {
		return nil, shared.Validationf("from date required")
	}
	lessons, err := s.repo.GetSourceLessons(ctx, sourceTeacherID, from)
	if err != nil {
		return nil, err
	}
	required := RequiredWeeklySlots(lessons)
	if len(required) == 0 {
		return nil, nil
	}
	return scheduler.FindTeachersCoveringAllSlots(ctx, required, sourceTeacherID, from)
}

func (s *Service) enqueueRefresh(ctx context.Context, teacherID int64) {
	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.EnqueuePayrollRefresh(ctx, teacherID); err != nil {
		s.logger.Warn("enqueue payroll refresh", slog.Any("error", err), slog.Int64("teacher_id", teacherID))
	}
}
