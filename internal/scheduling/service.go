package scheduling

import (
	"context"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/shared"
)

// RepositoryPort defines data access for scheduling.
type RepositoryPort interface {
	GetTeacher(ctx context.Context, id int64) (*Teacher, error)
	ListActiveTeachers(ctx context.Context) ([]Teacher, error)
	GetTeacherSlots(ctx context.Context, teacherID int64) ([]AvailabilitySlot, error)
	// GetTeacherLessons returns the teacher's non-cancelled lessons starting
	// at or after from. A zero from returns all of them.
	GetTeacherLessons(ctx context.Context, teacherID int64, from time.Time) ([]Lesson, error)
	CreateLesson(ctx context.Context, input CreateLessonInput) (*Lesson, error)
	CancelLesson(ctx context.Context, lessonID int64, actor string) (*Lesson, error)
}

// Service implements the availability and conflict resolver.
type Service struct {
	repo RepositoryPort
}

// NewService builds a Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// IsAvailable decides whether a teacher can take the candidate window.
// The overlap check runs first and short-circuits the slot check: an occupied
// calendar is a harder constraint than stated availability. excludeLessonID
// skips one lesson when re-validating an edit in place; zero excludes nothing.
func (s *Service) IsAvailable(ctx context.Context, teacherID int64, window CandidateWindow, excludeLessonID int64) (Availability, error) {
	if teacherID == 0 {
		return Availability{}, shared.Validationf("teacher id required")
	}
	if err := validateWindow(window); err != nil {
		return Availability{}, err
	}
	if _, err := s.repo.GetTeacher(ctx, teacherID); err != nil {
		return Availability{}, err
	}
	slots, err := s.repo.GetTeacherSlots(ctx, teacherID)
	if err != nil {
		return Availability{}, err
	}
	lessons, err := s.repo.GetTeacherLessons(ctx, teacherID, time.Time{})
	if err != nil {
		return Availability{}, err
	}
	return Evaluate(window, slots, lessons, excludeLessonID), nil
}

// Evaluate is the pure core of the conflict resolver.
func Evaluate(window CandidateWindow, slots []AvailabilitySlot, lessons []Lesson, excludeLessonID int64) Availability {
	candStart, candEnd := window.Bounds()

	for _, lesson := range lessons {
		if excludeLessonID != 0 && lesson.ID == excludeLessonID {
			continue
		}
		if lesson.Status == LessonCancelled {
			continue
		}
		start, end := lesson.Window()
		if schedtime.Overlaps(candStart, candEnd, start, end) {
			return Availability{
				Reason:              fmt.Sprintf("time conflicts with an existing lesson for %s", lesson.StudentName),
				ConflictingLessonID: lesson.ID,
			}
		}
	}

	if len(slots) == 0 {
		return Availability{Available: true}
	}

	dow, startMinute, endMinute := window.dayMinutes()
	for _, slot := range slots {
		if slot.DayOfWeek != dow {
			continue
		}
		// The lesson must fit entirely inside one slot; partial overlap with
		// a slot boundary is not sufficient.
		if startMinute >= slot.StartMinute && endMinute <= slot.EndMinute {
			return Availability{Available: true}
		}
	}
	return Availability{Reason: "outside the teacher's availability"}
}

// FindFreeTeachers returns active teachers who can cover a weekly-recurring
// window on every requested weekday. Each weekday is checked on its next
// future occurrence after now, so one-off past bookings never mask a match.
func (s *Service) FindFreeTeachers(ctx context.Context, days []int, startMinute, endMinute int, now time.Time) ([]Teacher, error) {
	if len(days) == 0 {
		return nil, shared.Validationf("at least one day required")
	}
	for _, d := range days {
		if !schedtime.ValidDayOfWeek(d) {
			return nil, shared.Validationf("day of week %d out of range", d)
		}
	}
	if !schedtime.ValidMinuteRange(startMinute, endMinute) {
		return nil, shared.Validationf("minute range [%d, %d) invalid", startMinute, endMinute)
	}

	pool, err := s.repo.ListActiveTeachers(ctx)
	if err != nil {
		return nil, err
	}

	var free []Teacher
	for _, teacher := range pool {
		ok, err := s.coversWeekdays(ctx, teacher.ID, days, startMinute, endMinute, now)
		if err != nil {
			return nil, err
		}
		if ok {
			free = append(free, teacher)
		}
	}
	return free, nil
}

func (s *Service) coversWeekdays(ctx context.Context, teacherID int64, days []int, startMinute, endMinute int, now time.Time) (bool, error) {
	slots, err := s.repo.GetTeacherSlots(ctx, teacherID)
	if err != nil {
		return false, err
	}
	lessons, err := s.repo.GetTeacherLessons(ctx, teacherID, now)
	if err != nil {
		return false, err
	}
	for _, day := range days {
		date := schedtime.NextWeekday(now, day)
		window := CandidateWindow{
			StartAt:         date.Add(time.Duration(startMinute) * time.Minute),
			DurationMinutes: endMinute - startMinute,
		}
		if result := Evaluate(window, slots, lessons, 0); !result.Available {
			return false, nil
		}
	}
	return true, nil
}

// FindTeachersCoveringAllSlots returns active teachers able to take every
// required weekly slot from the given date onward. Teachers are evaluated
// independently and in parallel; results are ordered by teacher id so the
// outcome never depends on evaluation order.
func (s *Service) FindTeachersCoveringAllSlots(ctx context.Context, required []WeeklySlot, excludeTeacherID int64, from time.Time) ([]Teacher, error) {
	if len(required) == 0 {
		return nil, shared.Validationf("at least one required slot")
	}
	for _, slot := range required {
		if !schedtime.ValidDayOfWeek(slot.DayOfWeek) {
			return nil, shared.Validationf("day of week %d out of range", slot.DayOfWeek)
		}
		if !schedtime.ValidMinuteRange(slot.StartMinute, slot.EndMinute) {
			return nil, shared.Validationf("minute range [%d, %d) invalid", slot.StartMinute, slot.EndMinute)
		}
	}

	pool, err := s.repo.ListActiveTeachers(ctx)
	if err != nil {
		return nil, err
	}

	qualified := make([]bool, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	for i, teacher := range pool {
		if teacher.ID == excludeTeacherID {
			continue
		}
		g.Go(func() error {
			ok, err := s.coversAllSlots(gctx, teacher.ID, required, from)
			if err != nil {
				return err
			}
			qualified[i] = ok
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var result []Teacher
	for i, teacher := range pool {
		if qualified[i] {
			result = append(result, teacher)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (s *Service) coversAllSlots(ctx context.Context, teacherID int64, required []WeeklySlot, from time.Time) (bool, error) {
	slots, err := s.repo.GetTeacherSlots(ctx, teacherID)
	if err != nil {
		return false, err
	}
	lessons, err := s.repo.GetTeacherLessons(ctx, teacherID, from)
	if err != nil {
		return false, err
	}
	for _, req := range required {
		if len(slots) > 0 && !slotContained(req, slots) {
			return false, nil
		}
		if weeklyConflict(req, lessons) {
			return false, nil
		}
	}
	return true, nil
}

func slotContained(req WeeklySlot, slots []AvailabilitySlot) bool {
	for _, slot := range slots {
		if slot.DayOfWeek == req.DayOfWeek &&
			req.StartMinute >= slot.StartMinute && req.EndMinute <= slot.EndMinute {
			return true
		}
	}
	return false
}

func weeklyConflict(req WeeklySlot, lessons []Lesson) bool {
	for _, lesson := range lessons {
		if lesson.Status == LessonCancelled {
			continue
		}
		if schedtime.DayOfWeek(lesson.StartAt) != req.DayOfWeek {
			continue
		}
		start := schedtime.MinuteOfDay(lesson.StartAt)
		minutes := lesson.DurationMinutes
		if minutes <= 0 {
			minutes = DefaultLessonMinutes
		}
		if schedtime.MinutesOverlap(req.StartMinute, req.EndMinute, start, start+minutes) {
			return true
		}
	}
	return false
}

// ScheduleLesson creates a lesson after a pre-flight availability check. The
// in-process check is an optimisation; the repository maps the database's
// overlap exclusion constraint to the same ConflictError at commit time.
func (s *Service) ScheduleLesson(ctx context.Context, input CreateLessonInput) (*Lesson, error) {
	if input.TeacherID == 0 {
		return nil, shared.Validationf("teacher id required")
	}
	if input.EnrollmentID == 0 {
		return nil, shared.Validationf("enrollment id required")
	}
	if input.StartAt.IsZero() {
		return nil, shared.Validationf("start time required")
	}
	if input.DurationMinutes == 0 {
		input.DurationMinutes = DefaultLessonMinutes
	}
	if input.DurationMinutes < 0 {
		return nil, shared.Validationf("duration must be positive")
	}
	if input.Status == "" {
		input.Status = LessonConfirmed
	}

	result, err := s.IsAvailable(ctx, input.TeacherID, CandidateWindow{
		StartAt:         input.StartAt,
		DurationMinutes: input.DurationMinutes,
	}, 0)
	if err != nil {
		return nil, err
	}
	if !result.Available {
		return nil, &shared.ConflictError{
			Reason:              result.Reason,
			ConflictingLessonID: result.ConflictingLessonID,
		}
	}

	return s.repo.CreateLesson(ctx, input)
}

// CancelLesson marks a lesson cancelled and appends an audit entry. The
// lesson row is never deleted.
func (s *Service) CancelLesson(ctx context.Context, lessonID int64, actor string) (*Lesson, error) {
	if lessonID == 0 {
		return nil, shared.Validationf("lesson id required")
	}
	if actor == "" {
		return nil, shared.Validationf("actor required")
	}
	return s.repo.CancelLesson(ctx, lessonID, actor)
}

func validateWindow(window CandidateWindow) error {
	if window.StartAt.IsZero() {
		return shared.Validationf("start time required")
	}
	if window.DurationMinutes <= 0 {
		return shared.Validationf("duration must be positive")
	}
	return nil
}
