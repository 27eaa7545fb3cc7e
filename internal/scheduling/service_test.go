package scheduling

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/shared"
	_ "github.com/lessonflow/lessonflow/testing"
)

type memorySchedulingRepo struct {
	teachers     map[int64]*Teacher
	slots        map[int64][]AvailabilitySlot
	lessons      map[int64][]Lesson
	nextLessonID int64
	cancelled    []int64
}

func newMemorySchedulingRepo() *memorySchedulingRepo {
	return &memorySchedulingRepo{
		teachers: make(map[int64]*Teacher),
		slots:    make(map[int64][]AvailabilitySlot),
		lessons:  make(map[int64][]Lesson),
	}
}

func (r *memorySchedulingRepo) addTeacher(id int64, name string) {
	r.teachers[id] = &Teacher{ID: id, Name: name, Status: TeacherActive}
}

func (r *memorySchedulingRepo) addSlot(teacherID int64, dow, start, end int) {
	r.slots[teacherID] = append(r.slots[teacherID], AvailabilitySlot{
		TeacherID: teacherID, DayOfWeek: dow, StartMinute: start, EndMinute: end,
	})
}

func (r *memorySchedulingRepo) addLesson(teacherID int64, student string, startAt time.Time, minutes int, status LessonStatus) Lesson {
	r.nextLessonID++
	lesson := Lesson{
		ID: r.nextLessonID, TeacherID: teacherID, EnrollmentID: r.nextLessonID,
		StudentName: student, StartAt: startAt, DurationMinutes: minutes, Status: status,
	}
	r.lessons[teacherID] = append(r.lessons[teacherID], lesson)
	return lesson
}

func (r *memorySchedulingRepo) GetTeacher(ctx context.Context, id int64) (*Teacher, error) {
	t, ok := r.teachers[id]
	if !ok {
		return nil, fmt.Errorf("teacher %d: %w", id, shared.ErrNotFound)
	}
	return t, nil
}

func (r *memorySchedulingRepo) ListActiveTeachers(ctx context.Context) ([]Teacher, error) {
	var out []Teacher
	for id := int64(1); id <= r.nextTeacherID(); id++ {
		if t, ok := r.teachers[id]; ok && t.Status == TeacherActive {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memorySchedulingRepo) nextTeacherID() int64 {
	var max int64
	for id := range r.teachers {
		if id > max {
			max = id
		}
	}
	return max
}

func (r *memorySchedulingRepo) GetTeacherSlots(ctx context.Context, teacherID int64) ([]AvailabilitySlot, error) {
	return r.slots[teacherID], nil
}

func (r *memorySchedulingRepo) GetTeacherLessons(ctx context.Context, teacherID int64, from time.Time) ([]Lesson, error) {
	var out []Lesson
	for _, l := range r.lessons[teacherID] {
		if l.Status == LessonCancelled {
			continue
		}
		if !from.IsZero() && l.StartAt.Before(from) {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (r *memorySchedulingRepo) CreateLesson(ctx context.Context, input CreateLessonInput) (*Lesson, error) {
	lesson := r.addLesson(input.TeacherID, "", input.StartAt, input.DurationMinutes, input.Status)
	return &lesson, nil
}

func (r *memorySchedulingRepo) CancelLesson(ctx context.Context, lessonID int64, actor string) (*Lesson, error) {
	for teacherID, lessons := range r.lessons {
		for i, l := range lessons {
			if l.ID == lessonID {
				r.lessons[teacherID][i].Status = LessonCancelled
				r.cancelled = append(r.cancelled, lessonID)
				out := r.lessons[teacherID][i]
				return &out, nil
			}
		}
	}
	return nil, fmt.Errorf("lesson %d: %w", lessonID, shared.ErrNotFound)
}

// mondayAt returns a schedule-local Monday at the given clock time.
func mondayAt(hour, minute int) time.Time {
	return time.Date(2025, 6, 2, hour, minute, 0, 0, schedtime.Location())
}

func TestIsAvailable_ConflictBeatsSlotCheck(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addSlot(1, 1, 540, 600) // Mon 09:00-10:00
	existing := repo.addLesson(1, "Pedro", mondayAt(9, 0), 60, LessonConfirmed)

	svc := NewService(repo)

	// Candidate Mon 09:30 for 30 min sits inside the slot but collides with
	// the existing lesson; the reason must name the counterpart.
	result, err := svc.IsAvailable(context.Background(), 1, CandidateWindow{
		StartAt: mondayAt(9, 30), DurationMinutes: 30,
	}, 0)
	require.NoError(t, err)
	require.False(t, result.Available)
	require.Contains(t, result.Reason, "Pedro")
	require.Equal(t, existing.ID, result.ConflictingLessonID)
}

func TestIsAvailable_FreeWeekInsideSlot(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addSlot(1, 1, 540, 600)
	repo.addLesson(1, "Pedro", mondayAt(9, 0), 60, LessonConfirmed)

	svc := NewService(repo)

	// Same window on a different Monday with no lesson that day.
	nextMonday := mondayAt(9, 0).AddDate(0, 0, 7)
	result, err := svc.IsAvailable(context.Background(), 1, CandidateWindow{
		StartAt: nextMonday, DurationMinutes: 60,
	}, 0)
	require.NoError(t, err)
	require.True(t, result.Available)
}

func TestIsAvailable_ZeroSlotsMeansAnyTime(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")

	svc := NewService(repo)

	result, err := svc.IsAvailable(context.Background(), 1, CandidateWindow{
		StartAt: mondayAt(3, 15), DurationMinutes: 45,
	}, 0)
	require.NoError(t, err)
	require.True(t, result.Available)
}

func TestIsAvailable_PartialSlotFitRejected(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addSlot(1, 1, 540, 600)

	svc := NewService(repo)

	// Starts inside the slot but runs past its end; partial fit is not a fit.
	result, err := svc.IsAvailable(context.Background(), 1, CandidateWindow{
		StartAt: mondayAt(9, 30), DurationMinutes: 60,
	}, 0)
	require.NoError(t, err)
	require.False(t, result.Available)
	require.Equal(t, "outside the teacher's availability", result.Reason)
}

func TestIsAvailable_CancelledLessonsIgnored(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addLesson(1, "Pedro", mondayAt(9, 0), 60, LessonCancelled)

	svc := NewService(repo)

	result, err := svc.IsAvailable(context.Background(), 1, CandidateWindow{
		StartAt: mondayAt(9, 0), DurationMinutes: 60,
	}, 0)
	require.NoError(t, err)
	require.True(t, result.Available)
}

func TestIsAvailable_ExcludeLessonForEditInPlace(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	existing := repo.addLesson(1, "Pedro", mondayAt(9, 0), 60, LessonConfirmed)

	svc := NewService(repo)

	result, err := svc.IsAvailable(context.Background(), 1, CandidateWindow{
		StartAt: mondayAt(9, 30), DurationMinutes: 30,
	}, existing.ID)
	require.NoError(t, err)
	require.True(t, result.Available)
}

func TestIsAvailable_ValidatesInput(t *testing.T) {
	svc := NewService(newMemorySchedulingRepo())

	_, err := svc.IsAvailable(context.Background(), 0, CandidateWindow{StartAt: mondayAt(9, 0), DurationMinutes: 60}, 0)
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.IsAvailable(context.Background(), 1, CandidateWindow{StartAt: mondayAt(9, 0), DurationMinutes: -30}, 0)
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestFindFreeTeachers_ChecksEveryRequestedDay(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addTeacher(2, "Carlos")
	// Marina covers Mon and Wed mornings; Carlos only Mon.
	repo.addSlot(1, 1, 480, 720)
	repo.addSlot(1, 3, 480, 720)
	repo.addSlot(2, 1, 480, 720)

	svc := NewService(repo)
	now := mondayAt(12, 0)

	free, err := svc.FindFreeTeachers(context.Background(), []int{1, 3}, 540, 600, now)
	require.NoError(t, err)
	require.Len(t, free, 1)
	require.Equal(t, "Marina", free[0].Name)
}

func TestFindFreeTeachers_BookedNextOccurrenceDisqualifies(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addSlot(1, 1, 480, 720)

	now := mondayAt(12, 0)
	// Next Monday 09:00 is already taken.
	repo.addLesson(1, "Pedro", mondayAt(9, 0).AddDate(0, 0, 7), 60, LessonConfirmed)

	svc := NewService(repo)

	free, err := svc.FindFreeTeachers(context.Background(), []int{1}, 540, 600, now)
	require.NoError(t, err)
	require.Empty(t, free)
}

func TestFindTeachersCoveringAllSlots(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addTeacher(2, "Carlos")
	repo.addTeacher(3, "Ana")
	// Marina: wide availability. Carlos: no slots at all, so any time works.
	// Ana: availability misses the Wednesday requirement.
	repo.addSlot(1, 1, 480, 720)
	repo.addSlot(1, 3, 480, 720)
	repo.addSlot(3, 1, 480, 720)

	svc := NewService(repo)
	from := mondayAt(0, 0)
	required := []WeeklySlot{
		{DayOfWeek: 1, StartMinute: 540, EndMinute: 600},
		{DayOfWeek: 3, StartMinute: 540, EndMinute: 600},
	}

	teachers, err := svc.FindTeachersCoveringAllSlots(context.Background(), required, 0, from)
	require.NoError(t, err)
	require.Len(t, teachers, 2)
	require.Equal(t, int64(1), teachers[0].ID)
	require.Equal(t, int64(2), teachers[1].ID)
}

func TestFindTeachersCoveringAllSlots_ExcludesTeacherAndConflicts(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addTeacher(2, "Carlos")
	from := mondayAt(0, 0)
	// Carlos has a standing Monday 09:30 lesson that collides weekly.
	repo.addLesson(2, "Julia", mondayAt(9, 30), 60, LessonConfirmed)

	svc := NewService(repo)
	required := []WeeklySlot{{DayOfWeek: 1, StartMinute: 540, EndMinute: 600}}

	teachers, err := svc.FindTeachersCoveringAllSlots(context.Background(), required, 1, from)
	require.NoError(t, err)
	require.Empty(t, teachers)
}

func TestScheduleLesson_PreFlightConflict(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	repo.addLesson(1, "Pedro", mondayAt(9, 0), 60, LessonConfirmed)

	svc := NewService(repo)

	_, err := svc.ScheduleLesson(context.Background(), CreateLessonInput{
		TeacherID: 1, EnrollmentID: 99, StartAt: mondayAt(9, 30), DurationMinutes: 30,
	})
	var conflict *shared.ConflictError
	require.ErrorAs(t, err, &conflict)
	require.Contains(t, conflict.Reason, "Pedro")
}

func TestScheduleLesson_DefaultsDurationAndStatus(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")

	svc := NewService(repo)

	lesson, err := svc.ScheduleLesson(context.Background(), CreateLessonInput{
		TeacherID: 1, EnrollmentID: 7, StartAt: mondayAt(10, 0),
	})
	require.NoError(t, err)
	require.Equal(t, DefaultLessonMinutes, lesson.DurationMinutes)
	require.Equal(t, LessonConfirmed, lesson.Status)
}

func TestCancelLesson(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := newMemorySchedulingRepo()
	repo.addTeacher(1, "Marina")
	lesson := repo.addLesson(1, "Pedro", mondayAt(9, 0), 60, LessonConfirmed)

	svc := NewService(repo)

	cancelled, err := svc.CancelLesson(context.Background(), lesson.ID, "admin")
	require.NoError(t, err)
	require.Equal(t, LessonCancelled, cancelled.Status)

	_, err = svc.CancelLesson(context.Background(), 0, "admin")
	require.ErrorIs(t, err, shared.ErrValidation)
}
