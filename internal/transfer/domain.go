package transfer

import (
	"sort"
	"time"

	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/scheduling"
)

// Input describes one bulk schedule transfer.
type Input struct {
	SourceTeacherID int64
	DestTeacherID   int64
	From            time.Time
	Actor           string
}

// Result reports a committed transfer.
type Result struct {
	TransferredCount int
}

// RequiredWeeklySlots derives the deduplicated weekly slot set a destination
// teacher must cover, from the non-cancelled subset only: cancelled lessons
// impose no availability requirement.
func RequiredWeeklySlots(lessons []scheduling.Lesson) []scheduling.WeeklySlot {
	seen := make(map[scheduling.WeeklySlot]struct{})
	for _, lesson := range lessons {
		if lesson.Status == scheduling.LessonCancelled {
			continue
		}
		start := schedtime.MinuteOfDay(lesson.StartAt)
		minutes := lesson.DurationMinutes
		if minutes <= 0 {
			minutes = scheduling.DefaultLessonMinutes
		}
		seen[scheduling.WeeklySlot{
			DayOfWeek:   schedtime.DayOfWeek(lesson.StartAt),
			StartMinute: start,
			EndMinute:   start + minutes,
		}] = struct{}{}
	}

	slots := make([]scheduling.WeeklySlot, 0, len(seen))
	for slot := range seen {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].DayOfWeek != slots[j].DayOfWeek {
			return slots[i].DayOfWeek < slots[j].DayOfWeek
		}
		return slots[i].StartMinute < slots[j].StartMinute
	})
	return slots
}
