// Package schedtime centralises calendar arithmetic for the lesson schedule.
// All persisted timestamps are absolute instants; every day-of-week or
// minute-of-day derivation must go through this package so that exactly one
// canonical timezone governs the weekly grid.
package schedtime

import (
	"fmt"
	"sync"
	"time"
)

// DefaultZone is the canonical schedule timezone used when none is configured.
const DefaultZone = "America/Sao_Paulo"

// MinutesPerDay bounds minute-of-day slot values.
const MinutesPerDay = 24 * 60

var (
	zoneMu  sync.RWMutex
	zoneLoc = time.UTC
)

func init() {
	if loc, err := time.LoadLocation(DefaultZone); err == nil {
		zoneLoc = loc
	}
}

// SetZone switches the canonical schedule timezone. Called once at startup.
func SetZone(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("schedtime: load zone %q: %w", name, err)
	}
	zoneMu.Lock()
	zoneLoc = loc
	zoneMu.Unlock()
	return nil
}

// Location returns the canonical schedule timezone.
func Location() *time.Location {
	zoneMu.RLock()
	defer zoneMu.RUnlock()
	return zoneLoc
}

// In converts an absolute instant into schedule-local time.
func In(t time.Time) time.Time {
	return t.In(Location())
}

// DayOfWeek returns the schedule-local weekday of t, 0 = Sunday .. 6 = Saturday.
func DayOfWeek(t time.Time) int {
	return int(In(t).Weekday())
}

// MinuteOfDay returns minutes elapsed since schedule-local midnight.
func MinuteOfDay(t time.Time) int {
	lt := In(t)
	return lt.Hour()*60 + lt.Minute()
}

// DateKey normalises t to its schedule-local calendar date, YYYY-MM-DD.
func DateKey(t time.Time) string {
	return In(t).Format("2006-01-02")
}

// MonthBounds returns the first and last instant of the calendar month in
// schedule-local time. End is the last nanosecond of the month so that
// inclusive [start, end] comparisons cover every lesson on the final day.
func MonthBounds(year int, month time.Month) (time.Time, time.Time) {
	loc := Location()
	start := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Nanosecond)
	return start, end
}

// PeriodContains reports whether t falls within [start, end] inclusive.
func PeriodContains(start, end, t time.Time) bool {
	return !t.Before(start) && !t.After(end)
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// MinutesOverlap is the minute-of-day analogue of Overlaps for weekly slots.
func MinutesOverlap(aStart, aEnd, bStart, bEnd int) bool {
	return aStart < bEnd && aEnd > bStart
}

// NextWeekday returns schedule-local midnight of the next occurrence of dow
// strictly after from's date. When from already falls on dow the following
// week is returned, so the result is always a future lesson date.
func NextWeekday(from time.Time, dow int) time.Time {
	lt := In(from)
	day := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, Location())
	delta := (dow - int(day.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return day.AddDate(0, 0, delta)
}

// StartOfWeek returns schedule-local midnight of the Sunday on or before t.
func StartOfWeek(t time.Time) time.Time {
	lt := In(t)
	day := time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, Location())
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// ValidDayOfWeek reports whether d is a legal weekday index.
func ValidDayOfWeek(d int) bool {
	return d >= 0 && d <= 6
}

// ValidMinuteRange reports whether [start, end) is a legal slot window.
func ValidMinuteRange(start, end int) bool {
	return start >= 0 && end <= MinutesPerDay && start < end
}
