package schedtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDayOfWeekAndMinuteOfDay(t *testing.T) {
	require.NoError(t, SetZone("America/Sao_Paulo"))

	// 2025-06-02 is a Monday. 09:30 local.
	local := time.Date(2025, 6, 2, 9, 30, 0, 0, Location())
	require.Equal(t, 1, DayOfWeek(local))
	require.Equal(t, 9*60+30, MinuteOfDay(local))

	// The same instant expressed in UTC must derive identical values.
	require.Equal(t, 1, DayOfWeek(local.UTC()))
	require.Equal(t, 9*60+30, MinuteOfDay(local.UTC()))
}

func TestDateKeyUsesScheduleZone(t *testing.T) {
	require.NoError(t, SetZone("America/Sao_Paulo"))

	// 01:00 UTC is still the previous day in Sao Paulo (UTC-3).
	utc := time.Date(2025, 6, 3, 1, 0, 0, 0, time.UTC)
	require.Equal(t, "2025-06-02", DateKey(utc))
}

func TestMonthBounds(t *testing.T) {
	require.NoError(t, SetZone("America/Sao_Paulo"))

	start, end := MonthBounds(2025, time.February)
	require.Equal(t, "2025-02-01", DateKey(start))
	require.Equal(t, "2025-02-28", DateKey(end))
	require.True(t, PeriodContains(start, end, time.Date(2025, 2, 28, 23, 59, 0, 0, Location())))
	require.False(t, PeriodContains(start, end, time.Date(2025, 3, 1, 0, 0, 0, 0, Location())))
}

func TestOverlapsSymmetry(t *testing.T) {
	base := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	cases := []struct {
		name           string
		aOff, aLen     time.Duration
		bOff, bLen     time.Duration
		want           bool
	}{
		{"identical", 0, time.Hour, 0, time.Hour, true},
		{"contained", 0, time.Hour, 30 * time.Minute, 10 * time.Minute, true},
		{"partial", 0, time.Hour, 30 * time.Minute, time.Hour, true},
		{"touching ends", 0, time.Hour, time.Hour, time.Hour, false},
		{"disjoint", 0, time.Hour, 2 * time.Hour, time.Hour, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			aStart, aEnd := base.Add(tc.aOff), base.Add(tc.aOff+tc.aLen)
			bStart, bEnd := base.Add(tc.bOff), base.Add(tc.bOff+tc.bLen)
			require.Equal(t, tc.want, Overlaps(aStart, aEnd, bStart, bEnd))
			require.Equal(t, tc.want, Overlaps(bStart, bEnd, aStart, aEnd))
		})
	}
}

func TestNextWeekday(t *testing.T) {
	require.NoError(t, SetZone("America/Sao_Paulo"))

	// From a Monday, the next Monday is a week away, never today.
	monday := time.Date(2025, 6, 2, 10, 0, 0, 0, Location())
	next := NextWeekday(monday, 1)
	require.Equal(t, 1, DayOfWeek(next))
	require.Equal(t, "2025-06-09", DateKey(next))

	// From a Monday, the next Wednesday is two days away.
	wed := NextWeekday(monday, 3)
	require.Equal(t, "2025-06-04", DateKey(wed))
}

func TestStartOfWeek(t *testing.T) {
	require.NoError(t, SetZone("America/Sao_Paulo"))

	thursday := time.Date(2025, 6, 5, 15, 0, 0, 0, Location())
	require.Equal(t, "2025-06-01", DateKey(StartOfWeek(thursday)))
	sunday := time.Date(2025, 6, 1, 0, 0, 0, 0, Location())
	require.Equal(t, "2025-06-01", DateKey(StartOfWeek(sunday)))
}

func TestValidators(t *testing.T) {
	require.True(t, ValidDayOfWeek(0))
	require.True(t, ValidDayOfWeek(6))
	require.False(t, ValidDayOfWeek(7))
	require.False(t, ValidDayOfWeek(-1))

	require.True(t, ValidMinuteRange(540, 600))
	require.False(t, ValidMinuteRange(600, 540))
	require.False(t, ValidMinuteRange(-10, 60))
	require.False(t, ValidMinuteRange(1380, 1500))
}
