package jobs

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lessonflow/lessonflow/internal/payroll"
	"github.com/lessonflow/lessonflow/internal/schedtime"
	"github.com/lessonflow/lessonflow/internal/scheduling"
	_ "github.com/lessonflow/lessonflow/testing"
)

type staticTeacherLister struct {
	teachers []scheduling.Teacher
}

func (l *staticTeacherLister) ListActiveTeachers(ctx context.Context) ([]scheduling.Teacher, error) {
	return l.teachers, nil
}

type recordingCloser struct {
	teacherIDs []int64
	years      []int
	months     []time.Month
}

func (c *recordingCloser) ClosePaymentMonth(ctx context.Context, teacherID int64, year int, month time.Month, now time.Time) (payroll.Statement, error) {
	c.teacherIDs = append(c.teacherIDs, teacherID)
	c.years = append(c.years, year)
	c.months = append(c.months, month)
	return payroll.Statement{TeacherID: teacherID}, nil
}

func TestPayrollSweep_ClosesPreviousMonthOnMonthEndDay(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	lister := &staticTeacherLister{teachers: []scheduling.Teacher{{ID: 7, Name: "Ana"}}}
	closer := &recordingCloser{}

	// Day 29: a naive AddDate(0, -1, 0) from here normalises back into March.
	now := time.Date(2026, time.March, 29, 3, 0, 0, 0, schedtime.Location())
	handler := NewPayrollSweepHandler(slog.Default(), lister, closer, nil, func() time.Time { return now })

	require.NoError(t, handler(context.Background(), NewPayrollSweepTask()))

	require.Equal(t, []int64{7}, closer.teacherIDs)
	require.Equal(t, []int{2026}, closer.years)
	require.Equal(t, []time.Month{time.February}, closer.months)
}

func TestPayrollSweep_MonthResolvedInScheduleZone(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	lister := &staticTeacherLister{teachers: []scheduling.Teacher{{ID: 7, Name: "Ana"}}}
	closer := &recordingCloser{}

	// 2026-03-01 01:00 UTC is still the evening of February 28 in Sao Paulo,
	// so the month to close is January, not February.
	now := time.Date(2026, time.March, 1, 1, 0, 0, 0, time.UTC)
	handler := NewPayrollSweepHandler(slog.Default(), lister, closer, nil, func() time.Time { return now })

	require.NoError(t, handler(context.Background(), NewPayrollSweepTask()))

	require.Equal(t, []int{2026}, closer.years)
	require.Equal(t, []time.Month{time.January}, closer.months)
}

func TestPayrollSweep_ClosesEveryActiveTeacher(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	lister := &staticTeacherLister{teachers: []scheduling.Teacher{
		{ID: 1, Name: "Ana"}, {ID: 2, Name: "Bruno"}, {ID: 3, Name: "Carla"},
	}}
	closer := &recordingCloser{}

	now := time.Date(2026, time.April, 1, 3, 0, 0, 0, schedtime.Location())
	handler := NewPayrollSweepHandler(slog.Default(), lister, closer, nil, func() time.Time { return now })

	require.NoError(t, handler(context.Background(), NewPayrollSweepTask()))

	require.Equal(t, []int64{1, 2, 3}, closer.teacherIDs)
	for _, m := range closer.months {
		require.Equal(t, time.March, m)
	}
}
