package enrollment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/lessonflow/lessonflow/internal/schedtime"
)

func TestPropagateGroupCoverage_GroupSymmetry(t *testing.T) {
	enrollments := []Enrollment{
		{ID: 1, Type: TypeGroup, GroupName: "A"},
		{ID: 2, Type: TypeGroup, GroupName: "A"},
		{ID: 3, Type: TypeGroup, GroupName: "B"},
		{ID: 4, Type: TypeIndividual},
	}
	input := map[int64]bool{1: true}

	covered := PropagateGroupCoverage(enrollments, input)

	// Every member of group A is covered; group B and the individual are not.
	require.True(t, covered[1])
	require.True(t, covered[2])
	require.False(t, covered[3])
	require.False(t, covered[4])
}

func TestPropagateGroupCoverage_IndividualsPassThrough(t *testing.T) {
	enrollments := []Enrollment{
		{ID: 1, Type: TypeIndividual},
		{ID: 2, Type: TypeIndividual},
	}
	input := map[int64]bool{2: true}

	covered := PropagateGroupCoverage(enrollments, input)
	require.False(t, covered[1])
	require.True(t, covered[2])
}

func TestPropagateGroupCoverage_EmptyGroupNameIgnored(t *testing.T) {
	enrollments := []Enrollment{
		{ID: 1, Type: TypeGroup, GroupName: ""},
		{ID: 2, Type: TypeGroup, GroupName: ""},
	}
	input := map[int64]bool{1: true}

	covered := PropagateGroupCoverage(enrollments, input)
	require.True(t, covered[1])
	require.False(t, covered[2], "unnamed group members must not propagate")
}

func TestPropagateGroupCoverage_DoesNotMutateInput(t *testing.T) {
	enrollments := []Enrollment{
		{ID: 1, Type: TypeGroup, GroupName: "A"},
		{ID: 2, Type: TypeGroup, GroupName: "A"},
	}
	input := map[int64]bool{1: true}

	covered := PropagateGroupCoverage(enrollments, input)
	require.True(t, covered[2])
	_, mutated := input[2]
	require.False(t, mutated, "input set must stay untouched")
}

type memoryEnrollmentRepo struct {
	enrollments []Enrollment
	covered     map[int64]bool
	gotStart    time.Time
	gotEnd      time.Time
}

func (r *memoryEnrollmentRepo) ListActiveEnrollments(ctx context.Context) ([]Enrollment, error) {
	return r.enrollments, nil
}

func (r *memoryEnrollmentRepo) CoveredEnrollmentIDs(ctx context.Context, weekStart, weekEnd time.Time) (map[int64]bool, error) {
	r.gotStart, r.gotEnd = weekStart, weekEnd
	return r.covered, nil
}

func TestWeeklyCoverage(t *testing.T) {
	require.NoError(t, schedtime.SetZone("America/Sao_Paulo"))
	repo := &memoryEnrollmentRepo{
		enrollments: []Enrollment{
			{ID: 1, StudentName: "Pedro", Type: TypeGroup, GroupName: "adv"},
			{ID: 2, StudentName: "Julia", Type: TypeGroup, GroupName: "adv"},
			{ID: 3, StudentName: "Rafael", Type: TypeIndividual},
		},
		covered: map[int64]bool{1: true},
	}
	svc := NewService(repo)

	// Thursday 2025-06-05; the week runs Sunday June 1 through Saturday.
	ref := time.Date(2025, 6, 5, 15, 0, 0, 0, schedtime.Location())
	report, err := svc.WeeklyCoverage(context.Background(), ref)
	require.NoError(t, err)

	require.Equal(t, "2025-06-01", schedtime.DateKey(repo.gotStart))
	require.Equal(t, "2025-06-08", schedtime.DateKey(repo.gotEnd))

	require.Len(t, report, 3)
	byID := make(map[int64]Coverage, len(report))
	for _, c := range report {
		byID[c.EnrollmentID] = c
	}
	require.True(t, byID[1].HasTeacher)
	require.True(t, byID[2].HasTeacher, "group member must inherit coverage")
	require.False(t, byID[3].HasTeacher)
}
