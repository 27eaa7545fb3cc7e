package enrollment

// PropagateGroupCoverage expands per-enrollment teacher coverage across named
// groups: when any member of a group is covered, every member is. The input
// set is never mutated; the result is a fresh set, so concurrent reports can
// share inputs safely. Groups do not nest, so one pass is a closure.
func PropagateGroupCoverage(enrollments []Enrollment, hasTeacher map[int64]bool) map[int64]bool {
	covered := make(map[int64]bool, len(hasTeacher))
	for id, ok := range hasTeacher {
		if ok {
			covered[id] = true
		}
	}

	groups := make(map[string][]int64)
	for _, e := range enrollments {
		if e.Type != TypeGroup || e.GroupName == "" {
			continue
		}
		groups[e.GroupName] = append(groups[e.GroupName], e.ID)
	}

	for _, members := range groups {
		anyCovered := false
		for _, id := range members {
			if covered[id] {
				anyCovered = true
				break
			}
		}
		if !anyCovered {
			continue
		}
		for _, id := range members {
			covered[id] = true
		}
	}
	return covered
}
