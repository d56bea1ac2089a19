package domain

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMostRecentMonday(t *testing.T) {
	cases := []struct {
		in   time.Time
		want time.Time
	}{
		{date(2026, time.March, 2), date(2026, time.March, 2)},  // Monday
		{date(2026, time.March, 4), date(2026, time.March, 2)},  // Wednesday
		{date(2026, time.March, 8), date(2026, time.March, 2)},  // Sunday
		{date(2026, time.March, 9), date(2026, time.March, 9)},  // next Monday
	}
	for _, tc := range cases {
		if got := MostRecentMonday(tc.in); !got.Equal(tc.want) {
			t.Fatalf("MostRecentMonday(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestRotationAdvanceInitializes(t *testing.T) {
	today := date(2026, time.March, 4) // Wednesday
	state, changed := ComputeRotationAdvance(RotationState{PlanLength: 2}, today)
	if !changed {
		t.Fatal("expected change on first pass")
	}
	if !state.Anchor.Equal(date(2026, time.March, 2)) {
		t.Fatalf("anchor = %s, want Monday 2026-03-02", state.Anchor)
	}
	if state.Week != 0 {
		t.Fatalf("week = %d, want 0", state.Week)
	}
}

func TestRotationAdvanceIdempotentWithinWeek(t *testing.T) {
	state := RotationState{Anchor: date(2026, time.March, 2), Week: 1, PlanLength: 2}

	for _, day := range []int{2, 4, 8} { // Monday, Wednesday, Sunday of the same week
		next, changed := ComputeRotationAdvance(state, date(2026, time.March, day))
		if changed {
			t.Fatalf("unexpected advance on day %d", day)
		}
		if next != state {
			t.Fatalf("state mutated on day %d: %+v", day, next)
		}
	}
}

func TestRotationAdvanceRollsWeek(t *testing.T) {
	state := RotationState{Anchor: date(2026, time.March, 2), Week: 0, PlanLength: 2}

	// Next Monday: week 0 -> 1.
	next, changed := ComputeRotationAdvance(state, date(2026, time.March, 9))
	if !changed || next.Week != 1 {
		t.Fatalf("expected advance to week 1, got changed=%v week=%d", changed, next.Week)
	}
	if !next.Anchor.Equal(date(2026, time.March, 9)) {
		t.Fatalf("anchor = %s, want 2026-03-09", next.Anchor)
	}

	// A mid-week visit after a skipped week re-anchors to the current Monday.
	late, changed := ComputeRotationAdvance(next, date(2026, time.March, 25)) // Wednesday two weeks on
	if !changed || late.Week != 0 {
		t.Fatalf("expected wrap to week 0, got changed=%v week=%d", changed, late.Week)
	}
	if !late.Anchor.Equal(date(2026, time.March, 23)) {
		t.Fatalf("anchor = %s, want 2026-03-23", late.Anchor)
	}
}

func TestRotationAdvanceWrapsFourWeekCycle(t *testing.T) {
	state := RotationState{Anchor: date(2026, time.March, 2), Week: 3, PlanLength: 4}
	next, changed := ComputeRotationAdvance(state, date(2026, time.March, 9))
	if !changed || next.Week != 0 {
		t.Fatalf("expected week 3 to wrap to 0, got changed=%v week=%d", changed, next.Week)
	}
}

func testPlan(t *testing.T, weeks int, days map[string]string) *Plan {
	t.Helper()
	plan, err := ParsePlan(weeks, days)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	return plan
}

func onWeekPlanDays() map[string]string {
	return map[string]string{
		"day_1": "1", "day_2": "REST", "day_3": "2", "day_4": "REST",
		"day_5": "1", "day_6": "REST", "day_7": "REST",
	}
}

func TestBuildCalendarFourteenConsecutiveDays(t *testing.T) {
	plan := testPlan(t, 1, onWeekPlanDays())
	state := RotationState{Anchor: date(2026, time.March, 2), Week: 0, PlanLength: 1}
	resolve := func(id int64) (string, bool) { return "Run", true }

	days := BuildCalendar(plan, state, date(2026, time.March, 4), resolve)
	if len(days) != 14 {
		t.Fatalf("expected 14 days, got %d", len(days))
	}
	for i, d := range days {
		want := state.Anchor.AddDate(0, 0, i)
		if !d.Date.Equal(want) {
			t.Fatalf("day %d date = %s, want %s", i, d.Date, want)
		}
	}
	// A one-week plan repeats in the second display week.
	for i := 0; i < 7; i++ {
		if days[i].Name != days[i+7].Name {
			t.Fatalf("day %d and %d differ for one-week plan: %q vs %q", i, i+7, days[i].Name, days[i+7].Name)
		}
	}
}

func TestBuildCalendarShowsCurrentThenNextWeek(t *testing.T) {
	days := map[string]string{}
	for i := 1; i <= 14; i++ {
		days[dayKey(i)] = "REST"
	}
	days["day_1"] = "10" // week 0 Monday
	days["day_8"] = "20" // week 1 Monday
	plan := testPlan(t, 2, days)

	names := map[int64]string{10: "First", 20: "Second"}
	resolve := func(id int64) (string, bool) {
		name, ok := names[id]
		return name, ok
	}

	state := RotationState{Anchor: date(2026, time.March, 2), Week: 1, PlanLength: 2}
	cal := BuildCalendar(plan, state, date(2026, time.March, 2), resolve)

	if cal[0].Name != "Second" {
		t.Fatalf("first Monday = %q, want week 1 activity", cal[0].Name)
	}
	// Week 1 is current, so week 0 wraps in as the second display week.
	if cal[7].Name != "First" {
		t.Fatalf("second Monday = %q, want wrapped week 0 activity", cal[7].Name)
	}
}

func TestBuildCalendarDanglingIDBecomesRest(t *testing.T) {
	plan := testPlan(t, 1, onWeekPlanDays())
	state := RotationState{Anchor: date(2026, time.March, 2), Week: 0, PlanLength: 1}
	resolve := func(id int64) (string, bool) { return "", false }

	for _, d := range BuildCalendar(plan, state, date(2026, time.March, 2), resolve) {
		if d.Name != RestDayName || d.ActivityID != 0 {
			t.Fatalf("dangling id should render as rest, got %+v", d)
		}
	}
}

func TestBuildCalendarPastAndTodayFlags(t *testing.T) {
	plan := testPlan(t, 1, onWeekPlanDays())
	state := RotationState{Anchor: date(2026, time.March, 2), Week: 0, PlanLength: 1}
	today := date(2026, time.March, 5)

	days := BuildCalendar(plan, state, today, func(int64) (string, bool) { return "Run", true })
	for i, d := range days {
		wantPast := i < 3
		wantToday := i == 3
		if d.Past != wantPast || d.Today != wantToday {
			t.Fatalf("day %d flags past=%v today=%v, want past=%v today=%v", i, d.Past, d.Today, wantPast, wantToday)
		}
	}
}
