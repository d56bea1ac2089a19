package domain

import (
	"fmt"
	"time"
)

// MileageHistoryCap bounds the weekly history list; the oldest entries are
// trimmed beyond it.
const MileageHistoryCap = 50

// WeekEntry is one Monday-anchored weekly distance bucket.
type WeekEntry struct {
	WeekStart time.Time `json:"week_start"`
	Distance  float64   `json:"distance"`
}

// AddMileage folds a completion's distance into the weekly history, newest
// first. A completion in the head entry's week accumulates in place; a
// strictly newer week opens a new head entry; a completion logged late for a
// week older than the head is discarded rather than corrupting the ordering.
func AddMileage(history []WeekEntry, date time.Time, distance float64) []WeekEntry {
	if distance <= 0 {
		return history
	}
	weekStart := MostRecentMonday(date)

	if len(history) > 0 {
		head := history[0].WeekStart
		switch {
		case weekStart.Equal(head):
			history[0].Distance += distance
			return history
		case weekStart.Before(head):
			return history
		}
	}

	history = append([]WeekEntry{{WeekStart: weekStart, Distance: distance}}, history...)
	if len(history) > MileageHistoryCap {
		history = history[:MileageHistoryCap]
	}
	return history
}

// SpacingWarning flags a plan day that violates the advisory
// difficulty-spacing policy.
type SpacingWarning struct {
	Day     int // 1-based day of cycle
	Message string
}

// DifficultyLookup resolves a planned activity id to its difficulty.
type DifficultyLookup func(id int64) (Difficulty, bool)

// CheckPlanSpacing applies the advisory scheduling rules to a plan: a Hard
// activity should not follow any non-rest activity, and a Moderate activity
// should not follow a Hard one. The plan is cyclic, so day 1 is checked
// against the last day. Warnings never block plan submission.
func CheckPlanSpacing(plan *Plan, lookup DifficultyLookup) []SpacingWarning {
	if plan == nil || len(plan.Slots) == 0 {
		return nil
	}
	n := len(plan.Slots)

	diffAt := func(day int) (Difficulty, bool) {
		id := plan.Slot(day)
		if id == RestSlot {
			return 0, false
		}
		return lookup(id)
	}

	var warnings []SpacingWarning
	for day := 1; day <= n; day++ {
		cur, ok := diffAt(day)
		if !ok {
			continue
		}
		prevDay := day - 1
		if prevDay == 0 {
			prevDay = n
		}
		prev, prevActive := diffAt(prevDay)
		if !prevActive {
			continue
		}
		switch {
		case cur == DifficultyHard:
			warnings = append(warnings, SpacingWarning{
				Day:     day,
				Message: fmt.Sprintf("hard activity on day %d follows an active day", day),
			})
		case cur == DifficultyModerate && prev == DifficultyHard:
			warnings = append(warnings, SpacingWarning{
				Day:     day,
				Message: fmt.Sprintf("moderate activity on day %d follows a hard day", day),
			})
		}
	}
	return warnings
}

// DistanceLookup resolves a planned activity id to its estimated distance.
type DistanceLookup func(id int64) (float64, bool)

// PlanWeeklyDistance sums the estimated distance of each plan week, in
// cycle order. It feeds the advisory mileage report shown while a plan is
// being authored.
func PlanWeeklyDistance(plan *Plan, lookup DistanceLookup) []float64 {
	if plan == nil {
		return nil
	}
	totals := make([]float64, plan.Weeks)
	for week := 0; week < plan.Weeks; week++ {
		for offset := 1; offset <= 7; offset++ {
			id := plan.Slot(week*7 + offset)
			if id == RestSlot {
				continue
			}
			if dist, ok := lookup(id); ok {
				totals[week] += dist
			}
		}
	}
	return totals
}
