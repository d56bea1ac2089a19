package domain

import "time"

// calendarDays is the size of the concrete display window.
const calendarDays = 14

// RotationState tracks which portion of a multi-week plan is current.
type RotationState struct {
	Anchor     time.Time // Monday opening the window; zero = unset
	Week       int       // 0-indexed plan week shown first
	PlanLength int       // weeks per cycle
}

// Day is one slot of the materialized 14-day calendar. It is engine output
// only and is rebuilt on every pass, never persisted.
type Day struct {
	Date       time.Time
	Name       string
	ActivityID int64 // 0 for rest days
	Done       bool
	Past       bool
	Today      bool
}

// ActivityResolver maps a planned activity id to its current display name.
// The second return value is false for dangling references.
type ActivityResolver func(id int64) (string, bool)

// MostRecentMonday returns the Monday on or before the given date, at
// midnight UTC.
func MostRecentMonday(t time.Time) time.Time {
	d := DateOnly(t)
	offset := (int(d.Weekday()) + 6) % 7 // Monday = 0
	return d.AddDate(0, 0, -offset)
}

// DateOnly truncates a time to its calendar date at midnight UTC.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeRotationAdvance rolls the rotation state forward for "today" and
// reports whether it changed. It is pure: persisting the returned state is
// the caller's job. Calling it again the same day returns the same state, so
// a rendering pass can never double-advance.
func ComputeRotationAdvance(state RotationState, today time.Time) (RotationState, bool) {
	today = DateOnly(today)
	if state.PlanLength < 1 {
		state.PlanLength = 1
	}

	if state.Anchor.IsZero() {
		state.Anchor = MostRecentMonday(today)
		state.Week = 0
		return state, true
	}

	if today.Sub(state.Anchor) >= 7*24*time.Hour {
		state.Week = (state.Week + 1) % state.PlanLength
		state.Anchor = MostRecentMonday(today)
		return state, true
	}

	return state, false
}

// BuildCalendar materializes the plan into 14 consecutive days starting at
// the rotation anchor. The window shows the current plan week followed by
// the next week in rotation order, wrapping at the end of the cycle. Plan
// entries of REST, and ids the resolver cannot resolve, yield rest-day
// placeholders.
func BuildCalendar(plan *Plan, state RotationState, today time.Time, resolve ActivityResolver) []Day {
	today = DateOnly(today)
	anchor := state.Anchor
	if anchor.IsZero() {
		anchor = MostRecentMonday(today)
	}
	length := state.PlanLength
	if length < 1 {
		length = 1
	}

	firstWeek := state.Week % length
	secondWeek := (firstWeek + 1) % length

	days := make([]Day, 0, calendarDays)
	for i := 0; i < calendarDays; i++ {
		week := firstWeek
		if i >= 7 {
			week = secondWeek
		}
		date := anchor.AddDate(0, 0, i)
		day := Day{
			Date:  date,
			Name:  RestDayName,
			Past:  date.Before(today),
			Today: date.Equal(today),
		}
		if id := plan.Slot(week*7 + i%7 + 1); id != RestSlot {
			if name, ok := resolve(id); ok {
				day.Name = name
				day.ActivityID = id
			}
		}
		days = append(days, day)
	}
	return days
}
