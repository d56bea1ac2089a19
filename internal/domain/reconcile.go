package domain

import "time"

// RetentionDays is how long completion records are kept before the
// post-submission reap deletes them.
const RetentionDays = 29

// CompletedAct is the append-only log record of a finished (or rest) day.
// Name is the activity's resolved display name at the time of completion.
type CompletedAct struct {
	ID       string
	OwnerID  string
	Date     time.Time
	Name     string
	Distance float64 // 0 for rest days
}

// OverlayHistory replaces planned calendar entries with what actually
// happened: any day whose date matches a completion record takes the
// record's name and is marked done, even when the plan said rest (or the
// record is an unplanned rest day).
func OverlayHistory(days []Day, completions []CompletedAct) {
	if len(completions) == 0 {
		return
	}
	byDate := make(map[time.Time]CompletedAct, len(completions))
	for _, c := range completions {
		byDate[DateOnly(c.Date)] = c
	}
	for i := range days {
		if c, ok := byDate[days[i].Date]; ok {
			days[i].Name = c.Name
			days[i].Done = true
		}
	}
}

// UnresolvedDays returns the calendar days the user still owes a resolution
// for: days positioned before today that are neither completed nor rest
// days. The scan stops at the day flagged as today, so future days are never
// reported regardless of completion state. A non-empty result is a hard
// precondition failure for normal display; the caller must demand resolution
// before proceeding.
func UnresolvedDays(days []Day) []Day {
	var out []Day
	for _, d := range days {
		if d.Today {
			break
		}
		if !d.Done && d.Name != RestDayName {
			out = append(out, d)
		}
	}
	return out
}
