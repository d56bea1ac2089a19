package domain

import (
	"fmt"
	"strconv"
)

// RestSlot marks a plan day with no activity.
const RestSlot int64 = 0

// restValue is the wire sentinel for a rest day in the day_N mapping.
const restValue = "REST"

// Plan is the user-authored cyclic pattern of activity-or-rest per day of
// cycle. Slots is indexed day-of-cycle (index 0 = day_1) and holds activity
// ids, with RestSlot for rest days.
type Plan struct {
	Weeks int
	Slots []int64
}

// ValidPlanWeeks reports whether the cycle length is one of the supported
// options.
func ValidPlanWeeks(weeks int) bool {
	return weeks == 1 || weeks == 2 || weeks == 4
}

// NewPlan returns an all-rest plan of the given cycle length.
func NewPlan(weeks int) *Plan {
	return &Plan{Weeks: weeks, Slots: make([]int64, weeks*7)}
}

// ParsePlan builds a Plan from the day_1..day_N wire mapping. Every day of
// the cycle must be present, valued either REST or a decimal activity id.
// Activity-id existence is not checked here; dangling ids resolve to rest
// days at calendar-build time.
func ParsePlan(weeks int, days map[string]string) (*Plan, error) {
	if !ValidPlanWeeks(weeks) {
		return nil, fmt.Errorf("%w: plan length must be 1, 2 or 4 weeks", ErrValidation)
	}
	plan := NewPlan(weeks)
	if len(days) != len(plan.Slots) {
		return nil, fmt.Errorf("%w: plan needs %d days, got %d", ErrValidation, len(plan.Slots), len(days))
	}
	for i := range plan.Slots {
		key := dayKey(i + 1)
		value, ok := days[key]
		if !ok {
			return nil, fmt.Errorf("%w: missing %s", ErrValidation, key)
		}
		if value == restValue {
			continue
		}
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("%w: %s must be REST or an activity id", ErrValidation, key)
		}
		plan.Slots[i] = id
	}
	return plan, nil
}

// Slot returns the activity id planned for the 1-based day of cycle.
func (p *Plan) Slot(day int) int64 {
	if p == nil || day < 1 || day > len(p.Slots) {
		return RestSlot
	}
	return p.Slots[day-1]
}

// DayMap renders the plan back to the day_1..day_N wire mapping.
func (p *Plan) DayMap() map[string]string {
	out := make(map[string]string, len(p.Slots))
	for i, slot := range p.Slots {
		if slot == RestSlot {
			out[dayKey(i+1)] = restValue
		} else {
			out[dayKey(i+1)] = strconv.FormatInt(slot, 10)
		}
	}
	return out
}

// Clone returns a deep copy of the plan.
func (p *Plan) Clone() *Plan {
	if p == nil {
		return nil
	}
	out := &Plan{Weeks: p.Weeks, Slots: make([]int64, len(p.Slots))}
	copy(out.Slots, p.Slots)
	return out
}

func dayKey(day int) string {
	return "day_" + strconv.Itoa(day)
}
