package domain

import "time"

// Default speeds in km/h for each pace bucket, slowest to fastest.
var defaultPaces = [5]float64{6.5, 9.5, 10.5, 11.5, 13.5}

// Profile stores everything about a user that is not tied to a single
// activity: the plan, rotation state, mileage history and pace table.
type Profile struct {
	OwnerID    string
	AnchorDate time.Time // Monday opening the current rotation window; zero = unset
	WeekIndex  int       // 0-indexed position within the plan's multi-week cycle
	PlanLength int       // weeks per cycle: 1, 2 or 4
	Plan       *Plan     // nil until the user authors one
	Mileage    []WeekEntry
	Paces      [5]float64 // km/h per pace bucket, user editable
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewProfile returns a profile with default preferences for a new user.
func NewProfile(ownerID string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		OwnerID:    ownerID,
		PlanLength: 2,
		Paces:      defaultPaces,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// PaceFor returns the user's speed in km/h for the given pace bucket.
func (p *Profile) PaceFor(pace Pace) (float64, bool) {
	if p == nil || !pace.Valid() {
		return 0, false
	}
	speed := p.Paces[pace]
	if speed <= 0 {
		return 0, false
	}
	return speed, true
}

// Rotation extracts the profile's rotation state as a value the calendar
// engine can work on without touching storage.
func (p *Profile) Rotation() RotationState {
	return RotationState{
		Anchor:     p.AnchorDate,
		Week:       p.WeekIndex,
		PlanLength: p.PlanLength,
	}
}

// SetRotation writes an updated rotation state back onto the profile.
func (p *Profile) SetRotation(rs RotationState) {
	p.AnchorDate = rs.Anchor
	p.WeekIndex = rs.Week
	p.PlanLength = rs.PlanLength
}

// ResetRotation clears the anchor and week index, restarting the cycle.
func (p *Profile) ResetRotation() {
	p.AnchorDate = time.Time{}
	p.WeekIndex = 0
}

// Clone returns a deep copy of the profile.
func (p *Profile) Clone() *Profile {
	if p == nil {
		return nil
	}
	out := *p
	if p.Plan != nil {
		out.Plan = p.Plan.Clone()
	}
	if p.Mileage != nil {
		out.Mileage = make([]WeekEntry, len(p.Mileage))
		copy(out.Mileage, p.Mileage)
	}
	return &out
}
