package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// GoalInput carries raw goal-form values. Fields left empty leave the
// corresponding stored values untouched (partial update).
type GoalInput struct {
	GoalMinutes  string // paced run goal duration, or time-trial goal minutes
	GoalSeconds  string // time-trial goal seconds
	GoalDistance string // paced run goal distance in km
	RepGoal      string // intervals goal repetition count
	Increment    string // per-advance increment for whichever goal is set
}

// ApplyGoal parses submitted goal values and stores them on the activity.
// Numeric fields accept integer or decimal formatting; the increment is
// tried as an integer first and falls back to decimal, whichever matches
// the target attribute's type. Malformed input returns ErrValidation with
// the activity unchanged.
func (a *Activity) ApplyGoal(in GoalInput) error {
	switch a.Kind {
	case KindPacedRun:
		return a.applyPacedRunGoal(in)
	case KindIntervals:
		return a.applyIntervalsGoal(in)
	case KindTimeTrial:
		return a.applyTimeTrialGoal(in)
	default:
		return fmt.Errorf("%w: %s activities have no goals", ErrValidation, a.Kind)
	}
}

func (a *Activity) applyPacedRunGoal(in GoalInput) error {
	spec := a.PacedRun
	if spec == nil {
		return fmt.Errorf("%w: paced run payload missing", ErrInvariant)
	}

	goalMinutes, goalDistance := 0, 0.0
	var err error
	if in.GoalMinutes != "" {
		if goalMinutes, err = parseInt(in.GoalMinutes, "goal_minutes"); err != nil {
			return err
		}
	}
	if in.GoalDistance != "" {
		if goalDistance, err = parseDecimal(in.GoalDistance, "goal_distance"); err != nil {
			return err
		}
	}

	if in.GoalMinutes != "" {
		inc, err := parseIntOrDecimal(in.Increment, "increment")
		if err != nil {
			return err
		}
		spec.GoalMinutes = goalMinutes
		// Minutes are whole; a decimal increment truncates.
		spec.IncMinutes = int(inc)
	}
	if in.GoalDistance != "" {
		inc, err := parseIntOrDecimal(in.Increment, "increment")
		if err != nil {
			return err
		}
		spec.GoalDistance = goalDistance
		spec.IncDistance = inc
	}
	return nil
}

func (a *Activity) applyIntervalsGoal(in GoalInput) error {
	spec := a.Intervals
	if spec == nil {
		return fmt.Errorf("%w: intervals payload missing", ErrInvariant)
	}
	if in.RepGoal != "" {
		goal, err := parseInt(in.RepGoal, "rep_goal")
		if err != nil {
			return err
		}
		spec.RepGoal = goal
	}
	if in.Increment != "" {
		inc, err := parseInt(in.Increment, "increment")
		if err != nil {
			return err
		}
		spec.Increment = inc
	}
	return nil
}

func (a *Activity) applyTimeTrialGoal(in GoalInput) error {
	spec := a.TimeTrial
	if spec == nil {
		return fmt.Errorf("%w: time trial payload missing", ErrInvariant)
	}
	if in.GoalMinutes != "" || in.GoalSeconds != "" {
		minutes, seconds := 0, 0
		var err error
		if in.GoalMinutes != "" {
			if minutes, err = parseInt(in.GoalMinutes, "goal_minutes"); err != nil {
				return err
			}
		}
		if in.GoalSeconds != "" {
			if seconds, err = parseInt(in.GoalSeconds, "goal_seconds"); err != nil {
				return err
			}
		}
		spec.GoalSeconds = minutes*60 + seconds
	}
	if in.Increment != "" {
		inc, err := parseInt(in.Increment, "increment")
		if err != nil {
			return err
		}
		spec.IncSeconds = inc
	}
	// The countdown starts from the current personal best when no explicit
	// target has been set yet.
	if spec.TargetSeconds == 0 && spec.BestSeconds > 0 {
		spec.TargetSeconds = spec.BestSeconds
	}
	return nil
}

// Advance moves the activity one step toward its goal: paced runs and
// intervals count up toward a ceiling, time trials count down toward a
// floor. When the goal is satisfied the progressive flag is cleared and
// true is returned; progression does not restart automatically. Calling
// Advance on a non-progressive or goal-less activity is a contract
// violation and returns ErrInvariant.
func (a *Activity) Advance() (bool, error) {
	if !a.Progressive {
		return false, fmt.Errorf("%w: activity %d is not progressive", ErrInvariant, a.ID)
	}

	switch a.Kind {
	case KindPacedRun:
		return a.advancePacedRun()
	case KindIntervals:
		return a.advanceIntervals()
	case KindTimeTrial:
		return a.advanceTimeTrial()
	default:
		return false, fmt.Errorf("%w: %s activities cannot advance", ErrInvariant, a.Kind)
	}
}

func (a *Activity) advancePacedRun() (bool, error) {
	spec := a.PacedRun
	if spec == nil {
		return false, fmt.Errorf("%w: paced run payload missing", ErrInvariant)
	}
	switch spec.Mode {
	case TrackTime:
		if spec.IncMinutes == 0 || spec.GoalMinutes == 0 {
			return false, fmt.Errorf("%w: paced run %d has no stored time goal", ErrInvariant, a.ID)
		}
		spec.Minutes += spec.IncMinutes
		if spec.Minutes >= spec.GoalMinutes {
			a.Progressive = false
			return true, nil
		}
	case TrackDistance:
		if spec.IncDistance == 0 || spec.GoalDistance == 0 {
			return false, fmt.Errorf("%w: paced run %d has no stored distance goal", ErrInvariant, a.ID)
		}
		a.Distance += spec.IncDistance
		if a.Distance >= spec.GoalDistance {
			a.Progressive = false
			return true, nil
		}
	default:
		return false, fmt.Errorf("%w: paced run %d has no tracking mode", ErrInvariant, a.ID)
	}
	return false, nil
}

func (a *Activity) advanceIntervals() (bool, error) {
	spec := a.Intervals
	if spec == nil {
		return false, fmt.Errorf("%w: intervals payload missing", ErrInvariant)
	}
	if spec.Increment == 0 || spec.RepGoal == 0 {
		return false, fmt.Errorf("%w: intervals %d have no stored goal", ErrInvariant, a.ID)
	}
	spec.RepCount += spec.Increment
	if spec.RepCount >= spec.RepGoal {
		a.Progressive = false
		return true, nil
	}
	return false, nil
}

func (a *Activity) advanceTimeTrial() (bool, error) {
	spec := a.TimeTrial
	if spec == nil {
		return false, fmt.Errorf("%w: time trial payload missing", ErrInvariant)
	}
	if spec.IncSeconds == 0 || spec.GoalSeconds == 0 || spec.TargetSeconds == 0 {
		return false, fmt.Errorf("%w: time trial %d has no stored goal", ErrInvariant, a.ID)
	}
	spec.TargetSeconds -= spec.IncSeconds
	if spec.TargetSeconds <= spec.GoalSeconds {
		spec.TargetSeconds = spec.GoalSeconds
		a.Progressive = false
		return true, nil
	}
	return false, nil
}

func parseInt(raw, field string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a whole number", ErrValidation, field)
	}
	return v, nil
}

func parseDecimal(raw, field string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%w: %s must be a number", ErrValidation, field)
	}
	return v, nil
}

// parseIntOrDecimal accepts either formatting, preferring the integer parse.
func parseIntOrDecimal(raw, field string) (float64, error) {
	if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		if v < 0 {
			return 0, fmt.Errorf("%w: %s must not be negative", ErrValidation, field)
		}
		return float64(v), nil
	}
	return parseDecimal(raw, field)
}
