package domain

import (
	"fmt"
	"strconv"
	"time"
)

// Kind discriminates the closed set of activity variants.
type Kind string

const (
	KindPacedRun   Kind = "paced_run"
	KindIntervals  Kind = "intervals"
	KindTimeTrial  Kind = "time_trial"
	KindCrossTrain Kind = "cross_train"
)

// Valid reports whether the kind is one of the known variants.
func (k Kind) Valid() bool {
	switch k {
	case KindPacedRun, KindIntervals, KindTimeTrial, KindCrossTrain:
		return true
	}
	return false
}

// KindInfo describes an activity variant for the creation menu.
type KindInfo struct {
	Kind        Kind
	Title       string
	Description string
}

// KindCatalog lists the variants users can create, with display copy.
var KindCatalog = []KindInfo{
	{KindPacedRun, "General Run", "A general purpose run, maintaining a steady pace for a set time or distance"},
	{KindIntervals, "Intervals", "Repeated short distance runs with rest periods between"},
	{KindTimeTrial, "Time Trial", "A fixed distance run with a specific goal time"},
	{KindCrossTrain, "Cross Training", "Any non-running exercise activity."},
}

// Pace indexes the profile's five-bucket pace table.
type Pace int

const (
	PaceWalk Pace = iota
	PaceJog
	PaceModerate
	PaceHard
	PaceMax
)

var paceLabels = [5]string{"Walk", "Easy Jog", "Moderate Run", "Hard Run", "Maximum Effort"}

// Label returns the user-facing name of the pace bucket.
func (p Pace) Label() string {
	if !p.Valid() {
		return ""
	}
	return paceLabels[p]
}

// Valid reports whether the pace indexes an existing bucket.
func (p Pace) Valid() bool { return p >= PaceWalk && p <= PaceMax }

// Difficulty is the perceived effort of an activity.
type Difficulty int

const (
	DifficultyEasy     Difficulty = 1
	DifficultyModerate Difficulty = 2
	DifficultyHard     Difficulty = 3
)

// Valid reports whether the difficulty is within the 1..3 scale.
func (d Difficulty) Valid() bool { return d >= DifficultyEasy && d <= DifficultyHard }

// TrackingMode selects whether a paced run is measured in minutes or kilometres.
type TrackingMode string

const (
	TrackTime     TrackingMode = "TIME"
	TrackDistance TrackingMode = "DIST"
)

// RestDayName is the resolved display name of a day with no planned activity.
const RestDayName = "Rest Day"

// Activity is the user-defined exercise template referenced by the plan.
// Exactly one of the variant payload pointers is non-nil, selected by Kind.
type Activity struct {
	ID          int64
	OwnerID     string
	Kind        Kind
	Name        string
	CustomName  string
	Info        string
	Distance    float64 // kilometres; estimate for timed runs, base value otherwise
	Difficulty  Difficulty
	LastDone    time.Time // zero when never performed
	Progressive bool

	PacedRun   *PacedRunSpec
	Intervals  *IntervalsSpec
	TimeTrial  *TimeTrialSpec
	CrossTrain *CrossTrainSpec
}

// PacedRunSpec holds the paced-run variant payload. The tracked base value is
// Minutes when Mode is TrackTime, and the activity's Distance otherwise.
type PacedRunSpec struct {
	Mode         TrackingMode
	Pace         Pace
	Minutes      int
	GoalMinutes  int
	IncMinutes   int
	GoalDistance float64
	IncDistance  float64
}

// IntervalsSpec holds the interval-set variant payload.
type IntervalsSpec struct {
	RepLength int // metres per repetition
	RepCount  int
	RepGoal   int
	Increment int
}

// TimeTrialSpec holds the time-trial variant payload. BestSeconds is the
// recorded personal best; TargetSeconds counts down toward GoalSeconds.
type TimeTrialSpec struct {
	BestSeconds   int // 0 = no PB yet
	TargetSeconds int
	GoalSeconds   int
	IncSeconds    int
}

// CrossTrainSpec holds the cross-training variant payload.
type CrossTrainSpec struct {
	Exercise string
}

// Clone returns a deep copy of the activity, including its variant payload.
func (a Activity) Clone() Activity {
	out := a
	if a.PacedRun != nil {
		spec := *a.PacedRun
		out.PacedRun = &spec
	}
	if a.Intervals != nil {
		spec := *a.Intervals
		out.Intervals = &spec
	}
	if a.TimeTrial != nil {
		spec := *a.TimeTrial
		out.TimeTrial = &spec
	}
	if a.CrossTrain != nil {
		spec := *a.CrossTrain
		out.CrossTrain = &spec
	}
	return out
}

// ResolveDisplay recomputes the derived display name, estimated distance and
// goal annotation from the activity's current state. Must be called after any
// mutation that can change those fields.
func (a *Activity) ResolveDisplay(profile *Profile) {
	switch a.Kind {
	case KindPacedRun:
		a.resolvePacedRun(profile)
	case KindIntervals:
		a.resolveIntervals()
	case KindTimeTrial:
		a.resolveTimeTrial()
	case KindCrossTrain:
		a.resolveCrossTrain()
	}
}

func (a *Activity) resolvePacedRun(profile *Profile) {
	spec := a.PacedRun
	if spec == nil {
		return
	}

	// A bare pace preference has nothing to progress.
	if a.Distance == 0 && spec.Minutes == 0 {
		a.Progressive = false
		a.Info = ""
		a.Name = spec.Pace.Label()
	}

	// Infer the tracking mode from whichever base value is present.
	if a.Distance > 0 && spec.Minutes == 0 {
		spec.Mode = TrackDistance
	}
	if a.Distance == 0 && spec.Minutes > 0 {
		spec.Mode = TrackTime
	}

	switch {
	case a.CustomName != "":
		a.Name = a.CustomName
	case spec.Mode == TrackTime && spec.Minutes > 0:
		a.Name = fmt.Sprintf("%d minute %s", spec.Minutes, spec.Pace.Label())
	case spec.Mode == TrackDistance && a.Distance > 0:
		a.Name = fmt.Sprintf("%s KM %s", formatKM(a.Distance), spec.Pace.Label())
	}

	if a.Progressive {
		if spec.Mode == TrackTime && spec.GoalMinutes > 0 {
			a.Info = fmt.Sprintf("Goal:%d minutes", spec.GoalMinutes)
		} else if spec.Mode == TrackDistance && spec.GoalDistance > 0 {
			a.Info = fmt.Sprintf("Goal:%s KM", formatKM(spec.GoalDistance))
		}
	} else {
		a.Info = ""
	}

	// Timed runs carry a distance estimate from the user's pace table. A
	// missing pace bucket degrades to 0 rather than failing.
	if spec.Mode == TrackTime {
		if speed, ok := profile.PaceFor(spec.Pace); ok {
			a.Distance = speed * float64(spec.Minutes) / 60
		} else {
			a.Distance = 0
		}
	}
}

func (a *Activity) resolveIntervals() {
	spec := a.Intervals
	if spec == nil {
		return
	}
	a.Distance = float64(spec.RepLength) / 1000 * float64(spec.RepCount)
	a.Name = fmt.Sprintf("%d x %d m Intervals", spec.RepCount, spec.RepLength)
	if a.CustomName != "" {
		a.Name = a.CustomName
	}
	if a.Progressive && spec.RepGoal > 0 && spec.RepLength > 0 {
		a.Info = fmt.Sprintf("Goal reps:%d x %dm", spec.RepGoal, spec.RepLength)
	}
	if !a.Progressive {
		a.Info = ""
	}
}

func (a *Activity) resolveTimeTrial() {
	spec := a.TimeTrial
	if spec == nil {
		return
	}
	a.Name = fmt.Sprintf("%skm Time Trial", formatKM(a.Distance))
	if a.CustomName != "" {
		a.Name = a.CustomName
	}
	if spec.BestSeconds > 0 {
		a.Info = fmt.Sprintf("PB: %d:%02d", spec.BestSeconds/60, spec.BestSeconds%60)
	} else if !a.Progressive {
		a.Info = ""
	}
	// A progressive trial with no PB yet keeps whatever annotation it had;
	// the goal is only surfaced once a best time exists.
}

func (a *Activity) resolveCrossTrain() {
	spec := a.CrossTrain
	if spec == nil {
		return
	}
	if spec.Exercise == "" {
		spec.Exercise = "Cross Training"
	}
	a.Name = spec.Exercise
	if a.CustomName != "" {
		a.Name = a.CustomName
	}
}

// CompletionInput carries the submission form values applied to an activity.
type CompletionInput struct {
	Date       time.Time
	Difficulty Difficulty
	// Time-trial finishing time; ignored by other variants.
	Minutes int
	Seconds int
}

// ApplyCompletion records a finished session on the activity: perceived
// difficulty, last-done date and, for time trials, the finishing time. A
// slower time-trial result never overwrites the stored personal best.
func (a *Activity) ApplyCompletion(in CompletionInput) {
	if in.Difficulty.Valid() {
		a.Difficulty = in.Difficulty
	}
	a.LastDone = in.Date

	if a.Kind == KindTimeTrial && a.TimeTrial != nil {
		total := in.Minutes*60 + in.Seconds
		if total > 0 && (a.TimeTrial.BestSeconds == 0 || total < a.TimeTrial.BestSeconds) {
			a.TimeTrial.BestSeconds = total
		}
	}
}

// formatKM renders a kilometre value without trailing zeros.
func formatKM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
