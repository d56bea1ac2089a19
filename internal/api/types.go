package api

import (
	"errors"
	"fmt"
	"time"

	"example.com/runplan/internal/domain"
)

// ActivityRequest is the create/update payload for an activity. Variant
// payloads are optional; the one matching Kind is used.
type ActivityRequest struct {
	Kind        string  `json:"kind"`
	CustomName  string  `json:"custom_name"`
	Difficulty  int     `json:"difficulty"`
	Distance    float64 `json:"distance"`
	Progressive bool    `json:"progressive"`

	PacedRun   *PacedRunPayload   `json:"paced_run,omitempty"`
	Intervals  *IntervalsPayload  `json:"intervals,omitempty"`
	TimeTrial  *TimeTrialPayload  `json:"time_trial,omitempty"`
	CrossTrain *CrossTrainPayload `json:"cross_train,omitempty"`

	Goal *GoalRequest `json:"goal,omitempty"`
}

// PacedRunPayload mirrors domain.PacedRunSpec on the wire.
type PacedRunPayload struct {
	Mode    string `json:"mode,omitempty"`
	Pace    int    `json:"pace"`
	Minutes int    `json:"minutes,omitempty"`
}

// IntervalsPayload mirrors domain.IntervalsSpec on the wire.
type IntervalsPayload struct {
	RepLength int `json:"rep_length"`
	RepCount  int `json:"rep_count"`
}

// TimeTrialPayload mirrors domain.TimeTrialSpec on the wire.
type TimeTrialPayload struct {
	BestMinutes int `json:"best_minutes,omitempty"`
	BestSeconds int `json:"best_seconds,omitempty"`
}

// CrossTrainPayload mirrors domain.CrossTrainSpec on the wire.
type CrossTrainPayload struct {
	Exercise string `json:"exercise"`
}

// Validate checks structural constraints before the request reaches the
// service layer.
func (r ActivityRequest) Validate() error {
	kind := domain.Kind(r.Kind)
	if !kind.Valid() {
		return fmt.Errorf("unknown activity kind %q", r.Kind)
	}
	if r.Difficulty != 0 && !domain.Difficulty(r.Difficulty).Valid() {
		return errors.New("difficulty must be 1, 2 or 3")
	}
	if r.Distance < 0 {
		return errors.New("distance must not be negative")
	}
	switch kind {
	case domain.KindPacedRun:
		if r.PacedRun == nil {
			return errors.New("paced_run payload required")
		}
		if !domain.Pace(r.PacedRun.Pace).Valid() {
			return errors.New("pace must be between 0 and 4")
		}
		if r.PacedRun.Minutes < 0 {
			return errors.New("minutes must not be negative")
		}
	case domain.KindIntervals:
		if r.Intervals == nil {
			return errors.New("intervals payload required")
		}
		if r.Intervals.RepLength <= 0 || r.Intervals.RepCount <= 0 {
			return errors.New("rep_length and rep_count must be positive")
		}
	case domain.KindTimeTrial:
		if r.TimeTrial == nil {
			return errors.New("time_trial payload required")
		}
		if r.Distance <= 0 {
			return errors.New("time trials need a distance")
		}
	case domain.KindCrossTrain:
		if r.CrossTrain == nil {
			return errors.New("cross_train payload required")
		}
	}
	return nil
}

func (r ActivityRequest) toActivity() *domain.Activity {
	activity := &domain.Activity{
		Kind:        domain.Kind(r.Kind),
		CustomName:  r.CustomName,
		Difficulty:  domain.Difficulty(r.Difficulty),
		Distance:    r.Distance,
		Progressive: r.Progressive,
	}
	switch activity.Kind {
	case domain.KindPacedRun:
		activity.PacedRun = &domain.PacedRunSpec{
			Mode:    domain.TrackingMode(r.PacedRun.Mode),
			Pace:    domain.Pace(r.PacedRun.Pace),
			Minutes: r.PacedRun.Minutes,
		}
	case domain.KindIntervals:
		activity.Intervals = &domain.IntervalsSpec{
			RepLength: r.Intervals.RepLength,
			RepCount:  r.Intervals.RepCount,
		}
	case domain.KindTimeTrial:
		activity.TimeTrial = &domain.TimeTrialSpec{
			BestSeconds: r.TimeTrial.BestMinutes*60 + r.TimeTrial.BestSeconds,
		}
	case domain.KindCrossTrain:
		activity.CrossTrain = &domain.CrossTrainSpec{Exercise: r.CrossTrain.Exercise}
	}
	return activity
}

func (r ActivityRequest) goalInput() *domain.GoalInput {
	if r.Goal == nil {
		return nil
	}
	goal := r.Goal.toGoalInput()
	return &goal
}

// GoalRequest carries goal/progression form values. Fields are strings so
// partial updates can distinguish "absent" from zero; numeric fields that are
// present must parse.
type GoalRequest struct {
	GoalMinutes  string `json:"goal_minutes,omitempty"`
	GoalSeconds  string `json:"goal_seconds,omitempty"`
	GoalDistance string `json:"goal_distance,omitempty"`
	RepGoal      string `json:"rep_goal,omitempty"`
	Increment    string `json:"increment,omitempty"`
}

func (r GoalRequest) toGoalInput() domain.GoalInput {
	return domain.GoalInput{
		GoalMinutes:  r.GoalMinutes,
		GoalSeconds:  r.GoalSeconds,
		GoalDistance: r.GoalDistance,
		RepGoal:      r.RepGoal,
		Increment:    r.Increment,
	}
}

// ActivityView is the serialized form of a stored activity.
type ActivityView struct {
	ID          int64   `json:"id"`
	Kind        string  `json:"kind"`
	Name        string  `json:"name"`
	CustomName  string  `json:"custom_name,omitempty"`
	Info        string  `json:"info,omitempty"`
	Distance    float64 `json:"distance"`
	Difficulty  int     `json:"difficulty"`
	LastDone    string  `json:"last_done,omitempty"`
	Progressive bool    `json:"progressive"`

	PacedRun   *PacedRunView   `json:"paced_run,omitempty"`
	Intervals  *IntervalsView  `json:"intervals,omitempty"`
	TimeTrial  *TimeTrialView  `json:"time_trial,omitempty"`
	CrossTrain *CrossTrainView `json:"cross_train,omitempty"`
}

// PacedRunView is the serialized paced-run payload.
type PacedRunView struct {
	Mode         string  `json:"mode"`
	Pace         int     `json:"pace"`
	PaceLabel    string  `json:"pace_label"`
	Minutes      int     `json:"minutes,omitempty"`
	GoalMinutes  int     `json:"goal_minutes,omitempty"`
	IncMinutes   int     `json:"inc_minutes,omitempty"`
	GoalDistance float64 `json:"goal_distance,omitempty"`
	IncDistance  float64 `json:"inc_distance,omitempty"`
}

// IntervalsView is the serialized interval-set payload.
type IntervalsView struct {
	RepLength int `json:"rep_length"`
	RepCount  int `json:"rep_count"`
	RepGoal   int `json:"rep_goal,omitempty"`
	Increment int `json:"increment,omitempty"`
}

// TimeTrialView is the serialized time-trial payload.
type TimeTrialView struct {
	BestSeconds   int `json:"best_seconds,omitempty"`
	TargetSeconds int `json:"target_seconds,omitempty"`
	GoalSeconds   int `json:"goal_seconds,omitempty"`
	IncSeconds    int `json:"inc_seconds,omitempty"`
}

// CrossTrainView is the serialized cross-training payload.
type CrossTrainView struct {
	Exercise string `json:"exercise"`
}

func toActivityView(a domain.Activity) ActivityView {
	view := ActivityView{
		ID:          a.ID,
		Kind:        string(a.Kind),
		Name:        a.Name,
		CustomName:  a.CustomName,
		Info:        a.Info,
		Distance:    a.Distance,
		Difficulty:  int(a.Difficulty),
		Progressive: a.Progressive,
	}
	if !a.LastDone.IsZero() {
		view.LastDone = a.LastDone.Format(time.DateOnly)
	}
	if a.PacedRun != nil {
		view.PacedRun = &PacedRunView{
			Mode:         string(a.PacedRun.Mode),
			Pace:         int(a.PacedRun.Pace),
			PaceLabel:    a.PacedRun.Pace.Label(),
			Minutes:      a.PacedRun.Minutes,
			GoalMinutes:  a.PacedRun.GoalMinutes,
			IncMinutes:   a.PacedRun.IncMinutes,
			GoalDistance: a.PacedRun.GoalDistance,
			IncDistance:  a.PacedRun.IncDistance,
		}
	}
	if a.Intervals != nil {
		view.Intervals = &IntervalsView{
			RepLength: a.Intervals.RepLength,
			RepCount:  a.Intervals.RepCount,
			RepGoal:   a.Intervals.RepGoal,
			Increment: a.Intervals.Increment,
		}
	}
	if a.TimeTrial != nil {
		view.TimeTrial = &TimeTrialView{
			BestSeconds:   a.TimeTrial.BestSeconds,
			TargetSeconds: a.TimeTrial.TargetSeconds,
			GoalSeconds:   a.TimeTrial.GoalSeconds,
			IncSeconds:    a.TimeTrial.IncSeconds,
		}
	}
	if a.CrossTrain != nil {
		view.CrossTrain = &CrossTrainView{Exercise: a.CrossTrain.Exercise}
	}
	return view
}

// ListActivitiesResponse wraps the activity collection.
type ListActivitiesResponse struct {
	Items []ActivityView `json:"items"`
}

// CatalogEntry describes one creatable activity variant.
type CatalogEntry struct {
	Kind        string `json:"kind"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// CatalogResponse lists the creatable activity variants.
type CatalogResponse struct {
	Items []CatalogEntry `json:"items"`
}

// DayView is one rendered calendar day.
type DayView struct {
	Date       string `json:"date"`
	Name       string `json:"name"`
	ActivityID int64  `json:"activity_id,omitempty"`
	Done       bool   `json:"done"`
	Past       bool   `json:"past"`
	Today      bool   `json:"today"`
}

func toDayViews(days []domain.Day) []DayView {
	out := make([]DayView, 0, len(days))
	for _, d := range days {
		out = append(out, DayView{
			Date:       d.Date.Format(time.DateOnly),
			Name:       d.Name,
			ActivityID: d.ActivityID,
			Done:       d.Done,
			Past:       d.Past,
			Today:      d.Today,
		})
	}
	return out
}

// ScheduleResponse is the reconciled two-week calendar. Configured is false
// when the user has not created a plan yet.
type ScheduleResponse struct {
	Configured         bool      `json:"configured"`
	Days               []DayView `json:"days,omitempty"`
	Unresolved         []DayView `json:"unresolved,omitempty"`
	ResolutionRequired bool      `json:"resolution_required"`
}

// PlanPayload is the wire form of a training plan, used for both requests
// and responses.
type PlanPayload struct {
	Weeks int               `json:"weeks"`
	Days  map[string]string `json:"days"`
}

// SpacingWarningView is one advisory plan-spacing warning.
type SpacingWarningView struct {
	Day     int    `json:"day"`
	Message string `json:"message"`
}

// PlanCheckResponse carries the advisory report for a candidate plan.
type PlanCheckResponse struct {
	Warnings       []SpacingWarningView `json:"warnings"`
	WeeklyDistance []float64            `json:"weekly_distance"`
}

// SubmitRequest records a finished activity session.
type SubmitRequest struct {
	ActivityID int64  `json:"activity_id"`
	Date       string `json:"date"`
	Difficulty int    `json:"difficulty"`
	GoalMet    bool   `json:"goal_met"`
	Minutes    int    `json:"minutes,omitempty"`
	Seconds    int    `json:"seconds,omitempty"`
}

// Validate checks structural constraints on the submission.
func (r SubmitRequest) Validate() error {
	if r.ActivityID <= 0 {
		return errors.New("activity_id is required")
	}
	if r.Date == "" {
		return errors.New("date is required")
	}
	if !domain.Difficulty(r.Difficulty).Valid() {
		return errors.New("difficulty must be 1, 2 or 3")
	}
	if r.Minutes < 0 || r.Seconds < 0 {
		return errors.New("finishing time must not be negative")
	}
	return nil
}

// RestDayRequest marks a calendar day as deliberately skipped.
type RestDayRequest struct {
	Date string `json:"date"`
}

// CompletionView is the stored record of a finished session.
type CompletionView struct {
	ID       string  `json:"id"`
	Date     string  `json:"date"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// SubmitResponse reports the recorded completion and whether the submission
// closed out a progression goal.
type SubmitResponse struct {
	Completion  CompletionView `json:"completion"`
	GoalReached bool           `json:"goal_reached"`
}

func toSubmitResponse(result *domain.SubmissionResult) SubmitResponse {
	return SubmitResponse{
		Completion: CompletionView{
			ID:       result.Completion.ID,
			Date:     result.Completion.Date.Format(time.DateOnly),
			Name:     result.Completion.Name,
			Distance: result.Completion.Distance,
		},
		GoalReached: result.GoalReached,
	}
}

// WeekEntryView is one weekly mileage bucket.
type WeekEntryView struct {
	WeekStart string  `json:"week_start"`
	Distance  float64 `json:"distance"`
}

// MileageResponse lists weekly mileage, newest first.
type MileageResponse struct {
	Entries []WeekEntryView `json:"entries"`
}

// PacesRequest replaces the five-bucket pace table, in km/h from Walk to
// Maximum Effort.
type PacesRequest struct {
	Paces [5]float64 `json:"paces"`
}
