// Package domain implements the training plan engine: plan rotation,
// history reconciliation, progression and mileage tracking.
package domain

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"example.com/runplan/internal/observability"
)

// Repository captures the persistence operations the engine consumes. All
// calls are keyed by owner id; entities belonging to other users read as
// absent.
type Repository interface {
	// GetProfile returns nil, nil when the user has no profile yet.
	GetProfile(ctx context.Context, ownerID string) (*Profile, error)
	CreateProfile(ctx context.Context, profile *Profile) error
	SaveProfile(ctx context.Context, profile *Profile) error

	// CreateActivity assigns the activity's id.
	CreateActivity(ctx context.Context, activity *Activity) error
	// GetActivity returns nil, nil when absent or foreign-owned.
	GetActivity(ctx context.Context, ownerID string, id int64) (*Activity, error)
	ListActivities(ctx context.Context, ownerID string) ([]Activity, error)
	SaveActivity(ctx context.Context, activity *Activity) error
	DeleteActivity(ctx context.Context, ownerID string, id int64) error

	ListCompletions(ctx context.Context, ownerID string, from, to time.Time) ([]CompletedAct, error)

	// ApplySubmission persists one completion event atomically: the record,
	// the mutated activity and profile, the retention reap and the outbox
	// events all land or none do. Replays of the same event id are no-ops.
	ApplySubmission(ctx context.Context, sub Submission) error
}

// Submission is the unit of work persisted for one completion event.
type Submission struct {
	EventID     string // idempotency key
	OwnerID     string
	Completion  CompletedAct
	Activity    *Activity // nil for rest-day confirmations
	Profile     *Profile
	PruneBefore time.Time
	Events      []Event
}

// Event is a domain event recorded alongside a submission for outbox
// delivery.
type Event struct {
	Type    string
	Payload any
}

// Domain event types emitted by the submission pipeline.
const (
	EventCompletionRecorded = "completion.recorded"
	EventGoalReached        = "goal.reached"
)

// CompletionRecordedPayload is the completion.recorded event body.
type CompletionRecordedPayload struct {
	EventID  string  `json:"event_id"`
	OwnerID  string  `json:"owner_id"`
	Date     string  `json:"date"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// GoalReachedPayload is the goal.reached event body.
type GoalReachedPayload struct {
	OwnerID    string `json:"owner_id"`
	ActivityID int64  `json:"activity_id"`
	Name       string `json:"name"`
}

// Service orchestrates the engine over a Repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

// Option customizes Service construction.
type Option func(*Service)

// WithClock overrides the service's time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService constructs a Service.
func NewService(repo Repository, opts ...Option) *Service {
	s := &Service{repo: repo, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() time.Time {
	return DateOnly(s.now().UTC())
}

// getOrCreateProfile is the idempotent fetch-or-create behind every
// profile-touching operation.
func (s *Service) getOrCreateProfile(ctx context.Context, ownerID string) (*Profile, error) {
	profile, err := s.repo.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if profile != nil {
		return profile, nil
	}
	profile = NewProfile(ownerID)
	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// ScheduleView is the reconciled 14-day calendar handed to the rendering
// boundary, plain data only.
type ScheduleView struct {
	Days       []Day
	Unresolved []Day
}

// Schedule runs one full rendering pass: rotation maintenance, calendar
// build, history overlay and unresolved-day detection. The rotation state is
// persisted only when it actually advanced, keeping the pass idempotent
// within a day. Returns ErrNotConfigured when the user has no plan.
func (s *Service) Schedule(ctx context.Context, ownerID string) (*ScheduleView, error) {
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if profile.Plan == nil {
		return nil, ErrNotConfigured
	}

	today := s.today()
	state, changed := ComputeRotationAdvance(profile.Rotation(), today)
	if changed {
		profile.SetRotation(state)
		profile.UpdatedAt = s.now().UTC()
		if err := s.repo.SaveProfile(ctx, profile); err != nil {
			return nil, err
		}
		observability.RecordRotationAdvance()
	}

	activities, err := s.repo.ListActivities(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(activities))
	for _, a := range activities {
		names[a.ID] = a.Name
	}
	resolve := func(id int64) (string, bool) {
		name, ok := names[id]
		if !ok {
			log.Printf("schedule: plan for %s references missing activity %d, treating as rest", ownerID, id)
		}
		return name, ok
	}

	days := BuildCalendar(profile.Plan, state, today, resolve)

	from := state.Anchor
	to := state.Anchor.AddDate(0, 0, calendarDays-1)
	completions, err := s.repo.ListCompletions(ctx, ownerID, from, to)
	if err != nil {
		return nil, err
	}
	OverlayHistory(days, completions)

	return &ScheduleView{Days: days, Unresolved: UnresolvedDays(days)}, nil
}

// LoadPlan returns the user's stored plan, or ErrNotConfigured.
func (s *Service) LoadPlan(ctx context.Context, ownerID string) (*Plan, error) {
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if profile.Plan == nil {
		return nil, ErrNotConfigured
	}
	return profile.Plan, nil
}

// SavePlan replaces the user's plan wholesale. Changing the cycle length
// resets the rotation state; re-saving content at the same length leaves the
// rotation untouched.
func (s *Service) SavePlan(ctx context.Context, ownerID string, weeks int, days map[string]string) error {
	plan, err := ParsePlan(weeks, days)
	if err != nil {
		return err
	}
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return err
	}
	if profile.PlanLength != weeks {
		profile.PlanLength = weeks
		profile.ResetRotation()
	}
	profile.Plan = plan
	profile.UpdatedAt = s.now().UTC()
	return s.repo.SaveProfile(ctx, profile)
}

// PlanReport is the advisory output for a plan under construction.
type PlanReport struct {
	Warnings       []SpacingWarning
	WeeklyDistance []float64
}

// CheckPlan computes the advisory difficulty-spacing warnings and per-week
// mileage for a candidate plan without storing anything.
func (s *Service) CheckPlan(ctx context.Context, ownerID string, weeks int, days map[string]string) (*PlanReport, error) {
	plan, err := ParsePlan(weeks, days)
	if err != nil {
		return nil, err
	}
	activities, err := s.repo.ListActivities(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]Activity, len(activities))
	for _, a := range activities {
		byID[a.ID] = a
	}
	report := &PlanReport{
		Warnings: CheckPlanSpacing(plan, func(id int64) (Difficulty, bool) {
			a, ok := byID[id]
			return a.Difficulty, ok
		}),
		WeeklyDistance: PlanWeeklyDistance(plan, func(id int64) (float64, bool) {
			a, ok := byID[id]
			return a.Distance, ok
		}),
	}
	return report, nil
}

// CreateActivity validates, resolves and stores a new activity for the
// owner, applying any goal input when the activity is progressive.
func (s *Service) CreateActivity(ctx context.Context, ownerID string, activity *Activity, goal *GoalInput) (*Activity, error) {
	if !activity.Kind.Valid() {
		return nil, fmt.Errorf("%w: unknown activity kind %q", ErrValidation, activity.Kind)
	}
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	activity.OwnerID = ownerID
	if !activity.Difficulty.Valid() {
		activity.Difficulty = DifficultyModerate
	}
	if activity.Progressive && goal != nil {
		if err := activity.ApplyGoal(*goal); err != nil {
			return nil, err
		}
	}
	activity.ResolveDisplay(profile)
	if err := s.repo.CreateActivity(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// GetActivity fetches one of the owner's activities.
func (s *Service) GetActivity(ctx context.Context, ownerID string, id int64) (*Activity, error) {
	activity, err := s.repo.GetActivity(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, ErrNotFound
	}
	return activity, nil
}

// ListActivities returns all of the owner's activities, oldest last-done
// first by repository convention.
func (s *Service) ListActivities(ctx context.Context, ownerID string) ([]Activity, error) {
	return s.repo.ListActivities(ctx, ownerID)
}

// UpdateActivity applies edited fields to a stored activity and re-resolves
// its display state.
func (s *Service) UpdateActivity(ctx context.Context, ownerID string, updated *Activity, goal *GoalInput) (*Activity, error) {
	current, err := s.GetActivity(ctx, ownerID, updated.ID)
	if err != nil {
		return nil, err
	}
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if updated.Kind != current.Kind {
		return nil, fmt.Errorf("%w: activity kind cannot change", ErrValidation)
	}
	updated.OwnerID = ownerID
	updated.LastDone = current.LastDone
	if !updated.Difficulty.Valid() {
		updated.Difficulty = current.Difficulty
	}
	if updated.Progressive && goal != nil {
		if err := updated.ApplyGoal(*goal); err != nil {
			return nil, err
		}
	}
	updated.ResolveDisplay(profile)
	if err := s.repo.SaveActivity(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteActivity removes an activity. Completion history is untouched, and
// plan slots referencing the id degrade to rest days at calendar build.
func (s *Service) DeleteActivity(ctx context.Context, ownerID string, id int64) error {
	if _, err := s.GetActivity(ctx, ownerID, id); err != nil {
		return err
	}
	return s.repo.DeleteActivity(ctx, ownerID, id)
}

// SetGoal stores goal/progression values on an activity.
func (s *Service) SetGoal(ctx context.Context, ownerID string, id int64, goal GoalInput) (*Activity, error) {
	activity, err := s.GetActivity(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if err := activity.ApplyGoal(goal); err != nil {
		return nil, err
	}
	activity.ResolveDisplay(profile)
	if err := s.repo.SaveActivity(ctx, activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// SubmissionInput is the submission boundary's payload for a completed
// activity.
type SubmissionInput struct {
	EventID    string // optional idempotency key; generated when empty
	ActivityID int64
	Date       string // ISO date
	Difficulty int
	GoalMet    bool
	Minutes    int // time-trial finishing time
	Seconds    int
}

// SubmissionResult reports what the pipeline did.
type SubmissionResult struct {
	Completion  CompletedAct
	GoalReached bool
}

// SubmitCompletion runs the whole submission pipeline for one completed
// activity: record the completion, advance progression when the goal was
// met, recompute the display, fold distance into the weekly mileage buckets
// and reap records past the retention window. The repository applies it
// atomically; retries with the same event id are safe.
func (s *Service) SubmitCompletion(ctx context.Context, ownerID string, in SubmissionInput) (*SubmissionResult, error) {
	date, err := parseISODate(in.Date)
	if err != nil {
		return nil, err
	}
	if !Difficulty(in.Difficulty).Valid() {
		return nil, fmt.Errorf("%w: difficulty must be 1, 2 or 3", ErrValidation)
	}

	activity, err := s.GetActivity(ctx, ownerID, in.ActivityID)
	if err != nil {
		return nil, err
	}
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	activity.ApplyCompletion(CompletionInput{
		Date:       date,
		Difficulty: Difficulty(in.Difficulty),
		Minutes:    in.Minutes,
		Seconds:    in.Seconds,
	})

	// The completion record snapshots the display state before progression
	// moves the goalposts.
	eventID := in.EventID
	if eventID == "" {
		eventID = uuid.NewString()
	}
	completion := CompletedAct{
		ID:       eventID,
		OwnerID:  ownerID,
		Date:     date,
		Name:     activity.Name,
		Distance: activity.Distance,
	}

	goalReached := false
	if in.GoalMet && activity.Progressive {
		goalReached, err = activity.Advance()
		if err != nil {
			return nil, err
		}
	}
	activity.ResolveDisplay(profile)

	profile.Mileage = AddMileage(profile.Mileage, date, completion.Distance)
	profile.UpdatedAt = s.now().UTC()

	events := []Event{{
		Type: EventCompletionRecorded,
		Payload: CompletionRecordedPayload{
			EventID:  eventID,
			OwnerID:  ownerID,
			Date:     date.Format(time.DateOnly),
			Name:     completion.Name,
			Distance: completion.Distance,
		},
	}}
	if goalReached {
		events = append(events, Event{
			Type: EventGoalReached,
			Payload: GoalReachedPayload{
				OwnerID:    ownerID,
				ActivityID: activity.ID,
				Name:       activity.Name,
			},
		})
		observability.RecordGoalReached()
	}

	sub := Submission{
		EventID:     eventID,
		OwnerID:     ownerID,
		Completion:  completion,
		Activity:    activity,
		Profile:     profile,
		PruneBefore: s.today().AddDate(0, 0, -RetentionDays),
		Events:      events,
	}
	if err := s.repo.ApplySubmission(ctx, sub); err != nil {
		return nil, err
	}
	observability.RecordSubmission(s.now().UTC())

	return &SubmissionResult{Completion: completion, GoalReached: goalReached}, nil
}

// MarkRestDay confirms a past day as rest, resolving it without an activity.
func (s *Service) MarkRestDay(ctx context.Context, ownerID string, isoDate string) (*SubmissionResult, error) {
	date, err := parseISODate(isoDate)
	if err != nil {
		return nil, err
	}
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	eventID := uuid.NewString()
	completion := CompletedAct{
		ID:      eventID,
		OwnerID: ownerID,
		Date:    date,
		Name:    RestDayName,
	}
	profile.UpdatedAt = s.now().UTC()

	sub := Submission{
		EventID:     eventID,
		OwnerID:     ownerID,
		Completion:  completion,
		Profile:     profile,
		PruneBefore: s.today().AddDate(0, 0, -RetentionDays),
		Events: []Event{{
			Type: EventCompletionRecorded,
			Payload: CompletionRecordedPayload{
				EventID: eventID,
				OwnerID: ownerID,
				Date:    date.Format(time.DateOnly),
				Name:    RestDayName,
			},
		}},
	}
	if err := s.repo.ApplySubmission(ctx, sub); err != nil {
		return nil, err
	}
	observability.RecordSubmission(s.now().UTC())

	return &SubmissionResult{Completion: completion}, nil
}

// MileageHistory returns the weekly distance buckets, newest first.
func (s *Service) MileageHistory(ctx context.Context, ownerID string) ([]WeekEntry, error) {
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return profile.Mileage, nil
}

// UpdatePaces replaces the user's five-bucket pace table.
func (s *Service) UpdatePaces(ctx context.Context, ownerID string, paces [5]float64) error {
	for i, v := range paces {
		if v <= 0 {
			return fmt.Errorf("%w: pace %q must be positive", ErrValidation, Pace(i).Label())
		}
	}
	profile, err := s.getOrCreateProfile(ctx, ownerID)
	if err != nil {
		return err
	}
	profile.Paces = paces
	profile.UpdatedAt = s.now().UTC()
	return s.repo.SaveProfile(ctx, profile)
}

func parseISODate(raw string) (time.Time, error) {
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return DateOnly(date), nil
}
