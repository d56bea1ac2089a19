package domain_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"example.com/runplan/internal/domain"
	"example.com/runplan/internal/persistence/memory"
)

const owner = "user-1"

func fixedClock() func() time.Time {
	return func() time.Time {
		return time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC) // a Wednesday
	}
}

func newTestService(t *testing.T) (*domain.Service, *memory.Repository) {
	t.Helper()
	repo := memory.NewRepository()
	return domain.NewService(repo, domain.WithClock(fixedClock())), repo
}

func restWeek() map[string]string {
	return map[string]string{
		"day_1": "REST", "day_2": "REST", "day_3": "REST", "day_4": "REST",
		"day_5": "REST", "day_6": "REST", "day_7": "REST",
	}
}

func createTimedRun(t *testing.T, service *domain.Service) *domain.Activity {
	t.Helper()
	created, err := service.CreateActivity(context.Background(), owner, &domain.Activity{
		Kind:        domain.KindPacedRun,
		Progressive: true,
		PacedRun:    &domain.PacedRunSpec{Pace: domain.PaceModerate, Minutes: 35},
	}, &domain.GoalInput{GoalMinutes: "40", Increment: "5"})
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	return created
}

func TestPlanRoundTripPreservesRotation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	days := restWeek()
	days["day_1"] = "1"
	if err := service.SavePlan(ctx, owner, 1, days); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	plan, err := service.LoadPlan(ctx, owner)
	if err != nil {
		t.Fatalf("LoadPlan: %v", err)
	}
	if plan.Weeks != 1 || plan.Slot(1) != 1 {
		t.Fatalf("plan = %+v", plan)
	}

	// A schedule pass anchors the rotation.
	createTimedRun(t, service)
	if _, err := service.Schedule(ctx, owner); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	// Re-saving at the same length keeps the anchor.
	days["day_2"] = "1"
	if err := service.SavePlan(ctx, owner, 1, days); err != nil {
		t.Fatalf("SavePlan again: %v", err)
	}
	view, err := service.Schedule(ctx, owner)
	if err != nil {
		t.Fatalf("Schedule after resave: %v", err)
	}
	if !view.Days[0].Date.Equal(time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("anchor moved on same-length resave: %s", view.Days[0].Date)
	}
}

func TestSavePlanLengthChangeResetsRotation(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	week := restWeek()
	if err := service.SavePlan(ctx, owner, 1, week); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}
	if _, err := service.Schedule(ctx, owner); err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	two := map[string]string{}
	for i := 1; i <= 14; i++ {
		two["day_"+strconv.Itoa(i)] = "REST"
	}
	if err := service.SavePlan(ctx, owner, 2, two); err != nil {
		t.Fatalf("SavePlan two weeks: %v", err)
	}

	profile, err := repo.GetProfile(ctx, owner)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if !profile.AnchorDate.IsZero() || profile.WeekIndex != 0 {
		t.Fatalf("rotation not reset: anchor=%s week=%d", profile.AnchorDate, profile.WeekIndex)
	}
	if profile.PlanLength != 2 {
		t.Fatalf("plan length = %d", profile.PlanLength)
	}
}

func TestScheduleRequiresPlan(t *testing.T) {
	service, _ := newTestService(t)
	if _, err := service.Schedule(context.Background(), owner); !errors.Is(err, domain.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestScheduleFlagsUnresolvedDays(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	activity := createTimedRun(t, service)
	days := restWeek()
	days["day_1"] = strconv.FormatInt(activity.ID, 10) // Monday, two days before "today"
	if err := service.SavePlan(ctx, owner, 1, days); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	view, err := service.Schedule(ctx, owner)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if len(view.Days) != 14 {
		t.Fatalf("days = %d", len(view.Days))
	}
	if len(view.Unresolved) != 1 {
		t.Fatalf("unresolved = %+v, want the skipped Monday", view.Unresolved)
	}

	// Confirming the day as rest clears the backlog.
	if _, err := service.MarkRestDay(ctx, owner, "2026-03-02"); err != nil {
		t.Fatalf("MarkRestDay: %v", err)
	}
	view, err = service.Schedule(ctx, owner)
	if err != nil {
		t.Fatalf("Schedule after rest: %v", err)
	}
	if len(view.Unresolved) != 0 {
		t.Fatalf("unresolved after rest = %+v", view.Unresolved)
	}
	if !view.Days[0].Done || view.Days[0].Name != domain.RestDayName {
		t.Fatalf("rest confirmation not overlaid: %+v", view.Days[0])
	}
}

func TestScheduleTreatsDanglingPlanIDsAsRest(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	days := restWeek()
	days["day_3"] = "999" // never created
	if err := service.SavePlan(ctx, owner, 1, days); err != nil {
		t.Fatalf("SavePlan: %v", err)
	}

	view, err := service.Schedule(ctx, owner)
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	if view.Days[2].Name != domain.RestDayName || view.Days[2].ActivityID != 0 {
		t.Fatalf("dangling id not degraded: %+v", view.Days[2])
	}
	if len(view.Unresolved) != 0 {
		t.Fatalf("dangling rest day reported unresolved: %+v", view.Unresolved)
	}
}

func TestSubmitCompletionPipeline(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()

	activity := createTimedRun(t, service)

	result, err := service.SubmitCompletion(ctx, owner, domain.SubmissionInput{
		EventID:    "evt-1",
		ActivityID: activity.ID,
		Date:       "2026-03-04",
		Difficulty: 2,
		GoalMet:    true,
	})
	if err != nil {
		t.Fatalf("SubmitCompletion: %v", err)
	}

	// One advance from 35 with increment 5 lands on the 40-minute goal.
	if !result.GoalReached {
		t.Fatal("goal not reported reached")
	}
	// The completion snapshots the pre-advance display state.
	if result.Completion.Name != "35 minute Moderate Run" {
		t.Fatalf("completion name = %q", result.Completion.Name)
	}

	stored, err := service.GetActivity(ctx, owner, activity.ID)
	if err != nil {
		t.Fatalf("GetActivity: %v", err)
	}
	if stored.Progressive {
		t.Fatal("progression not closed after reaching goal")
	}
	if stored.PacedRun.Minutes != 40 {
		t.Fatalf("minutes = %d", stored.PacedRun.Minutes)
	}
	if stored.Name != "40 minute Moderate Run" {
		t.Fatalf("resolved name = %q", stored.Name)
	}

	mileage, err := service.MileageHistory(ctx, owner)
	if err != nil {
		t.Fatalf("MileageHistory: %v", err)
	}
	if len(mileage) != 1 || mileage[0].Distance != result.Completion.Distance {
		t.Fatalf("mileage = %+v", mileage)
	}

	var types []string
	for _, e := range repo.Events() {
		types = append(types, e.Type)
	}
	if len(types) != 2 || types[0] != domain.EventCompletionRecorded || types[1] != domain.EventGoalReached {
		t.Fatalf("event types = %v", types)
	}
}

func TestSubmitCompletionIdempotentReplay(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	activity := createTimedRun(t, service)

	in := domain.SubmissionInput{
		EventID:    "evt-dup",
		ActivityID: activity.ID,
		Date:       "2026-03-04",
		Difficulty: 1,
	}
	if _, err := service.SubmitCompletion(ctx, owner, in); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	if _, err := service.SubmitCompletion(ctx, owner, in); err != nil {
		t.Fatalf("replay: %v", err)
	}

	if n := repo.CompletionCount(owner); n != 1 {
		t.Fatalf("completion count = %d, want 1 after replay", n)
	}
	if n := len(repo.Events()); n != 1 {
		t.Fatalf("event count = %d, want 1 after replay", n)
	}
}

func TestSubmitCompletionValidation(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	activity := createTimedRun(t, service)

	if _, err := service.SubmitCompletion(ctx, owner, domain.SubmissionInput{
		ActivityID: activity.ID, Date: "04/03/2026", Difficulty: 2,
	}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad date: %v", err)
	}

	if _, err := service.SubmitCompletion(ctx, owner, domain.SubmissionInput{
		ActivityID: activity.ID, Date: "2026-03-04", Difficulty: 4,
	}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("bad difficulty: %v", err)
	}

	if _, err := service.SubmitCompletion(ctx, owner, domain.SubmissionInput{
		ActivityID: 12345, Date: "2026-03-04", Difficulty: 2,
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("unknown activity: %v", err)
	}
}

func TestSubmitCompletionOwnershipIsolated(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	activity := createTimedRun(t, service)

	// Another user referencing this activity id reads as not found.
	if _, err := service.SubmitCompletion(ctx, "user-2", domain.SubmissionInput{
		ActivityID: activity.ID, Date: "2026-03-04", Difficulty: 2,
	}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("foreign activity: %v", err)
	}
}

func TestUpdateActivityKindImmutable(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()
	activity := createTimedRun(t, service)

	_, err := service.UpdateActivity(ctx, owner, &domain.Activity{
		ID:        activity.ID,
		Kind:      domain.KindIntervals,
		Intervals: &domain.IntervalsSpec{RepLength: 400, RepCount: 6},
	}, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdatePacesValidatesAndStores(t *testing.T) {
	service, _ := newTestService(t)
	ctx := context.Background()

	err := service.UpdatePaces(ctx, owner, [5]float64{6, 9, 10, 11, 0})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("zero pace accepted: %v", err)
	}

	if err := service.UpdatePaces(ctx, owner, [5]float64{6, 9, 10, 11, 14}); err != nil {
		t.Fatalf("UpdatePaces: %v", err)
	}

	// New estimates use the stored table.
	created, err := service.CreateActivity(ctx, owner, &domain.Activity{
		Kind:     domain.KindPacedRun,
		PacedRun: &domain.PacedRunSpec{Pace: domain.PaceModerate, Minutes: 30},
	}, nil)
	if err != nil {
		t.Fatalf("CreateActivity: %v", err)
	}
	if created.Distance != 5 { // 10 km/h for 30 minutes
		t.Fatalf("distance = %v, want 5", created.Distance)
	}
}

func TestDeleteActivityLeavesHistory(t *testing.T) {
	service, repo := newTestService(t)
	ctx := context.Background()
	activity := createTimedRun(t, service)

	if _, err := service.SubmitCompletion(ctx, owner, domain.SubmissionInput{
		ActivityID: activity.ID, Date: "2026-03-03", Difficulty: 2,
	}); err != nil {
		t.Fatalf("SubmitCompletion: %v", err)
	}

	if err := service.DeleteActivity(ctx, owner, activity.ID); err != nil {
		t.Fatalf("DeleteActivity: %v", err)
	}
	if _, err := service.GetActivity(ctx, owner, activity.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := repo.CompletionCount(owner); n != 1 {
		t.Fatalf("completion count = %d, history must survive deletion", n)
	}
}
