package domain

import (
	"math"
	"testing"
	"time"
)

func testProfile() *Profile {
	return NewProfile("owner-1")
}

func TestResolveTimedRunName(t *testing.T) {
	a := &Activity{
		Kind:     KindPacedRun,
		PacedRun: &PacedRunSpec{Pace: PaceModerate, Minutes: 30},
	}
	a.ResolveDisplay(testProfile())

	if a.Name != "30 minute Moderate Run" {
		t.Fatalf("name = %q", a.Name)
	}
	if a.PacedRun.Mode != TrackTime {
		t.Fatalf("mode = %q, want TIME inferred", a.PacedRun.Mode)
	}
	// 10.5 km/h for 30 minutes.
	if a.Distance != 5.25 {
		t.Fatalf("distance estimate = %v, want 5.25", a.Distance)
	}
}

func TestResolveDistanceRunName(t *testing.T) {
	a := &Activity{
		Kind:     KindPacedRun,
		Distance: 7.5,
		PacedRun: &PacedRunSpec{Pace: PaceHard},
	}
	a.ResolveDisplay(testProfile())

	if a.Name != "7.5 KM Hard Run" {
		t.Fatalf("name = %q", a.Name)
	}
	if a.PacedRun.Mode != TrackDistance {
		t.Fatalf("mode = %q, want DIST inferred", a.PacedRun.Mode)
	}
}

func TestResolveBarePaceDisablesProgression(t *testing.T) {
	a := &Activity{
		Kind:        KindPacedRun,
		Progressive: true,
		PacedRun:    &PacedRunSpec{Pace: PaceJog},
	}
	a.ResolveDisplay(testProfile())

	if a.Progressive {
		t.Fatal("bare pace preference must not stay progressive")
	}
	if a.Name != "Easy Jog" {
		t.Fatalf("name = %q", a.Name)
	}
}

func TestResolveCustomNameWins(t *testing.T) {
	a := &Activity{
		Kind:       KindPacedRun,
		CustomName: "Tempo Tuesday",
		PacedRun:   &PacedRunSpec{Pace: PaceModerate, Minutes: 30},
	}
	a.ResolveDisplay(testProfile())
	if a.Name != "Tempo Tuesday" {
		t.Fatalf("name = %q", a.Name)
	}
}

func TestResolveMissingPaceBucketDegradesToZero(t *testing.T) {
	profile := testProfile()
	profile.Paces[PaceModerate] = 0

	a := &Activity{
		Kind:     KindPacedRun,
		PacedRun: &PacedRunSpec{Pace: PaceModerate, Minutes: 30},
	}
	a.ResolveDisplay(profile)
	if a.Distance != 0 {
		t.Fatalf("distance = %v, want 0 for missing pace", a.Distance)
	}
}

func TestResolveIntervalsNameAndDistance(t *testing.T) {
	a := &Activity{
		Kind:      KindIntervals,
		Intervals: &IntervalsSpec{RepLength: 400, RepCount: 6},
	}
	a.ResolveDisplay(testProfile())

	if a.Name != "6 x 400 m Intervals" {
		t.Fatalf("name = %q", a.Name)
	}
	if math.Abs(a.Distance-2.4) > 1e-9 {
		t.Fatalf("distance = %v, want 2.4", a.Distance)
	}
}

func TestResolveTimeTrialShowsPB(t *testing.T) {
	a := &Activity{
		Kind:      KindTimeTrial,
		Distance:  5,
		TimeTrial: &TimeTrialSpec{BestSeconds: 1501},
	}
	a.ResolveDisplay(testProfile())

	if a.Name != "5km Time Trial" {
		t.Fatalf("name = %q", a.Name)
	}
	if a.Info != "PB: 25:01" {
		t.Fatalf("info = %q", a.Info)
	}
}

func TestResolveTimeTrialWithoutBestKeepsAnnotation(t *testing.T) {
	a := &Activity{
		Kind:        KindTimeTrial,
		Distance:    5,
		Info:        "previous note",
		Progressive: true,
		TimeTrial:   &TimeTrialSpec{},
	}
	a.ResolveDisplay(testProfile())
	if a.Info != "previous note" {
		t.Fatalf("info = %q, want prior annotation kept until a PB exists", a.Info)
	}
}

func TestResolveCrossTrainDefaultsExercise(t *testing.T) {
	a := &Activity{Kind: KindCrossTrain, CrossTrain: &CrossTrainSpec{}}
	a.ResolveDisplay(testProfile())
	if a.Name != "Cross Training" {
		t.Fatalf("name = %q", a.Name)
	}

	b := &Activity{Kind: KindCrossTrain, CrossTrain: &CrossTrainSpec{Exercise: "Swimming"}}
	b.ResolveDisplay(testProfile())
	if b.Name != "Swimming" {
		t.Fatalf("name = %q", b.Name)
	}
}

func TestApplyCompletionRecordsDifficultyAndDate(t *testing.T) {
	a := &Activity{Kind: KindPacedRun, Difficulty: DifficultyModerate, PacedRun: &PacedRunSpec{Pace: PaceModerate, Minutes: 30}}
	day := date(2026, time.March, 4)

	a.ApplyCompletion(CompletionInput{Date: day, Difficulty: DifficultyHard})
	if a.Difficulty != DifficultyHard {
		t.Fatalf("difficulty = %d", a.Difficulty)
	}
	if !a.LastDone.Equal(day) {
		t.Fatalf("last done = %s", a.LastDone)
	}
}

func TestApplyCompletionKeepsBestMonotone(t *testing.T) {
	a := &Activity{
		Kind:      KindTimeTrial,
		Distance:  5,
		TimeTrial: &TimeTrialSpec{BestSeconds: 300},
	}
	day := date(2026, time.March, 4)

	// Slower result must not overwrite the PB.
	a.ApplyCompletion(CompletionInput{Date: day, Difficulty: DifficultyHard, Minutes: 5, Seconds: 10})
	if a.TimeTrial.BestSeconds != 300 {
		t.Fatalf("best = %d, want 300 kept", a.TimeTrial.BestSeconds)
	}

	// Faster result does.
	a.ApplyCompletion(CompletionInput{Date: day, Difficulty: DifficultyHard, Minutes: 4, Seconds: 45})
	if a.TimeTrial.BestSeconds != 285 {
		t.Fatalf("best = %d, want 285", a.TimeTrial.BestSeconds)
	}
}

func TestApplyCompletionFirstTimeTrialSetsBest(t *testing.T) {
	a := &Activity{Kind: KindTimeTrial, Distance: 5, TimeTrial: &TimeTrialSpec{}}
	a.ApplyCompletion(CompletionInput{Date: date(2026, time.March, 4), Difficulty: DifficultyHard, Minutes: 26, Seconds: 0})
	if a.TimeTrial.BestSeconds != 1560 {
		t.Fatalf("best = %d, want 1560", a.TimeTrial.BestSeconds)
	}
}

func TestCloneIsolatesPayload(t *testing.T) {
	a := Activity{Kind: KindIntervals, Intervals: &IntervalsSpec{RepLength: 400, RepCount: 6}}
	clone := a.Clone()
	clone.Intervals.RepCount = 10
	if a.Intervals.RepCount != 6 {
		t.Fatal("clone shares interval payload with original")
	}
}
