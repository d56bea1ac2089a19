// Package memory provides an in-memory Repository for unit tests and local
// development without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"example.com/runplan/internal/domain"
)

// Repository stores all planner state in process memory.
type Repository struct {
	mu          sync.RWMutex
	profiles    map[string]*domain.Profile
	activities  map[int64]domain.Activity
	completions map[string][]domain.CompletedAct
	applied     map[string]bool
	events      []domain.Event
	nextID      int64
}

// NewRepository constructs an empty Repository.
func NewRepository() *Repository {
	return &Repository{
		profiles:    make(map[string]*domain.Profile),
		activities:  make(map[int64]domain.Activity),
		completions: make(map[string][]domain.CompletedAct),
		applied:     make(map[string]bool),
		nextID:      1,
	}
}

// GetProfile implements domain.Repository.
func (r *Repository) GetProfile(ctx context.Context, ownerID string) (*domain.Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	profile, ok := r.profiles[ownerID]
	if !ok {
		return nil, nil
	}
	return profile.Clone(), nil
}

// CreateProfile implements domain.Repository.
func (r *Repository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.OwnerID] = profile.Clone()
	return nil
}

// SaveProfile implements domain.Repository.
func (r *Repository) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.profiles[profile.OwnerID] = profile.Clone()
	return nil
}

// CreateActivity implements domain.Repository, assigning the next id.
func (r *Repository) CreateActivity(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	activity.ID = r.nextID
	r.nextID++
	r.activities[activity.ID] = activity.Clone()
	return nil
}

// GetActivity implements domain.Repository. Foreign-owned ids read as absent.
func (r *Repository) GetActivity(ctx context.Context, ownerID string, id int64) (*domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	activity, ok := r.activities[id]
	if !ok || activity.OwnerID != ownerID {
		return nil, nil
	}
	clone := activity.Clone()
	return &clone, nil
}

// ListActivities implements domain.Repository, oldest last-done first.
func (r *Repository) ListActivities(ctx context.Context, ownerID string) ([]domain.Activity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Activity, 0)
	for _, activity := range r.activities {
		if activity.OwnerID == ownerID {
			out = append(out, activity.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastDone.Equal(out[j].LastDone) {
			return out[i].LastDone.Before(out[j].LastDone)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// SaveActivity implements domain.Repository.
func (r *Repository) SaveActivity(ctx context.Context, activity *domain.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.activities[activity.ID] = activity.Clone()
	return nil
}

// DeleteActivity implements domain.Repository. Completion history survives.
func (r *Repository) DeleteActivity(ctx context.Context, ownerID string, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if activity, ok := r.activities[id]; ok && activity.OwnerID == ownerID {
		delete(r.activities, id)
	}
	return nil
}

// ListCompletions implements domain.Repository over an inclusive date range.
func (r *Repository) ListCompletions(ctx context.Context, ownerID string, from, to time.Time) ([]domain.CompletedAct, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.CompletedAct, 0)
	for _, c := range r.completions[ownerID] {
		if c.Date.Before(from) || c.Date.After(to) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// ApplySubmission implements domain.Repository. The same event id applies at
// most once; replays are silent no-ops.
func (r *Repository) ApplySubmission(ctx context.Context, sub domain.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.applied[sub.EventID] {
		return nil
	}

	r.completions[sub.OwnerID] = append(r.completions[sub.OwnerID], sub.Completion)
	if sub.Activity != nil {
		r.activities[sub.Activity.ID] = sub.Activity.Clone()
	}
	if sub.Profile != nil {
		r.profiles[sub.Profile.OwnerID] = sub.Profile.Clone()
	}

	if !sub.PruneBefore.IsZero() {
		kept := r.completions[sub.OwnerID][:0]
		for _, c := range r.completions[sub.OwnerID] {
			if !c.Date.Before(sub.PruneBefore) {
				kept = append(kept, c)
			}
		}
		r.completions[sub.OwnerID] = kept
	}

	r.events = append(r.events, sub.Events...)
	r.applied[sub.EventID] = true
	return nil
}

// Events returns the domain events recorded so far, for test assertions and
// the memory-mode event log.
func (r *Repository) Events() []domain.Event {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Event, len(r.events))
	copy(out, r.events)
	return out
}

// CompletionCount reports how many completion records an owner has stored.
func (r *Repository) CompletionCount(ownerID string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.completions[ownerID])
}
