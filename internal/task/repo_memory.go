package task

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"trailhead/internal/model"
)

type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[model.TaskID]model.Task
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: map[model.TaskID]model.Task{}}
}

func normalizeTask(t *model.Task) {
	if t.Topics == nil {
		t.Topics = []string{}
	}
	if t.Resources == nil {
		t.Resources = []string{}
	}
}

func (r *MemoryRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if t.ID == "" {
		t.ID = model.TaskID(uuid.NewString())
	}
	if t.Status == "" {
		t.Status = model.StatusQueued
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	normalizeTask(&t)

	r.tasks[t.ID] = t
	return t, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID string, id model.TaskID) (model.Task, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

func (r *MemoryRepo) List(ctx context.Context, filter ListFilter) ([]model.Task, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0, len(r.tasks))
	for _, t := range r.tasks {
		if matchesFilter(t, filter) {
			out = append(out, t)
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].GoalID != out[j].GoalID {
			return out[i].GoalID < out[j].GoalID
		}
		return out[i].SequenceOrder < out[j].SequenceOrder
	})
	return out, nil
}

func (r *MemoryRepo) Active(ctx context.Context, userID string, goalID model.GoalID) ([]model.Task, error) {
	return r.List(ctx, ListFilter{UserID: userID, GoalID: goalID, Status: "active"})
}

func (r *MemoryRepo) NextQueued(ctx context.Context, userID string, goalID model.GoalID) (model.Task, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best model.Task
	found := false
	for _, t := range r.tasks {
		if t.UserID != userID || t.GoalID != goalID || t.Status != model.StatusQueued {
			continue
		}
		if !found || t.SequenceOrder < best.SequenceOrder {
			best = t
			found = true
		}
	}
	return best, found, nil
}

func (r *MemoryRepo) Activate(ctx context.Context, userID string, id model.TaskID, at time.Time) (model.Task, bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return model.Task{}, false, ErrNotFound
	}
	// Both conditions and the write happen under one lock; a concurrent
	// caller sees ok=false instead of double-activating.
	if t.Status != model.StatusQueued {
		return t, false, nil
	}
	for _, sibling := range r.tasks {
		if sibling.UserID == userID && sibling.GoalID == t.GoalID && sibling.IsActive() {
			return t, false, nil
		}
	}

	assigned := at
	t.Status = model.StatusPending
	t.AssignedDate = &assigned
	t.ScheduledDate = &assigned
	t.UpdatedAt = at

	r.tasks[id] = t
	return t, true, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, userID string, id model.TaskID, to model.TaskStatus, at time.Time) (model.Task, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok || t.UserID != userID {
		return model.Task{}, ErrNotFound
	}
	if !model.ValidTransition(t.Status, to) {
		return model.Task{}, ErrInvalidTransition
	}

	applyStatus(&t, to, at)
	r.tasks[id] = t
	return t, nil
}

func (r *MemoryRepo) CountByStatus(ctx context.Context, userID string, goalID model.GoalID) (map[model.TaskStatus]int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[model.TaskStatus]int{}
	for _, t := range r.tasks {
		if t.UserID == userID && t.GoalID == goalID {
			counts[t.Status]++
		}
	}
	return counts, nil
}

// applyStatus mutates a task for an already-validated transition.
// Keeping AssignedDate non-nil for every non-queued status preserves the
// "assigned iff visible" invariant even for queued->cancelled.
func applyStatus(t *model.Task, to model.TaskStatus, at time.Time) {
	t.Status = to
	if t.AssignedDate == nil {
		assigned := at
		t.AssignedDate = &assigned
	}
	if to == model.StatusCompleted {
		done := at
		t.CompletedAt = &done
	}
	t.UpdatedAt = at
}
