package goal

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
	goals map[model.GoalID]model.Goal
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{goals: map[model.GoalID]model.Goal{}}
}

func (r *MemoryRepo) Create(ctx context.Context, g model.Goal) (model.Goal, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if g.ID == "" {
		g.ID = model.GoalID(uuid.NewString())
	}
	if g.Status == "" {
		g.Status = model.GoalActive
	}
	g.CreatedAt = now
	g.UpdatedAt = now

	r.goals[g.ID] = g
	return g, nil
}

func (r *MemoryRepo) Get(ctx context.Context, userID string, id model.GoalID) (model.Goal, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.goals[id]
	if !ok || g.UserID != userID {
		return model.Goal{}, false, nil
	}
	return g, true, nil
}

func (r *MemoryRepo) List(ctx context.Context, userID string) ([]model.Goal, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Goal, 0)
	for _, g := range r.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sortGoals(out)
	return out, nil
}

func (r *MemoryRepo) ListActive(ctx context.Context) ([]model.Goal, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Goal, 0)
	for _, g := range r.goals {
		if g.Status == model.GoalActive {
			out = append(out, g)
		}
	}
	sortGoals(out)
	return out, nil
}

func (r *MemoryRepo) UpdateStatus(ctx context.Context, userID string, id model.GoalID, to model.GoalStatus) (model.Goal, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.goals[id]
	if !ok || g.UserID != userID {
		return model.Goal{}, ErrNotFound
	}
	g.Status = to
	g.UpdatedAt = time.Now()
	r.goals[id] = g
	return g, nil
}

func (r *MemoryRepo) SetCurrentPhase(ctx context.Context, userID string, id model.GoalID, phase int) (model.Goal, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.goals[id]
	if !ok || g.UserID != userID {
		return model.Goal{}, ErrNotFound
	}
	g.CurrentPhase = phase
	g.UpdatedAt = time.Now()
	r.goals[id] = g
	return g, nil
}

func sortGoals(goals []model.Goal) {
	sort.Slice(goals, func(i, j int) bool {
		if goals[i].CreatedAt.Equal(goals[j].CreatedAt) {
			return goals[i].ID < goals[j].ID
		}
		return goals[i].CreatedAt.Before(goals[j].CreatedAt)
	})
}
