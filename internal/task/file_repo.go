package task

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"trailhead/internal/model"
)

type fileState struct {
	Tasks map[model.TaskID]model.Task `json:"tasks"`
}

// FileRepo is a persistent task repository backed by a single JSON
// document. Every mutation holds the store lock across the read, the
// write, and the save, so Activate keeps its compare-and-swap semantics.
type FileRepo struct {
	mu   sync.RWMutex
	path string
	s    fileState
}

func NewFileRepo(dataDir string) (*FileRepo, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, err
	}
	r := &FileRepo{
		path: filepath.Join(dataDir, "tasks.json"),
		s:    fileState{Tasks: map[model.TaskID]model.Task{}},
	}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *FileRepo) load() error {
	b, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	var loaded fileState
	if err := json.Unmarshal(b, &loaded); err != nil {
		return err
	}
	if loaded.Tasks == nil {
		loaded.Tasks = map[model.TaskID]model.Task{}
	}
	r.s = loaded
	return nil
}

func (r *FileRepo) saveLocked() error {
	b, err := json.MarshalIndent(r.s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, b, 0o644)
}

func (r *FileRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
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

	r.s.Tasks[t.ID] = t
	if err := r.saveLocked(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *FileRepo) Get(ctx context.Context, userID string, id model.TaskID) (model.Task, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.s.Tasks[id]
	if !ok || t.UserID != userID {
		return model.Task{}, ErrNotFound
	}
	return t, nil
}

func (r *FileRepo) List(ctx context.Context, filter ListFilter) ([]model.Task, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Task, 0, len(r.s.Tasks))
	for _, t := range r.s.Tasks {
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

func (r *FileRepo) Active(ctx context.Context, userID string, goalID model.GoalID) ([]model.Task, error) {
	return r.List(ctx, ListFilter{UserID: userID, GoalID: goalID, Status: "active"})
}

func (r *FileRepo) NextQueued(ctx context.Context, userID string, goalID model.GoalID) (model.Task, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	var best model.Task
	found := false
	for _, t := range r.s.Tasks {
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

func (r *FileRepo) Activate(ctx context.Context, userID string, id model.TaskID, at time.Time) (model.Task, bool, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.s.Tasks[id]
	if !ok || t.UserID != userID {
		return model.Task{}, false, ErrNotFound
	}
	if t.Status != model.StatusQueued {
		return t, false, nil
	}
	for _, sibling := range r.s.Tasks {
		if sibling.UserID == userID && sibling.GoalID == t.GoalID && sibling.IsActive() {
			return t, false, nil
		}
	}

	assigned := at
	t.Status = model.StatusPending
	t.AssignedDate = &assigned
	t.ScheduledDate = &assigned
	t.UpdatedAt = at

	r.s.Tasks[id] = t
	if err := r.saveLocked(); err != nil {
		return model.Task{}, false, err
	}
	return t, true, nil
}

func (r *FileRepo) UpdateStatus(ctx context.Context, userID string, id model.TaskID, to model.TaskStatus, at time.Time) (model.Task, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.s.Tasks[id]
	if !ok || t.UserID != userID {
		return model.Task{}, ErrNotFound
	}
	if !model.ValidTransition(t.Status, to) {
		return model.Task{}, ErrInvalidTransition
	}

	applyStatus(&t, to, at)
	r.s.Tasks[id] = t
	if err := r.saveLocked(); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *FileRepo) CountByStatus(ctx context.Context, userID string, goalID model.GoalID) (map[model.TaskStatus]int, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := map[model.TaskStatus]int{}
	for _, t := range r.s.Tasks {
		if t.UserID == userID && t.GoalID == goalID {
			counts[t.Status]++
		}
	}
	return counts, nil
}
