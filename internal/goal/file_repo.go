package goal

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"trailhead/internal/model"
)

type fileState struct {
	Goals map[model.GoalID]model.Goal `json:"goals"`
}

// FileRepo is a persistent goal repository backed by a single JSON document.
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
		path: filepath.Join(dataDir, "goals.json"),
		s:    fileState{Goals: map[model.GoalID]model.Goal{}},
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
	if loaded.Goals == nil {
		loaded.Goals = map[model.GoalID]model.Goal{}
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

func (r *FileRepo) Create(ctx context.Context, g model.Goal) (model.Goal, error) {
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

	r.s.Goals[g.ID] = g
	if err := r.saveLocked(); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

func (r *FileRepo) Get(ctx context.Context, userID string, id model.GoalID) (model.Goal, bool, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.s.Goals[id]
	if !ok || g.UserID != userID {
		return model.Goal{}, false, nil
	}
	return g, true, nil
}

func (r *FileRepo) List(ctx context.Context, userID string) ([]model.Goal, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Goal, 0)
	for _, g := range r.s.Goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sortGoals(out)
	return out, nil
}

func (r *FileRepo) ListActive(ctx context.Context) ([]model.Goal, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Goal, 0)
	for _, g := range r.s.Goals {
		if g.Status == model.GoalActive {
			out = append(out, g)
		}
	}
	sortGoals(out)
	return out, nil
}

func (r *FileRepo) UpdateStatus(ctx context.Context, userID string, id model.GoalID, to model.GoalStatus) (model.Goal, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.s.Goals[id]
	if !ok || g.UserID != userID {
		return model.Goal{}, ErrNotFound
	}
	g.Status = to
	g.UpdatedAt = time.Now()
	r.s.Goals[id] = g
	if err := r.saveLocked(); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}

func (r *FileRepo) SetCurrentPhase(ctx context.Context, userID string, id model.GoalID, phase int) (model.Goal, error) {
	_ = ctx

	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.s.Goals[id]
	if !ok || g.UserID != userID {
		return model.Goal{}, ErrNotFound
	}
	g.CurrentPhase = phase
	g.UpdatedAt = time.Now()
	r.s.Goals[id] = g
	if err := r.saveLocked(); err != nil {
		return model.Goal{}, err
	}
	return g, nil
}
