package goal

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"trailhead/internal/model"
)

// PgRepo is a PostgreSQL-backed goal repository.
type PgRepo struct {
	pool *pgxpool.Pool
}

func NewPgRepo(pool *pgxpool.Pool) *PgRepo {
	return &PgRepo{pool: pool}
}

const goalColumns = `id, user_id, title, status, current_phase, created_at, updated_at`

// EnsureTable creates the goals table if it doesn't exist.
func (r *PgRepo) EnsureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS goals (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			title         TEXT NOT NULL DEFAULT '',
			status        TEXT NOT NULL,
			current_phase INT NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		)`)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_goals_status ON goals(status)`)
	return err
}

func scanGoal(row pgx.Row) (model.Goal, error) {
	var g model.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Title, &g.Status, &g.CurrentPhase, &g.CreatedAt, &g.UpdatedAt)
	return g, err
}

func (r *PgRepo) Create(ctx context.Context, g model.Goal) (model.Goal, error) {
	now := time.Now()
	if g.ID == "" {
		g.ID = model.GoalID(uuid.NewString())
	}
	if g.Status == "" {
		g.Status = model.GoalActive
	}
	g.CreatedAt = now
	g.UpdatedAt = now

	_, err := r.pool.Exec(ctx, `
		INSERT INTO goals (`+goalColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		g.ID, g.UserID, g.Title, g.Status, g.CurrentPhase, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return model.Goal{}, fmt.Errorf("insert goal: %w", err)
	}
	return g, nil
}

func (r *PgRepo) Get(ctx context.Context, userID string, id model.GoalID) (model.Goal, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+goalColumns+` FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	g, err := scanGoal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Goal{}, false, nil
	}
	if err != nil {
		return model.Goal{}, false, err
	}
	return g, true, nil
}

func (r *PgRepo) List(ctx context.Context, userID string) ([]model.Goal, error) {
	return r.queryGoals(ctx, `
		SELECT `+goalColumns+` FROM goals WHERE user_id = $1 ORDER BY created_at, id`, userID)
}

func (r *PgRepo) ListActive(ctx context.Context) ([]model.Goal, error) {
	return r.queryGoals(ctx, `
		SELECT `+goalColumns+` FROM goals WHERE status = 'active' ORDER BY created_at, id`)
}

func (r *PgRepo) queryGoals(ctx context.Context, sql string, args ...any) ([]model.Goal, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *PgRepo) UpdateStatus(ctx context.Context, userID string, id model.GoalID, to model.GoalStatus) (model.Goal, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE goals SET status = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING `+goalColumns, id, userID, to, time.Now())
	g, err := scanGoal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Goal{}, ErrNotFound
	}
	return g, err
}

func (r *PgRepo) SetCurrentPhase(ctx context.Context, userID string, id model.GoalID, phase int) (model.Goal, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE goals SET current_phase = $3, updated_at = $4
		WHERE id = $1 AND user_id = $2
		RETURNING `+goalColumns, id, userID, phase, time.Now())
	g, err := scanGoal(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Goal{}, ErrNotFound
	}
	return g, err
}
