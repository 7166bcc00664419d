package task

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

// PgRepo is a PostgreSQL-backed task repository. Activation relies on a
// single conditional UPDATE, so the database is the concurrency-control
// point and no application-side locking is needed.
type PgRepo struct {
	pool *pgxpool.Pool
}

func NewPgRepo(pool *pgxpool.Pool) *PgRepo {
	return &PgRepo{pool: pool}
}

const taskColumns = `id, user_id, goal_id, sequence_order, status, phase,
	title, description, topics, resources, content,
	assigned_date, scheduled_date, completed_at, created_at, updated_at`

// EnsureTable creates the tasks table if it doesn't exist.
func (r *PgRepo) EnsureTable(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS tasks (
			id             TEXT PRIMARY KEY,
			user_id        TEXT NOT NULL,
			goal_id        TEXT NOT NULL,
			sequence_order INT NOT NULL,
			status         TEXT NOT NULL,
			phase          INT NOT NULL DEFAULT 0,
			title          TEXT NOT NULL DEFAULT '',
			description    TEXT NOT NULL DEFAULT '',
			topics         TEXT[] NOT NULL DEFAULT '{}',
			resources      TEXT[] NOT NULL DEFAULT '{}',
			content        JSONB,
			assigned_date  TIMESTAMPTZ,
			scheduled_date TIMESTAMPTZ,
			completed_at   TIMESTAMPTZ,
			created_at     TIMESTAMPTZ NOT NULL,
			updated_at     TIMESTAMPTZ NOT NULL,
			UNIQUE (user_id, goal_id, sequence_order)
		)`)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `CREATE INDEX IF NOT EXISTS idx_tasks_goal_status ON tasks(user_id, goal_id, status)`)
	return err
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var content []byte
	err := row.Scan(
		&t.ID, &t.UserID, &t.GoalID, &t.SequenceOrder, &t.Status, &t.Phase,
		&t.Title, &t.Description, &t.Topics, &t.Resources, &content,
		&t.AssignedDate, &t.ScheduledDate, &t.CompletedAt, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}
	t.Content = content
	return t, nil
}

func (r *PgRepo) Create(ctx context.Context, t model.Task) (model.Task, error) {
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

	_, err := r.pool.Exec(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16)`,
		t.ID, t.UserID, t.GoalID, t.SequenceOrder, t.Status, t.Phase,
		t.Title, t.Description, t.Topics, t.Resources, []byte(t.Content),
		t.AssignedDate, t.ScheduledDate, t.CompletedAt, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, fmt.Errorf("insert task: %w", err)
	}
	return t, nil
}

func (r *PgRepo) Get(ctx context.Context, userID string, id model.TaskID) (model.Task, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	return t, err
}

func (r *PgRepo) List(ctx context.Context, filter ListFilter) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 AND ($2 = '' OR goal_id = $2)
		ORDER BY goal_id, sequence_order`, filter.UserID, string(filter.GoalID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		if matchesFilter(t, filter) {
			out = append(out, t)
		}
	}
	return out, rows.Err()
}

func (r *PgRepo) Active(ctx context.Context, userID string, goalID model.GoalID) ([]model.Task, error) {
	return r.List(ctx, ListFilter{UserID: userID, GoalID: goalID, Status: "active"})
}

func (r *PgRepo) NextQueued(ctx context.Context, userID string, goalID model.GoalID) (model.Task, bool, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE user_id = $1 AND goal_id = $2 AND status = 'queued'
		ORDER BY sequence_order ASC
		LIMIT 1`, userID, goalID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, false, nil
	}
	if err != nil {
		return model.Task{}, false, err
	}
	return t, true, nil
}

func (r *PgRepo) Activate(ctx context.Context, userID string, id model.TaskID, at time.Time) (model.Task, bool, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE tasks
		SET status = 'pending', assigned_date = $3, scheduled_date = $3, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND status = 'queued'
		  AND NOT EXISTS (
			SELECT 1 FROM tasks sibling
			WHERE sibling.user_id = tasks.user_id
			  AND sibling.goal_id = tasks.goal_id
			  AND sibling.status IN ('pending', 'in_progress')
		  )
		RETURNING `+taskColumns, id, userID, at)
	t, err := scanTask(row)
	if err == nil {
		return t, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, false, err
	}

	// No row matched: the task is gone, already left queued, or an active
	// sibling blocked the activation.
	cur, err := r.Get(ctx, userID, id)
	if err != nil {
		return model.Task{}, false, err
	}
	return cur, false, nil
}

func (r *PgRepo) UpdateStatus(ctx context.Context, userID string, id model.TaskID, to model.TaskStatus, at time.Time) (model.Task, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return model.Task{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+taskColumns+` FROM tasks
		WHERE id = $1 AND user_id = $2 FOR UPDATE`, id, userID)
	t, err := scanTask(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, ErrNotFound
	}
	if err != nil {
		return model.Task{}, err
	}
	if !model.ValidTransition(t.Status, to) {
		return model.Task{}, ErrInvalidTransition
	}

	applyStatus(&t, to, at)
	_, err = tx.Exec(ctx, `
		UPDATE tasks
		SET status = $3, assigned_date = $4, completed_at = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2`,
		t.ID, t.UserID, t.Status, t.AssignedDate, t.CompletedAt, t.UpdatedAt)
	if err != nil {
		return model.Task{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

func (r *PgRepo) CountByStatus(ctx context.Context, userID string, goalID model.GoalID) (map[model.TaskStatus]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT status, COUNT(*) FROM tasks
		WHERE user_id = $1 AND goal_id = $2
		GROUP BY status`, userID, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[model.TaskStatus]int{}
	for rows.Next() {
		var status model.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}
