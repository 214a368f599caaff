package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/store"
)

// PostgresTaskStore implements store.TaskStore. State transitions are single
// conditional UPDATE statements, so concurrent runs of the same task are
// serialized by the row lock and at most one MarkRunning succeeds.
type PostgresTaskStore struct {
	db store.DBTX
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

func NewPostgresTaskStore(db store.DBTX) *PostgresTaskStore {
	return &PostgresTaskStore{db: db}
}

const taskColumns = `id, user_id, title, description, status, progress, type, priority,
	schedule, notify, auto_retry, created_at, updated_at, last_run, result`

func scanTask(row interface{ Scan(...any) error }) (*domain.Task, error) {
	var (
		t       domain.Task
		status  string
		lastRun sql.NullTime
		result  sql.NullString
	)
	err := row.Scan(&t.ID, &t.UserID, &t.Title, &t.Description, &status, &t.Progress,
		&t.Type, &t.Priority, &t.Schedule, &t.Notify, &t.AutoRetry,
		&t.CreatedAt, &t.UpdatedAt, &lastRun, &result)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TaskStatus(status)
	if lastRun.Valid {
		lr := lastRun.Time.UTC()
		t.LastRun = &lr
	}
	if result.Valid {
		r := result.String
		t.Result = &r
	}
	return &t, nil
}

func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		task.ID, task.UserID, task.Title, task.Description, string(task.Status), task.Progress,
		task.Type, task.Priority, task.Schedule, task.Notify, task.AutoRetry,
		task.CreatedAt, task.UpdatedAt, task.LastRun, task.Result)
	if err != nil {
		logger.FromContext(ctx).Error("failed to insert task", "task_id", task.ID, "error", err)
		return store.NewStoreError("task", "create", "insert failed", MapError(err))
	}
	return nil
}

func (s *PostgresTaskStore) Get(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return t, nil
}

func (s *PostgresTaskStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE user_id = $1 ORDER BY created_at DESC, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", MapError(err))
	}
	defer rows.Close()

	return collectTasks(rows)
}

func collectTasks(rows *sql.Rows) ([]*domain.Task, error) {
	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", MapError(err))
	}
	return tasks, nil
}

func (s *PostgresTaskStore) Update(
	ctx context.Context,
	taskID, userID uuid.UUID,
	update domain.TaskUpdate,
) error {
	normalized, err := update.Normalize()
	if err != nil {
		return err
	}

	sets := make([]string, 0, 4)
	args := []any{taskID, userID}
	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if normalized.Title != nil {
		add("title", *normalized.Title)
	}
	if normalized.Description != nil {
		add("description", *normalized.Description)
	}
	if normalized.Status != nil {
		add("status", *normalized.Status)
	}
	add("updated_at", time.Now().UTC())

	where := ` WHERE id = $1 AND user_id = $2`
	if normalized.Status != nil {
		// A status write must not release a task held by an in-flight run.
		where += ` AND status <> 'running'`
	}

	result, err := s.db.ExecContext(ctx, `UPDATE tasks SET `+strings.Join(sets, ", ")+where, args...)
	if err != nil {
		return store.NewStoreError("task", "update", "update failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	if normalized.Status == nil {
		return store.ErrTaskNotFound
	}

	found, err := s.exists(ctx, taskID, userID)
	if err != nil {
		return err
	}
	if found {
		return store.ErrTaskAlreadyRunning
	}
	return store.ErrTaskNotFound
}

func (s *PostgresTaskStore) Delete(ctx context.Context, taskID, userID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM tasks WHERE id = $1 AND user_id = $2`, taskID, userID)
	if err != nil {
		return store.NewStoreError("task", "delete", "delete failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// exists tells a missing task apart from one whose conditional update was
// rejected.
func (s *PostgresTaskStore) exists(ctx context.Context, taskID, userID uuid.UUID) (bool, error) {
	var found bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`, taskID, userID).Scan(&found)
	if err != nil {
		return false, fmt.Errorf("failed to check task existence: %w", MapError(err))
	}
	return found, nil
}

func (s *PostgresTaskStore) MarkRunning(
	ctx context.Context,
	taskID, userID uuid.UUID,
	now time.Time,
) (*domain.Task, error) {
	now = now.UTC()
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`UPDATE tasks SET status = 'running', progress = 0, last_run = $3, updated_at = $3
		WHERE id = $1 AND user_id = $2 AND status <> 'running'
		RETURNING `+taskColumns,
		taskID, userID, now))
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, store.NewStoreError("task", "mark running", "update failed", MapError(err))
	}

	found, err := s.exists(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}
	if found {
		return nil, store.ErrTaskAlreadyRunning
	}
	return nil, store.ErrTaskNotFound
}

// finishRun applies a running -> terminal transition.
func (s *PostgresTaskStore) finishRun(
	ctx context.Context,
	op string,
	taskID, userID uuid.UUID,
	query string,
	args ...any,
) error {
	result, err := s.db.ExecContext(ctx, query, append([]any{taskID, userID}, args...)...)
	if err != nil {
		return store.NewStoreError("task", op, "update failed", MapError(err))
	}
	n, err := rowsAffected(result)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	found, err := s.exists(ctx, taskID, userID)
	if err != nil {
		return err
	}
	if found {
		return store.ErrTaskNotRunning
	}
	return store.ErrTaskNotFound
}

func (s *PostgresTaskStore) MarkCompleted(
	ctx context.Context,
	taskID, userID uuid.UUID,
	result string,
	now time.Time,
) error {
	return s.finishRun(ctx, "mark completed", taskID, userID,
		`UPDATE tasks SET status = 'completed', progress = 100, result = $3, last_run = $4, updated_at = $4
		WHERE id = $1 AND user_id = $2 AND status = 'running'`,
		result, now.UTC())
}

func (s *PostgresTaskStore) MarkFailed(ctx context.Context, taskID, userID uuid.UUID, now time.Time) error {
	return s.finishRun(ctx, "mark failed", taskID, userID,
		`UPDATE tasks SET status = 'error', updated_at = $3
		WHERE id = $1 AND user_id = $2 AND status = 'running'`,
		now.UTC())
}

func (s *PostgresTaskStore) FailStaleRuns(ctx context.Context, cutoff time.Time) ([]*domain.Task, error) {
	rows, err := s.db.QueryContext(ctx,
		`UPDATE tasks SET status = 'error', updated_at = NOW()
		WHERE status = 'running' AND (last_run IS NULL OR last_run < $1)
		RETURNING `+taskColumns,
		cutoff.UTC())
	if err != nil {
		return nil, store.NewStoreError("task", "fail stale runs", "update failed", MapError(err))
	}
	defer rows.Close()

	return collectTasks(rows)
}
