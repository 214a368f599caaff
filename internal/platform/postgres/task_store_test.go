package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskColumnNames = []string{
	"id", "user_id", "title", "description", "status", "progress", "type", "priority",
	"schedule", "notify", "auto_retry", "created_at", "updated_at", "last_run", "result",
}

func newMockTaskStore(t *testing.T) (*PostgresTaskStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewPostgresTaskStore(db), mock
}

func existsRows(found bool) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"exists"}).AddRow(found)
}

func TestPostgresTaskStore_MarkRunning(t *testing.T) {
	taskID, userID := uuid.New(), uuid.New()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("claims an idle task", func(t *testing.T) {
		s, mock := newMockTaskStore(t)
		mock.ExpectQuery(`UPDATE tasks SET status = 'running'`).
			WithArgs(taskID, userID, now).
			WillReturnRows(sqlmock.NewRows(taskColumnNames).AddRow(
				taskID.String(), userID.String(), "Triage", "", "running", 0, "General", "Medium",
				"", false, false, now, now, now, nil))

		got, err := s.MarkRunning(context.Background(), taskID, userID, now)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskStatusRunning, got.Status)
		require.NotNil(t, got.LastRun)
		assert.True(t, got.LastRun.Equal(now))
		assert.Nil(t, got.Result)
	})

	t.Run("already running", func(t *testing.T) {
		s, mock := newMockTaskStore(t)
		mock.ExpectQuery(`UPDATE tasks SET status = 'running'`).
			WillReturnRows(sqlmock.NewRows(taskColumnNames))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(taskID, userID).WillReturnRows(existsRows(true))

		_, err := s.MarkRunning(context.Background(), taskID, userID, now)
		assert.ErrorIs(t, err, store.ErrTaskAlreadyRunning)
	})

	t.Run("not owned or missing", func(t *testing.T) {
		s, mock := newMockTaskStore(t)
		mock.ExpectQuery(`UPDATE tasks SET status = 'running'`).
			WillReturnRows(sqlmock.NewRows(taskColumnNames))
		mock.ExpectQuery(`SELECT EXISTS`).WithArgs(taskID, userID).WillReturnRows(existsRows(false))

		_, err := s.MarkRunning(context.Background(), taskID, userID, now)
		assert.ErrorIs(t, err, store.ErrTaskNotFound)
	})

	t.Run("driver failure", func(t *testing.T) {
		s, mock := newMockTaskStore(t)
		mock.ExpectQuery(`UPDATE tasks SET status = 'running'`).
			WillReturnError(errors.New("connection reset"))

		_, err := s.MarkRunning(context.Background(), taskID, userID, now)
		require.Error(t, err)
		var storeErr *store.StoreError
		assert.ErrorAs(t, err, &storeErr)
	})
}

func TestPostgresTaskStore_FinishRun(t *testing.T) {
	taskID, userID := uuid.New(), uuid.New()
	now := time.Now()

	tests := []struct {
		name    string
		call    func(s *PostgresTaskStore) error
		pattern string
		updated int64
		exists  *bool
		wantErr error
	}{
		{
			name:    "completed",
			call:    func(s *PostgresTaskStore) error { return s.MarkCompleted(context.Background(), taskID, userID, "done", now) },
			pattern: `UPDATE tasks SET status = 'completed'`,
			updated: 1,
		},
		{
			name:    "completed but no longer running",
			call:    func(s *PostgresTaskStore) error { return s.MarkCompleted(context.Background(), taskID, userID, "done", now) },
			pattern: `UPDATE tasks SET status = 'completed'`,
			exists:  boolPtr(true),
			wantErr: store.ErrTaskNotRunning,
		},
		{
			name:    "failed",
			call:    func(s *PostgresTaskStore) error { return s.MarkFailed(context.Background(), taskID, userID, now) },
			pattern: `UPDATE tasks SET status = 'error'`,
			updated: 1,
		},
		{
			name:    "failed on missing task",
			call:    func(s *PostgresTaskStore) error { return s.MarkFailed(context.Background(), taskID, userID, now) },
			pattern: `UPDATE tasks SET status = 'error'`,
			exists:  boolPtr(false),
			wantErr: store.ErrTaskNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockTaskStore(t)
			mock.ExpectExec(tt.pattern).WillReturnResult(sqlmock.NewResult(0, tt.updated))
			if tt.exists != nil {
				mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(existsRows(*tt.exists))
			}

			err := tt.call(s)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestPostgresTaskStore_UpdateGuardsRunningTasks(t *testing.T) {
	taskID, userID := uuid.New(), uuid.New()
	guarded := regexp.QuoteMeta(
		`UPDATE tasks SET status = $3, updated_at = $4 WHERE id = $1 AND user_id = $2 AND status <> 'running'`)
	pending := "pending"

	tests := []struct {
		name    string
		update  domain.TaskUpdate
		pattern string
		updated int64
		exists  *bool
		wantErr error
	}{
		{
			name:    "status change on idle task",
			update:  domain.TaskUpdate{Status: &pending},
			pattern: guarded,
			updated: 1,
		},
		{
			name:    "status change while running",
			update:  domain.TaskUpdate{Status: &pending},
			pattern: guarded,
			exists:  boolPtr(true),
			wantErr: store.ErrTaskAlreadyRunning,
		},
		{
			name:    "status change on missing task",
			update:  domain.TaskUpdate{Status: &pending},
			pattern: guarded,
			exists:  boolPtr(false),
			wantErr: store.ErrTaskNotFound,
		},
		{
			name:    "title change skips the guard",
			update:  domain.TaskUpdate{Title: strPtr("renamed")},
			pattern: regexp.QuoteMeta(`UPDATE tasks SET title = $3, updated_at = $4 WHERE id = $1 AND user_id = $2`) + `$`,
			wantErr: store.ErrTaskNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock := newMockTaskStore(t)
			mock.ExpectExec(tt.pattern).
				WithArgs(taskID, userID, sqlmock.AnyArg(), sqlmock.AnyArg()).
				WillReturnResult(sqlmock.NewResult(0, tt.updated))
			if tt.exists != nil {
				mock.ExpectQuery(`SELECT EXISTS`).WillReturnRows(existsRows(*tt.exists))
			}

			err := s.Update(context.Background(), taskID, userID, tt.update)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}

	t.Run("running is not settable", func(t *testing.T) {
		s, _ := newMockTaskStore(t)
		running := "running"
		err := s.Update(context.Background(), taskID, userID, domain.TaskUpdate{Status: &running})
		assert.ErrorIs(t, err, domain.ErrRunningNotSettable)
	})
}

func boolPtr(b bool) *bool { return &b }

func strPtr(s string) *string { return &s }
