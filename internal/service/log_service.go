package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/agent"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/redact"
	"github.com/phrazzld/agentdesk/internal/store"
)

// LogService is the run journal.
type LogService interface {
	// Record appends one entry. Failures are logged and never returned, so a
	// broken journal cannot change the outcome of a run.
	Record(
		ctx context.Context,
		userID, taskID uuid.UUID,
		status domain.LogStatus,
		details string,
		duration time.Duration,
	)

	// List returns the user's entries newest first, projected for display.
	List(ctx context.Context, userID uuid.UUID) ([]domain.LogView, error)
}

type logServiceImpl struct {
	logs   store.LogStore
	users  store.UserStore
	logger *slog.Logger
	now    func() time.Time
}

var (
	_ LogService     = (*logServiceImpl)(nil)
	_ agent.Recorder = (*logServiceImpl)(nil)
)

func NewLogService(logs store.LogStore, users store.UserStore, logger *slog.Logger) LogService {
	return &logServiceImpl{
		logs:   logs,
		users:  users,
		logger: logger.With("component", "log_service"),
		now:    time.Now,
	}
}

func (s *logServiceImpl) Record(
	ctx context.Context,
	userID, taskID uuid.UUID,
	status domain.LogStatus,
	details string,
	duration time.Duration,
) {
	entry := domain.NewLogEntry(userID, taskID, status, details, duration, s.now())
	if err := s.logs.Append(ctx, entry); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to record run log entry",
			"task_id", taskID,
			"user_id", userID,
			"log_status", string(status),
			"error", redact.Error(err))
	}
}

func (s *logServiceImpl) List(ctx context.Context, userID uuid.UUID) ([]domain.LogView, error) {
	entries, err := s.logs.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list logs: %w", err)
	}

	views := make([]domain.LogView, 0, len(entries))
	if len(entries) == 0 {
		return views, nil
	}

	var userName string
	if u, err := s.users.GetByID(ctx, userID); err == nil {
		userName = u.Name
	} else if !store.IsNotFoundError(err) {
		logger.FromContextOrDefault(ctx, s.logger).Warn("failed to resolve log owner name",
			"user_id", userID,
			"error", redact.Error(err))
	}

	for _, e := range entries {
		views = append(views, e.View(userName))
	}
	return views, nil
}
