package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/agentdesk/internal/api/shared"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/service"
)

// LogHandler serves the caller's run history.
type LogHandler struct {
	logs   service.LogService
	logger *slog.Logger
}

// NewLogHandler creates a LogHandler.
func NewLogHandler(logs service.LogService, logger *slog.Logger) *LogHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for LogHandler")
	}
	return &LogHandler{
		logs:   logs,
		logger: logger.With(slog.String("component", "log_handler")),
	}
}

// ListLogs handles GET /logs. No history is an empty list, not a 404.
func (h *LogHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)
	userID, ok := requireUserID(w, r, log)
	if !ok {
		return
	}

	views, err := h.logs.List(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to load logs")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, views)
}
