package shared

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRespondWithJSON(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		data     any
		wantBody string
	}{
		{"object", http.StatusOK, map[string]any{"message": "ok", "n": 1}, `{"message":"ok","n":1}`},
		{"empty object", http.StatusCreated, map[string]any{}, `{}`},
		{"nil", http.StatusOK, nil, `null`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/x", nil)
			w := httptest.NewRecorder()

			RespondWithJSON(w, r, tc.status, tc.data)

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.JSONEq(t, tc.wantBody, w.Body.String())
		})
	}
}

func TestRespondWithError_IncludesTraceID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/tasks", nil)
	r = r.WithContext(SetTraceID(r.Context()))
	w := httptest.NewRecorder()

	RespondWithError(w, r, http.StatusNotFound, "Task not found")

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Task not found", body.Error)
	assert.Equal(t, GetTraceID(r.Context()), body.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	secret := errors.New("dial postgres://admin:hunter2@db:5432/app failed")

	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel slog.Level
	}{
		{"server error", http.StatusInternalServerError, nil, slog.LevelError},
		{"rate limited", http.StatusTooManyRequests, nil, slog.LevelWarn},
		{"client error", http.StatusBadRequest, nil, slog.LevelDebug},
		{"elevated client error", http.StatusUnauthorized, []ResponseOption{WithElevatedLogLevel()}, slog.LevelWarn},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, buf := logger.NewBufferLogger()
			r := httptest.NewRequest(http.MethodPost, "/tasks", nil)
			r = r.WithContext(logger.WithLogger(r.Context(), log))
			w := httptest.NewRecorder()

			RespondWithErrorAndLog(w, r, tc.status, "Something failed", secret, tc.opts...)

			assert.Equal(t, tc.status, w.Code)
			assert.NotContains(t, w.Body.String(), "hunter2")
			assert.Contains(t, w.Body.String(), "Something failed")

			assert.True(t, buf.HasMessage(tc.wantLevel, "API error response"))
			assert.NotContains(t, buf.String(), "hunter2")
		})
	}
}
