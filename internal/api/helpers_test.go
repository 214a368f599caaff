package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/agent"
	"github.com/phrazzld/agentdesk/internal/api/middleware"
	"github.com/phrazzld/agentdesk/internal/mocks"
	"github.com/phrazzld/agentdesk/internal/platform/memory"
	"github.com/phrazzld/agentdesk/internal/service"
	"github.com/phrazzld/agentdesk/internal/service/auth"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-at-least-32-characters"

// apiHarness serves every handler over in-memory stores, a real pipeline
// and a mock completion service.
type apiHarness struct {
	tasks      *memory.TaskStore
	logStore   *memory.LogStore
	completion *mocks.MockCompletionService
	router     http.Handler
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	users := memory.NewUserStore()
	profiles := memory.NewProfileStore()
	h := &apiHarness{
		tasks:      memory.NewTaskStore(),
		logStore:   memory.NewLogStore(),
		completion: &mocks.MockCompletionService{Response: "  Filed under billing.  \n\n"},
	}

	tokens := auth.NewTestTokenService(testSecret, time.Hour, time.Now)
	hasher := auth.NewBcrypt(4)
	userSvc := service.NewUserService(users, profiles, tokens, hasher, hasher, log)
	logSvc := service.NewLogService(h.logStore, users, log)

	pipeline, err := agent.NewPipeline(h.completion, h.tasks, logSvc, 5*time.Second, log)
	require.NoError(t, err)
	taskSvc, err := service.NewTaskService(h.tasks, pipeline, logSvc, log)
	require.NoError(t, err)

	authHandler := NewAuthHandler(userSvc, log)
	profileHandler := NewProfileHandler(userSvc, log)
	taskHandler := NewTaskHandler(taskSvc, log)
	logHandler := NewLogHandler(logSvc, log)
	authMW := middleware.NewAuthMiddleware(tokens)

	r := chi.NewRouter()
	r.Use(middleware.NewTraceMiddleware(log))
	r.Post("/signup", authHandler.Signup)
	r.Post("/login", authHandler.Login)
	r.Group(func(r chi.Router) {
		r.Use(authMW.Authenticate)
		r.Get("/profile", profileHandler.GetProfile)
		r.Put("/profile", profileHandler.UpdateProfile)
		r.Post("/tasks", taskHandler.CreateTask)
		r.Get("/tasks", taskHandler.ListTasks)
		r.Put("/tasks/{id}", taskHandler.UpdateTask)
		r.Delete("/tasks/{id}", taskHandler.DeleteTask)
		r.Post("/tasks/{id}/run", taskHandler.RunTask)
		r.Get("/logs", logHandler.ListLogs)
	})
	h.router = r
	return h
}

func (h *apiHarness) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(raw)
	}

	r := httptest.NewRequest(method, path, rd)
	if rd != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		r.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, r)
	return w
}

// signup registers a fresh user and returns its token and ID.
func (h *apiHarness) signup(t *testing.T, email string) (string, uuid.UUID) {
	t.Helper()
	w := h.do(t, http.MethodPost, "/signup", "", map[string]string{
		"email": email, "password": "pw", "name": "Ada Lovelace",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp SignupResponse
	decode(t, w, &resp)
	return resp.Token, resp.UserID
}

func (h *apiHarness) createTask(t *testing.T, token, title string) uuid.UUID {
	t.Helper()
	w := h.do(t, http.MethodPost, "/tasks", token, map[string]any{"title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp CreateTaskResponse
	decode(t, w, &resp)
	return resp.TaskID
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dst), w.Body.String())
}

func errorMessage(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	decode(t, w, &body)
	return body.Error
}

func markRunning(t *testing.T, h *apiHarness, taskID, userID uuid.UUID) {
	t.Helper()
	_, err := h.tasks.MarkRunning(context.Background(), taskID, userID, time.Now())
	require.NoError(t, err)
}
