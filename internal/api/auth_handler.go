package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/agentdesk/internal/api/shared"
	"github.com/phrazzld/agentdesk/internal/platform/logger"
	"github.com/phrazzld/agentdesk/internal/service"
)

// AuthHandler serves signup and login.
type AuthHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users service.UserService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for AuthHandler")
	}
	return &AuthHandler{
		users:  users,
		logger: logger.With(slog.String("component", "auth_handler")),
	}
}

// Signup handles POST /signup.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, token, err := h.users.Signup(r.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create user")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).Info("user signed up", "user_id", user.ID)
	shared.RespondWithJSON(w, r, http.StatusCreated, SignupResponse{
		Message: "User registered successfully",
		Token:   token,
		UserID:  user.ID,
		Name:    user.Name,
	})
}

// Login handles POST /login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, token, err := h.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to authenticate user")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, LoginResponse{
		Token:  token,
		UserID: user.ID,
		Name:   user.Name,
	})
}
