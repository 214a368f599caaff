package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/agentdesk/internal/api/shared"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/store"
)

// requireUserID extracts the authenticated user. It writes a 401 and
// returns false when the auth middleware did not run.
func requireUserID(w http.ResponseWriter, r *http.Request, log *slog.Logger) (uuid.UUID, bool) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		log.Warn("user ID not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return uuid.Nil, false
	}
	return userID, true
}

// pathTaskID parses the {id} path parameter. A malformed ID cannot name a
// task the caller owns, so it reports store.ErrTaskNotFound.
func pathTaskID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	if raw == "" {
		return uuid.Nil, store.ErrTaskNotFound
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.Join(store.ErrTaskNotFound, domain.ErrInvalidID)
	}
	return id, nil
}

// requireUserAndTask combines requireUserID and pathTaskID, writing the
// error response when either fails.
func requireUserAndTask(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
) (userID, taskID uuid.UUID, ok bool) {
	userID, ok = requireUserID(w, r, log)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	taskID, err := pathTaskID(r)
	if err != nil {
		log.Debug("invalid task id in path", "value", chi.URLParam(r, "id"))
		HandleAPIError(w, r, err, "")
		return uuid.Nil, uuid.Nil, false
	}
	return userID, taskID, true
}

// decodeAndValidate reads the JSON body into dst and validates it, writing a
// 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := shared.DecodeJSON(w, r, dst); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return false
	}
	if err := shared.ValidateRequest(dst); err != nil {
		HandleAPIError(w, r, err, "")
		return false
	}
	return true
}
