package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/agentdesk/internal/api/shared"
	"github.com/phrazzld/agentdesk/internal/completion"
	"github.com/phrazzld/agentdesk/internal/domain"
	"github.com/phrazzld/agentdesk/internal/service"
	"github.com/phrazzld/agentdesk/internal/service/auth"
	"github.com/phrazzld/agentdesk/internal/store"
)

const genericErrorMessage = "An unexpected error occurred"

// MapErrorToStatusCode maps internal errors to HTTP status codes without
// exposing their types to clients.
func MapErrorToStatusCode(err error) int {
	var verrs validator.ValidationErrors
	switch {
	case err == nil:
		return http.StatusInternalServerError

	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity),
		errors.As(err, &verrs):
		return http.StatusBadRequest

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrConflict):
		return http.StatusConflict

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a client-facing message for err.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return genericErrorMessage
	}

	var verr *domain.ValidationError
	var verrs validator.ValidationErrors
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid credentials"
	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		return "Invalid token"
	case errors.Is(err, domain.ErrUnauthorized):
		return "Unauthorized"

	case errors.As(err, &verrs):
		return SanitizeValidationError(verrs)
	case errors.As(err, &verr):
		if verr.Field == "" {
			return verr.Message
		}
		return fmt.Sprintf("Invalid %s: %s", verr.Field, verr.Message)
	case errors.Is(err, domain.ErrInvalidTitle):
		return "Title is required"
	case errors.Is(err, domain.ErrInvalidStatus):
		return "Invalid status: must be one of pending, running, completed, error"
	case errors.Is(err, domain.ErrRunningNotSettable):
		return "Invalid status: running is set by running the task"
	case errors.Is(err, domain.ErrNoValidFields):
		return "No valid fields to update"
	case errors.Is(err, domain.ErrInvalidEmail):
		return "Invalid email format"
	case errors.Is(err, domain.ErrEmptyEmail),
		errors.Is(err, domain.ErrEmptyPassword),
		errors.Is(err, domain.ErrEmptyName):
		return "Missing fields"
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"
	case errors.Is(err, store.ErrProfileNotFound):
		return "Profile not found"
	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"
	case errors.Is(err, store.ErrNotFound):
		return "Resource not found"

	case errors.Is(err, store.ErrEmailExists):
		return "User already exists"
	case errors.Is(err, store.ErrTaskAlreadyRunning):
		return "Task is already running"
	case errors.Is(err, store.ErrConflict):
		return "Request conflicts with the current state"

	case errors.Is(err, service.ErrRunFailed),
		errors.Is(err, completion.ErrCompletionService):
		return service.ErrRunFailed.Error()

	default:
		return genericErrorMessage
	}
}

// HandleAPIError writes the mapped status and safe message for err. For
// unclassified server errors fallback, when set, replaces the generic text.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := MapErrorToStatusCode(err)
	msg := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && msg == genericErrorMessage && fallback != "" {
		msg = fallback
	}
	shared.RespondWithErrorAndLog(w, r, status, msg, err)
}

// SanitizeValidationError turns validator output into a short message
// naming the first offending field.
func SanitizeValidationError(errs validator.ValidationErrors) string {
	if len(errs) == 0 {
		return "Validation error"
	}
	fe := errs[0]
	field := fe.Field()
	if field == "" {
		return "Validation error"
	}
	return fmt.Sprintf("Invalid %s: %s", lowerFirst(field), validationTagMessage(fe.Tag()))
}

func validationTagMessage(tag string) string {
	switch tag {
	case "required":
		return "required field"
	case "email":
		return "invalid email format"
	case "min":
		return "too short"
	case "max":
		return "too long"
	case "oneof":
		return "invalid value"
	default:
		return "validation failed"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
