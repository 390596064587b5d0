package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fixmycity/fixmycity/internal/domain"
)

const internalErrorMessage = "An unexpected error occurred. Please try again."

// errorResponse maps a service error to an HTTP status and a message that is
// safe to show to the user.
func errorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusUnprocessableEntity, detail(err, domain.ErrValidationFailed, "Please check the form and try again.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password."
	case errors.Is(err, domain.ErrRoleMismatch):
		return http.StatusForbidden, detail(err, domain.ErrRoleMismatch, "This account is registered under a different role.")
	case errors.Is(err, domain.ErrDuplicateEmail):
		return http.StatusConflict, "An account with that email already exists."
	case errors.Is(err, domain.ErrCodeMismatch):
		return http.StatusUnauthorized, "Invalid verification code."
	case errors.Is(err, domain.ErrInvalidState):
		return http.StatusConflict, detail(err, domain.ErrInvalidState, "That action is not available right now.")
	case errors.Is(err, domain.ErrResendTooSoon):
		return http.StatusTooManyRequests, "Please wait before requesting a new code."
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden, detail(err, domain.ErrUnauthorized, "You are not allowed to do that.")
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Not found."
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusRequestTimeout, "The request was cancelled."
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}

// writeServiceError writes the mapped error as JSON and logs unexpected ones.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	status, message := errorResponse(err)
	if status == http.StatusInternalServerError {
		slog.Error(op, "error", err)
	}
	writeError(w, status, message)
}

// detail returns the context wrapped around sentinel, or fallback when the
// error is the bare sentinel.
func detail(err, sentinel error, fallback string) string {
	msg, ok := strings.CutPrefix(err.Error(), sentinel.Error()+": ")
	if !ok || msg == "" {
		return fallback
	}
	return strings.ToUpper(msg[:1]) + msg[1:] + "."
}
