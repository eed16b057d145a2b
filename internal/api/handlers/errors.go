package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/dom/habit-proofs/internal/api/httputil"
	"github.com/dom/habit-proofs/internal/domain"
	"github.com/dom/habit-proofs/internal/service"
)

// writeServiceError maps a service error to its HTTP status. Only failures
// that end in a 500 are logged.
func writeServiceError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		httputil.WriteErrorResponse(w, http.StatusUnauthorized, httputil.CodeUnauthenticated, "Authentication required", nil)
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrHabitNotFound),
		errors.Is(err, domain.ErrProofNotFound):
		httputil.WriteErrorResponse(w, http.StatusNotFound, httputil.CodeNotFound, err.Error(), nil)
	case errors.Is(err, domain.ErrBadRequest),
		errors.Is(err, service.ErrInvalidState),
		errors.Is(err, service.ErrDisplayNameRequired):
		httputil.WriteErrorResponse(w, http.StatusBadRequest, httputil.CodeBadRequest, err.Error(), nil)
	case errors.Is(err, service.ErrProviderNotConfigured):
		httputil.WriteErrorResponse(w, http.StatusServiceUnavailable, httputil.CodeUnavailable, err.Error(), nil)
	case errors.Is(err, service.ErrDevLoginDisabled):
		httputil.WriteErrorResponse(w, http.StatusNotFound, httputil.CodeNotFound, err.Error(), nil)
	default:
		log.Printf("ERROR [handlers.%s] %v", op, err)
		httputil.WriteErrorResponse(w, http.StatusInternalServerError, httputil.CodeInternal, "Internal server error", err)
	}
}

func writeBadRequest(w http.ResponseWriter, message string) {
	httputil.WriteErrorResponse(w, http.StatusBadRequest, httputil.CodeBadRequest, message, nil)
}
