package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/logger"
	"github.com/iho/gobank/internal/usecase"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// respondError maps err to a status code. Unclassified errors never leak their text.
func respondError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	if status == http.StatusInternalServerError {
		writeError(w, status, message, "internal server error")
		return
	}

	writeJSON(w, status, dto.ErrorResponse{
		Error:   message,
		Message: err.Error(),
		Kind:    domain.KindOf(err).String(),
	})
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindConflict, domain.KindIllegalState:
		return http.StatusConflict
	case domain.KindPolicyViolation:
		return http.StatusForbidden
	case domain.KindInsufficientFunds:
		return http.StatusUnprocessableEntity
	case domain.KindRetryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decodeRequest decodes the JSON body into v and checks its validate tags.
func decodeRequest(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return dto.Validate(v)
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// callerID is the acting user forwarded by the identity middleware.
func callerID(r *http.Request) string {
	id, _ := logger.UserID(r.Context())
	return id
}

func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	v := chi.URLParam(r, name)
	if v == "" {
		writeError(w, http.StatusBadRequest, "missing "+name, "")
		return "", false
	}
	return v, true
}

// retry runs op through retrier when one is configured.
func retry(ctx context.Context, retrier usecase.Retrier, op func() error) error {
	if retrier == nil {
		return op()
	}
	return retrier.Retry(ctx, op)
}
