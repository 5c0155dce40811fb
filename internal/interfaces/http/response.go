package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"fintrax/internal/domain/assistant"
	"fintrax/internal/domain/category"
	"fintrax/internal/domain/goal"
	"fintrax/internal/shared/apperr"
	"fintrax/internal/shared/middleware"
)

const maxBodyBytes = 1 << 20

// Error codes carried in failure envelopes.
const (
	CodeValidation        = "validation"
	CodeNotFound          = "not_found"
	CodeInsufficientFunds = "insufficient_funds"
	CodeConflict          = "conflict"
	CodeForbidden         = "forbidden"
	CodeUpstream          = "upstream"
	CodeUnavailable       = "unavailable"
	CodeInternal          = "internal"
)

type successResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respond(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, successResponse{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, successResponse{Success: true, Data: data, Message: message})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Message: message, Code: code})
}

func methodNotAllowed(w http.ResponseWriter) {
	respondError(w, http.StatusMethodNotAllowed, CodeValidation, "method not allowed")
}

// classify maps an error onto a status and code. Insufficient funds is
// checked before the generic validation kind it wraps.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, goal.ErrInsufficientFunds):
		return http.StatusBadRequest, CodeInsufficientFunds
	case errors.Is(err, apperr.ErrValidation):
		return http.StatusBadRequest, CodeValidation
	case errors.Is(err, apperr.ErrNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, apperr.ErrForbidden):
		return http.StatusForbidden, CodeForbidden
	case errors.Is(err, apperr.ErrConflict):
		return http.StatusConflict, CodeConflict
	case errors.Is(err, assistant.ErrModel):
		return http.StatusBadGateway, CodeUpstream
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// fail writes the failure envelope for err. Only unexpected errors are
// logged; their text never reaches the client.
func fail(w http.ResponseWriter, r *http.Request, logger *zap.Logger, op string, err error) {
	status, code := classify(err)

	resp := errorResponse{Code: code, Message: apperr.Message(err)}
	var inUse *category.InUseError
	if errors.As(err, &inUse) {
		resp.Details = map[string]int{"transactions": inUse.Count}
	}

	switch status {
	case http.StatusInternalServerError:
		resp.Message = "internal error"
		logger.Error(op+" failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	case http.StatusBadGateway:
		resp.Message = "the assistant is not available right now"
		logger.Warn(op+" failed",
			zap.String("request_id", middleware.RequestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}

	writeJSON(w, status, resp)
}

// decodeJSON decodes a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.Validation(fmt.Sprintf("invalid request body: %v", err))
	}
	if dec.More() {
		return apperr.Validation("invalid request body: multiple JSON values")
	}
	return nil
}

var errInvalidID = apperr.Validation("id must be a positive integer")

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

var errOwnerRequired = apperr.Validation("owner is required")

// queryOwner reads the owner from the query string.
func queryOwner(r *http.Request) (string, error) {
	owner := strings.TrimSpace(r.URL.Query().Get("owner"))
	if owner == "" {
		return "", errOwnerRequired
	}
	return owner, nil
}

func requireOwner(owner string) (string, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return "", errOwnerRequired
	}
	return owner, nil
}

const dateLayout = "2006-01-02"

// parseDate accepts a calendar date or an RFC 3339 timestamp.
func parseDate(field string, raw *string) (*time.Time, error) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, nil
	}
	s := strings.TrimSpace(*raw)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	return nil, apperr.Validation(field + " must be a date (YYYY-MM-DD)")
}
