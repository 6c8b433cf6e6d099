package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sakif/vidstream/internal/apperror"
)

// APIResponse is the success envelope every endpoint returns.
type APIResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data,omitempty"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// APIError is the failure envelope, mirrored by the auth middleware's
// inline 401 body.
type APIError struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`   // machine-readable kind, e.g. "not_found"
	Message    string `json:"message"` // human-readable description
	Success    bool   `json:"success"` // always false
}

// writeJSON sends any payload with the given status. Headers must be set
// before the first body write.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// writeSuccess wraps data in the success envelope.
func writeSuccess(w http.ResponseWriter, status int, data any, message string) {
	writeJSON(w, status, APIResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// writeError maps a domain error onto the error envelope. Every failure
// raised inside a flow passes through here; unknown errors become a generic
// 500 so internals (SQL, file paths) never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		status := http.StatusInternalServerError
		kind := "internal_error"

		switch {
		case errors.Is(err, apperror.ErrValidation):
			status, kind = http.StatusBadRequest, "validation_error"
		case errors.Is(err, apperror.ErrUpload):
			status, kind = http.StatusBadRequest, "upload_error"
		case errors.Is(err, apperror.ErrUnauthorized):
			status, kind = http.StatusUnauthorized, "unauthorized"
		case errors.Is(err, apperror.ErrForbidden):
			status, kind = http.StatusForbidden, "forbidden"
		case errors.Is(err, apperror.ErrNotFound):
			status, kind = http.StatusNotFound, "not_found"
		case errors.Is(err, apperror.ErrConflict):
			status, kind = http.StatusConflict, "conflict"
		}

		writeJSON(w, status, APIError{
			StatusCode: status,
			Error:      kind,
			Message:    appErr.Message,
			Success:    false,
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, APIError{
		StatusCode: http.StatusInternalServerError,
		Error:      "internal_error",
		Message:    "an internal error occurred",
		Success:    false,
	})
}
