// Package apperror defines the application's error taxonomy.
//
// Services return *AppError values, usually wrapped with
// fmt.Errorf("...: %w", err). The HTTP layer unwraps them with
// errors.Is/errors.As and maps each kind to a status code. Raw internal
// errors are never shown to clients.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation failed")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUpload       = errors.New("upload failed")
)

type AppError struct {
	Err     error  // sentinel kind, one of the Err* values above
	Message string // human-readable message, safe to show to clients
	Field   string // optional: input field that caused the error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, message string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %s", resource, message),
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized covers both bad credentials and bad or replayed tokens.
// HTTP handlers map this to 401.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// UploadFailed indicates the media host did not return a usable location.
// HTTP handlers map this to 400.
func UploadFailed(message string) *AppError {
	return &AppError{
		Err:     ErrUpload,
		Message: message,
	}
}
