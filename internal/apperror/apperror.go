// Package apperror defines the domain errors shared by every layer.
//
// Services and clients return these; the HTTP layer maps them to status codes
// and the tool registry turns validation failures into messages for the agent.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrUpstream   = errors.New("upstream unavailable")
	ErrConflict   = errors.New("conflict")
)

type AppError struct {
	Err     error  // sentinel used with errors.Is
	Message string // human-readable message
	Field   string // optional: field causing the error
	Cause   error  // optional: underlying failure (upstream errors)
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the cause so errors.Is matches
// apperror.ErrUpstream as well as context.DeadlineExceeded.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
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

// UpstreamUnavailable reports a failed call to the sports-data API.
// HTTP handlers map this to 502 Bad Gateway.
func UpstreamUnavailable(operation string, cause error) *AppError {
	return &AppError{
		Err:     ErrUpstream,
		Message: fmt.Sprintf("sports data unavailable (%s)", operation),
		Cause:   cause,
	}
}

// Conflict reports a resource that is busy with another request.
// HTTP handlers map this to 409 Conflict.
func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s %s is busy with another request", resource, id),
	}
}
