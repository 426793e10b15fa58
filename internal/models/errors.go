package models

import (
	"errors"
	"fmt"
	"net/http"
)

// Stable machine-readable error codes.
const (
	CodeValidationError = "VALIDATION_ERROR"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeProtocolError   = "PROTOCOL_ERROR"
	CodeNetworkError    = "NETWORK_ERROR"
	CodeNotFound        = "NOT_FOUND"
)

// AppError is the client's error taxonomy. Code is a stable machine
// readable string; Message is safe to show to the user.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    CodeValidationError,
		Message: message,
	}
}

func NewUnauthorizedError(message string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
	}
}

func NewProtocolError(message string) *AppError {
	return &AppError{
		Code:    CodeProtocolError,
		Message: message,
	}
}

func NewNetworkError(err error) *AppError {
	return &AppError{
		Code:    CodeNetworkError,
		Message: "Network request failed",
		Err:     err,
	}
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

// APIError is a non-2xx response surfaced verbatim: the status code and
// the raw response body.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("api error: status %d", e.Status)
	}
	return fmt.Sprintf("api error: status %d: %s", e.Status, e.Body)
}

// IsUnauthorized reports whether err is an API response rejecting the
// caller's credentials. Used to route back into the auth flow.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeUnauthorized
	}
	return false
}

// IsNotFound reports whether err is a 404 API response.
func IsNotFound(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusNotFound
	}
	return false
}
