package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeImageType    ErrorType = "image_type"
	ErrorTypeTooLarge     ErrorType = "too_large"
	ErrorTypeDetection    ErrorType = "detection"
	ErrorTypeConversation ErrorType = "conversation"
	ErrorTypeBusy         ErrorType = "busy"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeInternal     ErrorType = "internal"
)

// AppError represents a structured application error
type AppError struct {
	Type       ErrorType `json:"type"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	StatusCode int       `json:"status_code"`
	Cause      error     `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

func newAppError(t ErrorType, status int, message string, cause error) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: status,
		Cause:      cause,
	}
}

// NewValidationError creates a new validation error
func NewValidationError(message string, cause error) *AppError {
	return newAppError(ErrorTypeValidation, http.StatusBadRequest, message, cause)
}

// NewImageTypeError is returned when an upload is not an image. It is raised
// before any network call is made.
func NewImageTypeError(message string, cause error) *AppError {
	return newAppError(ErrorTypeImageType, http.StatusUnsupportedMediaType, message, cause)
}

// NewTooLargeError is returned when an upload exceeds the configured size limit
func NewTooLargeError(message string) *AppError {
	return newAppError(ErrorTypeTooLarge, http.StatusRequestEntityTooLarge, message, nil)
}

// NewDetectionError wraps a failed call to the detection endpoint
func NewDetectionError(message string, cause error) *AppError {
	return newAppError(ErrorTypeDetection, http.StatusBadGateway, message, cause)
}

// NewConversationError wraps a failed call to the chat-completion endpoint
func NewConversationError(message string, cause error) *AppError {
	return newAppError(ErrorTypeConversation, http.StatusBadGateway, message, cause)
}

// NewBusyError is returned when a conversation already has a send in flight
func NewBusyError(message string) *AppError {
	return newAppError(ErrorTypeBusy, http.StatusConflict, message, nil)
}

// NewTimeoutError creates a new timeout error
func NewTimeoutError(message string, cause error) *AppError {
	return newAppError(ErrorTypeTimeout, http.StatusGatewayTimeout, message, cause)
}

// NewInternalError creates a new internal error
func NewInternalError(message string, cause error) *AppError {
	return newAppError(ErrorTypeInternal, http.StatusInternalServerError, message, cause)
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(message string, cause error) *AppError {
	return newAppError(ErrorTypeNotFound, http.StatusNotFound, message, cause)
}

// IsType checks if the error, or any error it wraps, is an AppError of the given type
func IsType(err error, errorType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errorType
	}
	return false
}

// GetStatusCode extracts the HTTP status code from an error
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}
