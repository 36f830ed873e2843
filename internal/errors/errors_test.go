package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestConstructors_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantType ErrorType
		wantCode int
	}{
		{"validation", NewValidationError("bad", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"image type", NewImageTypeError("not an image", nil), ErrorTypeImageType, http.StatusUnsupportedMediaType},
		{"too large", NewTooLargeError("big"), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge},
		{"detection", NewDetectionError("upstream", nil), ErrorTypeDetection, http.StatusBadGateway},
		{"conversation", NewConversationError("upstream", nil), ErrorTypeConversation, http.StatusBadGateway},
		{"busy", NewBusyError("in flight"), ErrorTypeBusy, http.StatusConflict},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"not found", NewNotFoundError("gone", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if GetStatusCode(tt.err) != tt.wantCode {
				t.Errorf("Expected status %d, got %d", tt.wantCode, GetStatusCode(tt.err))
			}
		})
	}
}

func TestAppError_WrappedLookup(t *testing.T) {
	cause := errors.New("connection refused")
	appErr := NewDetectionError("Failed to analyze the image", cause)
	wrapped := fmt.Errorf("analyze: %w", appErr)

	if !IsType(wrapped, ErrorTypeDetection) {
		t.Error("Expected wrapped error to be recognised as a detection error")
	}
	if GetStatusCode(wrapped) != http.StatusBadGateway {
		t.Errorf("Expected 502 for wrapped error, got %d", GetStatusCode(wrapped))
	}
	if !errors.Is(wrapped, cause) {
		t.Error("Expected the cause to be reachable through Unwrap")
	}
}

func TestGetStatusCode_PlainError(t *testing.T) {
	if code := GetStatusCode(errors.New("plain")); code != http.StatusInternalServerError {
		t.Errorf("Expected 500 for a plain error, got %d", code)
	}
	if IsType(errors.New("plain"), ErrorTypeBusy) {
		t.Error("Plain error must not match any AppError type")
	}
}
