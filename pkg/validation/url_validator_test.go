package validation

import (
	"testing"

	apperrors "fursaver-site/internal/errors"
)

func TestNewURLValidator(t *testing.T) {
	validator := NewURLValidator()
	if validator == nil {
		t.Fatal("Expected non-nil URL validator")
	}

	expectedSchemes := []string{"http", "https"}
	if len(validator.allowedSchemes) != len(expectedSchemes) {
		t.Errorf("Expected %d schemes, got %d", len(expectedSchemes), len(validator.allowedSchemes))
	}
	for i, scheme := range expectedSchemes {
		if validator.allowedSchemes[i] != scheme {
			t.Errorf("Expected scheme %s, got %s", scheme, validator.allowedSchemes[i])
		}
	}
}

func TestValidateEndpointURL_Valid(t *testing.T) {
	validator := NewURLValidator()

	validURLs := []string{
		"https://detect.roboflow.com/fursaver-v2/1",
		"https://api.groq.com/openai/v1",
		"http://127.0.0.1:8081/detect",
		"HTTPS://api.example.com/v1",
	}

	for _, u := range validURLs {
		if err := validator.ValidateEndpointURL(u); err != nil {
			t.Errorf("Expected valid URL %s to pass validation, got error: %v", u, err)
		}
	}
}

func TestValidateEndpointURL_Invalid(t *testing.T) {
	validator := NewURLValidator()

	tests := []struct {
		name    string
		url     string
		message string
	}{
		{"empty", "", "URL cannot be empty"},
		{"whitespace", " \t", "URL cannot be empty"},
		{"ftp scheme", "ftp://detect.example.com/model", "URL scheme not allowed"},
		{"no scheme", "detect.example.com/model", "URL scheme not allowed"},
		{"no host", "https:///model", "URL must have a valid host"},
		{"query", "https://detect.example.com/model?api_key=abc", "URL must not carry a query or fragment"},
		{"fragment", "https://detect.example.com/model#x", "URL must not carry a query or fragment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.ValidateEndpointURL(tt.url)
			if err == nil {
				t.Fatalf("Expected %q to fail validation", tt.url)
			}
			appErr, ok := err.(*apperrors.AppError)
			if !ok {
				t.Fatalf("Expected AppError, got: %T", err)
			}
			if appErr.Message != tt.message {
				t.Errorf("Expected message %q, got %q", tt.message, appErr.Message)
			}
			if appErr.Type != apperrors.ErrorTypeValidation {
				t.Errorf("Expected validation error type, got %s", appErr.Type)
			}
		})
	}
}

func TestValidateEndpointURL_HostRestrictions(t *testing.T) {
	validator := NewURLValidatorWithOptions([]string{"https"}, []string{"api.groq.com"})

	if err := validator.ValidateEndpointURL("https://api.groq.com/openai/v1"); err != nil {
		t.Errorf("Expected allowed host to pass, got %v", err)
	}
	if err := validator.ValidateEndpointURL("https://api.groq.com:443/openai/v1"); err != nil {
		t.Errorf("Expected allowed host with port to pass, got %v", err)
	}
	if err := validator.ValidateEndpointURL("https://evil.example.com/openai/v1"); err == nil {
		t.Error("Expected disallowed host to fail")
	}
	if err := validator.ValidateEndpointURL("http://api.groq.com/openai/v1"); err == nil {
		t.Error("Expected http scheme to fail when only https is allowed")
	}
}
