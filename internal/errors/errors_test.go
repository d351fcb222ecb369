package errors

import (
	"fmt"
	"testing"
)

func TestError_Error(t *testing.T) {
	err := &Error{
		Code:    ErrNotFound,
		Message: "project not found",
	}

	expected := "NOT_FOUND: project not found"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestNewInvalidRequest(t *testing.T) {
	err := NewInvalidRequest("expression is required")

	if err.Code != ErrInvalidRequest {
		t.Errorf("Code = %q, want %q", err.Code, ErrInvalidRequest)
	}
	if err.Message != "expression is required" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestNewNotFound(t *testing.T) {
	err := NewNotFound("project", "abc123")

	if err.Code != ErrNotFound {
		t.Errorf("Code = %q, want %q", err.Code, ErrNotFound)
	}
	if err.Details["identifier"] != "abc123" {
		t.Errorf("Details[identifier] = %v, want abc123", err.Details["identifier"])
	}
}

func TestNewCommandFailed(t *testing.T) {
	err := NewCommandFailed("calc", "division by zero")

	if err.Code != ErrCommandFailed {
		t.Errorf("Code = %q, want %q", err.Code, ErrCommandFailed)
	}
	if err.Message != "division by zero" {
		t.Errorf("Message = %q, want verbatim unit message", err.Message)
	}
	if err.Details["command"] != "calc" {
		t.Errorf("Details[command] = %v, want calc", err.Details["command"])
	}
}

func TestNewDiscovery(t *testing.T) {
	err := NewDiscovery("broken", fmt.Errorf("missing entry point"))

	if err.Code != ErrDiscovery {
		t.Errorf("Code = %q, want %q", err.Code, ErrDiscovery)
	}
	if err.Details["package"] != "broken" {
		t.Errorf("Details[package] = %v, want broken", err.Details["package"])
	}
}

func TestNewProviderUnavailable(t *testing.T) {
	err := NewProviderUnavailable("http://localhost:11434", fmt.Errorf("connection refused"))

	if err.Code != ErrProviderUnavailable {
		t.Errorf("Code = %q, want %q", err.Code, ErrProviderUnavailable)
	}
	if err.Details["host"] != "http://localhost:11434" {
		t.Errorf("Details[host] = %v", err.Details["host"])
	}
}

func TestNewStorage(t *testing.T) {
	err := NewStorage(fmt.Errorf("disk full"))

	if err.Code != ErrStorage {
		t.Errorf("Code = %q, want %q", err.Code, ErrStorage)
	}
}

func TestNewInternal_NilError(t *testing.T) {
	err := NewInternal(nil)

	if err.Code != ErrInternal {
		t.Errorf("Code = %q, want %q", err.Code, ErrInternal)
	}
	if err.Message != "internal error" {
		t.Errorf("Message = %q, want generic fallback", err.Message)
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code Code
		want bool
	}{
		{"matching code", NewNotFound("project", "x"), ErrNotFound, true},
		{"different code", NewNotFound("project", "x"), ErrStorage, false},
		{"plain error", fmt.Errorf("plain"), ErrInternal, false},
		{"nil error", nil, ErrInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.want {
				t.Errorf("Is() = %v, want %v", got, tt.want)
			}
		})
	}
}
