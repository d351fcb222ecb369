package errors

import "fmt"

// Code classifies a rarog error.
type Code string

const (
	ErrInvalidRequest      Code = "INVALID_REQUEST"
	ErrNotFound            Code = "NOT_FOUND"
	ErrCommandFailed       Code = "COMMAND_FAILED"
	ErrDiscovery           Code = "DISCOVERY"
	ErrProviderUnavailable Code = "PROVIDER_UNAVAILABLE"
	ErrStorage             Code = "STORAGE"
	ErrInternal            Code = "INTERNAL"
)

// Error is a structured error with a code and optional details.
type Error struct {
	Code    Code
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates an error for invalid user input.
func NewInvalidRequest(msg string) *Error {
	return &Error{
		Code:    ErrInvalidRequest,
		Message: msg,
	}
}

// NewNotFound creates an error for a missing project or command.
func NewNotFound(what, identifier string) *Error {
	return &Error{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", what, identifier),
		Details: map[string]any{"identifier": identifier},
	}
}

// NewCommandFailed wraps a command unit's own reported failure.
// The message is surfaced verbatim to the user and never forwarded
// to the model provider.
func NewCommandFailed(command, msg string) *Error {
	return &Error{
		Code:    ErrCommandFailed,
		Message: msg,
		Details: map[string]any{"command": command},
	}
}

// NewDiscovery creates a per-unit discovery error. Discovery errors are
// logged and the unit is skipped; they never abort discovery as a whole.
func NewDiscovery(pkg string, err error) *Error {
	return &Error{
		Code:    ErrDiscovery,
		Message: fmt.Sprintf("command package %q: %v", pkg, err),
		Details: map[string]any{"package": pkg},
	}
}

// NewProviderUnavailable creates an error for a missing or unreachable
// model provider, with a remediation hint.
func NewProviderUnavailable(host string, err error) *Error {
	reason := ""
	if err != nil {
		reason = fmt.Sprintf(": %v", err)
	}
	return &Error{
		Code:    ErrProviderUnavailable,
		Message: fmt.Sprintf("model provider at %s is not reachable%s (start the model server or adjust model_host in config.json; context provider commands keep working without it)", host, reason),
		Details: map[string]any{"host": host},
	}
}

// NewStorage creates an error for filesystem failures during project
// creation or materialization.
func NewStorage(err error) *Error {
	return &Error{
		Code:    ErrStorage,
		Message: fmt.Sprintf("storage error: %v", err),
	}
}

// NewInternal creates an error for unexpected internal failures.
func NewInternal(err error) *Error {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &Error{
		Code:    ErrInternal,
		Message: msg,
	}
}

// UserMessage renders an error for terminal display: the plain message
// for structured errors, err.Error() otherwise.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if rErr, ok := err.(*Error); ok {
		return rErr.Message
	}
	return err.Error()
}

// Is checks if an error is a rarog Error with the given code.
func Is(err error, code Code) bool {
	if rErr, ok := err.(*Error); ok {
		return rErr.Code == code
	}
	return false
}
