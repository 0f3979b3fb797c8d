package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Backend errors
	ErrBackendUnavailable = &Error{Code: "BACKEND_UNAVAILABLE", Message: "backend request failed"}
	ErrBackendStatus      = &Error{Code: "BACKEND_STATUS", Message: "backend returned an error status"}
	ErrBadPayload         = &Error{Code: "BAD_PAYLOAD", Message: "malformed backend payload"}

	// Auth errors
	ErrUnauthorized     = &Error{Code: "UNAUTHORIZED", Message: "authentication required"}
	ErrLoginFailed      = &Error{Code: "LOGIN_FAILED", Message: "incorrect email or password"}
	ErrSessionRestore   = &Error{Code: "SESSION_RESTORE", Message: "stored session is no longer valid"}
	ErrValidationFailed = &Error{Code: "VALIDATION_FAILED", Message: "input validation failed"}

	// Dashboard errors
	ErrCropUnknown = &Error{Code: "CROP_UNKNOWN", Message: "no recommended crop available yet"}
	ErrNotLoaded   = &Error{Code: "NOT_LOADED", Message: "section has not been loaded"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
