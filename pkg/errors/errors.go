package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorCode represents a unique error code for stable testing
type ErrorCode string

// Error codes for different error categories
const (
	// General errors
	ErrUnknown      ErrorCode = "UNKNOWN"
	ErrInternal     ErrorCode = "INTERNAL"
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Configuration errors
	ErrConfigLoad  ErrorCode = "CONFIG_LOAD"
	ErrConfigValid ErrorCode = "CONFIG_INVALID"
	ErrAuthMissing ErrorCode = "AUTH_MISSING"
	ErrReleaseTag  ErrorCode = "RELEASE_TAG"

	// Connection errors
	ErrConnect        ErrorCode = "CONNECT"
	ErrConnectTimeout ErrorCode = "CONNECT_TIMEOUT"
	ErrAuthFailed     ErrorCode = "AUTH_FAILED"

	// Pipeline errors
	ErrCommand          ErrorCode = "COMMAND"
	ErrTransfer         ErrorCode = "TRANSFER"
	ErrHook             ErrorCode = "HOOK"
	ErrArchive          ErrorCode = "ARCHIVE"
	ErrPermissionDenied ErrorCode = "PERMISSION_DENIED"

	// Local filesystem errors
	ErrFileAccess ErrorCode = "FILE_ACCESS"
)

// Detail keys shared by the packages that build errors.
const (
	DetailCommand    = "command"
	DetailStderr     = "stderr"
	DetailExitStatus = "exit_status"
	DetailState      = "state"
	DetailHost       = "host"
)

// DeployError represents a structured error with code and details
type DeployError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
	Wrapped error
}

// Error implements the error interface
func (e *DeployError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap implements the errors.Unwrap interface
func (e *DeployError) Unwrap() error {
	return e.Wrapped
}

// Is implements errors.Is interface
func (e *DeployError) Is(target error) bool {
	var targetErr *DeployError
	if errors.As(target, &targetErr) {
		return e.Code == targetErr.Code
	}
	return false
}

// New creates a new DeployError with the given code and message
func New(code ErrorCode, message string) *DeployError {
	return &DeployError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
	}
}

// Newf creates a new DeployError with a formatted message
func Newf(code ErrorCode, format string, args ...interface{}) *DeployError {
	return &DeployError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
	}
}

// Wrap wraps an existing error with a DeployError
func Wrap(err error, code ErrorCode, message string) *DeployError {
	if err == nil {
		return nil
	}
	return &DeployError{
		Code:    code,
		Message: message,
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// Wrapf wraps an existing error with a formatted message
func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *DeployError {
	if err == nil {
		return nil
	}
	return &DeployError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Details: make(map[string]interface{}),
		Wrapped: err,
	}
}

// WithDetail adds a detail to the error
func (e *DeployError) WithDetail(key string, value interface{}) *DeployError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// WithDetails adds multiple details to the error
func (e *DeployError) WithDetails(details map[string]interface{}) *DeployError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// NewCommandError reports a remote command that exited unsuccessfully.
// The stderr text is kept verbatim in the message so the operator sees
// exactly what the remote shell printed.
func NewCommandError(command, stderr string, exitStatus int, cause error) *DeployError {
	msg := fmt.Sprintf("remote command failed (exit %d): %s", exitStatus, command)
	if trimmed := strings.TrimSpace(stderr); trimmed != "" {
		msg += ": " + trimmed
	}
	e := New(ErrCommand, msg)
	e.Wrapped = cause
	return e.WithDetails(map[string]interface{}{
		DetailCommand:    command,
		DetailStderr:     stderr,
		DetailExitStatus: exitStatus,
	})
}

// IsErrorCode checks if an error has a specific error code
func IsErrorCode(err error, code ErrorCode) bool {
	var deployErr *DeployError
	if errors.As(err, &deployErr) {
		return deployErr.Code == code
	}
	return false
}

// GetErrorCode returns the error code from an error, or ErrUnknown if not a DeployError
func GetErrorCode(err error) ErrorCode {
	var deployErr *DeployError
	if errors.As(err, &deployErr) {
		return deployErr.Code
	}
	return ErrUnknown
}

// GetErrorDetails returns the details from an error, or nil if not a DeployError
func GetErrorDetails(err error) map[string]interface{} {
	var deployErr *DeployError
	if errors.As(err, &deployErr) {
		return deployErr.Details
	}
	return nil
}
