// Package errors defines the application-level error kinds surfaced to the
// UI shell. Every kind carries a stable business code and a human-readable
// message; none of them is fatal to the process.
package errors

import "automanager/internal/errors"

// AppError defines the interface for application-specific errors.
type AppError interface {
	error
	ErrorCode() string // Business error code
	Message() string   // User-friendly error message
	Details() string   // Detailed error information (optional)
}

// BaseError is a basic error structure that implements the AppError interface.
type BaseError struct {
	errorCode string
	message   string
	details   string
}

// NewBaseError creates a new base error.
func NewBaseError(errorCode, message, details string) *BaseError {
	return &BaseError{
		errorCode: errorCode,
		message:   message,
		details:   details,
	}
}

// Error implements the error interface.
func (e *BaseError) Error() string {
	return e.message
}

// WrapMessage wraps the error with additional context message.
func (e *BaseError) WrapMessage(message string) error {
	return errors.Wrap(e, message)
}

// ErrorCode returns the business error code.
func (e *BaseError) ErrorCode() string {
	return e.errorCode
}

// Message returns the user-friendly error message.
func (e *BaseError) Message() string {
	return e.message
}

// Details returns detailed error information.
func (e *BaseError) Details() string {
	return e.details
}

// WithDetails adds detailed error information.
func (e *BaseError) WithDetails(details string) *BaseError {
	return &BaseError{
		errorCode: e.errorCode,
		message:   e.message,
		details:   details,
	}
}

// Predefined error kinds.
var (
	// ErrInvalidInput is returned when a required field is missing or
	// malformed. Callers recover by re-prompting; no state is touched.
	ErrInvalidInput = NewBaseError(
		"INVALID_INPUT",
		"required field is missing or invalid",
		"",
	)

	// ErrDuplicateUsername is returned when registration collides with an
	// existing username. No partial write occurs.
	ErrDuplicateUsername = NewBaseError(
		"DUPLICATE_USERNAME",
		"username already exists",
		"",
	)

	// ErrPermissionDenied is returned when the permission policy rejects an
	// action. It is raised before any write.
	ErrPermissionDenied = NewBaseError(
		"PERMISSION_DENIED",
		"action not allowed for this role",
		"",
	)

	// ErrReferentialConflict is returned when a delete is blocked by
	// dependent records.
	ErrReferentialConflict = NewBaseError(
		"REFERENTIAL_CONFLICT",
		"record has dependent records and cannot be removed",
		"",
	)

	// ErrNotFound is returned when an operation targets a nonexistent id.
	ErrNotFound = NewBaseError(
		"NOT_FOUND",
		"record not found",
		"",
	)
)

// DatabaseExecuteError represents an unexpected store fault, implementing
// the AppError interface.
type DatabaseExecuteError struct {
	err     error
	details string
}

// NewDatabaseExecuteError creates a database-related error.
func NewDatabaseExecuteError(err error, details string) AppError {
	return &DatabaseExecuteError{
		err:     err,
		details: details,
	}
}

// Error implements the error interface.
func (e *DatabaseExecuteError) Error() string {
	return errors.Wrap(e.err, "database execution failed").Error()
}

// ErrorCode returns the business error code.
func (e *DatabaseExecuteError) ErrorCode() string {
	return "DATABASE_EXECUTE_FAILED"
}

// Message returns the user-friendly error message.
func (e *DatabaseExecuteError) Message() string {
	return "database execution failed"
}

// Details returns detailed error information.
func (e *DatabaseExecuteError) Details() string {
	return e.details
}
