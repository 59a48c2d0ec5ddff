// Package apperrors defines the error taxonomy shared by the notification
// core and the HTTP handlers. Repositories wrap storage errors with %w;
// handlers map these types to status codes with errors.As.
package apperrors

import "fmt"

// ValidationError signals bad or missing input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NotFoundError signals that a referenced notification or entity is absent.
type NotFoundError struct {
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// PermissionError signals that the caller lacks rights for the operation.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string { return e.Message }

// ConflictError signals that a notification was already resolved by a
// concurrent request.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// PersistenceError wraps an underlying storage failure. Its detail is logged
// server-side; callers only see a generic failure.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string { return fmt.Sprintf("%s: %v", e.Op, e.Err) }

func (e *PersistenceError) Unwrap() error { return e.Err }

func Validation(format string, args ...any) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

func Permission(format string, args ...any) *PermissionError {
	return &PermissionError{Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

func Persistence(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}
