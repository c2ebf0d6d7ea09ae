package service

import (
	"errors"
	"fmt"

	"github.com/jcarver/taskhive/internal/domain"
	"github.com/jcarver/taskhive/internal/store"
)

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is; the API layer maps them to HTTP
// status codes.
var (
	// ErrTaskNotFound indicates that the task does not exist or is owned by
	// another user. The two cases are never distinguished to the caller.
	ErrTaskNotFound = errors.New("task not found")

	// ErrDueDateInPast indicates a due date earlier than the current date.
	ErrDueDateInPast = domain.ErrDueDateInPast

	// ErrAttachmentStorage indicates that writing attachment bytes failed.
	// The whole create operation aborts; no task row is written.
	ErrAttachmentStorage = errors.New("attachment storage failed")
)

// TaskServiceError wraps errors from the task service with context.
type TaskServiceError struct {
	// Operation is the operation that failed (e.g., "create_task", "delete_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for TaskServiceError.
func (e *TaskServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("task service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("task service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *TaskServiceError) Unwrap() error {
	return e.Err
}

// NewTaskServiceError creates a new TaskServiceError.
// It returns known sentinel errors directly without wrapping.
func NewTaskServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTaskNotFound) || errors.Is(err, ErrDueDateInPast) {
		return err
	}

	// Store-level not-found maps to the service-level sentinel.
	if errors.Is(err, store.ErrTaskNotFound) {
		return ErrTaskNotFound
	}

	return &TaskServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
