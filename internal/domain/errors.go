package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the common ancestor of all domain validation errors.
// Checking errors.Is(err, ErrValidation) matches any of the specific
// validation errors below.
var ErrValidation = errors.New("validation failed")

// Specific validation errors. Each wraps ErrValidation so callers can match
// either the precise failure or the general class.
var (
	// ErrEmptyTaskName is returned when a task is created without a name.
	ErrEmptyTaskName = fmt.Errorf("%w: task name cannot be empty", ErrValidation)

	// ErrEmptyTaskUserID is returned when a task has no owning user.
	ErrEmptyTaskUserID = fmt.Errorf("%w: task user ID cannot be empty", ErrValidation)

	// ErrEmptySubtaskName is returned when a subtask is created without a name.
	ErrEmptySubtaskName = fmt.Errorf("%w: subtask name cannot be empty", ErrValidation)

	// ErrEmptyRecurrenceInterval is returned when a recurrence carries no
	// interval descriptor.
	ErrEmptyRecurrenceInterval = fmt.Errorf("%w: recurrence interval cannot be empty", ErrValidation)

	// ErrEmptyCategoryName is returned when a category is created without a name.
	ErrEmptyCategoryName = fmt.Errorf("%w: category name cannot be empty", ErrValidation)

	// ErrDueDateInPast is returned when a task's due date is earlier than the
	// current date.
	ErrDueDateInPast = fmt.Errorf("%w: due date cannot be in the past", ErrValidation)
)

// ErrUnauthorized is returned when an operation is not permitted.
var ErrUnauthorized = errors.New("unauthorized operation")
