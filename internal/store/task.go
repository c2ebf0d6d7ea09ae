package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/jcarver/taskhive/internal/domain"
)

// StatusFilter restricts ListByOwner to tasks in a given completion state.
type StatusFilter string

// Possible status filter values.
const (
	// StatusFilterNone returns tasks regardless of completion state.
	StatusFilterNone StatusFilter = ""

	// StatusFilterIncomplete returns only tasks that are not completed.
	StatusFilterIncomplete StatusFilter = "incomplete"

	// StatusFilterComplete returns only completed tasks.
	StatusFilterComplete StatusFilter = "complete"
)

// TaskPatch carries the mutable scalar fields of a task for a full-replace
// update. Each field is a pointer so that "omitted" is distinguishable from
// "explicitly set" at the type level.
//
// The replace semantics are asymmetric on purpose: a nil Name, Description,
// DueDate, Priority or CategoryID clears the stored value to its empty/null
// state, while a nil IsCompleted or CreatedAt preserves the stored value.
// Callers must always resend values they want preserved for the clearing
// fields.
type TaskPatch struct {
	Name        *string
	Description *string
	DueDate     *time.Time
	Priority    *string
	CategoryID  *int64
	IsCompleted *bool
	CreatedAt   *time.Time
}

// TaskStore owns the read/write/delete of a task and its dependent rows
// (subtasks, recurrence, attachments) as one consistency unit.
type TaskStore interface {
	// Create inserts the task row plus a row per subtask, the recurrence row
	// if present, and a row per attachment, and populates the generated ids
	// on the passed aggregate.
	//
	// IMPORTANT: this method writes multiple rows and MUST run within a
	// transaction. Use WithTx together with store.RunInTransaction:
	//
	//   err := store.RunInTransaction(ctx, db, func(ctx context.Context, tx *sql.Tx) error {
	//       return taskStore.WithTx(tx).Create(ctx, task)
	//   })
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves the full aggregate by id, scoped to userID.
	// Returns ErrTaskNotFound if the task is absent or owned by another user;
	// the two cases are never distinguished.
	GetByID(ctx context.Context, userID string, taskID int64) (*domain.Task, error)

	// ListByOwner returns the caller's tasks (each with subtasks, recurrence
	// and attachments), optionally filtered by completion state, plus the
	// number of matching rows. Order follows persistence order; no pagination.
	ListByOwner(ctx context.Context, userID string, filter StatusFilter) ([]*domain.Task, int, error)

	// Update applies full-replace semantics on the mutable scalar fields per
	// the TaskPatch contract and returns the updated aggregate.
	// Subtasks, recurrence and attachments are not mutable through Update.
	// Returns ErrTaskNotFound if the task is absent or owned by another user.
	Update(ctx context.Context, userID string, taskID int64, patch TaskPatch) (*domain.Task, error)

	// Delete removes all subtask rows, the recurrence row if present, all
	// attachment rows and finally the task row, within a single atomic unit.
	// Stored attachment files are not touched; physical cleanup belongs to
	// the caller. Returns ErrTaskNotFound if the task is absent or owned by
	// another user.
	Delete(ctx context.Context, userID string, taskID int64) error

	// WithTx returns a new TaskStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller,
	// typically through store.RunInTransaction.
	WithTx(tx *sql.Tx) TaskStore

	// DB returns the underlying database connection, for use with
	// store.RunInTransaction.
	DB() *sql.DB
}
