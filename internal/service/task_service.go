package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/jcarver/taskhive/internal/domain"
	"github.com/jcarver/taskhive/internal/store"
)

// SubtaskInput describes a subtask supplied at task creation.
type SubtaskInput struct {
	Name        string
	Description string
	DueDate     *time.Time
	IsCompleted bool
}

// RecurrenceInput describes the optional recurrence rule supplied at task
// creation.
type RecurrenceInput struct {
	Interval string
}

// AttachmentUpload is one uploaded file. Content is consumed exactly once
// when the task is created.
type AttachmentUpload struct {
	FileName    string
	ContentType string
	Content     io.Reader
}

// CreateTaskInput carries everything needed to create a task aggregate.
// Category may be referenced by id (used as-is, even when dangling) or by
// free-text name (resolved, creating the category if absent); the id wins
// when both are present.
type CreateTaskInput struct {
	Name         string
	Description  string
	DueDate      *time.Time
	Priority     string
	CategoryID   *int64
	CategoryName string

	// CreatedAt overrides the server-assigned creation timestamp when
	// explicitly supplied.
	CreatedAt *time.Time

	Subtasks    []SubtaskInput
	Recurrence  *RecurrenceInput
	Attachments []AttachmentUpload
}

// TaskService provides the task aggregate use cases. Every operation is
// scoped to the calling user's id; a client-supplied owner field is never
// trusted.
type TaskService interface {
	// CreateTask resolves the category, stores attachment bytes, and writes
	// the aggregate rows in one transaction, in that order. Returns the
	// created aggregate with generated ids.
	CreateTask(ctx context.Context, userID string, input CreateTaskInput) (*domain.Task, error)

	// GetTask retrieves one task aggregate owned by userID.
	GetTask(ctx context.Context, userID string, taskID int64) (*domain.Task, error)

	// ListTasks returns the caller's tasks, optionally filtered by completion
	// state, plus the number of matching tasks.
	ListTasks(ctx context.Context, userID string, filter store.StatusFilter) ([]*domain.Task, int, error)

	// UpdateTask replaces the task's mutable scalar fields per the TaskPatch
	// contract and returns the updated aggregate.
	UpdateTask(ctx context.Context, userID string, taskID int64, patch store.TaskPatch) (*domain.Task, error)

	// DeleteTask removes the aggregate and best-effort deletes its stored
	// attachment files afterwards.
	DeleteTask(ctx context.Context, userID string, taskID int64) error
}

// taskServiceImpl implements the TaskService interface
type taskServiceImpl struct {
	taskStore     store.TaskStore
	categoryStore store.CategoryStore
	fileStore     store.FileStore
	logger        *slog.Logger
}

// NewTaskService creates a new TaskService.
// It returns an error if any of the required dependencies are nil.
func NewTaskService(
	taskStore store.TaskStore,
	categoryStore store.CategoryStore,
	fileStore store.FileStore,
	logger *slog.Logger,
) (TaskService, error) {
	if taskStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "taskStore cannot be nil",
		}
	}
	if categoryStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "categoryStore cannot be nil",
		}
	}
	if fileStore == nil {
		return nil, &TaskServiceError{
			Operation: "create_service",
			Message:   "fileStore cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &taskServiceImpl{
		taskStore:     taskStore,
		categoryStore: categoryStore,
		fileStore:     fileStore,
		logger:        logger.With("component", "task_service"),
	}, nil
}

// CreateTask implements TaskService.CreateTask
//
// Ordering matters: category resolution commits eagerly on its own, then all
// attachment bytes are durably stored, and only then are the relational rows
// written inside one transaction. A crash mid-way can leave an orphan file
// but never a row pointing at a missing file.
func (s *taskServiceImpl) CreateTask(
	ctx context.Context,
	userID string,
	input CreateTaskInput,
) (*domain.Task, error) {
	task, err := domain.NewTask(userID, input.Name)
	if err != nil {
		s.logger.Warn("invalid task input",
			"error", err,
			"user_id", userID)
		return nil, NewTaskServiceError("create_task", "invalid task input", err)
	}

	if err := validateDueDate(input.DueDate); err != nil {
		return nil, err
	}

	task.Description = input.Description
	task.DueDate = input.DueDate
	task.Priority = input.Priority
	if input.CreatedAt != nil {
		task.CreatedAt = input.CreatedAt.UTC()
	}

	// 1. Resolve the category. Resolution never fails the request over a
	// missing category; absence is a valid terminal state.
	categoryID, err := s.resolveCategory(ctx, userID, input.CategoryID, input.CategoryName)
	if err != nil {
		return nil, NewTaskServiceError("create_task", "failed to resolve category", err)
	}
	task.CategoryID = categoryID

	for _, sub := range input.Subtasks {
		task.Subtasks = append(task.Subtasks, domain.Subtask{
			Name:        sub.Name,
			Description: sub.Description,
			DueDate:     sub.DueDate,
			IsCompleted: sub.IsCompleted,
		})
	}
	if input.Recurrence != nil {
		task.Recurrence = &domain.Recurrence{Interval: input.Recurrence.Interval}
	}

	if err := task.Validate(); err != nil {
		return nil, NewTaskServiceError("create_task", "invalid task aggregate", err)
	}

	// 2. Store attachment bytes before any relational row references them.
	// Any write failure aborts the whole operation; no task row is written.
	for _, upload := range input.Attachments {
		desc, err := s.fileStore.Save(ctx, upload.FileName, upload.ContentType, upload.Content)
		if err != nil {
			s.logger.Error("failed to store attachment",
				"error", err,
				"user_id", userID,
				"file_name", upload.FileName)
			return nil, NewTaskServiceError(
				"create_task",
				"failed to store attachment",
				fmt.Errorf("%w: %v", ErrAttachmentStorage, err),
			)
		}
		// Zero-length uploads are skipped, not stored.
		if desc == nil {
			continue
		}
		task.Attachments = append(task.Attachments, domain.Attachment{
			FileName: desc.FileName,
			FilePath: desc.FilePath,
			FileType: desc.ContentType,
		})
	}

	// 3. Write the aggregate rows in one transaction.
	err = store.RunInTransaction(ctx, s.taskStore.DB(), func(ctx context.Context, tx *sql.Tx) error {
		return s.taskStore.WithTx(tx).Create(ctx, task)
	})
	if err != nil {
		s.logger.Error("failed to create task aggregate",
			"error", err,
			"user_id", userID)
		return nil, NewTaskServiceError("create_task", "failed to save task", err)
	}

	s.logger.Info("task created",
		"task_id", task.ID,
		"user_id", userID,
		"subtasks", len(task.Subtasks),
		"attachments", len(task.Attachments))

	return task, nil
}

// GetTask implements TaskService.GetTask
func (s *taskServiceImpl) GetTask(ctx context.Context, userID string, taskID int64) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to retrieve task",
			"error", err,
			"task_id", taskID,
			"user_id", userID)
		return nil, NewTaskServiceError("get_task", "failed to retrieve task", err)
	}
	return task, nil
}

// ListTasks implements TaskService.ListTasks
func (s *taskServiceImpl) ListTasks(
	ctx context.Context,
	userID string,
	filter store.StatusFilter,
) ([]*domain.Task, int, error) {
	tasks, count, err := s.taskStore.ListByOwner(ctx, userID, filter)
	if err != nil {
		s.logger.Error("failed to list tasks",
			"error", err,
			"user_id", userID)
		return nil, 0, NewTaskServiceError("list_tasks", "failed to list tasks", err)
	}
	return tasks, count, nil
}

// UpdateTask implements TaskService.UpdateTask
func (s *taskServiceImpl) UpdateTask(
	ctx context.Context,
	userID string,
	taskID int64,
	patch store.TaskPatch,
) (*domain.Task, error) {
	if err := validateDueDate(patch.DueDate); err != nil {
		return nil, err
	}

	task, err := s.taskStore.Update(ctx, userID, taskID, patch)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		s.logger.Error("failed to update task",
			"error", err,
			"task_id", taskID,
			"user_id", userID)
		return nil, NewTaskServiceError("update_task", "failed to update task", err)
	}

	return task, nil
}

// DeleteTask implements TaskService.DeleteTask
// After the relational delete commits, the stored attachment files are
// removed best-effort: a removal failure is logged, never surfaced.
func (s *taskServiceImpl) DeleteTask(ctx context.Context, userID string, taskID int64) error {
	task, err := s.taskStore.GetByID(ctx, userID, taskID)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return NewTaskServiceError("delete_task", "failed to retrieve task", err)
	}

	if err := s.taskStore.Delete(ctx, userID, taskID); err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		s.logger.Error("failed to delete task",
			"error", err,
			"task_id", taskID,
			"user_id", userID)
		return NewTaskServiceError("delete_task", "failed to delete task", err)
	}

	for _, att := range task.Attachments {
		if err := s.fileStore.Remove(ctx, att.FilePath); err != nil {
			s.logger.Warn("failed to remove stored attachment file",
				"error", err,
				"task_id", taskID,
				"path", att.FilePath)
		}
	}

	s.logger.Info("task deleted",
		"task_id", taskID,
		"user_id", userID,
		"attachments_removed", len(task.Attachments))
	return nil
}

// resolveCategory maps (id, name) to a category id. An explicit id is used
// as-is without an existence check; a dangling id surfaces later only as an
// absent category on read. A non-empty name is resolved through the category
// store, creating the category on first use. Neither supplied means no
// category.
func (s *taskServiceImpl) resolveCategory(
	ctx context.Context,
	userID string,
	categoryID *int64,
	categoryName string,
) (*int64, error) {
	if categoryID != nil {
		return categoryID, nil
	}

	if categoryName == "" {
		return nil, nil
	}

	category, err := s.categoryStore.GetOrCreate(ctx, categoryName, userID)
	if err != nil {
		s.logger.Error("failed to resolve category",
			"error", err,
			"category_name", categoryName,
			"user_id", userID)
		return nil, err
	}

	return &category.ID, nil
}

// validateDueDate rejects due dates earlier than the current date. The same
// policy applies on create and update. A nil due date is always valid.
func validateDueDate(dueDate *time.Time) error {
	if dueDate == nil {
		return nil
	}

	now := time.Now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	d := dueDate.UTC()
	due := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)

	if due.Before(today) {
		return ErrDueDateInPast
	}
	return nil
}
