package domain

import (
	"time"
)

// Task is the root of the task aggregate. It owns its subtasks, its optional
// recurrence and its attachments exclusively: they are created and deleted
// together with the task and are never referenced from outside the aggregate.
//
// A task is visible and mutable only by the user identified by UserID.
type Task struct {
	ID          int64        `json:"id"`
	UserID      string       `json:"user_id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	DueDate     *time.Time   `json:"due_date,omitempty"`
	Priority    string       `json:"priority,omitempty"`
	IsCompleted bool         `json:"is_completed"`
	CategoryID  *int64       `json:"category_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	Subtasks    []Subtask    `json:"subtasks"`
	Recurrence  *Recurrence  `json:"recurrence,omitempty"`
	Attachments []Attachment `json:"attachments"`
}

// Subtask is a child item of a task. Its completion flag is independent of
// the parent task's flag.
type Subtask struct {
	ID          int64      `json:"id"`
	TaskID      int64      `json:"task_id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	IsCompleted bool       `json:"is_completed"`
}

// Recurrence describes how often a task repeats, as a free-form interval
// descriptor such as "daily" or "weekly". The rule is stored only; it is
// never expanded into future task instances.
//
// At most one recurrence exists per task, enforced by a unique index on the
// task foreign key.
type Recurrence struct {
	ID       int64  `json:"id"`
	TaskID   int64  `json:"task_id"`
	Interval string `json:"interval"`
}

// Attachment is the relational record of an uploaded file. FilePath points at
// the stored bytes in the attachment file store; the bytes are written before
// this record is committed, so a committed record never dangles.
type Attachment struct {
	ID       int64  `json:"id"`
	TaskID   int64  `json:"task_id"`
	FileName string `json:"file_name"`
	FilePath string `json:"file_path"`
	FileType string `json:"file_type,omitempty"`
}

// NewTask creates a new Task owned by userID. The creation timestamp is set
// to the current time and the task always starts in the open (not completed)
// state. Returns an error if validation fails.
func NewTask(userID, name string) (*Task, error) {
	task := &Task{
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
// Returns an error if any field fails validation.
func (t *Task) Validate() error {
	if t.Name == "" {
		return ErrEmptyTaskName
	}

	if t.UserID == "" {
		return ErrEmptyTaskUserID
	}

	for i := range t.Subtasks {
		if err := t.Subtasks[i].Validate(); err != nil {
			return err
		}
	}

	if t.Recurrence != nil && t.Recurrence.Interval == "" {
		return ErrEmptyRecurrenceInterval
	}

	return nil
}

// Validate checks if the Subtask has valid data.
func (s *Subtask) Validate() error {
	if s.Name == "" {
		return ErrEmptySubtaskName
	}
	return nil
}
