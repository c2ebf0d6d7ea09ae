package api

import (
	"time"

	"github.com/jcarver/taskhive/internal/domain"
)

// CreateTaskRequest represents the task payload of a create request. For
// multipart requests it arrives as the "task" form field; attachments travel
// as separate file parts.
type CreateTaskRequest struct {
	Name         string             `json:"name" validate:"required,min=1"`
	Description  string             `json:"description"`
	DueDate      *time.Time         `json:"due_date"`
	Priority     string             `json:"priority"`
	CategoryID   *int64             `json:"category_id"`
	CategoryName string             `json:"category_name"`
	CreatedAt    *time.Time         `json:"created_at"`
	Subtasks     []SubtaskRequest   `json:"subtasks" validate:"dive"`
	Recurrence   *RecurrenceRequest `json:"recurrence"`
}

// SubtaskRequest represents one subtask inside a create request.
type SubtaskRequest struct {
	Name        string     `json:"name"        validate:"required,min=1"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	IsCompleted bool       `json:"is_completed"`
}

// RecurrenceRequest represents the optional recurrence rule of a create request.
type RecurrenceRequest struct {
	Interval string `json:"interval" validate:"required,min=1"`
}

// UpdateTaskRequest represents the body of a PUT request. Replace semantics:
// an omitted field clears the stored value, except is_completed, which keeps
// its previous value when omitted. Clients must resend everything they want
// preserved.
type UpdateTaskRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	DueDate     *time.Time `json:"due_date"`
	Priority    *string    `json:"priority"`
	IsCompleted *bool      `json:"is_completed"`
	CategoryID  *int64     `json:"category_id"`
}

// TaskResponse represents the response projection of a task aggregate.
type TaskResponse struct {
	ID          int64                `json:"id"`
	UserID      string               `json:"user_id"`
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	DueDate     *time.Time           `json:"due_date"`
	Priority    string               `json:"priority,omitempty"`
	IsCompleted bool                 `json:"is_completed"`
	CategoryID  *int64               `json:"category_id"`
	CreatedAt   time.Time            `json:"created_at"`
	Subtasks    []SubtaskResponse    `json:"subtasks"`
	Recurrence  *RecurrenceResponse  `json:"recurrence,omitempty"`
	Attachments []AttachmentResponse `json:"attachments"`
}

// SubtaskResponse represents one subtask in a task response.
type SubtaskResponse struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	DueDate     *time.Time `json:"due_date"`
	IsCompleted bool       `json:"is_completed"`
}

// RecurrenceResponse represents the recurrence rule in a task response.
type RecurrenceResponse struct {
	ID       int64  `json:"id"`
	Interval string `json:"interval"`
}

// AttachmentResponse represents one attachment in a task response. The
// storage path stays internal; clients see the original file name and type.
type AttachmentResponse struct {
	ID       int64  `json:"id"`
	FileName string `json:"file_name"`
	FileType string `json:"file_type,omitempty"`
}

// TaskListResponse represents the response of a list request: the matching
// tasks plus their count.
type TaskListResponse struct {
	Tasks []TaskResponse `json:"tasks"`
	Count int            `json:"count"`
}

// taskToResponse converts a domain.Task to a TaskResponse.
func taskToResponse(task *domain.Task) TaskResponse {
	resp := TaskResponse{
		ID:          task.ID,
		UserID:      task.UserID,
		Name:        task.Name,
		Description: task.Description,
		DueDate:     task.DueDate,
		Priority:    task.Priority,
		IsCompleted: task.IsCompleted,
		CategoryID:  task.CategoryID,
		CreatedAt:   task.CreatedAt,
		Subtasks:    []SubtaskResponse{},
		Attachments: []AttachmentResponse{},
	}

	for _, sub := range task.Subtasks {
		resp.Subtasks = append(resp.Subtasks, SubtaskResponse{
			ID:          sub.ID,
			Name:        sub.Name,
			Description: sub.Description,
			DueDate:     sub.DueDate,
			IsCompleted: sub.IsCompleted,
		})
	}

	if task.Recurrence != nil {
		resp.Recurrence = &RecurrenceResponse{
			ID:       task.Recurrence.ID,
			Interval: task.Recurrence.Interval,
		}
	}

	for _, att := range task.Attachments {
		resp.Attachments = append(resp.Attachments, AttachmentResponse{
			ID:       att.ID,
			FileName: att.FileName,
			FileType: att.FileType,
		})
	}

	return resp
}
