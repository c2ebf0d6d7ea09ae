package api

import (
	"log/slog"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jcarver/taskhive/internal/api/shared"
	"github.com/jcarver/taskhive/internal/service"
	"github.com/jcarver/taskhive/internal/store"
)

// maxUploadBytes caps the in-memory portion of multipart parsing.
const maxUploadBytes = 32 << 20 // 32 MiB

// TaskHandler handles task-related HTTP requests.
type TaskHandler struct {
	taskService service.TaskService
	validator   *validator.Validate
	logger      *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		taskService: taskService,
		validator:   validator.New(),
		logger:      logger.With("component", "task_handler"),
	}
}

// ListTasks handles GET /api/tasks requests.
// The optional status query parameter filters by completion state:
// "complete", "incomplete", or absent for all tasks.
func (h *TaskHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	filter, ok := parseStatusFilter(r.URL.Query().Get("status"))
	if !ok {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid status filter")
		return
	}

	tasks, count, err := h.taskService.ListTasks(r.Context(), userID, filter)
	if err != nil {
		h.logger.Error("failed to list tasks", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	resp := TaskListResponse{
		Tasks: make([]TaskResponse, 0, len(tasks)),
		Count: count,
	}
	for _, task := range tasks {
		resp.Tasks = append(resp.Tasks, taskToResponse(task))
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// GetTask handles GET /api/tasks/{id} requests.
func (h *TaskHandler) GetTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	task, err := h.taskService.GetTask(r.Context(), userID, taskID)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// CreateTask handles POST /api/tasks requests.
//
// Two request shapes are accepted: a plain JSON body, or multipart/form-data
// with the JSON payload in the "task" field and any uploads as "attachments"
// file parts. Zero-length uploads are accepted and silently skipped.
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req CreateTaskRequest
	var uploads []service.AttachmentUpload

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid multipart request")
			return
		}

		payload := r.FormValue("task")
		if payload == "" {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Missing task payload")
			return
		}
		if err := shared.DecodeJSONReader(strings.NewReader(payload), &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}

		for _, header := range r.MultipartForm.File["attachments"] {
			file, err := header.Open()
			if err != nil {
				shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid attachment upload")
				return
			}
			defer func() { _ = file.Close() }()

			uploads = append(uploads, service.AttachmentUpload{
				FileName:    header.Filename,
				ContentType: header.Header.Get("Content-Type"),
				Content:     file,
			})
		}
	} else {
		if err := shared.DecodeJSON(r, &req); err != nil {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
			return
		}
	}

	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	input := service.CreateTaskInput{
		Name:         req.Name,
		Description:  req.Description,
		DueDate:      req.DueDate,
		Priority:     req.Priority,
		CategoryID:   req.CategoryID,
		CategoryName: req.CategoryName,
		CreatedAt:    req.CreatedAt,
		Attachments:  uploads,
	}
	for _, sub := range req.Subtasks {
		input.Subtasks = append(input.Subtasks, service.SubtaskInput{
			Name:        sub.Name,
			Description: sub.Description,
			DueDate:     sub.DueDate,
			IsCompleted: sub.IsCompleted,
		})
	}
	if req.Recurrence != nil {
		input.Recurrence = &service.RecurrenceInput{Interval: req.Recurrence.Interval}
	}

	task, err := h.taskService.CreateTask(r.Context(), userID, input)
	if err != nil {
		h.logger.Error("failed to create task", "error", err, "user_id", userID)
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, taskToResponse(task))
}

// UpdateTask handles PUT /api/tasks/{id} requests.
// Replace semantics: omitted fields clear the stored values, except
// is_completed which keeps its previous value when omitted.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	patch := store.TaskPatch{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate,
		Priority:    req.Priority,
		IsCompleted: req.IsCompleted,
		CategoryID:  req.CategoryID,
	}

	task, err := h.taskService.UpdateTask(r.Context(), userID, taskID, patch)
	if err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, taskToResponse(task))
}

// DeleteTask handles DELETE /api/tasks/{id} requests.
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	userID, ok := shared.UserIDFromContext(r.Context())
	if !ok {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	taskID, err := parseTaskID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid task ID")
		return
	}

	if err := h.taskService.DeleteTask(r.Context(), userID, taskID); err != nil {
		shared.RespondWithError(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseTaskID extracts and parses the {id} URL parameter.
func parseTaskID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// parseStatusFilter maps the status query parameter to a store.StatusFilter.
func parseStatusFilter(value string) (store.StatusFilter, bool) {
	switch value {
	case "":
		return store.StatusFilterNone, true
	case "incomplete":
		return store.StatusFilterIncomplete, true
	case "complete":
		return store.StatusFilterComplete, true
	default:
		return store.StatusFilterNone, false
	}
}
