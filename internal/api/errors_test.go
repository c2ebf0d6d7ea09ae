package api

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jcarver/taskhive/internal/domain"
	"github.com/jcarver/taskhive/internal/service"
	"github.com/jcarver/taskhive/internal/service/auth"
	"github.com/jcarver/taskhive/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "invalid token", err: auth.ErrInvalidToken, expected: http.StatusUnauthorized},
		{name: "expired token", err: auth.ErrExpiredToken, expected: http.StatusUnauthorized},
		{name: "task not found", err: service.ErrTaskNotFound, expected: http.StatusNotFound},
		{name: "store not found", err: store.ErrNotFound, expected: http.StatusNotFound},
		{name: "due date in past", err: service.ErrDueDateInPast, expected: http.StatusBadRequest},
		{name: "domain validation", err: domain.ErrEmptyTaskName, expected: http.StatusBadRequest},
		{name: "invalid entity", err: store.ErrInvalidEntity, expected: http.StatusBadRequest},
		{name: "unknown error", err: errors.New("boom"), expected: http.StatusInternalServerError},
		{
			name: "wrapped service error keeps mapping",
			err: &service.TaskServiceError{
				Operation: "get_task",
				Message:   "lookup failed",
				Err:       store.ErrTaskNotFound,
			},
			expected: http.StatusNotFound,
		},
		{
			name:     "attachment storage failure is internal",
			err:      service.ErrAttachmentStorage,
			expected: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("internal detail never leaks", func(t *testing.T) {
		t.Parallel()

		internal := errors.New("pq: connection to 10.0.0.5:5432 refused")
		msg := GetSafeErrorMessage(internal)
		assert.Equal(t, "An unexpected error occurred", msg)
		assert.NotContains(t, msg, "10.0.0.5")
	})

	t.Run("known errors get friendly messages", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "Task not found", GetSafeErrorMessage(service.ErrTaskNotFound))
		assert.Equal(t, "Invalid token", GetSafeErrorMessage(auth.ErrExpiredToken))
		assert.Equal(t,
			"Please choose a due date that is not earlier than today",
			GetSafeErrorMessage(service.ErrDueDateInPast))
		assert.Equal(t, "Invalid task data", GetSafeErrorMessage(domain.ErrEmptySubtaskName))
	})

	t.Run("nil error", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	})
}
