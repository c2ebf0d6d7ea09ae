//go:build integration

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcarver/taskhive/internal/domain"
	"github.com/jcarver/taskhive/internal/platform/postgres"
	"github.com/jcarver/taskhive/internal/store"
	"github.com/jcarver/taskhive/internal/testdb"
)

// newTxTaskStore returns a task store bound to the rollback transaction so
// each test leaves no rows behind.
func newTxTaskStore(db *sql.DB, tx *sql.Tx) store.TaskStore {
	return postgres.NewPostgresTaskStore(db, nil).WithTx(tx)
}

// insertTask creates a minimal aggregate for tests that need existing data.
func insertTask(t *testing.T, s store.TaskStore, userID, name string) *domain.Task {
	t.Helper()

	task, err := domain.NewTask(userID, name)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), task))
	require.NotZero(t, task.ID)
	return task
}

func TestPostgresTaskStore_Create(t *testing.T) {
	if testdb.ShouldSkipDatabaseTest() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	db := testdb.GetTestDB(t)

	t.Run("full aggregate round trip", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			dueDate := time.Date(2027, time.January, 15, 0, 0, 0, 0, time.UTC)
			task, err := domain.NewTask("user-create", "Plan launch")
			require.NoError(t, err)
			task.Description = "Launch checklist"
			task.DueDate = &dueDate
			task.Priority = "High"
			task.Subtasks = []domain.Subtask{
				{Name: "Draft announcement"},
				{Name: "Book venue", Description: "Downtown", IsCompleted: true},
			}
			task.Recurrence = &domain.Recurrence{Interval: "Yearly"}
			task.Attachments = []domain.Attachment{
				{FileName: "plan.pdf", FilePath: "uploads/abc.pdf", FileType: "application/pdf"},
			}

			require.NoError(t, s.Create(ctx, task))
			assert.NotZero(t, task.ID)
			assert.NotZero(t, task.Subtasks[0].ID)
			assert.NotZero(t, task.Recurrence.ID)
			assert.NotZero(t, task.Attachments[0].ID)

			got, err := s.GetByID(ctx, "user-create", task.ID)
			require.NoError(t, err)

			assert.Equal(t, "Plan launch", got.Name)
			assert.Equal(t, "Launch checklist", got.Description)
			require.NotNil(t, got.DueDate)
			assert.True(t, got.DueDate.Equal(dueDate))
			assert.Equal(t, "High", got.Priority)
			assert.False(t, got.IsCompleted)
			require.Len(t, got.Subtasks, 2)
			assert.Equal(t, "Draft announcement", got.Subtasks[0].Name)
			assert.True(t, got.Subtasks[1].IsCompleted)
			require.NotNil(t, got.Recurrence)
			assert.Equal(t, "Yearly", got.Recurrence.Interval)
			require.Len(t, got.Attachments, 1)
			assert.Equal(t, "uploads/abc.pdf", got.Attachments[0].FilePath)
		})
	})

	t.Run("dangling category id is accepted", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			danglingID := int64(999999999)
			task, err := domain.NewTask("user-create", "Orphan category")
			require.NoError(t, err)
			task.CategoryID = &danglingID

			require.NoError(t, s.Create(ctx, task))

			got, err := s.GetByID(ctx, "user-create", task.ID)
			require.NoError(t, err)
			require.NotNil(t, got.CategoryID)
			assert.Equal(t, danglingID, *got.CategoryID)
		})
	})

	t.Run("invalid aggregate rejected", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			s := newTxTaskStore(db, tx)

			err := s.Create(context.Background(), &domain.Task{UserID: "user-create"})
			assert.ErrorIs(t, err, store.ErrInvalidEntity)
		})
	})
}

func TestPostgresTaskStore_GetByID(t *testing.T) {
	if testdb.ShouldSkipDatabaseTest() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	db := testdb.GetTestDB(t)

	t.Run("owner scoping", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			task := insertTask(t, s, "owner-a", "Private task")

			// Another user sees not-found, never forbidden.
			got, err := s.GetByID(ctx, "owner-b", task.ID)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, store.ErrTaskNotFound)

			got, err = s.GetByID(ctx, "owner-a", task.ID)
			require.NoError(t, err)
			assert.Equal(t, task.ID, got.ID)
		})
	})

	t.Run("absent task", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			s := newTxTaskStore(db, tx)

			got, err := s.GetByID(context.Background(), "owner-a", 987654321)
			assert.Nil(t, got)
			assert.ErrorIs(t, err, store.ErrTaskNotFound)
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	})
}

func TestPostgresTaskStore_ListByOwner(t *testing.T) {
	if testdb.ShouldSkipDatabaseTest() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	db := testdb.GetTestDB(t)

	t.Run("status filters", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			open := insertTask(t, s, "lister", "Open task")
			done := insertTask(t, s, "lister", "Done task")
			completed := true
			_, err := s.Update(ctx, "lister", done.ID, store.TaskPatch{
				Name:        &done.Name,
				IsCompleted: &completed,
			})
			require.NoError(t, err)
			insertTask(t, s, "someone-else", "Foreign task")

			all, count, err := s.ListByOwner(ctx, "lister", store.StatusFilterNone)
			require.NoError(t, err)
			assert.Equal(t, 2, count)
			require.Len(t, all, 2)
			assert.Equal(t, open.ID, all[0].ID, "persistence order")

			incomplete, count, err := s.ListByOwner(ctx, "lister", store.StatusFilterIncomplete)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
			require.Len(t, incomplete, 1)
			assert.Equal(t, open.ID, incomplete[0].ID)

			complete, count, err := s.ListByOwner(ctx, "lister", store.StatusFilterComplete)
			require.NoError(t, err)
			assert.Equal(t, 1, count)
			require.Len(t, complete, 1)
			assert.Equal(t, done.ID, complete[0].ID)
		})
	})

	t.Run("no tasks yields empty slice", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			s := newTxTaskStore(db, tx)

			tasks, count, err := s.ListByOwner(context.Background(), "nobody", store.StatusFilterNone)
			require.NoError(t, err)
			assert.Equal(t, 0, count)
			assert.NotNil(t, tasks)
			assert.Empty(t, tasks)
		})
	})
}

func TestPostgresTaskStore_Update(t *testing.T) {
	if testdb.ShouldSkipDatabaseTest() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	db := testdb.GetTestDB(t)

	t.Run("omitted fields clear, is_completed persists", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			dueDate := time.Date(2027, time.June, 1, 0, 0, 0, 0, time.UTC)
			task, err := domain.NewTask("updater", "Original")
			require.NoError(t, err)
			task.Description = "Original description"
			task.DueDate = &dueDate
			task.Priority = "Low"
			require.NoError(t, s.Create(ctx, task))

			completed := true
			_, err = s.Update(ctx, "updater", task.ID, store.TaskPatch{
				Name:        strPtr("Original"),
				IsCompleted: &completed,
			})
			require.NoError(t, err)

			// Patch with only the name set: description, due date and
			// priority clear, completion state carries over.
			got, err := s.Update(ctx, "updater", task.ID, store.TaskPatch{
				Name: strPtr("Renamed"),
			})
			require.NoError(t, err)

			assert.Equal(t, "Renamed", got.Name)
			assert.Empty(t, got.Description)
			assert.Nil(t, got.DueDate)
			assert.Empty(t, got.Priority)
			assert.True(t, got.IsCompleted, "completion state must survive an omitted is_completed")
			assert.WithinDuration(t, task.CreatedAt, got.CreatedAt, time.Second,
				"creation timestamp must survive updates")
		})
	})

	t.Run("dependent rows untouched", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			task, err := domain.NewTask("updater", "With children")
			require.NoError(t, err)
			task.Subtasks = []domain.Subtask{{Name: "Child"}}
			task.Recurrence = &domain.Recurrence{Interval: "Daily"}
			require.NoError(t, s.Create(ctx, task))

			got, err := s.Update(ctx, "updater", task.ID, store.TaskPatch{
				Name: strPtr("Still with children"),
			})
			require.NoError(t, err)
			assert.Len(t, got.Subtasks, 1)
			require.NotNil(t, got.Recurrence)
		})
	})

	t.Run("foreign task yields not found", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			task := insertTask(t, s, "owner-a", "Not yours")

			got, err := s.Update(ctx, "owner-b", task.ID, store.TaskPatch{
				Name: strPtr("Hijacked"),
			})
			assert.Nil(t, got)
			assert.ErrorIs(t, err, store.ErrTaskNotFound)

			// The row is unchanged.
			unchanged, err := s.GetByID(ctx, "owner-a", task.ID)
			require.NoError(t, err)
			assert.Equal(t, "Not yours", unchanged.Name)
		})
	})
}

func TestPostgresTaskStore_Delete(t *testing.T) {
	if testdb.ShouldSkipDatabaseTest() {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}
	db := testdb.GetTestDB(t)

	t.Run("cascades to dependent rows", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			task, err := domain.NewTask("deleter", "Doomed")
			require.NoError(t, err)
			task.Subtasks = []domain.Subtask{{Name: "Also doomed"}}
			task.Recurrence = &domain.Recurrence{Interval: "Weekly"}
			task.Attachments = []domain.Attachment{
				{FileName: "f.txt", FilePath: "uploads/f.txt"},
			}
			require.NoError(t, s.Create(ctx, task))

			require.NoError(t, s.Delete(ctx, "deleter", task.ID))

			_, err = s.GetByID(ctx, "deleter", task.ID)
			assert.ErrorIs(t, err, store.ErrTaskNotFound)

			var count int
			require.NoError(t, tx.QueryRowContext(ctx,
				`SELECT count(*) FROM subtasks WHERE task_id = $1`, task.ID).Scan(&count))
			assert.Zero(t, count)
			require.NoError(t, tx.QueryRowContext(ctx,
				`SELECT count(*) FROM recurrences WHERE task_id = $1`, task.ID).Scan(&count))
			assert.Zero(t, count)
			require.NoError(t, tx.QueryRowContext(ctx,
				`SELECT count(*) FROM attachments WHERE task_id = $1`, task.ID).Scan(&count))
			assert.Zero(t, count)
		})
	})

	t.Run("foreign task yields not found", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			ctx := context.Background()
			s := newTxTaskStore(db, tx)

			task := insertTask(t, s, "owner-a", "Protected")

			assert.ErrorIs(t, s.Delete(ctx, "owner-b", task.ID), store.ErrTaskNotFound)

			_, err := s.GetByID(ctx, "owner-a", task.ID)
			assert.NoError(t, err, "the row must survive a foreign delete attempt")
		})
	})

	t.Run("absent task yields not found", func(t *testing.T) {
		testdb.WithTx(t, db, func(t *testing.T, tx *sql.Tx) {
			s := newTxTaskStore(db, tx)
			assert.ErrorIs(t, s.Delete(context.Background(), "deleter", 987654321), store.ErrTaskNotFound)
		})
	})
}

func strPtr(s string) *string { return &s }
