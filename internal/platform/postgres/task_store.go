package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jcarver/taskhive/internal/domain"
	"github.com/jcarver/taskhive/internal/platform/logger"
	"github.com/jcarver/taskhive/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface using a
// PostgreSQL database as the storage backend. The task row and its dependent
// rows (subtasks, recurrence, attachments) are read and written as one
// consistency unit.
type PostgresTaskStore struct {
	db     store.DBTX
	origDB *sql.DB
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the
// TaskStore interface. It accepts a database connection that should be
// initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db *sql.DB, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		origDB: db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
// It returns a new store instance that runs its queries on the given
// transaction while sharing the original connection handle.
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		origDB: s.origDB,
		logger: s.logger,
	}
}

// DB implements store.TaskStore.DB
func (s *PostgresTaskStore) DB() *sql.DB {
	return s.origDB
}

// Create implements store.TaskStore.Create
// It inserts the task row plus one row per subtask, the recurrence row if
// present and one row per attachment, filling in the generated ids on the
// passed aggregate. Must run within a transaction via WithTx.
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("user_id", task.UserID))
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO tasks (user_id, task_name, task_description, due_date, priority, is_completed, category_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING task_id
	`
	err := s.db.QueryRowContext(
		ctx,
		query,
		task.UserID,
		task.Name,
		nullString(task.Description),
		task.DueDate,
		nullString(task.Priority),
		task.IsCompleted,
		task.CategoryID,
		task.CreatedAt,
	).Scan(&task.ID)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", task.UserID))
		return MapError(err)
	}

	for i := range task.Subtasks {
		sub := &task.Subtasks[i]
		sub.TaskID = task.ID
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO subtasks (task_id, subtask_name, subtask_description, subtask_due_date, subtask_is_completed)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING subtask_id
		`, sub.TaskID, sub.Name, nullString(sub.Description), sub.DueDate, sub.IsCompleted).Scan(&sub.ID)
		if err != nil {
			log.Error("failed to create subtask",
				slog.String("error", err.Error()),
				slog.Int64("task_id", task.ID))
			return MapError(err)
		}
	}

	if task.Recurrence != nil {
		task.Recurrence.TaskID = task.ID
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO recurrences (task_id, recurrence_interval)
			VALUES ($1, $2)
			RETURNING recurrence_id
		`, task.ID, task.Recurrence.Interval).Scan(&task.Recurrence.ID)
		if err != nil {
			log.Error("failed to create recurrence",
				slog.String("error", err.Error()),
				slog.Int64("task_id", task.ID))
			return MapError(err)
		}
	}

	for i := range task.Attachments {
		att := &task.Attachments[i]
		att.TaskID = task.ID
		err := s.db.QueryRowContext(ctx, `
			INSERT INTO attachments (task_id, file_name, file_path, file_type)
			VALUES ($1, $2, $3, $4)
			RETURNING attachment_id
		`, att.TaskID, att.FileName, att.FilePath, nullString(att.FileType)).Scan(&att.ID)
		if err != nil {
			log.Error("failed to create attachment",
				slog.String("error", err.Error()),
				slog.Int64("task_id", task.ID))
			return MapError(err)
		}
	}

	log.Info("task created successfully",
		slog.Int64("task_id", task.ID),
		slog.String("user_id", task.UserID),
		slog.Int("subtasks", len(task.Subtasks)),
		slog.Int("attachments", len(task.Attachments)))
	return nil
}

// GetByID implements store.TaskStore.GetByID
// It retrieves the full aggregate scoped to userID. A task owned by another
// user yields store.ErrTaskNotFound, same as an absent one.
func (s *PostgresTaskStore) GetByID(ctx context.Context, userID string, taskID int64) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving task by ID",
		slog.Int64("task_id", taskID),
		slog.String("user_id", userID))

	query := `
		SELECT task_id, user_id, task_name, task_description, due_date, priority, is_completed, category_id, created_at
		FROM tasks
		WHERE user_id = $1 AND task_id = $2
	`

	task, err := s.scanTask(s.db.QueryRowContext(ctx, query, userID, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.Int64("task_id", taskID),
				slog.String("user_id", userID))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task by ID",
			slog.String("error", err.Error()),
			slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}

	if err := s.loadDependents(ctx, task); err != nil {
		log.Error("failed to load task dependents",
			slog.String("error", err.Error()),
			slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}

	return task, nil
}

// ListByOwner implements store.TaskStore.ListByOwner
// It returns the caller's tasks in persistence order together with the count
// of matching rows. Each task carries its subtasks, recurrence and
// attachments. Returns an empty slice when nothing matches.
func (s *PostgresTaskStore) ListByOwner(
	ctx context.Context,
	userID string,
	filter store.StatusFilter,
) ([]*domain.Task, int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT task_id, user_id, task_name, task_description, due_date, priority, is_completed, category_id, created_at
		FROM tasks
		WHERE user_id = $1
	`
	args := []any{userID}

	switch filter {
	case store.StatusFilterIncomplete:
		query += " AND is_completed = FALSE"
	case store.StatusFilterComplete:
		query += " AND is_completed = TRUE"
	}
	query += " ORDER BY task_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by owner",
			slog.String("error", err.Error()),
			slog.String("user_id", userID))
		return nil, 0, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	var tasks []*domain.Task
	for rows.Next() {
		task, err := s.scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()))
			return nil, 0, MapError(err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows",
			slog.String("error", err.Error()))
		return nil, 0, MapError(err)
	}

	for _, task := range tasks {
		if err := s.loadDependents(ctx, task); err != nil {
			log.Error("failed to load task dependents",
				slog.String("error", err.Error()),
				slog.Int64("task_id", task.ID))
			return nil, 0, MapError(err)
		}
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}

	log.Debug("listed tasks by owner",
		slog.String("user_id", userID),
		slog.String("filter", string(filter)),
		slog.Int("count", len(tasks)))
	return tasks, len(tasks), nil
}

// Update implements store.TaskStore.Update
// Full-replace semantics on the mutable scalar fields: a nil patch field
// clears the stored value, except IsCompleted and CreatedAt which fall back
// to the stored value when nil. Dependent rows are left untouched.
func (s *PostgresTaskStore) Update(
	ctx context.Context,
	userID string,
	taskID int64,
	patch store.TaskPatch,
) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	existing, err := s.GetByID(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	name := ""
	if patch.Name != nil {
		name = *patch.Name
	}
	description := ""
	if patch.Description != nil {
		description = *patch.Description
	}
	priority := ""
	if patch.Priority != nil {
		priority = *patch.Priority
	}

	// IsCompleted and CreatedAt default to "unchanged"; every other field
	// defaults to "cleared".
	isCompleted := existing.IsCompleted
	if patch.IsCompleted != nil {
		isCompleted = *patch.IsCompleted
	}
	createdAt := existing.CreatedAt
	if patch.CreatedAt != nil {
		createdAt = *patch.CreatedAt
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET task_name = $1,
		    task_description = $2,
		    due_date = $3,
		    priority = $4,
		    is_completed = $5,
		    category_id = $6,
		    created_at = $7
		WHERE user_id = $8 AND task_id = $9
	`,
		name,
		nullString(description),
		patch.DueDate,
		nullString(priority),
		isCompleted,
		patch.CategoryID,
		createdAt,
		userID,
		taskID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.Int64("task_id", taskID))
		return nil, MapError(err)
	}

	if err := CheckRowsAffected(result, "task"); err != nil {
		return nil, store.ErrTaskNotFound
	}

	log.Info("task updated successfully",
		slog.Int64("task_id", taskID),
		slog.String("user_id", userID))

	return s.GetByID(ctx, userID, taskID)
}

// Delete implements store.TaskStore.Delete
// It removes subtask rows, the recurrence row, attachment rows and the task
// row as one atomic unit. Stored attachment files are not touched.
func (s *PostgresTaskStore) Delete(ctx context.Context, userID string, taskID int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	deleteFn := func(ctx context.Context, db store.DBTX) error {
		// Ownership check first so a foreign task yields not-found before
		// any dependent rows are considered.
		var id int64
		err := db.QueryRowContext(ctx,
			`SELECT task_id FROM tasks WHERE user_id = $1 AND task_id = $2`,
			userID, taskID,
		).Scan(&id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return store.ErrTaskNotFound
			}
			return MapError(err)
		}

		for _, q := range []string{
			`DELETE FROM subtasks WHERE task_id = $1`,
			`DELETE FROM recurrences WHERE task_id = $1`,
			`DELETE FROM attachments WHERE task_id = $1`,
			`DELETE FROM tasks WHERE task_id = $1`,
		} {
			if _, err := db.ExecContext(ctx, q, taskID); err != nil {
				return MapError(err)
			}
		}
		return nil
	}

	// When already inside a transaction (db is a *sql.Tx), run directly;
	// otherwise open one so the cascade stays atomic.
	var err error
	if _, ok := s.db.(*sql.Tx); ok {
		err = deleteFn(ctx, s.db)
	} else {
		err = store.RunInTransaction(ctx, s.origDB, func(ctx context.Context, tx *sql.Tx) error {
			return deleteFn(ctx, tx)
		})
	}

	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			log.Debug("task not found for delete",
				slog.Int64("task_id", taskID),
				slog.String("user_id", userID))
		} else {
			log.Error("failed to delete task",
				slog.String("error", err.Error()),
				slog.Int64("task_id", taskID))
		}
		return err
	}

	log.Info("task deleted successfully",
		slog.Int64("task_id", taskID),
		slog.String("user_id", userID))
	return nil
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanTask scans a task row into a domain.Task, converting nullable columns.
func (s *PostgresTaskStore) scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var description, priority sql.NullString
	var dueDate sql.NullTime
	var categoryID sql.NullInt64

	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Name,
		&description,
		&dueDate,
		&priority,
		&task.IsCompleted,
		&categoryID,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	task.Description = description.String
	task.Priority = priority.String
	if dueDate.Valid {
		t := dueDate.Time
		task.DueDate = &t
	}
	if categoryID.Valid {
		id := categoryID.Int64
		task.CategoryID = &id
	}

	return &task, nil
}

// loadDependents populates the subtasks, recurrence and attachments of task.
func (s *PostgresTaskStore) loadDependents(ctx context.Context, task *domain.Task) error {
	subtasks, err := s.loadSubtasks(ctx, task.ID)
	if err != nil {
		return err
	}
	task.Subtasks = subtasks

	recurrence, err := s.loadRecurrence(ctx, task.ID)
	if err != nil {
		return err
	}
	task.Recurrence = recurrence

	attachments, err := s.loadAttachments(ctx, task.ID)
	if err != nil {
		return err
	}
	task.Attachments = attachments

	return nil
}

func (s *PostgresTaskStore) loadSubtasks(ctx context.Context, taskID int64) ([]domain.Subtask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT subtask_id, task_id, subtask_name, subtask_description, subtask_due_date, subtask_is_completed
		FROM subtasks
		WHERE task_id = $1
		ORDER BY subtask_id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	subtasks := []domain.Subtask{}
	for rows.Next() {
		var sub domain.Subtask
		var description sql.NullString
		var dueDate sql.NullTime

		if err := rows.Scan(&sub.ID, &sub.TaskID, &sub.Name, &description, &dueDate, &sub.IsCompleted); err != nil {
			return nil, err
		}

		sub.Description = description.String
		if dueDate.Valid {
			t := dueDate.Time
			sub.DueDate = &t
		}
		subtasks = append(subtasks, sub)
	}

	return subtasks, rows.Err()
}

func (s *PostgresTaskStore) loadRecurrence(ctx context.Context, taskID int64) (*domain.Recurrence, error) {
	var rec domain.Recurrence
	err := s.db.QueryRowContext(ctx, `
		SELECT recurrence_id, task_id, recurrence_interval
		FROM recurrences
		WHERE task_id = $1
	`, taskID).Scan(&rec.ID, &rec.TaskID, &rec.Interval)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

func (s *PostgresTaskStore) loadAttachments(ctx context.Context, taskID int64) ([]domain.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT attachment_id, task_id, file_name, file_path, file_type
		FROM attachments
		WHERE task_id = $1
		ORDER BY attachment_id
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	attachments := []domain.Attachment{}
	for rows.Next() {
		var att domain.Attachment
		var fileType sql.NullString

		if err := rows.Scan(&att.ID, &att.TaskID, &att.FileName, &att.FilePath, &fileType); err != nil {
			return nil, err
		}

		att.FileType = fileType.String
		attachments = append(attachments, att)
	}

	return attachments, rows.Err()
}

// nullString maps an empty string to SQL NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
