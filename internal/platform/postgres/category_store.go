package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/jcarver/taskhive/internal/domain"
	"github.com/jcarver/taskhive/internal/platform/logger"
	"github.com/jcarver/taskhive/internal/store"
)

// PostgresCategoryStore implements the store.CategoryStore interface using a
// PostgreSQL database as the storage backend. Writes go straight to the
// connection and commit eagerly; category resolution is deliberately not
// joined to any enclosing task transaction.
type PostgresCategoryStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgresCategoryStore creates a new PostgreSQL implementation of the
// CategoryStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresCategoryStore(db *sql.DB, logger *slog.Logger) *PostgresCategoryStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCategoryStore{
		db:     db,
		logger: logger.With(slog.String("component", "category_store")),
	}
}

// Ensure PostgresCategoryStore implements store.CategoryStore interface
var _ store.CategoryStore = (*PostgresCategoryStore)(nil)

// GetOrCreate implements store.CategoryStore.GetOrCreate
// Resolution is idempotent under concurrency: the unique index on
// category_name plus INSERT ... ON CONFLICT DO NOTHING guarantees that two
// concurrent first uses of the same name converge on one row.
func (s *PostgresCategoryStore) GetOrCreate(
	ctx context.Context,
	name, creatorID string,
) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if name == "" {
		return nil, domain.ErrEmptyCategoryName
	}

	// Fast path: the category usually already exists.
	category, err := s.getByName(ctx, name)
	if err == nil {
		return category, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to look up category by name",
			slog.String("error", err.Error()),
			slog.String("category_name", name))
		return nil, MapError(err)
	}

	now := time.Now().UTC()
	var id int64
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO categories (category_name, creator_id, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (category_name) DO NOTHING
		RETURNING category_id
	`, name, creatorID, now).Scan(&id)

	if err == nil {
		log.Info("category created",
			slog.Int64("category_id", id),
			slog.String("category_name", name),
			slog.String("creator_id", creatorID))
		return &domain.Category{ID: id, Name: name, CreatorID: creatorID, CreatedAt: now}, nil
	}

	if !errors.Is(err, sql.ErrNoRows) {
		log.Error("failed to create category",
			slog.String("error", err.Error()),
			slog.String("category_name", name))
		return nil, MapError(err)
	}

	// ON CONFLICT DO NOTHING returned no row: a concurrent request created
	// the category between our lookup and insert. Read theirs.
	category, err = s.getByName(ctx, name)
	if err != nil {
		log.Error("failed to re-read category after conflict",
			slog.String("error", err.Error()),
			slog.String("category_name", name))
		return nil, MapError(err)
	}
	return category, nil
}

// GetByID implements store.CategoryStore.GetByID
// Returns store.ErrCategoryNotFound if the category does not exist.
func (s *PostgresCategoryStore) GetByID(ctx context.Context, id int64) (*domain.Category, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var category domain.Category
	var creatorID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT category_id, category_name, creator_id, created_at
		FROM categories
		WHERE category_id = $1
	`, id).Scan(&category.ID, &category.Name, &creatorID, &category.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrCategoryNotFound
		}
		log.Error("failed to get category by ID",
			slog.String("error", err.Error()),
			slog.Int64("category_id", id))
		return nil, MapError(err)
	}

	category.CreatorID = creatorID.String
	return &category, nil
}

// getByName looks up a category by exact, case-sensitive name.
// Returns sql.ErrNoRows untranslated so callers can branch on absence.
func (s *PostgresCategoryStore) getByName(ctx context.Context, name string) (*domain.Category, error) {
	var category domain.Category
	var creatorID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT category_id, category_name, creator_id, created_at
		FROM categories
		WHERE category_name = $1
	`, name).Scan(&category.ID, &category.Name, &creatorID, &category.CreatedAt)
	if err != nil {
		return nil, err
	}
	category.CreatorID = creatorID.String
	return &category, nil
}
