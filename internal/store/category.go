package store

import (
	"context"

	"github.com/jcarver/taskhive/internal/domain"
)

// CategoryStore resolves free-text category names to stable category rows.
type CategoryStore interface {
	// GetOrCreate looks up a category by exact name (case-sensitive, global
	// scope) and returns it, creating it first if absent. The write is eager
	// and separately committed; it is never deferred to an enclosing task
	// transaction. Creation is idempotent under concurrent first use: two
	// concurrent calls for the same new name resolve to the same row.
	GetOrCreate(ctx context.Context, name, creatorID string) (*domain.Category, error)

	// GetByID retrieves a category by its unique ID.
	// Returns ErrCategoryNotFound if the category does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Category, error)
}
