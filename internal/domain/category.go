package domain

import "time"

// Category groups tasks under a shared label. Category names are unique
// across the whole system, not per user: once any user creates a category it
// is globally visible and any task may reference it. CreatorID records who
// first created the category and is informational only.
//
// Categories are referenced, not owned, by tasks. Deleting a task never
// deletes its category.
type Category struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatorID string    `json:"creator_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewCategory creates a new Category with the given name, recording creatorID
// and the current time. Returns an error if validation fails.
func NewCategory(name, creatorID string) (*Category, error) {
	category := &Category{
		Name:      name,
		CreatorID: creatorID,
		CreatedAt: time.Now().UTC(),
	}

	if err := category.Validate(); err != nil {
		return nil, err
	}

	return category, nil
}

// Validate checks if the Category has valid data.
func (c *Category) Validate() error {
	if c.Name == "" {
		return ErrEmptyCategoryName
	}
	return nil
}
