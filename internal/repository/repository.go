package repository

import (
	"context"

	"github.com/esolrine-stories/internal/database"
	"github.com/esolrine-stories/internal/models"
)

// ListOptions filters and orders a story listing
type ListOptions struct {
	// PublishedOnly restricts to published stories ordered by publish_date,
	// otherwise every story is returned ordered by updated_at.
	PublishedOnly bool
}

// StoryRepository defines the interface for story data operations
type StoryRepository interface {
	List(ctx context.Context, opts ListOptions) ([]*models.Story, error)
	GetByID(ctx context.Context, id int64) (*models.Story, error)
	Create(ctx context.Context, input *models.StoryInput) (*models.Story, error)
	Update(ctx context.Context, id int64, patch *models.StoryPatch) (*models.Story, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context, opts ListOptions) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Story) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Story StoryRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Story: NewStoryRepo(db),
	}
}
