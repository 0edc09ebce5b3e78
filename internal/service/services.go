package service

import (
	"context"
	"io"
	"net/http"

	"github.com/esolrine-stories/internal/cache"
	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/database"
	"github.com/esolrine-stories/internal/locale"
	"github.com/esolrine-stories/internal/models"
	"github.com/esolrine-stories/internal/repository"
	"github.com/rs/zerolog"
)

// StoryService defines the interface for story operations
type StoryService interface {
	List(ctx context.Context, publishedOnly bool) ([]*models.Story, error)
	Get(ctx context.Context, id int64) (*models.Story, error)
	Create(ctx context.Context, input *models.StoryInput) (*models.Story, error)
	Update(ctx context.Context, id int64, patch *models.StoryPatch) (*models.Story, error)
	Delete(ctx context.Context, id int64) error
	PublishedStories(ctx context.Context, loc locale.Locale) ([]models.LocalizedStory, error)
	PublishedStory(ctx context.Context, id int64, loc locale.Locale) (*models.LocalizedStory, error)
	Counts(ctx context.Context) (*StoryCounts, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamStories(ctx context.Context, w http.ResponseWriter, format string) error
	StoryMarkdown(ctx context.Context, id int64, loc locale.Locale) (string, error)
	GetCount(ctx context.Context) (int, error)
}

// ImportService defines the interface for import operations
type ImportService interface {
	ImportStories(ctx context.Context, r io.Reader) (*ImportResult, error)
}

// SetupService defines the interface for schema setup and migration
type SetupService interface {
	Setup(ctx context.Context) (*database.MigrationResult, error)
	Migrate(ctx context.Context) (*database.MigrationResult, error)
	Plan(ctx context.Context) (*MergePlan, error)
	Status(ctx context.Context) (*SchemaStatus, error)
	Force(ctx context.Context, version int) error
}

// SiteService defines the interface for public site metadata
type SiteService interface {
	Sitemap(ctx context.Context) ([]byte, error)
	Manifest() *Manifest
}

// Migrator is the subset of the schema migrator the services drive
type Migrator interface {
	CreateTable(ctx context.Context) (*database.MigrationResult, error)
	MigrateToBilingual(ctx context.Context) (*database.MigrationResult, error)
	Version(ctx context.Context) (uint, bool, error)
	PlanBilingualMerge(ctx context.Context) ([]models.LegacyStory, error)
	Force(ctx context.Context, version int) error
}

// Services holds all service interfaces
type Services struct {
	Story  StoryService
	Export ExportService
	Import ImportService
	Setup  SetupService
	Site   SiteService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, migrator Migrator, pages cache.PageCache, cfg *config.Config, log zerolog.Logger) *Services {
	return &Services{
		Story:  newStoryService(repos.Story, pages, log),
		Export: newExportService(repos.Story, log),
		Import: newImportService(repos.Story, pages, log),
		Setup:  newSetupService(migrator, pages, log),
		Site:   newSiteService(repos.Story, cfg.Site, log),
	}
}
