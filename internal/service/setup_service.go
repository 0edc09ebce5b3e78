package service

import (
	"context"

	"github.com/esolrine-stories/internal/cache"
	"github.com/esolrine-stories/internal/database"
	"github.com/esolrine-stories/internal/models"
	"github.com/rs/zerolog"
)

// MergePlan previews what the bilingual migration will do with the current
// translation-link rows.
type MergePlan struct {
	Pairs       int                  `json:"pairs"`
	Monolingual int                  `json:"monolingual"`
	Units       []models.LegacyStory `json:"units"`
}

// SchemaStatus is the recorded schema version
type SchemaStatus struct {
	Version uint `json:"version"`
	Dirty   bool `json:"dirty"`
}

// setupService is the concrete implementation of SetupService
type setupService struct {
	migrator Migrator
	pages    cache.PageCache
	log      zerolog.Logger
}

func newSetupService(migrator Migrator, pages cache.PageCache, log zerolog.Logger) *setupService {
	return &setupService{
		migrator: migrator,
		pages:    pages,
		log:      log.With().Str("service", "setup").Logger(),
	}
}

// Setup creates the stories table if it does not exist yet
func (s *setupService) Setup(ctx context.Context) (*database.MigrationResult, error) {
	result, err := s.migrator.CreateTable(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Database setup failed")
		return nil, err
	}
	s.log.Info().Uint("from", result.From).Uint("to", result.To).Bool("applied", result.Applied).Msg("Database setup finished")
	return result, nil
}

// Migrate runs every pending step up to the bilingual layout. Rendered pages
// are dropped when rows were merged.
func (s *setupService) Migrate(ctx context.Context) (*database.MigrationResult, error) {
	result, err := s.migrator.MigrateToBilingual(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Migration failed")
		return nil, err
	}
	s.log.Info().Uint("from", result.From).Uint("to", result.To).Bool("applied", result.Applied).Msg("Migration finished")

	if result.Applied {
		if err := s.pages.Invalidate(ctx, cache.CreateKeys()...); err != nil {
			s.log.Error().Err(err).Msg("Page cache invalidation failed")
		}
	}
	return result, nil
}

// Plan previews the bilingual merge
func (s *setupService) Plan(ctx context.Context) (*MergePlan, error) {
	units, err := s.migrator.PlanBilingualMerge(ctx)
	if err != nil {
		return nil, err
	}

	plan := &MergePlan{Units: units}
	for _, unit := range units {
		switch unit.(type) {
		case models.LinkedPair:
			plan.Pairs++
		case models.Monolingual:
			plan.Monolingual++
		}
	}
	return plan, nil
}

// Status reports the recorded schema version
func (s *setupService) Status(ctx context.Context) (*SchemaStatus, error) {
	version, dirty, err := s.migrator.Version(ctx)
	if err != nil {
		return nil, err
	}
	return &SchemaStatus{Version: version, Dirty: dirty}, nil
}

// Force records version without running migrations, clearing a dirty flag
// after a failed migration has been repaired by hand.
func (s *setupService) Force(ctx context.Context, version int) error {
	return s.migrator.Force(ctx, version)
}
