package service

import (
	"context"
	"errors"
	"strings"

	"github.com/esolrine-stories/internal/cache"
	"github.com/esolrine-stories/internal/locale"
	"github.com/esolrine-stories/internal/models"
	"github.com/esolrine-stories/internal/repository"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

// StoryCounts summarizes the store for health reporting
type StoryCounts struct {
	Total     int `json:"total"`
	Published int `json:"published"`
}

// storyService is the concrete implementation of StoryService
type storyService struct {
	repo   repository.StoryRepository
	pages  cache.PageCache
	policy *bluemonday.Policy
	log    zerolog.Logger
}

func newStoryService(repo repository.StoryRepository, pages cache.PageCache, log zerolog.Logger) *storyService {
	return &storyService{
		repo:   repo,
		pages:  pages,
		policy: newContentPolicy(),
		log:    log.With().Str("service", "story").Logger(),
	}
}

// List returns stories for the API. A missing or unreachable store reads
// as an empty list.
func (s *storyService) List(ctx context.Context, publishedOnly bool) ([]*models.Story, error) {
	stories, err := s.repo.List(ctx, repository.ListOptions{PublishedOnly: publishedOnly})
	if errors.Is(err, repository.ErrStoreUnavailable) {
		s.log.Warn().Err(err).Msg("Story store unavailable, returning no stories")
		return []*models.Story{}, nil
	}
	if err != nil {
		return nil, err
	}
	return stories, nil
}

// Get returns the story or nil when it does not exist
func (s *storyService) Get(ctx context.Context, id int64) (*models.Story, error) {
	story, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrStoreUnavailable) {
		s.log.Warn().Err(err).Int64("story_id", id).Msg("Story store unavailable, treating story as missing")
		return nil, nil
	}
	return story, err
}

// Create sanitizes and stores a new story
func (s *storyService) Create(ctx context.Context, input *models.StoryInput) (*models.Story, error) {
	input.ContentFr = s.policy.Sanitize(input.ContentFr)
	input.ContentEn = s.policy.Sanitize(input.ContentEn)
	if errs := blankContent(&input.ContentFr, &input.ContentEn); len(errs) > 0 {
		return nil, errs
	}

	story, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("story_id", story.ID).Bool("published", story.Published).Msg("Story created")
	s.invalidate(ctx, cache.CreateKeys()...)
	return story, nil
}

// Update applies a sparse patch. Returns nil when the story does not exist.
func (s *storyService) Update(ctx context.Context, id int64, patch *models.StoryPatch) (*models.Story, error) {
	if patch.ContentFr != nil {
		clean := s.policy.Sanitize(*patch.ContentFr)
		patch.ContentFr = &clean
	}
	if patch.ContentEn != nil {
		clean := s.policy.Sanitize(*patch.ContentEn)
		patch.ContentEn = &clean
	}
	if errs := blankContent(patch.ContentFr, patch.ContentEn); len(errs) > 0 {
		return nil, errs
	}

	if patch.IsEmpty() {
		s.log.Debug().Int64("story_id", id).Msg("Empty patch, only touching updated_at")
	}

	story, err := s.repo.Update(ctx, id, patch)
	if err != nil || story == nil {
		return story, err
	}

	s.log.Info().Int64("story_id", id).Msg("Story updated")
	s.invalidate(ctx, cache.UpdateKeys(id)...)
	return story, nil
}

// blankContent rejects sanitized content that is left empty. Nil fields
// are not part of the request.
func blankContent(fr, en *string) models.ValidationErrors {
	var errs models.ValidationErrors
	if fr != nil && strings.TrimSpace(*fr) == "" {
		errs = append(errs, models.ValidationError{Field: "contentFr", Message: "contentFr has no allowed content"})
	}
	if en != nil && strings.TrimSpace(*en) == "" {
		errs = append(errs, models.ValidationError{Field: "contentEn", Message: "contentEn has no allowed content"})
	}
	return errs
}

// Delete removes a story. The deleted story's own page is dropped along
// with the listing pages so it stops being served from cache.
func (s *storyService) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.log.Info().Int64("story_id", id).Msg("Story deleted")
	s.invalidate(ctx, append(cache.DeleteKeys(), cache.StoryKey(id))...)
	return nil
}

// PublishedStories renders the public listing in loc
func (s *storyService) PublishedStories(ctx context.Context, loc locale.Locale) ([]models.LocalizedStory, error) {
	var cached []models.LocalizedStory
	if s.cached(ctx, cache.KeyHome, loc, &cached) {
		return cached, nil
	}

	stories, err := s.repo.List(ctx, repository.ListOptions{PublishedOnly: true})
	if errors.Is(err, repository.ErrStoreUnavailable) {
		s.log.Warn().Err(err).Msg("Story store unavailable, rendering empty listing")
		return []models.LocalizedStory{}, nil
	}
	if err != nil {
		return nil, err
	}

	out := make([]models.LocalizedStory, 0, len(stories))
	for _, story := range stories {
		out = append(out, story.Localize(loc, false))
	}
	s.store(ctx, cache.KeyHome, loc, out)
	return out, nil
}

// PublishedStory renders one published story in loc, nil when it does not
// exist or is not published.
func (s *storyService) PublishedStory(ctx context.Context, id int64, loc locale.Locale) (*models.LocalizedStory, error) {
	page := cache.StoryKey(id)

	var cached models.LocalizedStory
	if s.cached(ctx, page, loc, &cached) {
		return &cached, nil
	}

	story, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if story == nil || !story.Published {
		return nil, nil
	}

	out := story.Localize(loc, true)
	s.store(ctx, page, loc, out)
	return &out, nil
}

// Counts returns total and published story counts
func (s *storyService) Counts(ctx context.Context) (*StoryCounts, error) {
	total, err := s.repo.Count(ctx, repository.ListOptions{})
	if err != nil {
		return nil, err
	}
	published, err := s.repo.Count(ctx, repository.ListOptions{PublishedOnly: true})
	if err != nil {
		return nil, err
	}
	return &StoryCounts{Total: total, Published: published}, nil
}

// Cache failures never fail a request, the page is rendered from the store.

func (s *storyService) cached(ctx context.Context, page string, loc locale.Locale, dest interface{}) bool {
	found, err := s.pages.Get(ctx, page, loc.String(), dest)
	if err != nil {
		s.log.Warn().Err(err).Str("page", page).Msg("Page cache read failed")
		return false
	}
	return found
}

func (s *storyService) store(ctx context.Context, page string, loc locale.Locale, value interface{}) {
	if err := s.pages.Set(ctx, page, loc.String(), value); err != nil {
		s.log.Warn().Err(err).Str("page", page).Msg("Page cache write failed")
	}
}

func (s *storyService) invalidate(ctx context.Context, pages ...string) {
	if err := s.pages.Invalidate(ctx, pages...); err != nil {
		s.log.Error().Err(err).Strs("pages", pages).Msg("Page cache invalidation failed")
	}
}
