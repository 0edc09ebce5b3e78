package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/esolrine-stories/internal/cache"
	"github.com/esolrine-stories/internal/models"
	"github.com/esolrine-stories/internal/repository"
	"github.com/esolrine-stories/internal/validation"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
)

const maxImportLineBytes = 4 * 1024 * 1024

// ImportError is a rejected line of an import
type ImportError struct {
	Line int `json:"line"`
	models.ValidationError
}

// ImportResult summarizes an import run
type ImportResult struct {
	TotalRecords int           `json:"total_records"`
	Imported     int           `json:"imported"`
	Failed       int           `json:"failed"`
	DurationMs   int64         `json:"duration_ms"`
	Errors       []ImportError `json:"errors"`
}

// importService restores stories from an NDJSON export
type importService struct {
	repo   repository.StoryRepository
	pages  cache.PageCache
	policy *bluemonday.Policy
	log    zerolog.Logger
}

func newImportService(repo repository.StoryRepository, pages cache.PageCache, log zerolog.Logger) *importService {
	return &importService{
		repo:   repo,
		pages:  pages,
		policy: newContentPolicy(),
		log:    log.With().Str("service", "import").Logger(),
	}
}

// ImportStories reads one exported story per line and creates it as a new
// story. Ids and timestamps in the input are not kept, publish dates are.
// Invalid lines are reported and skipped.
func (s *importService) ImportStories(ctx context.Context, r io.Reader) (*ImportResult, error) {
	start := time.Now()
	result := &ImportResult{Errors: []ImportError{}}

	scanner := bufio.NewScanner(r)
	// Story bodies can be long
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLineBytes)

	validator := validation.NewValidator()
	lineNum := 0

	// Rows created before a failure stay committed
	defer func() {
		if result.Imported == 0 {
			return
		}
		if err := s.pages.Invalidate(context.WithoutCancel(ctx), cache.CreateKeys()...); err != nil {
			s.log.Error().Err(err).Msg("Page cache invalidation failed")
		}
	}()

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		result.TotalRecords++

		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var record models.Story
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			result.Failed++
			result.Errors = append(result.Errors, ImportError{
				Line:            lineNum,
				ValidationError: models.ValidationError{Field: "json", Message: fmt.Sprintf("invalid JSON: %v", err)},
			})
			continue
		}

		input, errs := validator.ValidateCreate(exportedToRequest(&record))
		if len(errs) > 0 {
			result.Failed++
			for _, e := range errs {
				result.Errors = append(result.Errors, ImportError{Line: lineNum, ValidationError: e})
			}
			continue
		}

		input.ContentFr = s.policy.Sanitize(input.ContentFr)
		input.ContentEn = s.policy.Sanitize(input.ContentEn)
		if errs := blankContent(&input.ContentFr, &input.ContentEn); len(errs) > 0 {
			result.Failed++
			for _, e := range errs {
				result.Errors = append(result.Errors, ImportError{Line: lineNum, ValidationError: e})
			}
			continue
		}
		if _, err := s.repo.Create(ctx, input); err != nil {
			return nil, fmt.Errorf("failed to import line %d: %w", lineNum, err)
		}
		result.Imported++
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	result.DurationMs = time.Since(start).Milliseconds()
	s.log.Info().
		Int("total", result.TotalRecords).
		Int("imported", result.Imported).
		Int("failed", result.Failed).
		Int64("duration_ms", result.DurationMs).
		Msg("Stories import completed")
	return result, nil
}

func exportedToRequest(s *models.Story) *models.StoryRequest {
	req := &models.StoryRequest{
		TitleFr:   s.TitleFr,
		TitleEn:   s.TitleEn,
		ContentFr: s.ContentFr,
		ContentEn: s.ContentEn,
		ExcerptFr: s.ExcerptFr,
		ExcerptEn: s.ExcerptEn,
		Tags:      s.Tags,
		Published: s.Published,
	}
	if s.CoverImage != nil {
		req.CoverImage = *s.CoverImage
	}
	if !s.PublishDate.IsZero() {
		req.PublishDate = s.PublishDate.UTC().Format(time.RFC3339Nano)
	}
	return req
}
