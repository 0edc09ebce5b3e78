package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/esolrine-stories/internal/locale"
	"github.com/esolrine-stories/internal/models"
	"github.com/esolrine-stories/internal/repository"
	"github.com/rs/zerolog"
)

var (
	// ErrStoryNotFound is returned when the requested story does not exist
	ErrStoryNotFound = errors.New("story not found")
	// ErrUnsupportedFormat is returned for an unknown export format
	ErrUnsupportedFormat = errors.New("unsupported export format")
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repo     repository.StoryRepository
	markdown *converter.Converter
	log      zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repo repository.StoryRepository, log zerolog.Logger) *exportService {
	return &exportService{
		repo: repo,
		markdown: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
		log: log.With().Str("service", "export").Logger(),
	}
}

// StreamStories streams every story, both languages, in the given format
func (s *exportService) StreamStories(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting stories export")

	switch format {
	case "ndjson":
		return s.streamNDJSON(ctx, w)
	case "json":
		return s.streamJSON(ctx, w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

func (s *exportService) streamNDJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=stories.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repo.StreamAll(ctx, func(story *models.Story) error {
		data, err := json.Marshal(story)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 50 records for streaming
		if count%50 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Stories export completed")
	return err
}

func (s *exportService) streamJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=stories.json")

	w.Write([]byte("["))
	first := true
	count := 0

	err := s.repo.StreamAll(ctx, func(story *models.Story) error {
		if !first {
			w.Write([]byte(","))
		}
		first = false

		data, err := json.Marshal(story)
		if err != nil {
			return err
		}
		w.Write(data)
		count++
		return nil
	})

	w.Write([]byte("]"))
	s.log.Info().Int("count", count).Msg("Stories export completed")
	return err
}

// StoryMarkdown renders one story in loc as a Markdown document
func (s *exportService) StoryMarkdown(ctx context.Context, id int64, loc locale.Locale) (string, error) {
	story, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if story == nil {
		return "", ErrStoryNotFound
	}

	body, err := s.markdown.ConvertString(story.Content(loc))
	if err != nil {
		return "", fmt.Errorf("failed to convert story %d to markdown: %w", id, err)
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(story.Title(loc))
	b.WriteString("\n\n")
	if tags := strings.Join(story.Tags, ", "); tags != "" {
		b.WriteString("_")
		b.WriteString(tags)
		b.WriteString("_\n\n")
	}
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n")
	return b.String(), nil
}

// GetCount returns the number of stories an export would contain
func (s *exportService) GetCount(ctx context.Context) (int, error) {
	return s.repo.Count(ctx, repository.ListOptions{})
}
