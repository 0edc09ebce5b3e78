package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/esolrine-stories/internal/database"
	"github.com/esolrine-stories/internal/models"
	"github.com/lib/pq"
)

const storyColumns = `id, title_fr, title_en, content_fr, content_en, excerpt_fr, excerpt_en,
	cover_image, tags, published, publish_date, created_at, updated_at`

// touchUpdatedAt advances updated_at even when two writes land within the
// same clock tick.
const touchUpdatedAt = `updated_at = GREATEST(clock_timestamp(), updated_at + interval '1 microsecond')`

// storyRepo is the concrete implementation of StoryRepository
type storyRepo struct {
	db *database.DB
}

// NewStoryRepo creates a new story repository
func NewStoryRepo(db *database.DB) StoryRepository {
	return &storyRepo{db: db}
}

// List returns stories newest first
func (r *storyRepo) List(ctx context.Context, opts ListOptions) ([]*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories ORDER BY updated_at DESC, id DESC`
	if opts.PublishedOnly {
		query = `SELECT ` + storyColumns + ` FROM stories WHERE published = true ORDER BY publish_date DESC, id DESC`
	}

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	stories := make([]*models.Story, 0)
	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return nil, classify(err)
		}
		stories = append(stories, story)
	}
	return stories, classify(rows.Err())
}

// GetByID retrieves a story by ID, nil when no row matches
func (r *storyRepo) GetByID(ctx context.Context, id int64) (*models.Story, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+storyColumns+` FROM stories WHERE id = $1`, id)

	story, err := scanStory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return story, nil
}

// Create inserts a new story. id, created_at and updated_at come from the
// store; created_at equals updated_at on the returned row.
func (r *storyRepo) Create(ctx context.Context, input *models.StoryInput) (*models.Story, error) {
	tags := input.Tags
	if tags == nil {
		tags = []string{}
	}
	var publishDate sql.NullTime
	if input.PublishDate != nil {
		publishDate = sql.NullTime{Time: *input.PublishDate, Valid: true}
	}

	query := `
		INSERT INTO stories (title_fr, title_en, content_fr, content_en, excerpt_fr, excerpt_en,
			cover_image, tags, published, publish_date)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, COALESCE($10::timestamptz, CURRENT_TIMESTAMP))
		RETURNING ` + storyColumns

	row := r.db.QueryRowContext(ctx, query,
		input.TitleFr, input.TitleEn, input.ContentFr, input.ContentEn,
		input.ExcerptFr, input.ExcerptEn, nullableString(input.CoverImage),
		pq.Array(tags), input.Published, publishDate,
	)

	story, err := scanStory(row)
	if err != nil {
		return nil, classify(err)
	}
	return story, nil
}

// Update applies a sparse patch and always advances updated_at. Supplied
// fields are rewritten even when unchanged. Returns nil for an unknown id.
func (r *storyRepo) Update(ctx context.Context, id int64, patch *models.StoryPatch) (*models.Story, error) {
	var updates []string
	var values []interface{}
	set := func(column string, value interface{}) {
		values = append(values, value)
		updates = append(updates, fmt.Sprintf("%s = $%d", column, len(values)))
	}

	if patch.TitleFr != nil {
		set("title_fr", *patch.TitleFr)
	}
	if patch.TitleEn != nil {
		set("title_en", *patch.TitleEn)
	}
	if patch.ContentFr != nil {
		set("content_fr", *patch.ContentFr)
	}
	if patch.ContentEn != nil {
		set("content_en", *patch.ContentEn)
	}
	if patch.ExcerptFr != nil {
		set("excerpt_fr", *patch.ExcerptFr)
	}
	if patch.ExcerptEn != nil {
		set("excerpt_en", *patch.ExcerptEn)
	}
	if patch.CoverImage != nil {
		values = append(values, *patch.CoverImage)
		updates = append(updates, fmt.Sprintf("cover_image = NULLIF($%d, '')", len(values)))
	}
	if patch.Tags != nil {
		set("tags", pq.Array(patch.Tags))
	}
	if patch.Published != nil {
		set("published", *patch.Published)
	}
	if patch.PublishDate != nil {
		set("publish_date", *patch.PublishDate)
	}

	updates = append(updates, touchUpdatedAt)
	values = append(values, id)

	query := fmt.Sprintf(`UPDATE stories SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(updates, ", "), len(values), storyColumns)

	story, err := scanStory(r.db.QueryRowContext(ctx, query, values...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, classify(err)
	}
	return story, nil
}

// Delete removes the story; an unknown id is not an error
func (r *storyRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM stories WHERE id = $1`, id)
	return classify(err)
}

// Count returns the number of stories matching opts
func (r *storyRepo) Count(ctx context.Context, opts ListOptions) (int, error) {
	query := `SELECT COUNT(*) FROM stories`
	if opts.PublishedOnly {
		query += ` WHERE published = true`
	}

	var count int
	err := r.db.QueryRowContext(ctx, query).Scan(&count)
	return count, classify(err)
}

// StreamAll streams all stories in id order for export
func (r *storyRepo) StreamAll(ctx context.Context, callback func(*models.Story) error) error {
	rows, err := r.db.QueryContext(ctx, `SELECT `+storyColumns+` FROM stories ORDER BY id`)
	if err != nil {
		return classify(err)
	}
	defer rows.Close()

	for rows.Next() {
		story, err := scanStory(rows)
		if err != nil {
			return classify(err)
		}
		if err := callback(story); err != nil {
			return err
		}
	}

	return classify(rows.Err())
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStory(row rowScanner) (*models.Story, error) {
	var story models.Story
	var coverImage sql.NullString
	var tags pq.StringArray

	err := row.Scan(
		&story.ID, &story.TitleFr, &story.TitleEn, &story.ContentFr, &story.ContentEn,
		&story.ExcerptFr, &story.ExcerptEn, &coverImage, &tags, &story.Published,
		&story.PublishDate, &story.CreatedAt, &story.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if coverImage.Valid {
		story.CoverImage = &coverImage.String
	}
	story.Tags = []string(tags)
	if story.Tags == nil {
		story.Tags = []string{}
	}
	return &story, nil
}

func nullableString(s *string) interface{} {
	if s == nil {
		return ""
	}
	return *s
}
