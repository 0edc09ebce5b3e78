package models

import (
	"strings"
	"time"
)

// Story represents a bilingual story row
type Story struct {
	ID          int64     `json:"id" db:"id"`
	TitleFr     string    `json:"title_fr" db:"title_fr"`
	TitleEn     string    `json:"title_en" db:"title_en"`
	ContentFr   string    `json:"content_fr" db:"content_fr"`
	ContentEn   string    `json:"content_en" db:"content_en"`
	ExcerptFr   string    `json:"excerpt_fr" db:"excerpt_fr"`
	ExcerptEn   string    `json:"excerpt_en" db:"excerpt_en"`
	CoverImage  *string   `json:"cover_image" db:"cover_image"`
	Tags        []string  `json:"tags" db:"tags"`
	Published   bool      `json:"published" db:"published"`
	PublishDate time.Time `json:"publish_date" db:"publish_date"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// StoryInput holds the validated fields of a new story
type StoryInput struct {
	TitleFr     string
	TitleEn     string
	ContentFr   string
	ContentEn   string
	ExcerptFr   string
	ExcerptEn   string
	CoverImage  *string
	Tags        []string
	Published   bool
	PublishDate *time.Time // nil means now
}

// StoryPatch holds a sparse update. Nil fields are left untouched.
// A non-nil CoverImage pointing at "" clears the cover.
type StoryPatch struct {
	TitleFr     *string
	TitleEn     *string
	ContentFr   *string
	ContentEn   *string
	ExcerptFr   *string
	ExcerptEn   *string
	CoverImage  *string
	Tags        []string // nil means not supplied
	Published   *bool
	PublishDate *time.Time
}

// IsEmpty reports whether the patch supplies no field at all
func (p *StoryPatch) IsEmpty() bool {
	return p.TitleFr == nil && p.TitleEn == nil &&
		p.ContentFr == nil && p.ContentEn == nil &&
		p.ExcerptFr == nil && p.ExcerptEn == nil &&
		p.CoverImage == nil && p.Tags == nil &&
		p.Published == nil && p.PublishDate == nil
}

// StoryRequest is the JSON body of POST /api/stories
type StoryRequest struct {
	TitleFr     string   `json:"titleFr"`
	TitleEn     string   `json:"titleEn"`
	ContentFr   string   `json:"contentFr"`
	ContentEn   string   `json:"contentEn"`
	ExcerptFr   string   `json:"excerptFr"`
	ExcerptEn   string   `json:"excerptEn"`
	CoverImage  string   `json:"coverImage,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Published   bool     `json:"published,omitempty"`
	PublishDate string   `json:"publishDate,omitempty"` // RFC 3339 or YYYY-MM-DD
}

// StoryPatchRequest is the JSON body of PUT /api/stories/:id
type StoryPatchRequest struct {
	TitleFr     *string  `json:"titleFr,omitempty"`
	TitleEn     *string  `json:"titleEn,omitempty"`
	ContentFr   *string  `json:"contentFr,omitempty"`
	ContentEn   *string  `json:"contentEn,omitempty"`
	ExcerptFr   *string  `json:"excerptFr,omitempty"`
	ExcerptEn   *string  `json:"excerptEn,omitempty"`
	CoverImage  *string  `json:"coverImage,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Published   *bool    `json:"published,omitempty"`
	PublishDate *string  `json:"publishDate,omitempty"`
}

// ValidationError represents a single rejected request field
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ValidationErrors is returned by services when input is rejected after
// normalization, for example content that sanitizes to nothing.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Message
	}
	return "validation failed: " + strings.Join(msgs, "; ")
}
