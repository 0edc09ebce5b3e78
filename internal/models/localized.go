package models

import (
	"time"

	"github.com/esolrine-stories/internal/locale"
)

// LocalizedStory is a story projected onto a single language for the reader
type LocalizedStory struct {
	ID                 int64     `json:"id"`
	Locale             string    `json:"locale"`
	Title              string    `json:"title"`
	Excerpt            string    `json:"excerpt"`
	Content            string    `json:"content,omitempty"`
	CoverImage         *string   `json:"cover_image,omitempty"`
	Tags               []string  `json:"tags"`
	PublishDate        time.Time `json:"publish_date"`
	PublishDateDisplay string    `json:"publish_date_display"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Localize renders the story in loc. Content is only included when
// withContent is set, listings carry the excerpt alone.
func (s *Story) Localize(loc locale.Locale, withContent bool) LocalizedStory {
	out := LocalizedStory{
		ID:                 s.ID,
		Locale:             loc.String(),
		CoverImage:         s.CoverImage,
		Tags:               s.Tags,
		PublishDate:        s.PublishDate,
		PublishDateDisplay: loc.FormatDate(s.PublishDate),
		UpdatedAt:          s.UpdatedAt,
	}
	if out.Tags == nil {
		out.Tags = []string{}
	}

	switch loc {
	case locale.French:
		out.Title, out.Excerpt = s.TitleFr, s.ExcerptFr
		if withContent {
			out.Content = s.ContentFr
		}
	default:
		out.Title, out.Excerpt = s.TitleEn, s.ExcerptEn
		if withContent {
			out.Content = s.ContentEn
		}
	}
	return out
}

// Content returns the HTML body for loc
func (s *Story) Content(loc locale.Locale) string {
	if loc == locale.French {
		return s.ContentFr
	}
	return s.ContentEn
}

// Title returns the headline for loc
func (s *Story) Title(loc locale.Locale) string {
	if loc == locale.French {
		return s.TitleFr
	}
	return s.TitleEn
}
