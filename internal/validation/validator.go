package validation

import (
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/esolrine-stories/internal/models"
)

const (
	// MaxTags bounds the tag list of a story
	MaxTags = 20
	// MaxTagLength bounds a single tag, in bytes
	MaxTagLength = 64
	// MaxTitleLength matches the VARCHAR(255) title columns, in characters
	MaxTitleLength = 255
)

// dateLayouts are accepted for publishDate, most specific first
var dateLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"}

// Validator checks story requests and converts them into repository input
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateCreate validates a create request. Every language variant of
// title, content and excerpt is required.
func (v *Validator) ValidateCreate(req *models.StoryRequest) (*models.StoryInput, []models.ValidationError) {
	var errors []models.ValidationError

	required := []struct {
		field string
		value string
	}{
		{"titleFr", req.TitleFr},
		{"titleEn", req.TitleEn},
		{"contentFr", req.ContentFr},
		{"contentEn", req.ContentEn},
		{"excerptFr", req.ExcerptFr},
		{"excerptEn", req.ExcerptEn},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			errors = append(errors, models.ValidationError{Field: r.field, Message: r.field + " is required"})
		}
	}
	errors = append(errors, checkTitle("titleFr", req.TitleFr)...)
	errors = append(errors, checkTitle("titleEn", req.TitleEn)...)

	input := &models.StoryInput{
		TitleFr:   strings.TrimSpace(req.TitleFr),
		TitleEn:   strings.TrimSpace(req.TitleEn),
		ContentFr: req.ContentFr,
		ContentEn: req.ContentEn,
		ExcerptFr: strings.TrimSpace(req.ExcerptFr),
		ExcerptEn: strings.TrimSpace(req.ExcerptEn),
		Published: req.Published,
	}

	if cover, errs := checkCoverImage(req.CoverImage); len(errs) > 0 {
		errors = append(errors, errs...)
	} else {
		input.CoverImage = cover
	}

	tags, errs := normalizeTags(req.Tags)
	errors = append(errors, errs...)
	input.Tags = tags
	if input.Tags == nil {
		input.Tags = []string{}
	}

	if req.PublishDate != "" {
		date, err := parseDate(req.PublishDate)
		if err != nil {
			errors = append(errors, models.ValidationError{Field: "publishDate", Message: "invalid date, expected ISO 8601 or YYYY-MM-DD", Value: req.PublishDate})
		} else {
			input.PublishDate = &date
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return input, nil
}

// ValidatePatch validates a sparse update. Omitted fields stay nil; supplied
// language variants must not be blank so rows remain fully bilingual.
func (v *Validator) ValidatePatch(req *models.StoryPatchRequest) (*models.StoryPatch, []models.ValidationError) {
	var errors []models.ValidationError
	patch := &models.StoryPatch{Published: req.Published}

	text := []struct {
		field string
		in    *string
		out   **string
		trim  bool
	}{
		{"titleFr", req.TitleFr, &patch.TitleFr, true},
		{"titleEn", req.TitleEn, &patch.TitleEn, true},
		{"contentFr", req.ContentFr, &patch.ContentFr, false},
		{"contentEn", req.ContentEn, &patch.ContentEn, false},
		{"excerptFr", req.ExcerptFr, &patch.ExcerptFr, true},
		{"excerptEn", req.ExcerptEn, &patch.ExcerptEn, true},
	}
	for _, f := range text {
		if f.in == nil {
			continue
		}
		if strings.TrimSpace(*f.in) == "" {
			errors = append(errors, models.ValidationError{Field: f.field, Message: f.field + " must not be empty"})
			continue
		}
		value := *f.in
		if f.trim {
			value = strings.TrimSpace(value)
		}
		*f.out = &value
	}
	if req.TitleFr != nil {
		errors = append(errors, checkTitle("titleFr", *req.TitleFr)...)
	}
	if req.TitleEn != nil {
		errors = append(errors, checkTitle("titleEn", *req.TitleEn)...)
	}

	if req.CoverImage != nil {
		cover, errs := checkCoverImage(*req.CoverImage)
		errors = append(errors, errs...)
		if cover == nil {
			empty := ""
			cover = &empty
		}
		patch.CoverImage = cover
	}

	if req.Tags != nil {
		tags, errs := normalizeTags(req.Tags)
		errors = append(errors, errs...)
		if tags == nil {
			tags = []string{}
		}
		patch.Tags = tags
	}

	if req.PublishDate != nil {
		date, err := parseDate(*req.PublishDate)
		if err != nil {
			errors = append(errors, models.ValidationError{Field: "publishDate", Message: "invalid date, expected ISO 8601 or YYYY-MM-DD", Value: *req.PublishDate})
		} else {
			patch.PublishDate = &date
		}
	}

	if len(errors) > 0 {
		return nil, errors
	}
	return patch, nil
}

func checkTitle(field, title string) []models.ValidationError {
	if utf8.RuneCountInString(strings.TrimSpace(title)) > MaxTitleLength {
		return []models.ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("%s exceeds %d characters", field, MaxTitleLength),
		}}
	}
	return nil
}

// checkCoverImage accepts an absolute http(s) URL. Blank means no cover.
func checkCoverImage(raw string) (*string, []models.ValidationError) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, []models.ValidationError{{Field: "coverImage", Message: "coverImage must be an absolute http(s) URL", Value: raw}}
	}
	return &raw, nil
}

// normalizeTags trims tags and drops blanks, keeping order and duplicates
func normalizeTags(in []string) ([]string, []models.ValidationError) {
	if in == nil {
		return nil, nil
	}
	var errors []models.ValidationError
	tags := make([]string, 0, len(in))
	for _, tag := range in {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(tag) > MaxTagLength {
			errors = append(errors, models.ValidationError{
				Field:   "tags",
				Message: fmt.Sprintf("tag exceeds %d characters", MaxTagLength),
				Value:   tag,
			})
			continue
		}
		tags = append(tags, tag)
	}
	if len(tags) > MaxTags {
		errors = append(errors, models.ValidationError{
			Field:   "tags",
			Message: fmt.Sprintf("at most %d tags are allowed (has %d)", MaxTags, len(tags)),
		})
	}
	return tags, errors
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
