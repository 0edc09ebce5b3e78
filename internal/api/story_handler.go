package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/esolrine-stories/internal/auth"
	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/models"
	"github.com/esolrine-stories/internal/repository"
	"github.com/esolrine-stories/internal/service"
	"github.com/esolrine-stories/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// StoryHandler handles the stories JSON API
type StoryHandler struct {
	services   *service.Services
	authn      *auth.Authenticator
	validator  *validation.Validator
	cookieName string
	timeout    time.Duration
	log        zerolog.Logger
}

// NewStoryHandler creates a new StoryHandler
func NewStoryHandler(services *service.Services, authn *auth.Authenticator, cfg *config.Config, log zerolog.Logger) *StoryHandler {
	return &StoryHandler{
		services:   services,
		authn:      authn,
		validator:  validation.NewValidator(),
		cookieName: cfg.Auth.CookieName,
		timeout:    cfg.Server.RequestTimeout,
		log:        log.With().Str("handler", "story").Logger(),
	}
}

// List handles GET /api/stories?published=true|false
// Anything but published=true lists drafts too and needs the admin.
func (h *StoryHandler) List(c *gin.Context) {
	publishedOnly := c.Query("published") == "true"
	if !publishedOnly {
		if err := authenticate(c, h.authn, h.cookieName); err != nil {
			abortAuth(c, err)
			return
		}
	}

	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	stories, err := h.services.Story.List(ctx, publishedOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to fetch stories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stories"})
		return
	}
	c.JSON(http.StatusOK, stories)
}

// Get handles GET /api/stories/:id
// Drafts are only visible to the admin, everyone else gets a 404.
func (h *StoryHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	story, err := h.services.Story.Get(ctx, id)
	if err != nil {
		h.log.Error().Err(err).Int64("story_id", id).Msg("Failed to fetch story")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch story"})
		return
	}
	if story == nil || (!story.Published && authenticate(c, h.authn, h.cookieName) != nil) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}
	c.JSON(http.StatusOK, story)
}

// Create handles POST /api/stories
func (h *StoryHandler) Create(c *gin.Context) {
	var req models.StoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	input, errs := h.validator.ValidateCreate(&req)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "All French and English titles, contents and excerpts are required",
			"details": errs,
		})
		return
	}

	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	story, err := h.services.Story.Create(ctx, input)
	if rejected(c, err) {
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to create story")
		c.JSON(writeStatus(err), gin.H{"error": "Failed to create story"})
		return
	}
	c.JSON(http.StatusCreated, story)
}

// Update handles PUT /api/stories/:id
func (h *StoryHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req models.StoryPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	patch, errs := h.validator.ValidatePatch(&req)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": errs})
		return
	}

	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	story, err := h.services.Story.Update(ctx, id, patch)
	if rejected(c, err) {
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("story_id", id).Msg("Failed to update story")
		c.JSON(writeStatus(err), gin.H{"error": "Failed to update story"})
		return
	}
	if story == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}
	c.JSON(http.StatusOK, story)
}

// Delete handles DELETE /api/stories/:id
func (h *StoryHandler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	if err := h.services.Story.Delete(ctx, id); err != nil {
		h.log.Error().Err(err).Int64("story_id", id).Msg("Failed to delete story")
		c.JSON(writeStatus(err), gin.H{"error": "Failed to delete story"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Story deleted successfully"})
}

// parseID reads the :id path parameter, answering 400 when it is not a
// positive integer.
func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid story id"})
		return 0, false
	}
	return id, true
}

// writeStatus maps a write failure to its HTTP status
// rejected answers 400 when the service refused the input after sanitizing
func rejected(c *gin.Context, err error) bool {
	var errs models.ValidationErrors
	if !errors.As(err, &errs) {
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": errs})
	return true
}

func writeStatus(err error) int {
	if errors.Is(err, repository.ErrStoreUnavailable) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
