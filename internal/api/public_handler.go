package api

import (
	"net/http"
	"time"

	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/locale"
	"github.com/esolrine-stories/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// PublicHandler serves the localized reader side of the site
type PublicHandler struct {
	services     *service.Services
	localeCookie string
	timeout      time.Duration
	log          zerolog.Logger
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		services:     services,
		localeCookie: cfg.Site.LocaleCookie,
		timeout:      cfg.Server.RequestTimeout,
		log:          log.With().Str("handler", "public").Logger(),
	}
}

// Stories handles GET /stories
func (h *PublicHandler) Stories(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	stories, err := h.services.Story.PublishedStories(ctx, getLocale(c))
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to render stories")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch stories"})
		return
	}
	c.JSON(http.StatusOK, stories)
}

// Story handles GET /stories/:id
func (h *PublicHandler) Story(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	story, err := h.services.Story.PublishedStory(ctx, id, getLocale(c))
	if err != nil {
		h.log.Error().Err(err).Int64("story_id", id).Msg("Failed to render story")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch story"})
		return
	}
	if story == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}
	c.JSON(http.StatusOK, story)
}

// SetLocale handles POST /locale
func (h *PublicHandler) SetLocale(c *gin.Context) {
	var req struct {
		Locale string `json:"locale" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "locale is required"})
		return
	}

	loc, ok := locale.Parse(req.Locale)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "locale must be one of: en, fr"})
		return
	}

	http.SetCookie(c.Writer, locale.NewCookie(h.localeCookie, loc, time.Now()))
	c.JSON(http.StatusOK, gin.H{"locale": loc})
}

// Sitemap handles GET /sitemap.xml
func (h *PublicHandler) Sitemap(c *gin.Context) {
	ctx, cancel := contextWithTimeout(c, h.timeout)
	defer cancel()

	body, err := h.services.Site.Sitemap(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build sitemap")
		c.String(http.StatusInternalServerError, "failed to build sitemap")
		return
	}
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

// Manifest handles GET /manifest.json
func (h *PublicHandler) Manifest(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.Site.Manifest())
}
