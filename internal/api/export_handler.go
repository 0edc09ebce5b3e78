package api

import (
	"errors"
	"net/http"

	"github.com/esolrine-stories/internal/locale"
	"github.com/esolrine-stories/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const maxImportBodyBytes = 64 << 20

// ExportHandler handles backup export, restore and Markdown endpoints
type ExportHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewExportHandler creates a new ExportHandler
func NewExportHandler(services *service.Services, log zerolog.Logger) *ExportHandler {
	return &ExportHandler{
		services: services,
		log:      log.With().Str("handler", "export").Logger(),
	}
}

// Export handles GET /api/admin/export?format=ndjson|json
// Streams every story directly to the response
func (h *ExportHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "ndjson")
	if format != "ndjson" && format != "json" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be one of: ndjson, json"})
		return
	}

	h.log.Info().Str("format", format).Msg("Starting streaming export")

	if err := h.services.Export.StreamStories(c.Request.Context(), c.Writer, format); err != nil {
		h.log.Error().Err(err).Msg("Export failed")
		// Can't return error JSON after streaming has started
		return
	}
}

// Import handles POST /api/admin/import with an NDJSON export as body
func (h *ExportHandler) Import(c *gin.Context) {
	body := http.MaxBytesReader(c.Writer, c.Request.Body, maxImportBodyBytes)

	result, err := h.services.Import.ImportStories(c.Request.Context(), body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "import body too large"})
			return
		}
		h.log.Error().Err(err).Msg("Import failed")
		c.JSON(writeStatus(err), gin.H{"error": "Import failed", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// Markdown handles GET /api/stories/:id/markdown?locale=fr|en
func (h *ExportHandler) Markdown(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	loc := getLocale(c)
	if raw := c.Query("locale"); raw != "" {
		parsed, ok := locale.Parse(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "locale must be one of: en, fr"})
			return
		}
		loc = parsed
	}

	md, err := h.services.Export.StoryMarkdown(c.Request.Context(), id, loc)
	if errors.Is(err, service.ErrStoryNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Story not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Int64("story_id", id).Msg("Markdown export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Markdown export failed"})
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}
