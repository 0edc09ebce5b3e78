package api

import (
	"errors"
	"net/http"

	"github.com/esolrine-stories/internal/database"
	"github.com/esolrine-stories/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// SetupHandler handles schema setup and migration endpoints
type SetupHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewSetupHandler creates a new SetupHandler
func NewSetupHandler(services *service.Services, log zerolog.Logger) *SetupHandler {
	return &SetupHandler{
		services: services,
		log:      log.With().Str("handler", "setup").Logger(),
	}
}

// Setup handles GET /api/setup
func (h *SetupHandler) Setup(c *gin.Context) {
	result, err := h.services.Setup.Setup(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to initialize database",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Database initialized successfully",
		"result":  result,
	})
}

// Migrate handles GET /api/migrate
// Migrations run on the request context with no handler timeout.
func (h *SetupHandler) Migrate(c *gin.Context) {
	result, err := h.services.Setup.Migrate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Migration failed",
			"details": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Migration completed successfully",
		"result":  result,
	})
}

// Plan handles GET /api/migrate/plan
func (h *SetupHandler) Plan(c *gin.Context) {
	plan, err := h.services.Setup.Plan(c.Request.Context())
	if errors.Is(err, database.ErrPlanUnavailable) {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to build merge plan")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build merge plan", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, plan)
}

// Status handles GET /api/migrate/status
func (h *SetupHandler) Status(c *gin.Context) {
	status, err := h.services.Setup.Status(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to read schema version")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read schema version", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, status)
}

// Force handles POST /api/migrate/force
func (h *SetupHandler) Force(c *gin.Context) {
	var req struct {
		Version *int `json:"version" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || *req.Version < int(database.VersionCreateTable) || *req.Version > int(database.VersionBilingual) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "version must be between 1 and 3"})
		return
	}

	if err := h.services.Setup.Force(c.Request.Context(), *req.Version); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to force schema version", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Schema version forced", "version": *req.Version})
}
