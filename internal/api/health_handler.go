package api

import (
	"context"
	"net/http"
	"time"

	"github.com/esolrine-stories/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

const healthTimeout = 3 * time.Second

// HealthHandler handles health check endpoints
type HealthHandler struct {
	services *service.Services
	db       HealthChecker
	log      zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(services *service.Services, db HealthChecker, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		services: services,
		db:       db,
		log:      log.With().Str("handler", "health").Logger(),
	}
}

// Health handles GET /health
// Story counts are omitted while the store is unavailable.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	resp := gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "esolrine-stories",
	}
	if counts, err := h.services.Story.Counts(ctx); err == nil {
		resp["stories"] = counts
	} else {
		h.log.Warn().Err(err).Msg("Story counts unavailable")
	}
	c.JSON(http.StatusOK, resp)
}

// Database handles GET /health/db
func (h *HealthHandler) Database(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.db.HealthCheck(ctx); err != nil {
		h.log.Error().Err(err).Msg("Database health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}
