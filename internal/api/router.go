package api

import (
	"context"
	"time"

	"github.com/esolrine-stories/internal/auth"
	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// HealthChecker reports whether the database is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// NewRouter creates and configures the Gin router
func NewRouter(services *service.Services, authn *auth.Authenticator, db HealthChecker, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(requestIDMiddleware())
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware())
	router.Use(localeMiddleware(cfg.Site.LocaleCookie))

	admin := requireAdmin(authn, cfg.Auth.CookieName)

	// Handlers
	storyHandler := NewStoryHandler(services, authn, cfg, log)
	publicHandler := NewPublicHandler(services, cfg, log)
	setupHandler := NewSetupHandler(services, log)
	exportHandler := NewExportHandler(services, log)
	healthHandler := NewHealthHandler(services, db, log)

	// Health checks
	router.GET("/health", healthHandler.Health)
	router.GET("/health/db", healthHandler.Database)

	// Public site
	router.GET("/stories", publicHandler.Stories)
	router.GET("/stories/:id", publicHandler.Story)
	router.POST("/locale", publicHandler.SetLocale)
	router.GET("/sitemap.xml", publicHandler.Sitemap)
	router.GET("/manifest.json", publicHandler.Manifest)

	api := router.Group("/api")
	{
		stories := api.Group("/stories")
		{
			stories.GET("", storyHandler.List)
			stories.POST("", admin, storyHandler.Create)
			stories.GET("/:id", storyHandler.Get)
			stories.PUT("/:id", admin, storyHandler.Update)
			stories.DELETE("/:id", admin, storyHandler.Delete)
			stories.GET("/:id/markdown", admin, exportHandler.Markdown)
		}

		// Schema setup and migration
		api.GET("/setup", admin, setupHandler.Setup)
		migrate := api.Group("/migrate", admin)
		{
			migrate.GET("", setupHandler.Migrate)
			migrate.GET("/plan", setupHandler.Plan)
			migrate.GET("/status", setupHandler.Status)
			migrate.POST("/force", setupHandler.Force)
		}

		adminGroup := api.Group("/admin", admin)
		{
			adminGroup.GET("/export", exportHandler.Export)
			adminGroup.POST("/import", exportHandler.Import)
		}
	}

	return router
}

// contextWithTimeout creates a context with timeout for handlers
func contextWithTimeout(c *gin.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(c.Request.Context())
	}
	return context.WithTimeout(c.Request.Context(), timeout)
}
