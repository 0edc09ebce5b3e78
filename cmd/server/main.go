package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/esolrine-stories/internal/api"
	"github.com/esolrine-stories/internal/auth"
	"github.com/esolrine-stories/internal/cache"
	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/internal/database"
	"github.com/esolrine-stories/internal/repository"
	"github.com/esolrine-stories/internal/service"
	"github.com/esolrine-stories/pkg/logger"
)

func main() {
	// Bootstrap logger until the configuration is known
	log := logger.New(logger.Options{Level: os.Getenv("LOG_LEVEL")})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log = logger.New(logger.Options{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	log.Info().Msg("Starting Esolrine stories server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Schema migrations run on demand through /api/setup and /api/migrate
	// unless AUTO_MIGRATE is set.
	migrator := database.NewMigrator(db, cfg.Migrations, log)
	if cfg.Migrations.AutoMigrate {
		result, err := migrator.Up(context.Background())
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to run database migrations")
		}
		log.Info().Uint("version", result.To).Bool("applied", result.Applied).Msg("Database migrations applied")
	}

	// Initialize page cache
	pages, err := cache.New(&cfg.Cache, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize page cache")
	}
	if rc, ok := pages.(*cache.RedisCache); ok {
		defer rc.Close()
	}

	// Initialize repositories and services
	repos := repository.New(db)
	services := service.NewServices(repos, migrator, pages, cfg, log)

	// Initialize router
	authn := auth.NewAuthenticator(cfg.Auth)
	router := api.NewRouter(services, authn, db, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
