// Command admin-token issues an admin session token for the configured
// ADMIN_USERNAME, to be sent as a Bearer token or admin_session cookie.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/esolrine-stories/internal/auth"
	"github.com/esolrine-stories/internal/config"
	"github.com/esolrine-stories/pkg/logger"
)

func main() {
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to AUTH_TOKEN_TTL")
	flag.Parse()

	log := logger.New(logger.Options{Level: os.Getenv("LOG_LEVEL")})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if *ttl > 0 {
		cfg.Auth.TokenTTL = *ttl
	}

	token, expiresAt, err := auth.NewAuthenticator(cfg.Auth).Issue(cfg.Auth.AdminUsername)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to issue token")
	}

	log.Info().
		Str("username", cfg.Auth.AdminUsername).
		Str("expires_at", expiresAt.Format(time.RFC3339)).
		Msg("Admin token issued")
	fmt.Println(token)
}
