package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/esolrine-stories/internal/auth"
	"github.com/esolrine-stories/internal/locale"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	localeKey       = "locale"
	adminKey        = "admin"
)

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().
					Interface("error", err).
					Str("request_id", getRequestID(c)).
					Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware propagates or assigns a request id
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("request_id", getRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// corsMiddleware handles CORS
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// localeMiddleware resolves the reader locale once per request
func localeMiddleware(cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		loc := locale.FromRequest(c.Request, cookieName)
		c.Set(localeKey, loc)
		c.Writer.Header().Set("Content-Language", loc.String())
		c.Next()
	}
}

// requireAdmin rejects the request unless it carries a valid admin token
func requireAdmin(authn *auth.Authenticator, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := authenticate(c, authn, cookieName); err != nil {
			abortAuth(c, err)
			return
		}
		c.Next()
	}
}

// authenticate verifies the bearer token or the session cookie and marks
// the context as admin on success.
func authenticate(c *gin.Context, authn *auth.Authenticator, cookieName string) error {
	token := ""
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if !(len(parts) == 2 && parts[0] == "Bearer") {
			return auth.ErrInvalidToken
		}
		token = parts[1]
	} else if cookie, err := c.Cookie(cookieName); err == nil {
		token = cookie
	}

	claims, err := authn.Verify(token)
	if err != nil {
		return err
	}
	c.Set(adminKey, claims.Subject)
	return nil
}

func abortAuth(c *gin.Context, err error) {
	if errors.Is(err, auth.ErrForbidden) {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
}

func getRequestID(c *gin.Context) string {
	value, ok := c.Get(requestIDKey)
	if !ok {
		return ""
	}
	if requestID, ok := value.(string); ok {
		return requestID
	}
	return ""
}

func getLocale(c *gin.Context) locale.Locale {
	if value, ok := c.Get(localeKey); ok {
		if loc, ok := value.(locale.Locale); ok {
			return loc
		}
	}
	return locale.Default
}
