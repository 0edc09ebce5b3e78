package auth

import (
	"errors"
	"strings"
	"time"

	"github.com/esolrine-stories/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken means the token is missing, malformed, expired or badly signed
	ErrInvalidToken = errors.New("invalid token")
	// ErrForbidden means the token is valid but not for the admin identity
	ErrForbidden = errors.New("identity is not allowed")
)

// Claims are the claims carried by an admin session token
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies admin session tokens for the single
// allow-listed admin identity.
type Authenticator struct {
	admin  string
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewAuthenticator creates an Authenticator from config
func NewAuthenticator(cfg config.AuthConfig) *Authenticator {
	return &Authenticator{
		admin:  strings.TrimSpace(cfg.AdminUsername),
		secret: []byte(cfg.Secret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
}

// Issue signs a token for username. Only the admin identity gets one.
func (a *Authenticator) Issue(username string) (string, time.Time, error) {
	if !a.IsAdmin(username) {
		return "", time.Time{}, ErrForbidden
	}

	now := a.now()
	expiresAt := now.Add(a.ttl)
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify parses a token and checks that it belongs to the admin
func (a *Authenticator) Verify(tokenString string) (*Claims, error) {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(a.now),
	)
	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if !a.IsAdmin(claims.Subject) {
		return nil, ErrForbidden
	}
	return claims, nil
}

// IsAdmin reports whether username is the allow-listed admin
func (a *Authenticator) IsAdmin(username string) bool {
	return a.admin != "" && strings.TrimSpace(username) == a.admin
}
