package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/esolrine-stories/internal/config"
)

func newTestAuthenticator() *Authenticator {
	return NewAuthenticator(config.AuthConfig{
		AdminUsername: "esolrine",
		Secret:        strings.Repeat("k", 32),
		TokenTTL:      time.Hour,
	})
}

func TestIssueAndVerify(t *testing.T) {
	a := newTestAuthenticator()

	token, expiresAt, err := a.Issue("esolrine")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Errorf("Expected future expiry, got %s", expiresAt)
	}

	claims, err := a.Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "esolrine" {
		t.Errorf("Expected subject esolrine, got %s", claims.Subject)
	}
}

func TestIssue_RejectsOtherIdentity(t *testing.T) {
	if _, _, err := newTestAuthenticator().Issue("visitor"); !errors.Is(err, ErrForbidden) {
		t.Errorf("Expected ErrForbidden, got %v", err)
	}
}

func TestVerify_Failures(t *testing.T) {
	a := newTestAuthenticator()

	other := NewAuthenticator(config.AuthConfig{
		AdminUsername: "visitor",
		Secret:        strings.Repeat("k", 32),
		TokenTTL:      time.Hour,
	})
	foreign, _, err := other.Issue("visitor")
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	forged := NewAuthenticator(config.AuthConfig{
		AdminUsername: "esolrine",
		Secret:        strings.Repeat("x", 32),
		TokenTTL:      time.Hour,
	})
	badSignature, _, _ := forged.Issue("esolrine")

	expiring := newTestAuthenticator()
	expiring.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := expiring.Issue("esolrine")

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrInvalidToken},
		{name: "garbage", token: "not-a-jwt", want: ErrInvalidToken},
		{name: "bad signature", token: badSignature, want: ErrInvalidToken},
		{name: "expired", token: expired, want: ErrInvalidToken},
		{name: "wrong identity", token: foreign, want: ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := a.Verify(tt.token); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}
