package auth

import (
	"testing"
	"time"

	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), time.Hour)

	token, err := svc.Issue("42", "alice", user.RoleAdmin)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}
	if token == "" {
		t.Fatal("Issue returned empty token")
	}

	identity, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if identity.UserID != "42" {
		t.Errorf("UserID = %q, want %q", identity.UserID, "42")
	}
	if identity.Username != "alice" {
		t.Errorf("Username = %q, want %q", identity.Username, "alice")
	}
	if identity.Role != user.RoleAdmin {
		t.Errorf("Role = %q, want %q", identity.Role, user.RoleAdmin)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenService([]byte("secret-a"), time.Hour)
	verifier := NewTokenService([]byte("secret-b"), time.Hour)

	token, err := issuer.Issue("1", "bob", user.RoleUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	if _, err := verifier.Verify(token); !errors.Is(err, errors.CodeUnauthenticated) {
		t.Fatalf("Verify with wrong secret = %v, want UNAUTHENTICATED", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), time.Nanosecond)

	token, err := svc.Issue("1", "bob", user.RoleUser)
	if err != nil {
		t.Fatalf("Issue error: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	if _, err := svc.Verify(token); !errors.Is(err, errors.CodeUnauthenticated) {
		t.Fatalf("Verify of expired token = %v, want UNAUTHENTICATED", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), time.Hour)

	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.Verify(token); !errors.Is(err, errors.CodeUnauthenticated) {
			t.Errorf("Verify(%q) = %v, want UNAUTHENTICATED", token, err)
		}
	}
}

func TestZeroTTLFallsBackToDefault(t *testing.T) {
	svc := NewTokenService([]byte("test-secret"), 0)
	if svc.ttl != DefaultTokenTTL {
		t.Fatalf("ttl = %v, want %v", svc.ttl, DefaultTokenTTL)
	}
}
