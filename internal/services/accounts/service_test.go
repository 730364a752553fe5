package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/pixelforge/gallery/internal/auth"
	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/storage/memory"
)

func newService() *Service {
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	return New(memory.New(), tokens, nil)
}

func TestRegisterValidation(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
		role     string
	}{
		{name: "missing_username", email: "a@example.com", password: "pw"},
		{name: "missing_email", username: "alice", password: "pw"},
		{name: "missing_password", username: "alice", email: "a@example.com"},
		{name: "bad_role", username: "alice", email: "a@example.com", password: "pw", role: "superuser"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password, tc.role)
			if !errors.Is(err, errors.CodeValidation) {
				t.Fatalf("Register = %v, want VALIDATION_ERROR", err)
			}
		})
	}
}

func TestRegisterDefaultsToUserRole(t *testing.T) {
	svc := newService()

	acct, err := svc.Register(context.Background(), "alice", "a@example.com", "pw", "")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}
	if acct.Role != user.RoleUser {
		t.Fatalf("Role = %q, want %q", acct.Role, user.RoleUser)
	}
	if acct.PasswordHash == "pw" {
		t.Fatal("password stored in plaintext")
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@example.com", "pw", "admin"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if _, err := svc.Register(ctx, "alice", "other@example.com", "pw", ""); !errors.Is(err, errors.CodeDuplicateAccount) {
		t.Fatalf("duplicate username = %v, want DUPLICATE_ACCOUNT", err)
	}
	if _, err := svc.Register(ctx, "bob", "a@example.com", "pw", ""); !errors.Is(err, errors.CodeDuplicateAccount) {
		t.Fatalf("duplicate email = %v, want DUPLICATE_ACCOUNT", err)
	}
}

func TestAuthenticateIssuesVerifiableToken(t *testing.T) {
	tokens := auth.NewTokenService([]byte("test-secret"), time.Hour)
	svc := New(memory.New(), tokens, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@example.com", "pw", "admin"); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	token, acct, err := svc.Authenticate(ctx, "alice", "pw")
	if err != nil {
		t.Fatalf("Authenticate error: %v", err)
	}

	identity, err := tokens.Verify(token)
	if err != nil {
		t.Fatalf("Verify error: %v", err)
	}
	if identity.UserID != acct.ID || identity.Username != "alice" || identity.Role != user.RoleAdmin {
		t.Fatalf("identity = %+v", identity)
	}
}

func TestAuthenticateFailsUniformly(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "a@example.com", "pw", ""); err != nil {
		t.Fatalf("Register error: %v", err)
	}

	// Unknown account and wrong password must be indistinguishable.
	_, _, unknownErr := svc.Authenticate(ctx, "nobody", "pw")
	_, _, wrongErr := svc.Authenticate(ctx, "alice", "wrong")

	for _, err := range []error{unknownErr, wrongErr} {
		se := errors.GetServiceError(err)
		if se == nil || se.Code != errors.CodeInvalidCredentials {
			t.Fatalf("error = %v, want INVALID_CREDENTIALS", err)
		}
		if se.Message != "invalid credentials" {
			t.Fatalf("message = %q, want %q", se.Message, "invalid credentials")
		}
	}
}

func TestChangePassword(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	acct, err := svc.Register(ctx, "alice", "a@example.com", "old-pw", "")
	if err != nil {
		t.Fatalf("Register error: %v", err)
	}

	if err := svc.ChangePassword(ctx, acct.ID, "wrong", "new-pw"); !errors.Is(err, errors.CodeInvalidCredentials) {
		t.Fatalf("wrong old password = %v, want INVALID_CREDENTIALS", err)
	}
	if err := svc.ChangePassword(ctx, acct.ID, "old-pw", " "); !errors.Is(err, errors.CodeValidation) {
		t.Fatalf("blank new password = %v, want VALIDATION_ERROR", err)
	}

	if err := svc.ChangePassword(ctx, acct.ID, "old-pw", "new-pw"); err != nil {
		t.Fatalf("ChangePassword error: %v", err)
	}

	if _, _, err := svc.Authenticate(ctx, "alice", "old-pw"); !errors.Is(err, errors.CodeInvalidCredentials) {
		t.Fatalf("old password still accepted: %v", err)
	}
	if _, _, err := svc.Authenticate(ctx, "alice", "new-pw"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}
