// Package accounts implements registration, authentication, and password
// changes over the user store.
package accounts

import (
	"context"
	"strings"

	"github.com/pixelforge/gallery/internal/auth"
	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/logging"
	"github.com/pixelforge/gallery/internal/storage"
)

// Service manages account lifecycle and credential verification.
type Service struct {
	store  storage.UserStore
	tokens *auth.TokenService
	log    *logging.Logger
}

// New constructs an accounts service.
func New(store storage.UserStore, tokens *auth.TokenService, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("accounts")
	}
	return &Service{store: store, tokens: tokens, log: log}
}

// Register creates an account. The plaintext secret is hashed before it
// reaches the store and is never logged. Role defaults to "user"; "admin" is
// accepted only at registration time — nothing mutates role afterwards.
func (s *Service) Register(ctx context.Context, username, email, password, role string) (user.Account, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	role = strings.ToLower(strings.TrimSpace(role))

	if username == "" || email == "" || password == "" {
		return user.Account{}, errors.Validation("username, email and password are required")
	}
	accountRole := user.Role(role)
	if role == "" {
		accountRole = user.RoleUser
	} else if !accountRole.Valid() {
		return user.Account{}, errors.Validation("role must be user or admin")
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return user.Account{}, err
	}

	acct, err := s.store.CreateUser(ctx, user.Account{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         accountRole,
	})
	if err != nil {
		return user.Account{}, err
	}

	s.log.WithContext(ctx).
		WithField("account_id", acct.ID).
		WithField("username", acct.Username).
		Info("account registered")
	return acct, nil
}

// Authenticate verifies the username/secret pair and issues a signed token.
// Unknown accounts and wrong secrets fail with the same error so callers
// cannot tell which check tripped.
func (s *Service) Authenticate(ctx context.Context, username, password string) (string, user.Account, error) {
	username = strings.TrimSpace(username)

	acct, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, errors.CodeNotFound) {
			return "", user.Account{}, errors.InvalidCredentials()
		}
		return "", user.Account{}, err
	}

	if !auth.CheckPassword(acct.PasswordHash, password) {
		return "", user.Account{}, errors.InvalidCredentials()
	}

	token, err := s.tokens.Issue(acct.ID, acct.Username, acct.Role)
	if err != nil {
		return "", user.Account{}, err
	}

	s.log.WithContext(ctx).
		WithField("account_id", acct.ID).
		Info("login successful")
	return token, acct, nil
}

// ChangePassword replaces the account secret after the caller proves
// knowledge of the current one. The replacement is hashed with a fresh salt.
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return errors.Validation("new password is required")
	}

	acct, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if !auth.CheckPassword(acct.PasswordHash, oldPassword) {
		return errors.InvalidCredentials()
	}

	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.store.UpdatePasswordHash(ctx, acct.ID, hash); err != nil {
		return err
	}

	s.log.WithContext(ctx).
		WithField("account_id", acct.ID).
		Info("password changed")
	return nil
}
