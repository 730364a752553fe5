// Package auth implements the credential service: stateless signed identity
// tokens and one-way password hashing. The token is the session; there is no
// server-side session state and no revocation before natural expiry.
package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
)

// DefaultTokenTTL bounds how long an issued credential stays valid.
const DefaultTokenTTL = 3 * time.Hour

// Claims is the signed token payload.
type Claims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Identity is the verified, request-scoped view of a credential. It is derived
// once per request and never written back to storage.
type Identity struct {
	UserID   string
	Username string
	Role     user.Role
}

// TokenService issues and verifies HS256-signed identity tokens.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a token service. A zero ttl falls back to
// DefaultTokenTTL.
func NewTokenService(secret []byte, ttl time.Duration) *TokenService {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &TokenService{secret: secret, ttl: ttl}
}

// Issue produces a signed token encoding exactly the identity key, username,
// and role.
func (s *TokenService) Issue(userID, username string, role user.Role) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Internal("sign token", err)
	}
	return signed, nil
}

// Verify validates signature and expiry and returns the embedded identity.
func (s *TokenService) Verify(tokenString string) (Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.InvalidToken(nil).WithDetails("method", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Identity{}, errors.InvalidToken(err)
	}
	if !token.Valid {
		return Identity{}, errors.InvalidToken(nil)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return Identity{}, errors.InvalidToken(nil).WithDetails("reason", "invalid claims type")
	}

	role := user.Role(claims.Role)
	if claims.UserID == "" || !role.Valid() {
		return Identity{}, errors.InvalidToken(nil).WithDetails("reason", "malformed payload")
	}

	return Identity{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     role,
	}, nil
}
