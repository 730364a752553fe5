package auth

import (
	"golang.org/x/crypto/bcrypt"

	"github.com/pixelforge/gallery/internal/errors"
)

// HashPassword produces a salted one-way hash of the plaintext secret. bcrypt
// embeds a fresh random salt in every hash, so re-hashing the same secret
// yields a different value.
func HashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Internal("hash password", err)
	}
	return string(hash), nil
}

// CheckPassword reports whether the plaintext secret matches the stored hash.
func CheckPassword(hash, plaintext string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
