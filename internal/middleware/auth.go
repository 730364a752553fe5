// Package middleware provides HTTP middleware for the gallery API.
package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pixelforge/gallery/internal/auth"
	"github.com/pixelforge/gallery/internal/domain/user"
	"github.com/pixelforge/gallery/internal/errors"
	"github.com/pixelforge/gallery/internal/logging"
)

// AuthMiddleware verifies the bearer credential on each request and attaches
// the resulting identity to the request context. Requests without a valid
// token never reach the handler.
type AuthMiddleware struct {
	tokens *auth.TokenService
	logger *logging.Logger
}

// NewAuthMiddleware creates the authentication middleware.
func NewAuthMiddleware(tokens *auth.TokenService, logger *logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewDefault("middleware")
	}
	return &AuthMiddleware{tokens: tokens, logger: logger}
}

// Handler returns the middleware handler.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondError(w, r, errors.Unauthorized("access denied, please login to continue"))
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
			m.respondError(w, r, errors.Unauthorized("invalid authorization header format"))
			return
		}

		identity, err := m.tokens.Verify(parts[1])
		if err != nil {
			m.logger.WithContext(r.Context()).WithError(err).Warn("token verification failed")
			m.respondError(w, r, err)
			return
		}

		ctx := logging.WithUserID(r.Context(), identity.UserID)
		ctx = logging.WithUsername(ctx, identity.Username)
		ctx = logging.WithRole(ctx, string(identity.Role))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole is the role gate: it succeeds only when the already-attached
// identity holds the required role. Pure and stateless; it never touches
// storage.
func RequireRole(required user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user.Role(logging.GetRole(r.Context())) != required {
				writeServiceError(w, errors.Forbidden("access denied, admin rights required"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("authentication failed", err)
	}
	writeServiceError(w, serviceErr)

	m.logger.WithContext(r.Context()).WithFields(map[string]interface{}{
		"path":   r.URL.Path,
		"method": r.Method,
		"status": serviceErr.HTTPStatus,
	}).Warn("authentication failed")
}

func writeServiceError(w http.ResponseWriter, serviceErr *errors.ServiceError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(serviceErr.HTTPStatus)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"message": serviceErr.Message,
	})
}
