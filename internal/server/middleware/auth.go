// Package middleware provides HTTP middleware for request identity.
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// ContextKey is a typed key for context values to avoid collisions.
type ContextKey string

// ownerIDKey is the context key for the authenticated owner ID.
const ownerIDKey ContextKey = "ownerID"

// TokenValidator validates bearer tokens issued by the external auth
// system. The validator only extracts identity; issuing and refreshing
// tokens is not this service's job.
type TokenValidator interface {
	ValidateToken(tokenString string) (OwnerIDGetter, error)
}

// OwnerIDGetter extracts the owner ID from validated token claims.
type OwnerIDGetter interface {
	GetOwnerID() uuid.UUID
}

// AuthMiddleware validates the Authorization bearer token and stores the
// owner ID in the request context.
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			parts := strings.Fields(authHeader)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateToken(strings.TrimSpace(parts[1]))
			if err != nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ownerIDKey, claims.GetOwnerID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOwnerID extracts the authenticated owner ID from the request context.
func GetOwnerID(r *http.Request) (uuid.UUID, error) {
	ownerID, ok := r.Context().Value(ownerIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("owner ID not found in request context")
	}
	return ownerID, nil
}

// WithOwnerID returns a context carrying the owner ID. Exported for handler
// tests that bypass the middleware.
func WithOwnerID(ctx context.Context, ownerID uuid.UUID) context.Context {
	return context.WithValue(ctx, ownerIDKey, ownerID)
}
