package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/forkful/backend/internal/types"
)

// ErrNoIdentity means the request context carries no authenticated user.
var ErrNoIdentity = errors.New("no authenticated user in context")

// CurrentUserID returns the authenticated user's id set by Auth.
func CurrentUserID(c *gin.Context) (uuid.UUID, error) {
	raw, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, ErrNoIdentity
	}
	s, ok := raw.(string)
	if !ok {
		return uuid.Nil, ErrNoIdentity
	}
	return uuid.Parse(s)
}

// TokenValidator checks a bearer token and returns the identity it
// carries. Implemented by service.AuthService.
type TokenValidator interface {
	ValidateToken(ctx context.Context, rawToken string) (*types.TokenClaims, error)
}

// OptionalAuth resolves the bearer token when one is presented but lets
// anonymous requests through. Used by routes whose response depends on
// who is asking, like private-recipe visibility.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.Next()
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.Next()
			return
		}
		if claims, err := validator.ValidateToken(c.Request.Context(), parts[1]); err == nil {
			c.Set("user_id", claims.UserID.String())
			c.Set("email", claims.Email)
			c.Set("raw_token", parts[1])
		}
		c.Next()
	}
}

// Auth extracts and validates the Authorization bearer token, storing
// user_id, email and the raw token on the request context.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization header required"})
			c.Abort()
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(c.Request.Context(), parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID.String())
		c.Set("email", claims.Email)
		c.Set("raw_token", parts[1])
		c.Next()
	}
}
