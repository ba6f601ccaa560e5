package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PremiumChecker reports whether a user holds the premium entitlement.
// Implemented by the profile service.
type PremiumChecker interface {
	IsPremium(ctx context.Context, userID uuid.UUID) (bool, error)
}

// RequirePremium gates a route on the premium entitlement. Must run
// after Auth.
func RequirePremium(checker PremiumChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		userIDStr, exists := c.Get("user_id")
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}

		userID, err := uuid.Parse(userIDStr.(string))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid user identity"})
			c.Abort()
			return
		}

		premium, err := checker.IsPremium(c.Request.Context(), userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to check subscription"})
			c.Abort()
			return
		}
		if !premium {
			c.JSON(http.StatusForbidden, gin.H{"error": "premium subscription required"})
			c.Abort()
			return
		}

		c.Next()
	}
}
