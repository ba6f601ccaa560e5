package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forkful/backend/internal/service"
)

// respondError maps a service error to an HTTP status and a stable
// user-facing message. Anything unrecognized is a 500 with no detail
// leaked to the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var authErr *service.AuthError
	if errors.As(err, &authErr) {
		switch authErr.Reason {
		case service.AuthReasonInvalidCredentials:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		case service.AuthReasonUserNotFound:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "no account found for this email"})
		case service.AuthReasonEmailInUse:
			c.JSON(http.StatusConflict, gin.H{"error": "an account with this email already exists"})
		case service.AuthReasonWeakPassword:
			c.JSON(http.StatusBadRequest, gin.H{"error": "password must be at least 8 characters"})
		case service.AuthReasonRateLimited:
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "too many attempts, try again later"})
		default:
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		}
		return
	}

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":  "validation failed",
			"fields": validationErr.Fields,
		})
		return
	}

	var parseErr *service.GenerationParseError
	if errors.As(err, &parseErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant returned an unusable response, please try again"})
		return
	}

	var inferenceErr *service.InferenceError
	if errors.As(err, &inferenceErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "assistant is unavailable, please try again later"})
		return
	}

	var checkoutErr *service.CheckoutError
	if errors.As(err, &checkoutErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "billing service is unavailable, please try again later"})
		return
	}

	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, service.ErrNotAuthenticated):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
	default:
		logger.Error("unhandled service error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
