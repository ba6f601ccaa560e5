// Package api exposes the HTTP surface under /api/v1.
package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/forkful/backend/config"
	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/service"
)

// Deps carries everything the API surface is built from. All wiring is
// explicit; nothing reaches for globals.
type Deps struct {
	DB     *gorm.DB
	Redis  *redis.Client
	Config *config.Config
	S3     *config.S3Config
	Logger *zap.Logger
}

// SetupAPI builds the services and registers every route under /api/v1.
func SetupAPI(router *gin.Engine, deps Deps) {
	logger := deps.Logger

	var loginLimiter service.LoginLimiter
	assistantLimitMW := gin.HandlerFunc(func(c *gin.Context) { c.Next() })
	if deps.Redis != nil {
		loginLimiter = middleware.NewLoginRateLimiter(deps.Redis)
		assistantLimitMW = middleware.NewAssistantRateLimiter(deps.Redis).Middleware()
	}

	authService := service.NewAuthService(deps.DB, deps.Redis, loginLimiter,
		deps.Config.Auth.JWTSecret, deps.Config.Auth.TokenTTL, logger)
	profileService := service.NewProfileService(deps.DB)
	recipeService := service.NewRecipeService(deps.DB)
	imageService := service.NewImageService(deps.S3, logger)
	assistantService := service.NewAssistantService(deps.Config.Assistant, logger)
	historyService := service.NewChatHistoryService(deps.Redis)
	checkoutService := service.NewCheckoutService(deps.Config.Billing, profileService, logger)

	authMW := middleware.Auth(authService)
	optionalAuthMW := middleware.OptionalAuth(authService)
	premiumMW := middleware.RequirePremium(profileService)

	v1 := router.Group("/api/v1")
	{
		NewAuthHandler(authService, logger).RegisterRoutes(v1, authMW)
		NewProfileHandler(profileService, logger).RegisterRoutes(v1, authMW)
		NewRecipeHandler(recipeService, imageService, logger).RegisterRoutes(v1, authMW, optionalAuthMW)
		NewAssistantHandler(assistantService, historyService, logger).RegisterRoutes(v1, authMW, assistantLimitMW, premiumMW)
		NewBillingHandler(checkoutService, logger).RegisterRoutes(v1, authMW)
	}
}
