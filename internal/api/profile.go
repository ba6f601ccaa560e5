package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/service"
	"github.com/forkful/backend/internal/types"
)

type ProfileResponse struct {
	UserID    string `json:"user_id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
}

// ProfileHandler serves the caller's own profile. There is no route for
// reading or writing someone else's.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *zap.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

func (h *ProfileHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	profile := r.Group("/profile", authMW)
	{
		profile.GET("", h.Get)
		profile.PUT("", h.Update)
	}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	profile, err := h.profiles.GetProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(profile))
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	var req struct {
		Name *string `json:"name"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	// Premium status and payment references are owned by the checkout
	// flow; the profile route only accepts the display name.
	profile, err := h.profiles.UpdateProfile(c.Request.Context(), userID, &types.UpdateProfileRequest{
		Name: req.Name,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(profile))
}

func profileResponse(p *models.UserProfile) ProfileResponse {
	return ProfileResponse{
		UserID:    p.UserID.String(),
		Name:      p.Name,
		Email:     p.Email,
		IsPremium: p.IsPremium,
	}
}
