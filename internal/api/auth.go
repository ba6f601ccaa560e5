package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/models"
	"github.com/forkful/backend/internal/service"
)

type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	IsPremium bool   `json:"is_premium"`
}

// AuthHandler serves registration, login, logout and identity lookup.
type AuthHandler struct {
	auth   *service.AuthService
	logger *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

func (h *AuthHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	auth := r.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.POST("/logout", authMW, h.Logout)
		auth.GET("/me", authMW, h.Me)
	}
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, token, err := h.auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{
		Token: token,
		User:  userResponse(user, nil),
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, profile, token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		Token: token,
		User:  userResponse(user, profile),
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	rawToken := c.GetString("raw_token")
	if err := h.auth.Logout(c.Request.Context(), rawToken); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) Me(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	// EnsureProfile repairs a lost registration-time profile write, so
	// the identity endpoint never 404s for a valid account.
	profile, err := h.auth.EnsureProfile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, UserResponse{
		ID:        profile.UserID.String(),
		Name:      profile.Name,
		Email:     profile.Email,
		IsPremium: profile.IsPremium,
	})
}

func userResponse(user *models.User, profile *models.UserProfile) UserResponse {
	resp := UserResponse{
		ID:    user.ID.String(),
		Name:  user.Name,
		Email: user.Email,
	}
	if profile != nil {
		resp.IsPremium = profile.IsPremium
	}
	return resp
}
