package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/service"
	"github.com/forkful/backend/internal/types"
)

type AdviceRequest struct {
	Question string `json:"question" binding:"required"`
}

type ImproveRecipeRequest struct {
	Recipe   types.GeneratedRecipe `json:"recipe" binding:"required"`
	Feedback string                `json:"feedback" binding:"required"`
}

// AssistantHandler serves recipe generation, cooking advice and recipe
// improvement. Improvement is a premium feature.
type AssistantHandler struct {
	assistant *service.AssistantService
	history   *service.ChatHistoryService
	logger    *zap.Logger
}

func NewAssistantHandler(assistant *service.AssistantService, history *service.ChatHistoryService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, history: history, logger: logger}
}

func (h *AssistantHandler) RegisterRoutes(r *gin.RouterGroup, authMW, rateLimitMW, premiumMW gin.HandlerFunc) {
	assistant := r.Group("/assistant", authMW, rateLimitMW)
	{
		assistant.POST("/recipe", h.GenerateRecipe)
		assistant.POST("/advice", h.GetAdvice)
		assistant.POST("/improve", premiumMW, h.ImproveRecipe)
		assistant.GET("/history", h.History)
	}
}

func (h *AssistantHandler) GenerateRecipe(c *gin.Context) {
	var req types.RecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	recipe, err := h.assistant.GenerateRecipe(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *AssistantHandler) GetAdvice(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	var req AdviceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	answer, err := h.assistant.GetCookingAdvice(c.Request.Context(), req.Question)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if err := h.history.Append(c.Request.Context(), userID, req.Question, answer); err != nil {
		h.logger.Warn("failed to record chat exchange", zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (h *AssistantHandler) ImproveRecipe(c *gin.Context) {
	var req ImproveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	improved, err := h.assistant.ImproveRecipe(c.Request.Context(), &req.Recipe, req.Feedback)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": improved})
}

func (h *AssistantHandler) History(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	exchanges, err := h.history.List(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": exchanges})
}
