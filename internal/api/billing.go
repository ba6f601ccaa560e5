package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/forkful/backend/internal/middleware"
	"github.com/forkful/backend/internal/service"
)

type CheckoutRequest struct {
	PlanID string `json:"plan_id" binding:"required"`
}

type ConfirmRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

// BillingHandler serves the premium subscription flow.
type BillingHandler struct {
	checkout *service.CheckoutService
	logger   *zap.Logger
}

func NewBillingHandler(checkout *service.CheckoutService, logger *zap.Logger) *BillingHandler {
	return &BillingHandler{checkout: checkout, logger: logger}
}

func (h *BillingHandler) RegisterRoutes(r *gin.RouterGroup, authMW gin.HandlerFunc) {
	billing := r.Group("/billing")
	{
		billing.GET("/plans", h.Plans)
		billing.POST("/checkout", authMW, h.StartCheckout)
		billing.POST("/confirm", authMW, h.Confirm)
		billing.POST("/cancel", authMW, h.Cancel)
	}
}

func (h *BillingHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.checkout.Plans()})
}

func (h *BillingHandler) StartCheckout(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	var req CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	session, err := h.checkout.StartCheckout(c.Request.Context(), userID, req.PlanID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

func (h *BillingHandler) Confirm(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	var req ConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	profile, err := h.checkout.ConfirmPremium(c.Request.Context(), userID, req.SessionID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(profile))
}

func (h *BillingHandler) Cancel(c *gin.Context) {
	userID, err := middleware.CurrentUserID(c)
	if err != nil {
		respondError(c, h.logger, service.ErrNotAuthenticated)
		return
	}

	profile, err := h.checkout.CancelSubscription(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse(profile))
}
