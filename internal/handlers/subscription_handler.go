package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papertrade/internal/models"
	"papertrade/internal/services"
)

// SubscriptionHandler handles subscription plan endpoints.
type SubscriptionHandler struct {
	subscriptionService services.SubscriptionServicer
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subscriptionService services.SubscriptionServicer) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

// PurchaseRequest is the payload for buying a subscription plan.
type PurchaseRequest struct {
	PlanID string `json:"plan_id" binding:"required,plan_id"`
}

// Plans returns the subscription catalog.
// GET /api/v1/subscription/plans
func (h *SubscriptionHandler) Plans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": h.subscriptionService.Plans()})
}

// Status returns the user's current subscription and effective trading limit.
// GET /api/v1/subscription/status
func (h *SubscriptionHandler) Status(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	status, err := h.subscriptionService.Status(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// Purchase buys or replaces the user's subscription plan.
// POST /api/v1/subscription/purchase
func (h *SubscriptionHandler) Purchase(c *gin.Context) {
	userID, ok := mustUserID(c)
	if !ok {
		return
	}

	var req PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithValidationError(c, err)
		return
	}

	subscription, err := h.subscriptionService.Purchase(userID, models.PlanID(req.PlanID))
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"subscription": subscription})
}
