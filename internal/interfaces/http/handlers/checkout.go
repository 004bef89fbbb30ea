// internal/interfaces/http/handlers/checkout.go
package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/domain/checkout"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
)

// CheckoutHandler handles the two checkout phases
type CheckoutHandler struct {
	checkoutService *checkout.Service
	config          *config.Config
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(checkoutService *checkout.Service, cfg *config.Config) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
		config:          cfg,
	}
}

// PaymentRequest is the body of POST /checkout/:id/payment
type PaymentRequest struct {
	Token string `json:"token" binding:"required"`
}

// BeginCheckout handles POST /checkout. The session cart becomes a pending
// order priced from its snapshot.
func (h *CheckoutHandler) BeginCheckout(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	sessionID := getOrCreateSessionID(c, h.config)

	var form checkout.ShippingForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	o, err := h.checkoutService.BeginCheckout(c.Request.Context(), userID, sessionID, form)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Checkout started successfully",
		"data":    o,
	})
}

// SubmitPayment handles POST /checkout/:id/payment
func (h *CheckoutHandler) SubmitPayment(c *gin.Context) {
	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	sessionID := getOrCreateSessionID(c, h.config)

	orderID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order ID"})
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request data",
			"details": err.Error(),
		})
		return
	}

	result, err := h.checkoutService.SubmitPayment(c.Request.Context(),
		userID, sessionID, uint(orderID), req.Token)
	if err != nil {
		respondError(c, err)
		return
	}

	switch result.Outcome {
	case checkout.OutcomePaid:
		c.JSON(http.StatusOK, gin.H{
			"message": "Payment completed successfully",
			"data":    result.Order,
		})
	case checkout.OutcomeDeclined:
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": result.Message,
			"data":  result.Order,
		})
	case checkout.OutcomeTransient:
		// The order is still pending and the customer may retry.
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     result.Message,
			"retryable": true,
			"data":      result.Order,
		})
	default:
		c.JSON(http.StatusBadGateway, gin.H{
			"error":     result.Message,
			"retryable": false,
			"data":      result.Order,
		})
	}
}

// GetPendingOrder handles GET /checkout/pending
func (h *CheckoutHandler) GetPendingOrder(c *gin.Context) {
	if _, ok := middleware.GetUserIDFromContext(c); !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	sessionID := getOrCreateSessionID(c, h.config)

	orderID, ok, err := h.checkoutService.PendingOrderID(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "No pending order for this session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Pending order retrieved successfully",
		"data": gin.H{
			"order_id":        orderID,
			"publishable_key": h.config.External.Stripe.PublishableKey,
		},
	})
}
