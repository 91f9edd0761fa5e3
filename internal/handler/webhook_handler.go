package handler

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/buildmart/buildmart_api/internal/service"
	"github.com/buildmart/buildmart_api/internal/utils"
)

// paymentNotification is the gateway's payment confirmation payload.
type paymentNotification struct {
	OrderNumber string `json:"orderNumber"`
	Status      string `json:"status"`
	Reference   string `json:"reference"`
}

// WebhookHandler handles incoming payment gateway callbacks.
type WebhookHandler struct {
	orderService  *service.OrderService
	webhookSecret string
}

// NewWebhookHandler constructs a WebhookHandler.
func NewWebhookHandler(orderService *service.OrderService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{orderService: orderService, webhookSecret: webhookSecret}
}

// HandlePaymentCallback handles POST /webhook/payment. The raw body is
// verified against the X-Signature header before anything is parsed.
func (h *WebhookHandler) HandlePaymentCallback(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(400, gin.H{"error": "Invalid body"})
		return
	}

	signature := c.GetHeader("X-Signature")
	if !utils.VerifySignature(body, signature, h.webhookSecret) {
		log.Warn().Str("ip", c.ClientIP()).Msg("Payment callback with invalid signature")
		c.JSON(401, gin.H{"error": "Invalid signature"})
		return
	}

	var payload paymentNotification
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(400, gin.H{"error": "Invalid JSON"})
		return
	}
	if payload.OrderNumber == "" || payload.Status != "paid" {
		c.JSON(400, gin.H{"error": "Unsupported notification"})
		return
	}

	if _, err := h.orderService.MarkPaid(c.Request.Context(), payload.OrderNumber); err != nil {
		switch {
		case errors.Is(err, utils.ErrOrderNotFound):
			c.JSON(404, gin.H{"error": "Order not found"})
		case errors.Is(err, utils.ErrOrderAlreadyPaid):
			// Replays are acknowledged so the gateway stops retrying.
			c.JSON(200, gin.H{"received": true})
		default:
			log.Error().Err(err).Str("order_number", payload.OrderNumber).Msg("Failed to process payment callback")
			c.JSON(500, gin.H{"error": "Processing failed"})
		}
		return
	}

	c.JSON(200, gin.H{"received": true})
}
