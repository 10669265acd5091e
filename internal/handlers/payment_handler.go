package handlers

import (
	"storefront/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PaymentHandler handles HTTP requests for payment sessions and the
// provider webhook.
type PaymentHandler struct {
	service *services.PaymentService
	logger  *zap.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(service *services.PaymentService, logger *zap.Logger) *PaymentHandler {
	return &PaymentHandler{service: service, logger: logger}
}

// RegisterRoutes registers the authenticated payment routes.
func (h *PaymentHandler) RegisterRoutes(router fiber.Router) {
	paymentRoutes := router.Group("/payments")
	paymentRoutes.Post("/checkout-session", h.HandleCreateCheckoutSession)
}

// RegisterWebhookRoutes registers the provider webhook. It must be mounted
// outside the JWT middleware: the provider authenticates with its signature
// header, not a bearer token.
func (h *PaymentHandler) RegisterWebhookRoutes(router fiber.Router) {
	router.Post("/payments/webhook", h.HandleWebhook)
}

// CheckoutSessionRequest is the body for POST /payments/checkout-session.
type CheckoutSessionRequest struct {
	OrderID     string `json:"order_id"`
	FrontendURL string `json:"frontend_url"`
}

// HandleCreateCheckoutSession requests a hosted payment session for an
// existing order.
func (h *PaymentHandler) HandleCreateCheckoutSession(c *fiber.Ctx) error {
	var req CheckoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
			"error":   err.Error(),
		})
	}

	session, err := h.service.CreateCheckoutSession(c.Context(), req.OrderID, req.FrontendURL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"url": session.URL})
}

// HandleWebhook consumes provider event deliveries. Signature verification
// failure is a hard rejection; a processing failure returns 5xx so the
// provider redelivers (processing is idempotent).
func (h *PaymentHandler) HandleWebhook(c *fiber.Ctx) error {
	signature := c.Get("Stripe-Signature")

	event, err := h.service.VerifyWebhook(c.Body(), signature)
	if err != nil {
		h.logger.Warn("webhook rejected", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "invalid webhook signature",
		})
	}

	if err := h.service.HandleEvent(c.Context(), event); err != nil {
		h.logger.Error("webhook processing failed",
			zap.String("event_id", event.ID), zap.Error(err))
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{"received": true})
}
