package handlers

import (
	"log"
	"time"

	"lapak/internal/services"
	"lapak/pkg/payments"

	"github.com/gofiber/fiber/v2"
)

// SignatureHeader is the provider-supplied signature header on webhook
// deliveries.
const SignatureHeader = "X-Webhook-Signature"

// WebhookHandler receives signed payment provider events.
type WebhookHandler struct {
	service       *services.WebhookService
	webhookSecret string
	tolerance     time.Duration
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(service *services.WebhookService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		service:       service,
		webhookSecret: webhookSecret,
		tolerance:     payments.DefaultTolerance,
	}
}

// RegisterRoutes registers the webhook route with the Fiber app.
func (h *WebhookHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/webhooks/payments", h.HandlePaymentWebhook)
}

// HandlePaymentWebhook verifies the signature over the raw body, parses the
// event and hands it to the reconciliation service. 200 acknowledges the
// event (including graceful no-ops); 400 rejects an unverifiable payload;
// 500 signals a failed primary transition so the provider redelivers.
func (h *WebhookHandler) HandlePaymentWebhook(c *fiber.Ctx) error {
	body := c.Body()

	if err := payments.VerifySignature(body, c.Get(SignatureHeader), h.webhookSecret, h.tolerance, time.Now()); err != nil {
		log.Printf("Rejected webhook delivery: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid webhook signature",
		})
	}

	event, err := payments.ParseEvent(body)
	if err != nil {
		log.Printf("Rejected webhook payload: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid webhook payload",
			"error":   err.Error(),
		})
	}

	if err := h.service.Process(c.Context(), event); err != nil {
		log.Printf("Error processing webhook event %s: %v", event.ID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Event processing failed",
		})
	}

	return c.JSON(fiber.Map{"received": true})
}
