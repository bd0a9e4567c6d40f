package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/billing"
	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/metrics"
	"github.com/backendkit/backendkit/internal/services"
)

type WebhookHandler struct {
	webhookService *services.WebhookService
	secret         string
}

func NewWebhookHandler(webhookService *services.WebhookService, secret string) *WebhookHandler {
	return &WebhookHandler{webhookService: webhookService, secret: secret}
}

// HandleStripe verifies the signature over the raw body before anything
// else touches it.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	signature := c.Get("stripe-signature")
	if signature == "" {
		return badRequest(c, "Missing stripe-signature header")
	}
	if h.secret == "" {
		slog.Error("stripe webhook received but STRIPE_WEBHOOK_SECRET is not set")
		return fiber.NewError(fiber.StatusInternalServerError, "Webhook secret not configured")
	}

	evt, err := billing.ParseEvent(c.Body(), signature, h.secret)
	if errors.Is(err, billing.ErrMalformedEvent) {
		slog.Warn("webhook payload could not be decoded", "error", err)
		metrics.WebhookEvents.WithLabelValues("unknown", "malformed").Inc()
		return badRequest(c, "Webhook payload could not be decoded")
	}
	if err != nil {
		slog.Warn("webhook signature verification failed", "error", err)
		metrics.WebhookEvents.WithLabelValues("unknown", "rejected").Inc()
		return badRequest(c, "Webhook signature verification failed")
	}

	if err := h.webhookService.Handle(c.UserContext(), evt); err != nil {
		slog.Error("webhook processing failed", "event_id", evt.ID, "event_type", evt.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error:   "Internal server error",
			Message: "Webhook handler failed",
		})
	}

	slog.Info("webhook processed", "event_id", evt.ID, "event_type", evt.Type)
	return c.JSON(dto.WebhookAck{Received: true})
}
