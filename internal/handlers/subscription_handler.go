package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/services"
	"github.com/backendkit/backendkit/internal/tenant"
)

type SubscriptionHandler struct {
	subscriptionService *services.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *services.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{subscriptionService: subscriptionService}
}

func (h *SubscriptionHandler) Create(c *fiber.Ctx) error {
	p, ok := tenant.PrincipalFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req dto.CreateSubscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.subscriptionService.Create(c.UserContext(), p.TenantID, p.UserID, req.PriceID)
	if err != nil {
		return respond(c, err)
	}

	return c.JSON(dto.CreateSubscriptionResponse{
		SubscriptionID: res.SubscriptionID,
		ClientSecret:   res.ClientSecret,
	})
}

func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	p, ok := tenant.PrincipalFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	subs, err := h.subscriptionService.List(c.UserContext(), p.TenantID, p.UserID)
	if err != nil {
		return respond(c, err)
	}

	out := make([]dto.SubscriptionResponse, len(subs))
	for i := range subs {
		out[i] = subscriptionResponse(&subs[i])
	}
	return c.JSON(dto.SubscriptionListResponse{Total: len(out), Subscriptions: out})
}

func (h *SubscriptionHandler) Cancel(c *fiber.Ctx) error {
	p, ok := tenant.PrincipalFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	res, err := h.subscriptionService.Cancel(c.UserContext(), p.TenantID, p.UserID, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.CancelSubscriptionResponse{Message: res.Message, CancelAt: res.CancelAt})
}

func (h *SubscriptionHandler) Portal(c *fiber.Ctx) error {
	p, ok := tenant.PrincipalFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req dto.PortalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	url, err := h.subscriptionService.Portal(c.UserContext(), p.TenantID, req.ReturnURL)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.PortalResponse{URL: url})
}

func subscriptionResponse(s *models.Subscription) dto.SubscriptionResponse {
	return dto.SubscriptionResponse{
		ID:                   s.ID.String(),
		StripeSubscriptionID: s.StripeSubscriptionID,
		StripePriceID:        s.StripePriceID,
		Status:               s.Status,
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
		CreatedAt:            s.CreatedAt,
	}
}
