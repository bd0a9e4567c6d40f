package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/services"
	"github.com/backendkit/backendkit/internal/tenant"
)

// TenantHandler serves a member's view of their own tenant.
type TenantHandler struct {
	tenantService *services.TenantService
}

func NewTenantHandler(tenantService *services.TenantService) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

func (h *TenantHandler) Get(c *fiber.Ctx) error {
	t, ok := tenant.FromCtx(c)
	if !ok {
		return fiber.ErrForbidden
	}
	member, ok := tenant.MemberFrom(c)
	if !ok {
		return fiber.ErrForbidden
	}

	ov, err := h.tenantService.Overview(c.UserContext(), t.ID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.TenantOverviewResponse{
		ID:                  ov.Tenant.ID,
		Name:                ov.Tenant.Name,
		Plan:                ov.Tenant.Plan,
		UserCount:           ov.UserCount,
		ActiveSubscriptions: ov.ActiveSubscriptions,
		HasBillingAccount:   ov.HasBillingAccount,
		CreatedAt:           ov.Tenant.CreatedAt,
		Role:                member.Role,
	})
}

func (h *TenantHandler) Users(c *fiber.Ctx) error {
	t, ok := tenant.FromCtx(c)
	if !ok {
		return fiber.ErrForbidden
	}

	users, err := h.tenantService.Users(c.UserContext(), t.ID)
	if err != nil {
		return respond(c, err)
	}

	out := make([]dto.UserResponse, len(users))
	for i := range users {
		out[i] = dto.NewUserResponse(&users[i])
	}
	return c.JSON(dto.UserListResponse{Total: len(out), Users: out})
}
