package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/services"
)

type AdminHandler struct {
	tenantService *services.TenantService
	adminService  *services.AdminService
}

func NewAdminHandler(tenantService *services.TenantService, adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{tenantService: tenantService, adminService: adminService}
}

func (h *AdminHandler) CreateTenant(c *fiber.Ctx) error {
	var req dto.CreateTenantRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	t, err := h.tenantService.Provision(c.UserContext(), req.Name, req.Email)
	if err != nil {
		return respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.CreateTenantResponse{
		ID:        t.ID,
		Name:      t.Name,
		APIKey:    t.APIKey,
		Plan:      t.Plan,
		CreatedAt: t.CreatedAt,
	})
}

func (h *AdminHandler) ListTenants(c *fiber.Ctx) error {
	tenants, err := h.tenantService.List(c.UserContext())
	if err != nil {
		return respond(c, err)
	}

	out := make([]dto.TenantResponse, len(tenants))
	for i, t := range tenants {
		out[i] = dto.TenantResponse{
			ID:        t.ID,
			Name:      t.Name,
			Plan:      t.Plan,
			UserCount: t.UserCount,
			CreatedAt: t.CreatedAt,
		}
	}
	return c.JSON(dto.TenantListResponse{Total: len(out), Tenants: out})
}

func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	m, err := h.adminService.Metrics(c.UserContext())
	if err != nil {
		return respond(c, err)
	}

	growth := make([]dto.DailyCount, len(m.UserGrowth))
	for i, d := range m.UserGrowth {
		growth[i] = dto.DailyCount{Date: d.Date, Count: d.Count}
	}
	return c.JSON(dto.MetricsResponse{
		TotalTenants:        m.TotalTenants,
		TotalUsers:          m.TotalUsers,
		ActiveSubscriptions: m.ActiveSubscriptions,
		MRR:                 m.MRR,
		NewUsersLast30Days:  m.NewUsersLast30Days,
		ChurnRate:           m.ChurnRate,
		RevenueByPlan: dto.RevenueByPlan{
			Starter: m.RevenueByPlan.Starter,
			Pro:     m.RevenueByPlan.Pro,
		},
		UserGrowth: growth,
	})
}

func (h *AdminHandler) Users(c *fiber.Ctx) error {
	users, err := h.adminService.Users(c.UserContext())
	if err != nil {
		return respond(c, err)
	}

	out := make([]dto.AdminUserResponse, len(users))
	for i := range users {
		u := &users[i]
		out[i] = dto.AdminUserResponse{UserResponse: dto.NewUserResponse(u)}
		if u.Tenant != nil {
			out[i].Tenant = &dto.TenantRef{Name: u.Tenant.Name, Plan: u.Tenant.Plan}
		}
	}
	return c.JSON(dto.AdminUserListResponse{Total: len(out), Users: out})
}

func (h *AdminHandler) Subscriptions(c *fiber.Ctx) error {
	subs, err := h.adminService.Subscriptions(c.UserContext())
	if err != nil {
		return respond(c, err)
	}

	out := make([]dto.AdminSubscriptionResponse, len(subs))
	for i := range subs {
		s := &subs[i]
		out[i] = dto.AdminSubscriptionResponse{
			SubscriptionResponse: subscriptionResponse(s),
			TenantID:             s.TenantID,
			UserID:               s.UserID,
		}
		if s.Tenant != nil {
			out[i].Tenant = &dto.TenantRef{Name: s.Tenant.Name}
		}
		if s.User != nil {
			out[i].User = &dto.UserRef{Email: s.User.Email}
		}
	}
	return c.JSON(dto.AdminSubscriptionListResponse{Total: len(out), Subscriptions: out})
}
