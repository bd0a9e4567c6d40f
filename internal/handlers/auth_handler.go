package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/services"
	"github.com/backendkit/backendkit/internal/tenant"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	t, ok := tenant.FromCtx(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.authService.Register(c.UserContext(), t.ID, req.Email, req.Password)
	if err != nil {
		return respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(dto.AuthResponse{
		User:  dto.NewUserResponse(res.User),
		Token: res.Token,
	})
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	t, ok := tenant.FromCtx(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	res, err := h.authService.Login(c.UserContext(), t.ID, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrSocialLoginRequired) {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   "Social login required",
				Message: "This account was created with social login. Please sign in with your provider.",
			})
		}
		return respond(c, err)
	}

	return c.JSON(dto.AuthResponse{
		User:  dto.NewUserResponse(res.User),
		Token: res.Token,
	})
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	p, ok := tenant.PrincipalFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	user, err := h.authService.Profile(c.UserContext(), p.TenantID, p.UserID)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(dto.NewUserResponse(user))
}

func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	p, ok := tenant.PrincipalFrom(c)
	if !ok {
		return fiber.ErrUnauthorized
	}

	var req dto.ChangePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	err := h.authService.ChangePassword(c.UserContext(), p.TenantID, p.UserID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		if errors.Is(err, services.ErrSocialLoginRequired) {
			return badRequest(c, "Accounts created with social login have no password to change")
		}
		return respond(c, err)
	}

	return c.JSON(dto.MessageResponse{Message: "Password changed successfully"})
}
