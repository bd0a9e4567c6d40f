package middleware

import (
	"context"
	"errors"
	"slices"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/services"
	"github.com/backendkit/backendkit/internal/tenant"
)

// MemberLoader re-reads a user, with its tenant, by token identity.
type MemberLoader interface {
	Member(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error)
}

// RequireMembership runs after JWTProtected. It confirms the token's user
// still exists in the token's tenant and, when roles are given, holds one
// of them. Both the user and its tenant are attached to the request.
func RequireMembership(members MemberLoader, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, ok := tenant.PrincipalFrom(c)
		if !ok {
			return unauthorized(c)
		}

		user, err := members.Member(c.UserContext(), principal.TenantID, principal.UserID)
		switch {
		case errors.Is(err, services.ErrUserNotFound):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   "Forbidden",
				Message: "Not a member of this tenant",
			})
		case errors.Is(err, tenant.ErrTenantNotFound):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error:   "Not found",
				Message: "Tenant not found",
			})
		case err != nil:
			return err
		}

		if len(roles) > 0 && !slices.Contains(roles, user.Role) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   "Forbidden",
				Message: "Insufficient permissions",
			})
		}

		tenant.SetMember(c, user)
		tenant.SetTenant(c, user.Tenant)
		return c.Next()
	}
}
