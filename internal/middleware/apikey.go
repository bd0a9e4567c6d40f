package middleware

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/tenant"
)

const apiKeyName = "x-api-key"

// TenantResolver looks tenants up by API key.
type TenantResolver interface {
	Resolve(ctx context.Context, apiKey string) (*models.Tenant, error)
}

// APIKey identifies the tenant from the x-api-key header, falling back to
// the query parameter of the same name for browser redirects.
func APIKey(resolver TenantResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key := c.Get(apiKeyName)
		if key == "" {
			key = c.Query(apiKeyName)
		}
		if key == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "API key is required",
			})
		}

		t, err := resolver.Resolve(c.UserContext(), key)
		if err != nil {
			if !errors.Is(err, tenant.ErrTenantNotFound) {
				slog.Error("tenant lookup failed", "error", err, "path", c.Path())
				return err
			}
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error:   "Unauthorized",
				Message: "Invalid API key",
			})
		}

		tenant.SetTenant(c, t)
		return c.Next()
	}
}
