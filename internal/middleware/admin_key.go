package middleware

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/config"
	"github.com/backendkit/backendkit/internal/dto"
)

// AdminKey guards platform administration with the static x-admin-key.
func AdminKey(cfg *config.Config) fiber.Handler {
	want := []byte(cfg.AdminKey)

	return func(c *fiber.Ctx) error {
		got := []byte(c.Get("x-admin-key"))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   "Forbidden",
				Message: "Invalid admin key",
			})
		}
		return c.Next()
	}
}
