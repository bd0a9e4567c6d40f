package middleware

import (
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/backendkit/backendkit/internal/dto"
	"github.com/backendkit/backendkit/internal/services"
	"github.com/backendkit/backendkit/internal/tenant"
)

// JWTProtected checks the bearer token and attaches its Principal.
func JWTProtected(tokens *services.TokenService) fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{
			JWTAlg: jwtware.HS256,
			Key:    tokens.Secret(),
		},
		Claims: &services.Claims{},
		SuccessHandler: func(c *fiber.Ctx) error {
			principal, ok := principalFromToken(c)
			if !ok {
				return unauthorized(c)
			}
			tenant.SetPrincipal(c, principal)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

func principalFromToken(c *fiber.Ctx) (*tenant.Principal, bool) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, false
	}
	claims, ok := token.Claims.(*services.Claims)
	if !ok || claims.ExpiresAt == nil {
		return nil, false
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, false
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return nil, false
	}
	return &tenant.Principal{UserID: userID, TenantID: tenantID, Email: claims.Email}, true
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   "Unauthorized",
		Message: "Invalid or expired token",
	})
}
