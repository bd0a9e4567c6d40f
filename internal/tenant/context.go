package tenant

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/backendkit/backendkit/internal/models"
)

type localsKey int

const (
	tenantKey localsKey = iota
	principalKey
	memberKey
)

// Principal is the authenticated identity decoded from a bearer token.
type Principal struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
	Email    string
}

// SetTenant attaches the tenant resolved by the API-key check.
func SetTenant(c *fiber.Ctx, t *models.Tenant) {
	c.Locals(tenantKey, t)
}

// FromCtx returns the tenant attached by the API-key or membership check.
func FromCtx(c *fiber.Ctx) (*models.Tenant, bool) {
	t, ok := c.Locals(tenantKey).(*models.Tenant)
	return t, ok && t != nil
}

func SetPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}

// PrincipalFrom returns the identity attached by the token check.
func PrincipalFrom(c *fiber.Ctx) (*Principal, bool) {
	p, ok := c.Locals(principalKey).(*Principal)
	return p, ok && p != nil
}

// SetMember attaches the user row re-read by the membership check.
func SetMember(c *fiber.Ctx, u *models.User) {
	c.Locals(memberKey, u)
}

func MemberFrom(c *fiber.Ctx) (*models.User, bool) {
	u, ok := c.Locals(memberKey).(*models.User)
	return u, ok && u != nil
}
