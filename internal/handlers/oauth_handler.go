package handlers

import (
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/services"
	"github.com/backendkit/backendkit/internal/tenant"
)

type OAuthHandler struct {
	oauthService *services.OAuthService
	frontendURL  string
}

func NewOAuthHandler(oauthService *services.OAuthService, frontendURL string) *OAuthHandler {
	return &OAuthHandler{oauthService: oauthService, frontendURL: frontendURL}
}

// Start redirects to the provider's consent page. Browsers reach it by link,
// so the API key usually arrives as a query parameter.
func (h *OAuthHandler) Start(provider string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		t, ok := tenant.FromCtx(c)
		if !ok {
			return fiber.ErrUnauthorized
		}

		authURL, err := h.oauthService.AuthURL(t.ID, provider)
		if err != nil {
			return respond(c, err)
		}
		return c.Redirect(authURL, fiber.StatusFound)
	}
}

// Callback finishes the flow and hands the session token to the frontend.
func (h *OAuthHandler) Callback(provider string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		code, state := c.Query("code"), c.Query("state")
		if code == "" || state == "" {
			return badRequest(c, "Missing code or state")
		}

		res, err := h.oauthService.Callback(c.UserContext(), provider, code, state)
		if err != nil {
			slog.Warn("oauth callback failed", "provider", provider, "error", err)
			return respond(c, err)
		}

		target := h.frontendURL + "/auth/callback?token=" + url.QueryEscape(res.Token)
		return c.Redirect(target, fiber.StatusFound)
	}
}
