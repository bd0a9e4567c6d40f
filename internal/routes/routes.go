package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/backendkit/backendkit/internal/config"
	"github.com/backendkit/backendkit/internal/handlers"
	"github.com/backendkit/backendkit/internal/middleware"
	"github.com/backendkit/backendkit/internal/metrics"
	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/services"
)

// Deps is everything the route table needs.
type Deps struct {
	Config  *config.Config
	Tenants middleware.TenantResolver
	Members middleware.MemberLoader
	Tokens  *services.TokenService

	Auth         *handlers.AuthHandler
	OAuth        *handlers.OAuthHandler
	Subscription *handlers.SubscriptionHandler
	Tenant       *handlers.TenantHandler
	Admin        *handlers.AdminHandler
	Webhook      *handlers.WebhookHandler
	Health       *handlers.HealthHandler
}

func Setup(app *fiber.App, d Deps) {
	apiKey := middleware.APIKey(d.Tenants)
	jwt := middleware.JWTProtected(d.Tokens)

	// Per-IP limits: each credential endpoint 10/15min, api 100/15min,
	// admin 200/15min, webhooks 1000/min.
	authLimit := func() fiber.Handler { return middleware.RateLimit(10, 15*time.Minute) }
	apiLimit := middleware.RateLimit(100, 15*time.Minute)
	adminLimit := middleware.RateLimit(200, 15*time.Minute)
	webhookLimit := middleware.RateLimit(1000, time.Minute)

	app.Get("/health", d.Health.Check)
	app.Get("/metrics", metrics.Handler())

	api := app.Group("/api")

	// Auth
	auth := api.Group("/auth")
	auth.Post("/register", authLimit(), apiKey, d.Auth.Register)
	auth.Post("/login", authLimit(), apiKey, d.Auth.Login)
	auth.Get("/me", apiLimit, jwt, d.Auth.Me)
	auth.Put("/change-password", apiLimit, jwt, d.Auth.ChangePassword)

	// OAuth: the start needs the tenant, the callback carries it in state
	for _, provider := range []string{services.ProviderGoogle, services.ProviderGitHub} {
		auth.Get("/"+provider, authLimit(), apiKey, d.OAuth.Start(provider))
		auth.Get("/"+provider+"/callback", authLimit(), d.OAuth.Callback(provider))
	}

	// Subscriptions (JWT required)
	sub := api.Group("/subscription", apiLimit, jwt)
	sub.Post("/create", d.Subscription.Create)
	sub.Get("/list", d.Subscription.List)
	sub.Post("/portal", d.Subscription.Portal)
	sub.Post("/:id/cancel", d.Subscription.Cancel)

	// Own tenant (JWT + membership)
	ten := api.Group("/tenant", apiLimit, jwt)
	ten.Get("/", middleware.RequireMembership(d.Members), d.Tenant.Get)
	ten.Get("/users", middleware.RequireMembership(d.Members, models.RoleOwner, models.RoleAdmin), d.Tenant.Users)

	// Platform admin (static admin key)
	admin := app.Group("/admin/tenants", adminLimit, middleware.AdminKey(d.Config))
	admin.Post("/", d.Admin.CreateTenant)
	admin.Get("/", d.Admin.ListTenants)
	admin.Get("/metrics", d.Admin.Metrics)
	admin.Get("/users", d.Admin.Users)
	admin.Get("/subscriptions", d.Admin.Subscriptions)

	// Webhooks: signature over the raw body, no API key or JWT
	app.Post("/webhooks/stripe", webhookLimit, d.Webhook.HandleStripe)
}
