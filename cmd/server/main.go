package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/backendkit/backendkit/internal/billing"
	"github.com/backendkit/backendkit/internal/config"
	"github.com/backendkit/backendkit/internal/database"
	"github.com/backendkit/backendkit/internal/handlers"
	"github.com/backendkit/backendkit/internal/logging"
	"github.com/backendkit/backendkit/internal/metrics"
	"github.com/backendkit/backendkit/internal/middleware"
	"github.com/backendkit/backendkit/internal/notify"
	"github.com/backendkit/backendkit/internal/routes"
	"github.com/backendkit/backendkit/internal/services"
	"github.com/backendkit/backendkit/internal/tenant"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log sink (ERROR+ async batch) and 30-day retention
	pgLogHandler := logging.WithStore(db)
	ctx, cancel := context.WithCancel(context.Background())
	logging.StartCleanup(ctx, db)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		}
	}

	metrics.Register()

	directory, err := tenant.NewDirectory(db, cfg.TenantCacheTTL)
	if err != nil {
		slog.Error("tenant directory init failed", "error", err)
		os.Exit(1)
	}

	// Outbound email
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.ResendAPIKey != "" {
		mailer = notify.NewResendMailer(cfg.ResendAPIKey, cfg.FromEmail)
	} else {
		slog.Warn("RESEND_API_KEY not set, emails will only be logged")
	}
	dispatcher := notify.NewDispatcher(0)

	if cfg.StripeSecretKey == "" {
		slog.Warn("STRIPE_SECRET_KEY not set, billing calls will fail")
	}
	stripeProvider := billing.NewStripeProvider(cfg.StripeSecretKey)

	// Services
	tokenService := services.NewTokenService(cfg.JWTSecret, cfg.JWTExpiry)
	emailService := services.NewEmailService(mailer, dispatcher)
	authService := services.NewAuthService(db, tokenService, emailService)
	oauthService := services.NewOAuthService(authService, map[string]services.OAuthProvider{
		services.ProviderGoogle: services.NewGoogleProvider(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleCallbackURL),
		services.ProviderGitHub: services.NewGitHubProvider(cfg.GitHubClientID, cfg.GitHubClientSecret, cfg.GitHubCallbackURL),
	})
	tenantService := services.NewTenantService(db)
	subscriptionService := services.NewSubscriptionService(db, stripeProvider, directory)
	webhookService := services.NewWebhookService(db, stripeProvider, emailService, cfg.PriceTable())
	adminService := services.NewAdminService(db, cfg.PriceTable())

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    4 * 1024 * 1024,
		ErrorHandler: handlers.NewErrorHandler(cfg.IsProduction()),
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(metrics.Middleware())
	app.Use(middleware.CORS(cfg))
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	routes.Setup(app, routes.Deps{
		Config:  cfg,
		Tenants: directory,
		Members: tenantService,
		Tokens:  tokenService,

		Auth:         handlers.NewAuthHandler(authService),
		OAuth:        handlers.NewOAuthHandler(oauthService, cfg.FrontendURL),
		Subscription: handlers.NewSubscriptionHandler(subscriptionService),
		Tenant:       handlers.NewTenantHandler(tenantService),
		Admin:        handlers.NewAdminHandler(tenantService, adminService),
		Webhook:      handlers.NewWebhookHandler(webhookService, cfg.StripeWebhookSecret),
		Health:       handlers.NewHealthHandler(db),
	})

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	cancel()
	dispatcher.Wait()
	directory.Close()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}
