package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Environment
	AppEnv string

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// JWT (shared across all tenants)
	JWTSecret string
	JWTExpiry time.Duration

	// Admin
	AdminKey string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	StripePriceStarter  string
	StripePricePro      string

	// OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string

	// Email
	ResendAPIKey string
	FromEmail    string

	// Server
	Port        string
	FrontendURL string
	CORSOrigins string

	TenantCacheTTL time.Duration
	SentryDSN      string
}

// Load reads the process environment (and an optional .env file) once at startup.
// The returned Config is never mutated afterwards.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppEnv: getEnv("APP_ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "backendkit"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret: getEnv("JWT_SECRET", ""),
		JWTExpiry: parseDuration(getEnv("JWT_EXPIRY", "168h"), 7*24*time.Hour),

		AdminKey: getEnv("ADMIN_KEY", ""),

		StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceStarter:  getEnv("STRIPE_PRICE_STARTER", ""),
		StripePricePro:      getEnv("STRIPE_PRICE_PRO", ""),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleCallbackURL:  getEnv("GOOGLE_CALLBACK_URL", ""),
		GitHubClientID:     getEnv("GITHUB_CLIENT_ID", ""),
		GitHubClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		GitHubCallbackURL:  getEnv("GITHUB_CALLBACK_URL", ""),

		ResendAPIKey: getEnv("RESEND_API_KEY", ""),
		FromEmail:    getEnv("FROM_EMAIL", "onboarding@resend.dev"),

		Port:        getEnv("PORT", "3000"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3001"),
		CORSOrigins: getEnv("CORS_ORIGINS", "http://localhost:3001"),

		TenantCacheTTL: parseDuration(getEnv("TENANT_CACHE_TTL", "5m"), 5*time.Minute),
		SentryDSN:      getEnv("SENTRY_DSN", ""),
	}
}

// Validate reports every missing secret the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.AdminKey == "" {
		errs = append(errs, errors.New("ADMIN_KEY is required"))
	}
	if c.DatabaseURL == "" && c.DBPassword == "" {
		errs = append(errs, errors.New("DATABASE_URL or DB_PASSWORD is required"))
	}
	if c.AppEnv != "development" && len(c.AllowedOrigins()) == 0 && c.FrontendURL == "" {
		errs = append(errs, errors.New("CORS_ORIGINS or FRONTEND_URL must name an origin outside development"))
	}
	return errors.Join(errs...)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// AllowedOrigins returns the CORS allow-list. Wildcards are dropped: the API
// sends credentials, so every origin has to be named explicitly.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		o = strings.TrimSpace(o)
		if o != "" && o != "*" {
			origins = append(origins, o)
		}
	}
	return origins
}

// PriceTable maps Stripe price ids to plan names and monthly amounts.
func (c *Config) PriceTable() PriceTable {
	table := PriceTable{}
	if c.StripePriceStarter != "" {
		table[c.StripePriceStarter] = Plan{Name: "starter", Amount: 9.99}
	}
	if c.StripePricePro != "" {
		table[c.StripePricePro] = Plan{Name: "pro", Amount: 29.99}
	}
	return table
}

type Plan struct {
	Name   string
	Amount float64
}

type PriceTable map[string]Plan

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}
