package config

import (
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_EXPIRY", "")
	t.Setenv("TENANT_CACHE_TTL", "not-a-duration")
	t.Setenv("PORT", "")

	cfg := Load()

	if cfg.JWTExpiry != 7*24*time.Hour {
		t.Errorf("expected 7d token expiry, got %s", cfg.JWTExpiry)
	}
	if cfg.TenantCacheTTL != 5*time.Minute {
		t.Errorf("expected fallback cache TTL, got %s", cfg.TenantCacheTTL)
	}
	if cfg.Port != "3000" {
		t.Errorf("expected default port 3000, got %s", cfg.Port)
	}
}

func TestValidate_ReportsAllMissingSecrets(t *testing.T) {
	cfg := &Config{}

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for empty config")
	}
	for _, want := range []string{"JWT_SECRET", "ADMIN_KEY", "DATABASE_URL"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in error, got %v", want, err)
		}
	}

	cfg = &Config{AppEnv: "development", JWTSecret: "s", AdminKey: "a", DatabaseURL: "postgres://x"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestValidate_RequiresOriginOutsideDevelopment(t *testing.T) {
	cfg := &Config{AppEnv: "production", JWTSecret: "s", AdminKey: "a", DatabaseURL: "postgres://x", CORSOrigins: "*"}
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "CORS_ORIGINS") {
		t.Errorf("expected wildcard-only origins to be rejected, got %v", err)
	}

	cfg.FrontendURL = "https://app.example.com"
	if err := cfg.Validate(); err != nil {
		t.Errorf("frontend url should satisfy the allow-list: %v", err)
	}

	cfg = &Config{AppEnv: "development", JWTSecret: "s", AdminKey: "a", DatabaseURL: "postgres://x", CORSOrigins: "*"}
	if err := cfg.Validate(); err != nil {
		t.Errorf("development may run without origins: %v", err)
	}
}

func TestAllowedOrigins(t *testing.T) {
	cfg := &Config{CORSOrigins: " https://app.example.com , *,,https://dash.example.com"}

	got := cfg.AllowedOrigins()
	if len(got) != 2 {
		t.Fatalf("expected 2 origins, got %v", got)
	}
	if got[0] != "https://app.example.com" || got[1] != "https://dash.example.com" {
		t.Errorf("unexpected origins: %v", got)
	}
}

func TestDSN_PrefersDatabaseURL(t *testing.T) {
	cfg := &Config{DatabaseURL: "postgres://u:p@db/x", DBHost: "ignored"}
	if cfg.DSN() != "postgres://u:p@db/x" {
		t.Errorf("expected DATABASE_URL, got %s", cfg.DSN())
	}

	cfg = &Config{DBHost: "db", DBUser: "u", DBPassword: "p", DBName: "x", DBPort: "5432", DBSSLMode: "disable"}
	if !strings.Contains(cfg.DSN(), "host=db") || !strings.Contains(cfg.DSN(), "TimeZone=UTC") {
		t.Errorf("unexpected DSN: %s", cfg.DSN())
	}
}

func TestPriceTable(t *testing.T) {
	cfg := &Config{StripePriceStarter: "price_s", StripePricePro: "price_p"}

	table := cfg.PriceTable()
	if table["price_s"].Amount != 9.99 || table["price_s"].Name != "starter" {
		t.Errorf("unexpected starter plan: %+v", table["price_s"])
	}
	if table["price_p"].Amount != 29.99 || table["price_p"].Name != "pro" {
		t.Errorf("unexpected pro plan: %+v", table["price_p"])
	}
	if _, ok := table[""]; ok {
		t.Error("empty price id must not be in the table")
	}
}
