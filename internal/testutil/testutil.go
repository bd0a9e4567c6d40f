// Package testutil provides an in-memory store and fixtures for package tests.
package testutil

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v81/webhook"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/backendkit/backendkit/internal/config"
	"github.com/backendkit/backendkit/internal/database"
	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/tenant"
)

const (
	JWTSecret     = "test-jwt-secret"
	AdminKey      = "test-admin-key"
	WebhookSecret = "whsec_test"
	PriceStarter  = "price_starter"
	PricePro      = "price_pro"
)

// NewDB opens a fresh in-memory SQLite database with all models migrated.
// A single connection keeps every query on the same in-memory database.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// Config returns a configuration suitable for tests.
func Config() *config.Config {
	return &config.Config{
		AppEnv:              "test",
		JWTSecret:           JWTSecret,
		JWTExpiry:           7 * 24 * time.Hour,
		AdminKey:            AdminKey,
		StripeWebhookSecret: WebhookSecret,
		StripePriceStarter:  PriceStarter,
		StripePricePro:      PricePro,
		FrontendURL:         "http://frontend.test",
		CORSOrigins:         "http://frontend.test",
		TenantCacheTTL:      time.Minute,
	}
}

// CreateTenant inserts a tenant with a unique API key.
func CreateTenant(t testing.TB, db *gorm.DB, name string) *models.Tenant {
	t.Helper()

	key, err := tenant.GenerateAPIKey()
	if err != nil {
		t.Fatalf("api key: %v", err)
	}
	row := &models.Tenant{
		ID:     uuid.New(),
		Name:   name,
		APIKey: key,
		Plan:   "starter",
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create tenant: %v", err)
	}
	return row
}

// CreateUser inserts a password user. An empty password creates an OAuth-only user.
func CreateUser(t testing.TB, db *gorm.DB, tenantID uuid.UUID, email, password, role string) *models.User {
	t.Helper()

	user := &models.User{
		ID:       uuid.New(),
		TenantID: tenantID,
		Email:    email,
		Role:     role,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("hash: %v", err)
		}
		h := string(hash)
		user.PasswordHash = &h
	} else {
		provider, subject := "google", uuid.NewString()
		user.OAuthProvider = &provider
		user.OAuthID = &subject
		user.EmailVerified = true
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// CreateSubscription inserts a subscription row.
func CreateSubscription(t testing.TB, db *gorm.DB, tenantID, userID uuid.UUID, stripeID, status string) *models.Subscription {
	t.Helper()

	now := time.Now().UTC()
	sub := &models.Subscription{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		UserID:               userID,
		StripeSubscriptionID: stripeID,
		StripePriceID:        PricePro,
		Status:               status,
		CurrentPeriodStart:   now,
		CurrentPeriodEnd:     now.AddDate(0, 1, 0),
	}
	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return sub
}

// StripeSignature builds a stripe-signature header for payload signed now.
func StripeSignature(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}
