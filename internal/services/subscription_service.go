package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backendkit/backendkit/internal/billing"
	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/tenant"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNoBillingCustomer    = errors.New("no billing customer for this tenant")
)

// CreateSubscriptionResult is handed to the client to confirm payment.
type CreateSubscriptionResult struct {
	SubscriptionID string
	ClientSecret   string
}

type CancelResult struct {
	Message  string
	CancelAt time.Time
}

// Invalidator drops cached tenant lookups by API key.
type Invalidator interface {
	Invalidate(apiKey string)
}

type SubscriptionService struct {
	db       *gorm.DB
	provider billing.Provider
	cache    Invalidator
	now      func() time.Time
}

func NewSubscriptionService(db *gorm.DB, provider billing.Provider, cache Invalidator) *SubscriptionService {
	return &SubscriptionService{
		db:       db,
		provider: provider,
		cache:    cache,
		now:      time.Now,
	}
}

// Create starts an incomplete subscription for the user and stores it
// locally. A retried create for the same processor subscription never adds
// a second row.
func (s *SubscriptionService) Create(ctx context.Context, tenantID, userID uuid.UUID, priceID string) (*CreateSubscriptionResult, error) {
	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, invalid("priceId is required")
	}

	db := s.db.WithContext(ctx)

	var user models.User
	if err := db.Preload("Tenant").Scopes(tenant.ForTenant(tenantID)).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user.Tenant == nil {
		return nil, tenant.ErrTenantNotFound
	}

	customerID, err := s.ensureCustomer(ctx, user.Tenant, user.Email)
	if err != nil {
		return nil, err
	}

	remote, err := s.provider.CreateSubscription(ctx, billing.SubscriptionParams{
		CustomerID: customerID,
		PriceID:    priceID,
		Metadata: map[string]string{
			"tenant_id": tenantID.String(),
			"user_id":   userID.String(),
		},
	})
	if err != nil {
		return nil, err
	}
	remote.Normalize(s.now().UTC())

	status := remote.Status
	if status == "" {
		status = "incomplete"
	}

	sub := models.Subscription{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		UserID:               userID,
		StripeSubscriptionID: remote.ID,
		StripePriceID:        priceID,
		Status:               status,
		CurrentPeriodStart:   remote.CurrentPeriodStart,
		CurrentPeriodEnd:     remote.CurrentPeriodEnd,
		CancelAtPeriodEnd:    remote.CancelAtPeriodEnd,
	}
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
		DoNothing: true,
	}).Create(&sub).Error
	if err != nil {
		return nil, fmt.Errorf("failed to store subscription: %w", err)
	}

	slog.Info("subscription created", "tenant_id", tenantID.String(), "user_id", userID.String(), "stripe_subscription_id", remote.ID)
	return &CreateSubscriptionResult{SubscriptionID: remote.ID, ClientSecret: remote.ClientSecret}, nil
}

// ensureCustomer returns the tenant's processor customer, creating and
// storing one on first use.
func (s *SubscriptionService) ensureCustomer(ctx context.Context, t *models.Tenant, email string) (string, error) {
	if t.StripeCustomerID != nil && *t.StripeCustomerID != "" {
		return *t.StripeCustomerID, nil
	}

	customerID, err := s.provider.CreateCustomer(ctx, email, t.Name, map[string]string{"tenant_id": t.ID.String()})
	if err != nil {
		return "", err
	}

	db := s.db.WithContext(ctx)
	res := db.Model(&models.Tenant{}).
		Where("id = ? AND stripe_customer_id IS NULL", t.ID).
		Update("stripe_customer_id", customerID)
	if res.Error != nil {
		return "", fmt.Errorf("failed to store customer: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		// A concurrent request stored its customer first; use that one.
		var stored models.Tenant
		if err := db.Select("id", "stripe_customer_id").First(&stored, "id = ?", t.ID).Error; err != nil {
			return "", fmt.Errorf("failed to reload tenant: %w", err)
		}
		if stored.StripeCustomerID != nil {
			customerID = *stored.StripeCustomerID
		}
	}

	if s.cache != nil {
		s.cache.Invalidate(t.APIKey)
	}
	t.StripeCustomerID = &customerID
	return customerID, nil
}

// List returns the user's subscriptions, newest first.
func (s *SubscriptionService) List(ctx context.Context, tenantID, userID uuid.UUID) ([]models.Subscription, error) {
	var subs []models.Subscription
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForTenant(tenantID)).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	return subs, nil
}

// Cancel schedules cancellation at period end. Only the local flag changes;
// status follows later through webhooks.
func (s *SubscriptionService) Cancel(ctx context.Context, tenantID, userID uuid.UUID, stripeSubscriptionID string) (*CancelResult, error) {
	db := s.db.WithContext(ctx)

	var sub models.Subscription
	err := db.Scopes(tenant.ForTenant(tenantID)).
		Where("user_id = ? AND stripe_subscription_id = ?", userID, stripeSubscriptionID).
		First(&sub).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, fmt.Errorf("failed to load subscription: %w", err)
	}

	remote, err := s.provider.CancelAtPeriodEnd(ctx, stripeSubscriptionID)
	if err != nil {
		return nil, err
	}

	if err := db.Model(&sub).Update("cancel_at_period_end", true).Error; err != nil {
		return nil, fmt.Errorf("failed to update subscription: %w", err)
	}

	cancelAt := sub.CurrentPeriodEnd
	if remote != nil && !remote.CurrentPeriodEnd.IsZero() {
		cancelAt = remote.CurrentPeriodEnd
	}
	return &CancelResult{
		Message:  "Subscription will be canceled at period end",
		CancelAt: cancelAt,
	}, nil
}

// Portal opens a self-service billing session for the tenant's customer.
func (s *SubscriptionService) Portal(ctx context.Context, tenantID uuid.UUID, returnURL string) (string, error) {
	if strings.TrimSpace(returnURL) == "" {
		return "", invalid("returnUrl is required")
	}

	var t models.Tenant
	if err := s.db.WithContext(ctx).First(&t, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", tenant.ErrTenantNotFound
		}
		return "", fmt.Errorf("failed to load tenant: %w", err)
	}
	if t.StripeCustomerID == nil || *t.StripeCustomerID == "" {
		return "", ErrNoBillingCustomer
	}

	return s.provider.CreatePortalSession(ctx, *t.StripeCustomerID, returnURL)
}
