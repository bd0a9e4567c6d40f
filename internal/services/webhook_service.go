package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/backendkit/backendkit/internal/billing"
	"github.com/backendkit/backendkit/internal/config"
	"github.com/backendkit/backendkit/internal/metrics"
	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/tenant"
)

// defaultPlanLabel names the plan in a payment confirmation when the
// invoice price is not in the price table.
const defaultPlanLabel = "Pro"

// WebhookService applies verified billing events to the store. Every
// mutation is keyed by processor ids, so redelivered events are harmless.
// Notifications are best-effort and never fail an event.
type WebhookService struct {
	db       *gorm.DB
	provider billing.Provider
	emails   *EmailService
	prices   config.PriceTable
	now      func() time.Time
}

func NewWebhookService(db *gorm.DB, provider billing.Provider, emails *EmailService, prices config.PriceTable) *WebhookService {
	return &WebhookService{
		db:       db,
		provider: provider,
		emails:   emails,
		prices:   prices,
		now:      time.Now,
	}
}

func (s *WebhookService) Handle(ctx context.Context, evt *billing.Event) error {
	err := s.dispatch(ctx, evt)
	metrics.WebhookEvents.WithLabelValues(evt.Type, metrics.Outcome(err)).Inc()
	return err
}

func (s *WebhookService) dispatch(ctx context.Context, evt *billing.Event) error {
	switch evt.Type {
	case billing.EventSubscriptionCreated, billing.EventSubscriptionUpdated:
		return s.handleSubscriptionUpsert(ctx, evt.Subscription)
	case billing.EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(ctx, evt.Subscription)
	case billing.EventPaymentSucceeded:
		return s.handlePaymentSucceeded(evt.Invoice)
	case billing.EventPaymentFailed:
		return s.handlePaymentFailed(ctx, evt.Invoice)
	default:
		slog.Info("unhandled webhook event", "event_id", evt.ID, "type", evt.Type)
		return nil
	}
}

func (s *WebhookService) handleSubscriptionUpsert(ctx context.Context, remote *billing.Subscription) error {
	if remote == nil || remote.ID == "" {
		return nil
	}
	db := s.db.WithContext(ctx)

	var existing models.Subscription
	err := db.Where("stripe_subscription_id = ?", remote.ID).First(&existing).Error
	switch {
	case err == nil:
		return s.applySubscription(db, &existing, remote)
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("failed to load subscription: %w", err)
	}

	tenantID, userID, ok := s.owner(db, remote)
	if !ok {
		slog.Warn("webhook subscription has no known owner", "stripe_subscription_id", remote.ID)
		return nil
	}

	remote.Normalize(s.now().UTC())
	sub := models.Subscription{
		ID:                   uuid.New(),
		TenantID:             tenantID,
		UserID:               userID,
		StripeSubscriptionID: remote.ID,
		StripePriceID:        remote.PriceID,
		Status:               remote.Status,
		CurrentPeriodStart:   remote.CurrentPeriodStart,
		CurrentPeriodEnd:     remote.CurrentPeriodEnd,
		CancelAtPeriodEnd:    remote.CancelAtPeriodEnd,
	}
	// The create endpoint may insert the same row concurrently.
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stripe_subscription_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "current_period_start", "current_period_end", "cancel_at_period_end", "updated_at"}),
	}).Create(&sub).Error
	if err != nil {
		return fmt.Errorf("failed to upsert subscription: %w", err)
	}
	return nil
}

func (s *WebhookService) applySubscription(db *gorm.DB, existing *models.Subscription, remote *billing.Subscription) error {
	updates := map[string]interface{}{
		"status":               remote.Status,
		"cancel_at_period_end": remote.CancelAtPeriodEnd,
	}
	if !remote.CurrentPeriodStart.IsZero() {
		updates["current_period_start"] = remote.CurrentPeriodStart
	}
	if !remote.CurrentPeriodEnd.IsZero() {
		updates["current_period_end"] = remote.CurrentPeriodEnd
	}
	if remote.PriceID != "" {
		updates["stripe_price_id"] = remote.PriceID
	}

	if err := db.Model(existing).Updates(updates).Error; err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	return nil
}

// owner reads the tenant and user ids stamped on the subscription at
// creation and checks the user still belongs to that tenant.
func (s *WebhookService) owner(db *gorm.DB, remote *billing.Subscription) (uuid.UUID, uuid.UUID, bool) {
	tenantID, err := uuid.Parse(remote.Metadata["tenant_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := uuid.Parse(remote.Metadata["user_id"])
	if err != nil {
		return uuid.Nil, uuid.Nil, false
	}

	var count int64
	if err := db.Model(&models.User{}).Scopes(tenant.ForTenant(tenantID)).Where("id = ?", userID).Count(&count).Error; err != nil || count == 0 {
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, userID, true
}

func (s *WebhookService) handleSubscriptionDeleted(ctx context.Context, remote *billing.Subscription) error {
	if remote == nil || remote.ID == "" {
		return nil
	}

	err := s.db.WithContext(ctx).Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", remote.ID).
		Update("status", models.SubscriptionCanceled).Error
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	if remote.CustomerID != "" {
		endDate := remote.CurrentPeriodEnd
		if endDate.IsZero() {
			endDate = s.now()
		}
		customerID := remote.CustomerID
		s.emails.SendSubscriptionCanceledTo(func(ctx context.Context) (string, error) {
			return s.provider.CustomerEmail(ctx, customerID)
		}, endDate)
	}
	return nil
}

func (s *WebhookService) handlePaymentSucceeded(inv *billing.Invoice) error {
	if inv == nil {
		return nil
	}
	slog.Info("payment succeeded", "invoice_id", inv.ID)

	if inv.CustomerEmail != "" {
		s.emails.SendSubscriptionConfirmation(inv.CustomerEmail, s.planLabel(inv.PriceID))
	}
	return nil
}

func (s *WebhookService) handlePaymentFailed(ctx context.Context, inv *billing.Invoice) error {
	if inv == nil {
		return nil
	}
	slog.Warn("payment failed", "invoice_id", inv.ID, "stripe_subscription_id", inv.SubscriptionID)

	if inv.SubscriptionID != "" {
		err := s.db.WithContext(ctx).Model(&models.Subscription{}).
			Where("stripe_subscription_id = ?", inv.SubscriptionID).
			Update("status", models.SubscriptionPastDue).Error
		if err != nil {
			return fmt.Errorf("failed to mark subscription past due: %w", err)
		}
	}

	if inv.CustomerEmail != "" {
		s.emails.SendPaymentFailed(inv.CustomerEmail)
	}
	return nil
}

func (s *WebhookService) planLabel(priceID string) string {
	plan, ok := s.prices[priceID]
	if !ok {
		return defaultPlanLabel
	}
	switch plan.Name {
	case "starter":
		return "Starter"
	case "pro":
		return "Pro"
	default:
		return plan.Name
	}
}
