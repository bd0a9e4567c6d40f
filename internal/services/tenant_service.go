package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/tenant"
)

// TenantSummary is a tenant with its user count.
type TenantSummary struct {
	models.Tenant
	UserCount int64
}

// TenantOverview is what a member sees about their own tenant.
type TenantOverview struct {
	Tenant              *models.Tenant
	UserCount           int64
	ActiveSubscriptions int64
	HasBillingAccount   bool
}

type TenantService struct {
	db *gorm.DB
}

func NewTenantService(db *gorm.DB) *TenantService {
	return &TenantService{db: db}
}

// Provision creates a tenant with a freshly generated API key on the
// starter plan.
func (s *TenantService) Provision(ctx context.Context, name, email string) (*models.Tenant, error) {
	name = strings.TrimSpace(name)
	email = NormalizeEmail(email)
	if name == "" {
		return nil, invalid("name is required")
	}
	if !emailPattern.MatchString(email) {
		return nil, invalid("a valid email is required")
	}

	key, err := tenant.GenerateAPIKey()
	if err != nil {
		return nil, err
	}

	t := models.Tenant{
		ID:         uuid.New(),
		Name:       name,
		APIKey:     key,
		Plan:       "starter",
		OwnerEmail: email,
	}
	if err := s.db.WithContext(ctx).Create(&t).Error; err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	slog.Info("tenant provisioned", "tenant_id", t.ID.String(), "name", t.Name)
	return &t, nil
}

// List returns every tenant with its user count, newest first.
func (s *TenantService) List(ctx context.Context) ([]TenantSummary, error) {
	db := s.db.WithContext(ctx)

	var tenants []models.Tenant
	if err := db.Order("created_at DESC").Find(&tenants).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}

	var counts []struct {
		TenantID uuid.UUID
		Count    int64
	}
	if err := db.Model(&models.User{}).Select("tenant_id, COUNT(*) AS count").Group("tenant_id").Scan(&counts).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	byTenant := make(map[uuid.UUID]int64, len(counts))
	for _, c := range counts {
		byTenant[c.TenantID] = c.Count
	}

	out := make([]TenantSummary, len(tenants))
	for i, t := range tenants {
		out[i] = TenantSummary{Tenant: t, UserCount: byTenant[t.ID]}
	}
	return out, nil
}

func (s *TenantService) Overview(ctx context.Context, tenantID uuid.UUID) (*TenantOverview, error) {
	db := s.db.WithContext(ctx)

	var t models.Tenant
	if err := db.First(&t, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}

	out := &TenantOverview{Tenant: &t, HasBillingAccount: t.StripeCustomerID != nil}
	if err := db.Model(&models.User{}).Scopes(tenant.ForTenant(tenantID)).Count(&out.UserCount).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}
	if err := db.Model(&models.Subscription{}).Scopes(tenant.ForTenant(tenantID)).
		Where("status = ?", models.SubscriptionActive).Count(&out.ActiveSubscriptions).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	return out, nil
}

// Users lists the tenant's users, newest first.
func (s *TenantService) Users(ctx context.Context, tenantID uuid.UUID) ([]models.User, error) {
	var users []models.User
	err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID)).Order("created_at DESC").Find(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// Member re-reads the user behind a token together with its tenant.
func (s *TenantService) Member(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Preload("Tenant").Scopes(tenant.ForTenant(tenantID)).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load member: %w", err)
	}
	if user.Tenant == nil {
		return nil, tenant.ErrTenantNotFound
	}
	return &user, nil
}
