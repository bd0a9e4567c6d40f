package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateTenantRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// CreateTenantResponse is the only response that ever carries an API key.
type CreateTenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"apiKey"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
}

type TenantResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	UserCount int64     `json:"userCount"`
	CreatedAt time.Time `json:"createdAt"`
}

type TenantListResponse struct {
	Total   int              `json:"total"`
	Tenants []TenantResponse `json:"tenants"`
}

type TenantOverviewResponse struct {
	ID                  uuid.UUID `json:"id"`
	Name                string    `json:"name"`
	Plan                string    `json:"plan"`
	UserCount           int64     `json:"userCount"`
	ActiveSubscriptions int64     `json:"activeSubscriptions"`
	HasBillingAccount   bool      `json:"hasBillingAccount"`
	CreatedAt           time.Time `json:"createdAt"`
	Role                string    `json:"role"`
}

type UserListResponse struct {
	Total int            `json:"total"`
	Users []UserResponse `json:"users"`
}

type RevenueByPlan struct {
	Starter float64 `json:"starter"`
	Pro     float64 `json:"pro"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type MetricsResponse struct {
	TotalTenants        int64         `json:"totalTenants"`
	TotalUsers          int64         `json:"totalUsers"`
	ActiveSubscriptions int64         `json:"activeSubscriptions"`
	MRR                 float64       `json:"mrr"`
	NewUsersLast30Days  int64         `json:"newUsersLast30Days"`
	ChurnRate           float64       `json:"churnRate"`
	RevenueByPlan       RevenueByPlan `json:"revenueByPlan"`
	UserGrowth          []DailyCount  `json:"userGrowth"`
}

type TenantRef struct {
	Name string `json:"name"`
	Plan string `json:"plan,omitempty"`
}

type AdminUserResponse struct {
	UserResponse
	Tenant *TenantRef `json:"tenant"`
}

type AdminUserListResponse struct {
	Total int                 `json:"total"`
	Users []AdminUserResponse `json:"users"`
}

type UserRef struct {
	Email string `json:"email"`
}

type AdminSubscriptionResponse struct {
	SubscriptionResponse
	TenantID uuid.UUID  `json:"tenantId"`
	UserID   uuid.UUID  `json:"userId"`
	Tenant   *TenantRef `json:"tenant"`
	User     *UserRef   `json:"user"`
}

type AdminSubscriptionListResponse struct {
	Total         int                         `json:"total"`
	Subscriptions []AdminSubscriptionResponse `json:"subscriptions"`
}
