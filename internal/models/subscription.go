package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SubscriptionActive   = "active"
	SubscriptionCanceled = "canceled"
	SubscriptionPastDue  = "past_due"
	SubscriptionTrialing = "trialing"
)

// Subscription mirrors a Stripe subscription. Status is only as fresh as the
// last webhook delivery.
type Subscription struct {
	ID                   uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID             uuid.UUID `gorm:"type:uuid;not null;index" json:"tenantId"`
	UserID               uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	StripeSubscriptionID string    `gorm:"size:255;not null;uniqueIndex" json:"stripeSubscriptionId"`
	StripePriceID        string    `gorm:"size:255;not null" json:"stripePriceId"`
	Status               string    `gorm:"size:50;not null;index" json:"status"`
	CurrentPeriodStart   time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool      `gorm:"not null;default:false" json:"cancelAtPeriodEnd"`
	CreatedAt            time.Time `json:"createdAt"`
	UpdatedAt            time.Time `json:"updatedAt"`
	Tenant               *Tenant   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	User                 *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
