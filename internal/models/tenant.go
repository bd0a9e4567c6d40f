package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant is an isolated customer organization. APIKey is issued once at
// provisioning and never changes.
type Tenant struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name             string    `gorm:"size:255;not null" json:"name"`
	APIKey           string    `gorm:"size:80;not null;uniqueIndex" json:"-"`
	Plan             string    `gorm:"size:50;not null;default:'starter'" json:"plan"`
	OwnerEmail       string    `gorm:"size:255" json:"-"`
	StripeCustomerID *string   `gorm:"size:255" json:"-"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Users            []User    `gorm:"foreignKey:TenantID" json:"-"`
}
