package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
	RoleOwner = "owner"
)

// User belongs to exactly one tenant. Email is unique within the tenant only.
// A user either has a PasswordHash or an OAuth identity, which decides the
// login flow.
type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_users_tenant_email" json:"tenantId"`
	Email         string    `gorm:"size:255;not null;uniqueIndex:idx_users_tenant_email" json:"email"`
	PasswordHash  *string   `gorm:"size:255" json:"-"`
	OAuthProvider *string   `gorm:"column:oauth_provider;size:50;uniqueIndex:idx_users_oauth" json:"oauthProvider"`
	OAuthID       *string   `gorm:"column:oauth_id;size:255;uniqueIndex:idx_users_oauth" json:"-"`
	EmailVerified bool      `gorm:"not null;default:false" json:"emailVerified"`
	Role          string    `gorm:"size:20;not null;default:'user'" json:"role"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
	Tenant        *Tenant   `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
