package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/backendkit/backendkit/internal/metrics"
	"github.com/backendkit/backendkit/internal/models"
)

var (
	ErrUnknownProvider       = errors.New("unknown oauth provider")
	ErrProviderNotConfigured = errors.New("oauth provider not configured")
	ErrInvalidState          = errors.New("invalid or expired oauth state")
	ErrOAuthAccountConflict  = errors.New("oauth account belongs to another tenant")
	ErrOAuthEmailMissing     = errors.New("oauth provider returned no email")
)

// OAuthService signs users in through an external identity provider. The
// tenant travels through the provider round-trip inside the signed state.
type OAuthService struct {
	auth      *AuthService
	providers map[string]OAuthProvider
}

// NewOAuthService registers providers by name; nil entries mark a provider
// as known but not configured.
func NewOAuthService(auth *AuthService, providers map[string]OAuthProvider) *OAuthService {
	return &OAuthService{auth: auth, providers: providers}
}

func (s *OAuthService) provider(name string) (OAuthProvider, error) {
	p, known := s.providers[name]
	if !known {
		return nil, ErrUnknownProvider
	}
	if p == nil {
		return nil, ErrProviderNotConfigured
	}
	return p, nil
}

// AuthURL returns the consent URL for name with a state bound to tenantID.
func (s *OAuthService) AuthURL(tenantID uuid.UUID, name string) (string, error) {
	p, err := s.provider(name)
	if err != nil {
		return "", err
	}
	state, err := s.auth.tokens.IssueState(tenantID, name)
	if err != nil {
		return "", fmt.Errorf("failed to sign state: %w", err)
	}
	return p.AuthURL(state), nil
}

func (s *OAuthService) Callback(ctx context.Context, name, code, state string) (*AuthResult, error) {
	result, err := s.callback(ctx, name, code, state)
	metrics.AuthOperations.WithLabelValues("oauth_"+name, outcome(err)).Inc()
	return result, err
}

func (s *OAuthService) callback(ctx context.Context, name, code, state string) (*AuthResult, error) {
	p, err := s.provider(name)
	if err != nil {
		return nil, err
	}
	if code == "" || state == "" {
		return nil, invalid("code and state are required")
	}

	tenantID, err := s.auth.tokens.VerifyState(state, name)
	if err != nil {
		return nil, ErrInvalidState
	}

	identity, err := p.Identify(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s login failed: %w", name, err)
	}
	if identity.Subject == "" {
		return nil, fmt.Errorf("%s login failed: empty subject", name)
	}

	user, err := s.findOrCreate(ctx, tenantID, name, identity)
	if err != nil {
		return nil, err
	}
	return s.auth.result(user)
}

func (s *OAuthService) findOrCreate(ctx context.Context, tenantID uuid.UUID, provider string, identity *OAuthIdentity) (*models.User, error) {
	db := s.auth.db.WithContext(ctx)

	// The (provider, subject) pair is unique across tenants.
	var existing models.User
	err := db.Where("oauth_provider = ? AND oauth_id = ?", provider, identity.Subject).First(&existing).Error
	switch {
	case err == nil:
		if existing.TenantID != tenantID {
			return nil, ErrOAuthAccountConflict
		}
		return &existing, nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	email := NormalizeEmail(identity.Email)
	if email == "" {
		return nil, ErrOAuthEmailMissing
	}

	taken, err := s.auth.emailTaken(db, tenantID, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	role, err := s.auth.roleFor(db, tenantID, email)
	if err != nil {
		return nil, err
	}

	subject := identity.Subject
	user := models.User{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Email:         email,
		OAuthProvider: &provider,
		OAuthID:       &subject,
		EmailVerified: true,
		Role:          role,
	}
	if err := s.auth.createUser(db, &user); err != nil {
		return nil, err
	}

	slog.Info("user registered", "tenant_id", tenantID.String(), "user_id", user.ID.String(), "provider", provider)
	s.auth.emails.SendWelcome(user.Email)
	return &user, nil
}
