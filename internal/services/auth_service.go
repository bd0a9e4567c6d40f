package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/backendkit/backendkit/internal/metrics"
	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/tenant"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrSocialLoginRequired = errors.New("this account uses social login")
	ErrUserNotFound        = errors.New("user not found")
)

const (
	bcryptCost        = 12
	minPasswordLength = 8
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthResult is a user plus a freshly issued session token.
type AuthResult struct {
	User  *models.User
	Token string
}

type AuthService struct {
	db     *gorm.DB
	tokens *TokenService
	emails *EmailService
	cost   int
}

func NewAuthService(db *gorm.DB, tokens *TokenService, emails *EmailService) *AuthService {
	return &AuthService{
		db:     db,
		tokens: tokens,
		emails: emails,
		cost:   bcryptCost,
	}
}

func (s *AuthService) Register(ctx context.Context, tenantID uuid.UUID, email, password string) (*AuthResult, error) {
	result, err := s.register(ctx, tenantID, email, password)
	metrics.AuthOperations.WithLabelValues("register", outcome(err)).Inc()
	return result, err
}

func (s *AuthService) register(ctx context.Context, tenantID uuid.UUID, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if !emailPattern.MatchString(email) {
		return nil, invalid("a valid email is required")
	}
	if len(password) < minPasswordLength {
		return nil, invalid("password must be at least 8 characters")
	}

	db := s.db.WithContext(ctx)
	taken, err := s.emailTaken(db, tenantID, email)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	h := string(hash)

	role, err := s.roleFor(db, tenantID, email)
	if err != nil {
		return nil, err
	}

	user := models.User{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Email:        email,
		PasswordHash: &h,
		Role:         role,
	}
	if err := s.createUser(db, &user); err != nil {
		return nil, err
	}

	slog.Info("user registered", "tenant_id", tenantID.String(), "user_id", user.ID.String(), "role", role)
	s.emails.SendWelcome(user.Email)

	return s.result(&user)
}

func (s *AuthService) Login(ctx context.Context, tenantID uuid.UUID, email, password string) (*AuthResult, error) {
	result, err := s.login(ctx, tenantID, email, password)
	metrics.AuthOperations.WithLabelValues("login", outcome(err)).Inc()
	return result, err
}

func (s *AuthService) login(ctx context.Context, tenantID uuid.UUID, email, password string) (*AuthResult, error) {
	email = NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, invalid("email and password are required")
	}

	var user models.User
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID)).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if !user.HasPassword() {
		return nil, ErrSocialLoginRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.result(&user)
}

func (s *AuthService) Profile(ctx context.Context, tenantID, userID uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(tenantID)).First(&user, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &user, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, tenantID, userID uuid.UUID, current, next string) error {
	if current == "" || next == "" {
		return invalid("current and new password are required")
	}
	if len(next) < minPasswordLength {
		return invalid("new password must be at least 8 characters")
	}

	user, err := s.Profile(ctx, tenantID, userID)
	if err != nil {
		return err
	}
	if !user.HasPassword() {
		return ErrSocialLoginRequired
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(current)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.WithContext(ctx).Model(&models.User{}).
		Scopes(tenant.ForTenant(tenantID)).
		Where("id = ?", userID).
		Update("password_hash", string(hash)).Error
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) result(user *models.User) (*AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.TenantID, user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) emailTaken(db *gorm.DB, tenantID uuid.UUID, email string) (bool, error) {
	var count int64
	if err := db.Model(&models.User{}).Scopes(tenant.ForTenant(tenantID)).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return count > 0, nil
}

// roleFor makes the tenant's contact email the owner account.
func (s *AuthService) roleFor(db *gorm.DB, tenantID uuid.UUID, email string) (string, error) {
	var t models.Tenant
	if err := db.Select("id", "owner_email").First(&t, "id = ?", tenantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", tenant.ErrTenantNotFound
		}
		return "", fmt.Errorf("failed to load tenant: %w", err)
	}
	if t.OwnerEmail != "" && NormalizeEmail(t.OwnerEmail) == email {
		return models.RoleOwner, nil
	}
	return models.RoleUser, nil
}

// createUser inserts user, reporting a lost race on the (tenant, email)
// index as ErrEmailTaken.
func (s *AuthService) createUser(db *gorm.DB, user *models.User) error {
	if err := db.Create(user).Error; err != nil {
		if taken, _ := s.emailTaken(db, user.TenantID, user.Email); taken {
			return ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

// outcome labels auth metrics with the sentinel that ended the operation.
func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrOAuthAccountConflict):
		return "conflict"
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrSocialLoginRequired), errors.Is(err, ErrInvalidState):
		return "rejected"
	default:
		return "error"
	}
}
