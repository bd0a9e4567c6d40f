package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidOrExpiredToken = errors.New("invalid or expired token")

const oauthStateExpiry = 10 * time.Minute

// Claims is the payload of a session token.
type Claims struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}

type stateClaims struct {
	TenantID string `json:"tenantId"`
	Provider string `json:"provider"`
	jwt.RegisteredClaims
}

// TokenService mints and verifies stateless HS256 session tokens. There is no
// revocation list: a token is valid until it expires.
type TokenService struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewTokenService(secret string, expiry time.Duration) *TokenService {
	return &TokenService{
		secret: []byte(secret),
		expiry: expiry,
		now:    time.Now,
	}
}

func (s *TokenService) Issue(userID, tenantID uuid.UUID, email string) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   userID.String(),
		TenantID: tenantID.String(),
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	if err := s.parse(tokenString, claims); err != nil {
		return nil, err
	}
	if _, err := uuid.Parse(claims.UserID); err != nil {
		return nil, ErrInvalidOrExpiredToken
	}
	if _, err := uuid.Parse(claims.TenantID); err != nil {
		return nil, ErrInvalidOrExpiredToken
	}
	return claims, nil
}

// IssueState signs the OAuth state parameter that carries the tenant id
// through the provider round-trip.
func (s *TokenService) IssueState(tenantID uuid.UUID, provider string) (string, error) {
	now := s.now()
	claims := stateClaims{
		TenantID: tenantID.String(),
		Provider: provider,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(oauthStateExpiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyState returns the tenant id carried by a state issued for provider.
func (s *TokenService) VerifyState(state, provider string) (uuid.UUID, error) {
	claims := &stateClaims{}
	if err := s.parse(state, claims); err != nil {
		return uuid.Nil, err
	}
	if claims.Provider != provider {
		return uuid.Nil, ErrInvalidOrExpiredToken
	}
	tenantID, err := uuid.Parse(claims.TenantID)
	if err != nil {
		return uuid.Nil, ErrInvalidOrExpiredToken
	}
	return tenantID, nil
}

func (s *TokenService) Secret() []byte {
	return s.secret
}

func (s *TokenService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return ErrInvalidOrExpiredToken
	}
	return nil
}
