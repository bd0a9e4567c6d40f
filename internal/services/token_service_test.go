package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

func TestTokenService_RoundTrip(t *testing.T) {
	svc := NewTokenService("secret", 7*24*time.Hour)
	userID, tenantID := uuid.New(), uuid.New()

	token, err := svc.Issue(userID, tenantID, "u@acme.com")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != userID.String() || claims.TenantID != tenantID.String() || claims.Email != "u@acme.com" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 7*24*time.Hour {
		t.Errorf("expected 7d lifetime, got %s", got)
	}
}

func TestTokenService_RejectsTamperedSignature(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, _ := svc.Issue(uuid.New(), uuid.New(), "u@acme.com")

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	if sig[0] == 'A' {
		sig[0] = 'B'
	} else {
		sig[0] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := svc.Verify(tampered); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("expected ErrInvalidOrExpiredToken, got %v", err)
	}

	other := NewTokenService("other-secret", time.Hour)
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("expected token from another secret to fail, got %v", err)
	}
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	issuedAt := time.Now().Add(-2 * time.Hour)
	svc.now = func() time.Time { return issuedAt }
	token, _ := svc.Issue(uuid.New(), uuid.New(), "u@acme.com")

	svc.now = time.Now
	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("expected expired token to fail, got %v", err)
	}
}

func TestTokenService_RejectsOtherAlgorithms(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	claims := Claims{
		UserID:   uuid.NewString(),
		TenantID: uuid.NewString(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	hs512, _ := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	if _, err := svc.Verify(hs512); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("expected HS512 token to fail, got %v", err)
	}

	none, _ := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if _, err := svc.Verify(none); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("expected unsigned token to fail, got %v", err)
	}
}

func TestTokenService_RequiresExpiry(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	token, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:   uuid.NewString(),
		TenantID: uuid.NewString(),
	}).SignedString([]byte("secret"))

	if _, err := svc.Verify(token); !errors.Is(err, ErrInvalidOrExpiredToken) {
		t.Errorf("expected token without exp to fail, got %v", err)
	}
}

func TestTokenService_State(t *testing.T) {
	svc := NewTokenService("secret", time.Hour)
	tenantID := uuid.New()

	state, err := svc.IssueState(tenantID, ProviderGoogle)
	if err != nil {
		t.Fatalf("issue state: %v", err)
	}

	got, err := svc.VerifyState(state, ProviderGoogle)
	if err != nil || got != tenantID {
		t.Fatalf("expected %s, got %s (%v)", tenantID, got, err)
	}
	if _, err := svc.VerifyState(state, ProviderGitHub); err == nil {
		t.Error("state issued for google must not verify for github")
	}

	svc.now = func() time.Time { return time.Now().Add(-11 * time.Minute) }
	stale, _ := svc.IssueState(tenantID, ProviderGoogle)
	svc.now = time.Now
	if _, err := svc.VerifyState(stale, ProviderGoogle); err == nil {
		t.Error("expected state older than 10 minutes to fail")
	}
}
