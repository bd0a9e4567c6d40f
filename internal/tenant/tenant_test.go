package tenant_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/backendkit/backendkit/internal/tenant"
	"github.com/backendkit/backendkit/internal/testutil"
)

func TestGenerateAPIKey_Format(t *testing.T) {
	t.Parallel()

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		key, err := tenant.GenerateAPIKey()
		if err != nil {
			t.Fatalf("GenerateAPIKey failed: %v", err)
		}
		if !tenant.ValidAPIKeyFormat(key) {
			t.Errorf("generated key has invalid format: %s", key)
		}
		if seen[key] {
			t.Errorf("duplicate key generated: %s", key)
		}
		seen[key] = true
	}
}

func TestValidAPIKeyFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		key  string
		want bool
	}{
		{"valid", "bk_" + repeat("a1", 32), true},
		{"empty", "", false},
		{"wrong prefix", "pk_" + repeat("a1", 32), false},
		{"too short", "bk_abc", false},
		{"uppercase hex", "bk_" + repeat("A1", 32), false},
		{"trailing data", "bk_" + repeat("a1", 32) + "x", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tenant.ValidAPIKeyFormat(tt.key); got != tt.want {
				t.Errorf("ValidAPIKeyFormat(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestDirectory_Resolve(t *testing.T) {
	db := testutil.NewDB(t)
	acme := testutil.CreateTenant(t, db, "Acme")

	dir, err := tenant.NewDirectory(db, time.Minute)
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	defer dir.Close()

	got, err := dir.Resolve(context.Background(), acme.APIKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got.ID != acme.ID || got.Name != "Acme" {
		t.Errorf("resolved wrong tenant: %+v", got)
	}

	unknown, _ := tenant.GenerateAPIKey()
	if _, err := dir.Resolve(context.Background(), unknown); !errors.Is(err, tenant.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound for unknown key, got %v", err)
	}

	if _, err := dir.Resolve(context.Background(), "not-a-key"); !errors.Is(err, tenant.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound for malformed key, got %v", err)
	}

	if _, err := dir.Resolve(context.Background(), ""); !errors.Is(err, tenant.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound for empty key, got %v", err)
	}
}

func TestDirectory_ResolveReturnsCopies(t *testing.T) {
	db := testutil.NewDB(t)
	acme := testutil.CreateTenant(t, db, "Acme")

	dir, err := tenant.NewDirectory(db, time.Minute)
	if err != nil {
		t.Fatalf("NewDirectory: %v", err)
	}
	defer dir.Close()

	first, err := dir.Resolve(context.Background(), acme.APIKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	first.Name = "mutated"

	second, err := dir.Resolve(context.Background(), acme.APIKey)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if second.Name != "Acme" {
		t.Errorf("caller mutation leaked into directory: %q", second.Name)
	}
}

func repeat(s string, n int) string {
	out := ""
	for i := 0; i < n; i++ {
		out += s
	}
	return out
}
