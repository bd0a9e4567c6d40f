package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/tenant"
	"github.com/backendkit/backendkit/internal/testutil"
)

func TestProvision(t *testing.T) {
	f := newFixture(t)
	svc := NewTenantService(f.db)

	created, err := svc.Provision(context.Background(), " Acme ", "A@Acme.com")
	if err != nil {
		t.Fatalf("provision: %v", err)
	}
	if created.Name != "Acme" || created.Plan != "starter" || created.OwnerEmail != "a@acme.com" {
		t.Errorf("unexpected tenant: %+v", created)
	}
	if !tenant.ValidAPIKeyFormat(created.APIKey) {
		t.Errorf("api key has wrong format: %s", created.APIKey)
	}

	other, _ := svc.Provision(context.Background(), "Globex", "g@globex.com")
	if other.APIKey == created.APIKey {
		t.Error("api keys must be unique")
	}

	if _, err := svc.Provision(context.Background(), "", "a@acme.com"); !errors.Is(err, ErrValidation) {
		t.Errorf("missing name: expected ErrValidation, got %v", err)
	}
	if _, err := svc.Provision(context.Background(), "Acme", "nope"); !errors.Is(err, ErrValidation) {
		t.Errorf("bad email: expected ErrValidation, got %v", err)
	}
}

func TestTenantList(t *testing.T) {
	f := newFixture(t)
	svc := NewTenantService(f.db)
	acme := testutil.CreateTenant(t, f.db, "Acme")
	testutil.CreateTenant(t, f.db, "Empty")
	testutil.CreateUser(t, f.db, acme.ID, "a@acme.com", "LongEnough1", models.RoleUser)
	testutil.CreateUser(t, f.db, acme.ID, "b@acme.com", "LongEnough1", models.RoleUser)

	list, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tenants, got %d", len(list))
	}
	counts := map[string]int64{}
	for _, s := range list {
		counts[s.Name] = s.UserCount
	}
	if counts["Acme"] != 2 || counts["Empty"] != 0 {
		t.Errorf("unexpected user counts: %v", counts)
	}
}

func TestTenantOverviewAndMembers(t *testing.T) {
	f := newFixture(t)
	svc := NewTenantService(f.db)
	acme := testutil.CreateTenant(t, f.db, "Acme")
	globex := testutil.CreateTenant(t, f.db, "Globex")
	a := testutil.CreateUser(t, f.db, acme.ID, "a@acme.com", "LongEnough1", models.RoleOwner)
	testutil.CreateUser(t, f.db, globex.ID, "g@globex.com", "LongEnough1", models.RoleUser)
	testutil.CreateSubscription(t, f.db, acme.ID, a.ID, "sub_1", models.SubscriptionActive)
	ctx := context.Background()

	ov, err := svc.Overview(ctx, acme.ID)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if ov.UserCount != 1 || ov.ActiveSubscriptions != 1 || ov.HasBillingAccount {
		t.Errorf("unexpected overview: %+v", ov)
	}
	if _, err := svc.Overview(ctx, uuid.New()); !errors.Is(err, tenant.ErrTenantNotFound) {
		t.Errorf("expected ErrTenantNotFound, got %v", err)
	}

	users, err := svc.Users(ctx, acme.ID)
	if err != nil || len(users) != 1 || users[0].Email != "a@acme.com" {
		t.Errorf("users must be scoped to the tenant: %+v, %v", users, err)
	}

	member, err := svc.Member(ctx, acme.ID, a.ID)
	if err != nil || member.Tenant == nil || member.Tenant.ID != acme.ID {
		t.Fatalf("member: %+v, %v", member, err)
	}
	if _, err := svc.Member(ctx, globex.ID, a.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("cross-tenant member: expected ErrUserNotFound, got %v", err)
	}
}
