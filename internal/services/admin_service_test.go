package services

import (
	"context"
	"testing"
	"time"

	"github.com/backendkit/backendkit/internal/models"
	"github.com/backendkit/backendkit/internal/testutil"
)

func TestAdminMetrics(t *testing.T) {
	f := newFixture(t)
	svc := NewAdminService(f.db, testutil.Config().PriceTable())

	acme := testutil.CreateTenant(t, f.db, "Acme")
	globex := testutil.CreateTenant(t, f.db, "Globex")
	a := testutil.CreateUser(t, f.db, acme.ID, "a@acme.com", "LongEnough1", models.RoleUser)
	b := testutil.CreateUser(t, f.db, globex.ID, "b@globex.com", "LongEnough1", models.RoleUser)
	old := testutil.CreateUser(t, f.db, globex.ID, "old@globex.com", "LongEnough1", models.RoleUser)
	f.db.Model(old).Update("created_at", time.Now().AddDate(0, 0, -90))

	testutil.CreateSubscription(t, f.db, acme.ID, a.ID, "sub_1", models.SubscriptionActive)
	starter := testutil.CreateSubscription(t, f.db, globex.ID, b.ID, "sub_2", models.SubscriptionActive)
	f.db.Model(starter).Update("stripe_price_id", testutil.PriceStarter)
	canceled := testutil.CreateSubscription(t, f.db, globex.ID, b.ID, "sub_3", models.SubscriptionCanceled)
	f.db.Model(canceled).Update("cancel_at_period_end", true)

	m, err := svc.Metrics(context.Background())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	if m.TotalTenants != 2 || m.TotalUsers != 3 {
		t.Errorf("unexpected totals: tenants=%d users=%d", m.TotalTenants, m.TotalUsers)
	}
	if m.ActiveSubscriptions != 2 {
		t.Errorf("expected 2 active subscriptions, got %d", m.ActiveSubscriptions)
	}
	if m.MRR != 39.98 {
		t.Errorf("expected mrr 39.98, got %v", m.MRR)
	}
	if m.RevenueByPlan.Starter != 9.99 || m.RevenueByPlan.Pro != 29.99 {
		t.Errorf("unexpected revenue by plan: %+v", m.RevenueByPlan)
	}
	if m.NewUsersLast30Days != 2 {
		t.Errorf("expected 2 new users, got %d", m.NewUsersLast30Days)
	}
	if m.ChurnRate != 33.33 {
		t.Errorf("expected churn 33.33, got %v", m.ChurnRate)
	}

	if len(m.UserGrowth) != 30 {
		t.Fatalf("expected 30 daily buckets, got %d", len(m.UserGrowth))
	}
	today := time.Now().UTC().Format(time.DateOnly)
	if last := m.UserGrowth[29]; last.Date != today || last.Count != 2 {
		t.Errorf("expected today's bucket to hold 2 signups, got %+v", last)
	}
	if m.UserGrowth[0].Count != 0 {
		t.Errorf("expected zero-filled oldest bucket, got %+v", m.UserGrowth[0])
	}
}

func TestAdminMetrics_EmptyStore(t *testing.T) {
	f := newFixture(t)
	m, err := NewAdminService(f.db, testutil.Config().PriceTable()).Metrics(context.Background())
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if m.ChurnRate != 0 || m.MRR != 0 || len(m.UserGrowth) != 30 {
		t.Errorf("unexpected metrics for empty store: %+v", m)
	}
}

func TestDailyBuckets(t *testing.T) {
	start := time.Date(2024, 2, 27, 0, 0, 0, 0, time.UTC)
	times := []time.Time{
		time.Date(2024, 2, 27, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 1, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 2, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
	}

	got := dailyBuckets(start, 3, times)
	want := []DailyCount{{"2024-02-27", 1}, {"2024-02-28", 0}, {"2024-02-29", 2}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("bucket %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestAdminListings(t *testing.T) {
	f := newFixture(t)
	svc := NewAdminService(f.db, testutil.Config().PriceTable())
	acme := testutil.CreateTenant(t, f.db, "Acme")
	user := testutil.CreateUser(t, f.db, acme.ID, "a@acme.com", "LongEnough1", models.RoleUser)
	testutil.CreateSubscription(t, f.db, acme.ID, user.ID, "sub_1", models.SubscriptionActive)

	users, err := svc.Users(context.Background())
	if err != nil || len(users) != 1 {
		t.Fatalf("users: %v (%d)", err, len(users))
	}
	if users[0].Tenant == nil || users[0].Tenant.Name != "Acme" {
		t.Errorf("expected tenant preloaded, got %+v", users[0].Tenant)
	}

	subs, err := svc.Subscriptions(context.Background())
	if err != nil || len(subs) != 1 {
		t.Fatalf("subscriptions: %v (%d)", err, len(subs))
	}
	if subs[0].Tenant == nil || subs[0].User == nil || subs[0].User.Email != "a@acme.com" {
		t.Errorf("expected tenant and user preloaded, got %+v", subs[0])
	}
}
