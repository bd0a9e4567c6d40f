package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/backendkit/backendkit/internal/billing"
	"github.com/backendkit/backendkit/internal/notify"
	"github.com/backendkit/backendkit/internal/testutil"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg notify.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []notify.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]notify.Message(nil), m.sent...)
}

type fakeBilling struct {
	mu            sync.Mutex
	customers     int
	subscriptions map[string]*billing.Subscription
	nextSub       *billing.Subscription
	emails        map[string]string
	canceled      []string
	err           error
}

func newFakeBilling() *fakeBilling {
	return &fakeBilling{
		subscriptions: map[string]*billing.Subscription{},
		emails:        map[string]string{},
	}
}

func (f *fakeBilling) CreateCustomer(_ context.Context, email, _ string, _ map[string]string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.customers++
	id := fmt.Sprintf("cus_%d", f.customers)
	f.emails[id] = email
	return id, nil
}

func (f *fakeBilling) CreateSubscription(_ context.Context, params billing.SubscriptionParams) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	sub := f.nextSub
	if sub == nil {
		sub = &billing.Subscription{
			ID:            fmt.Sprintf("sub_%d", len(f.subscriptions)+1),
			Status:        "incomplete",
			Interval:      "month",
			IntervalCount: 1,
			ClientSecret:  "seti_secret",
		}
	}
	copied := *sub
	copied.CustomerID = params.CustomerID
	copied.PriceID = params.PriceID
	copied.Metadata = params.Metadata
	f.subscriptions[copied.ID] = &copied
	out := copied
	return &out, nil
}

func (f *fakeBilling) CancelAtPeriodEnd(_ context.Context, id string) (*billing.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.canceled = append(f.canceled, id)
	sub, ok := f.subscriptions[id]
	if !ok {
		return &billing.Subscription{ID: id, CancelAtPeriodEnd: true}, nil
	}
	sub.CancelAtPeriodEnd = true
	out := *sub
	return &out, nil
}

func (f *fakeBilling) CreatePortalSession(_ context.Context, customerID, returnURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "https://billing.test/session/" + customerID + "?return=" + returnURL, nil
}

func (f *fakeBilling) CustomerEmail(_ context.Context, customerID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.emails[customerID], nil
}

type fixture struct {
	db         *gorm.DB
	tokens     *TokenService
	mailer     *recordingMailer
	dispatcher *notify.Dispatcher
	emails     *EmailService
	auth       *AuthService
	billing    *fakeBilling
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := testutil.Config()
	f := &fixture{
		db:         testutil.NewDB(t),
		tokens:     NewTokenService(cfg.JWTSecret, cfg.JWTExpiry),
		mailer:     &recordingMailer{},
		dispatcher: notify.NewDispatcher(time.Second),
		billing:    newFakeBilling(),
	}
	f.emails = NewEmailService(f.mailer, f.dispatcher)
	f.auth = NewAuthService(f.db, f.tokens, f.emails)
	f.auth.cost = bcrypt.MinCost
	t.Cleanup(f.dispatcher.Wait)
	return f
}
