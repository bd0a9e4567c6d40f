// Package billing bridges the API to the external payment processor.
package billing

import (
	"context"
	"time"
)

// Subscription is the processor's view of a subscription, reduced to the
// fields the API stores.
type Subscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	Interval           string
	IntervalCount      int64
	ClientSecret       string
	Metadata           map[string]string
}

// SubscriptionParams describes a new incomplete subscription.
type SubscriptionParams struct {
	CustomerID string
	PriceID    string
	Metadata   map[string]string
}

// Provider is the port every billing call goes through.
type Provider interface {
	CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error)
	CreateSubscription(ctx context.Context, params SubscriptionParams) (*Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
	CustomerEmail(ctx context.Context, customerID string) (string, error)
}
