package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"

	"github.com/backendkit/backendkit/internal/metrics"
)

// StripeProvider implements Provider on top of the Stripe API.
type StripeProvider struct {
	api *client.API
}

func NewStripeProvider(secretKey string) *StripeProvider {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeProvider{api: api}
}

func (p *StripeProvider) CreateCustomer(ctx context.Context, email, name string, metadata map[string]string) (string, error) {
	params := &stripe.CustomerParams{
		Email: stripe.String(email),
		Name:  stripe.String(name),
	}
	params.Context = ctx
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	cus, err := p.api.Customers.New(params)
	observe("create_customer", err)
	if err != nil {
		return "", fmt.Errorf("stripe create customer: %w", err)
	}
	return cus.ID, nil
}

func (p *StripeProvider) CreateSubscription(ctx context.Context, in SubscriptionParams) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		Customer: stripe.String(in.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{Price: stripe.String(in.PriceID)},
		},
		PaymentBehavior: stripe.String("default_incomplete"),
		PaymentSettings: &stripe.SubscriptionPaymentSettingsParams{
			SaveDefaultPaymentMethod: stripe.String("on_subscription"),
		},
	}
	params.Context = ctx
	params.AddExpand("latest_invoice.payment_intent")
	params.AddExpand("pending_setup_intent")
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	sub, err := p.api.Subscriptions.New(params)
	observe("create_subscription", err)
	if err != nil {
		return nil, fmt.Errorf("stripe create subscription: %w", err)
	}
	return FromStripe(sub), nil
}

func (p *StripeProvider) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*Subscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	sub, err := p.api.Subscriptions.Update(subscriptionID, params)
	observe("cancel_subscription", err)
	if err != nil {
		return nil, fmt.Errorf("stripe cancel subscription: %w", err)
	}
	return FromStripe(sub), nil
}

func (p *StripeProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := p.api.BillingPortalSessions.New(params)
	observe("create_portal_session", err)
	if err != nil {
		return "", fmt.Errorf("stripe portal session: %w", err)
	}
	return sess.URL, nil
}

func (p *StripeProvider) CustomerEmail(ctx context.Context, customerID string) (string, error) {
	params := &stripe.CustomerParams{}
	params.Context = ctx

	cus, err := p.api.Customers.Get(customerID, params)
	observe("get_customer", err)
	if err != nil {
		return "", fmt.Errorf("stripe get customer: %w", err)
	}
	if cus.Deleted {
		return "", nil
	}
	return cus.Email, nil
}

// FromStripe converts a Stripe subscription, expanded or from a webhook
// payload, into the provider-neutral shape.
func FromStripe(s *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                s.ID,
		Status:            string(s.Status),
		CancelAtPeriodEnd: s.CancelAtPeriodEnd,
		Metadata:          s.Metadata,
	}
	if s.Customer != nil {
		out.CustomerID = s.Customer.ID
	}
	if s.CurrentPeriodStart > 0 {
		out.CurrentPeriodStart = time.Unix(s.CurrentPeriodStart, 0).UTC()
	}
	if s.CurrentPeriodEnd > 0 {
		out.CurrentPeriodEnd = time.Unix(s.CurrentPeriodEnd, 0).UTC()
	}

	if s.Items != nil && len(s.Items.Data) > 0 && s.Items.Data[0].Price != nil {
		price := s.Items.Data[0].Price
		out.PriceID = price.ID
		if price.Recurring != nil {
			out.Interval = string(price.Recurring.Interval)
			out.IntervalCount = price.Recurring.IntervalCount
		}
	}

	switch {
	case s.PendingSetupIntent != nil && s.PendingSetupIntent.ClientSecret != "":
		out.ClientSecret = s.PendingSetupIntent.ClientSecret
	case s.LatestInvoice != nil && s.LatestInvoice.PaymentIntent != nil:
		out.ClientSecret = s.LatestInvoice.PaymentIntent.ClientSecret
	}
	return out
}

func observe(op string, err error) {
	metrics.BillingCalls.WithLabelValues(op, metrics.Outcome(err)).Inc()
}
