package billing

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	// ErrMalformedEvent means the signature checked out but the event
	// object could not be decoded.
	ErrMalformedEvent = errors.New("malformed webhook event")
)

const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
)

// Invoice carries the invoice fields the webhook handlers act on.
type Invoice struct {
	ID             string
	SubscriptionID string
	CustomerID     string
	CustomerEmail  string
	PriceID        string
}

// Event is a verified webhook event. Exactly one of Subscription and Invoice
// is set for the event types the API handles; both are nil otherwise.
type Event struct {
	ID           string
	Type         string
	Subscription *Subscription
	Invoice      *Invoice
}

// ParseEvent verifies the signature header against the raw payload and
// decodes the event. payload must be the exact bytes received.
func ParseEvent(payload []byte, signature, secret string) (*Event, error) {
	if signature == "" {
		return nil, ErrInvalidSignature
	}

	evt, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: decode subscription: %v", ErrMalformedEvent, err)
		}
		out.Subscription = FromStripe(&sub)

	case EventPaymentSucceeded, EventPaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(evt.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: decode invoice: %v", ErrMalformedEvent, err)
		}
		out.Invoice = fromStripeInvoice(&inv)
	}
	return out, nil
}

func fromStripeInvoice(inv *stripe.Invoice) *Invoice {
	out := &Invoice{ID: inv.ID, CustomerEmail: inv.CustomerEmail}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line.Price != nil && line.Price.ID != "" {
				out.PriceID = line.Price.ID
				break
			}
		}
	}
	return out
}
