package dto

import "time"

type CreateSubscriptionRequest struct {
	PriceID string `json:"priceId"`
}

type CreateSubscriptionResponse struct {
	SubscriptionID string `json:"subscriptionId"`
	ClientSecret   string `json:"clientSecret"`
}

type SubscriptionResponse struct {
	ID                   string    `json:"id"`
	StripeSubscriptionID string    `json:"stripeSubscriptionId"`
	StripePriceID        string    `json:"stripePriceId"`
	Status               string    `json:"status"`
	CurrentPeriodStart   time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd     time.Time `json:"currentPeriodEnd"`
	CancelAtPeriodEnd    bool      `json:"cancelAtPeriodEnd"`
	CreatedAt            time.Time `json:"createdAt"`
}

type SubscriptionListResponse struct {
	Total         int                    `json:"total"`
	Subscriptions []SubscriptionResponse `json:"subscriptions"`
}

type CancelSubscriptionResponse struct {
	Message  string    `json:"message"`
	CancelAt time.Time `json:"cancelAt"`
}

type PortalRequest struct {
	ReturnURL string `json:"returnUrl"`
}

type PortalResponse struct {
	URL string `json:"url"`
}

type WebhookAck struct {
	Received bool `json:"received"`
}
