package services

import (
	"context"
	"fmt"
	"html"
	"time"

	"github.com/backendkit/backendkit/internal/notify"
)

// EmailService renders transactional emails and hands them to the
// dispatcher. Every method returns immediately; delivery errors end up in
// the log and nowhere else.
type EmailService struct {
	mailer     notify.Mailer
	dispatcher *notify.Dispatcher
}

func NewEmailService(mailer notify.Mailer, dispatcher *notify.Dispatcher) *EmailService {
	return &EmailService{mailer: mailer, dispatcher: dispatcher}
}

func (s *EmailService) SendWelcome(to string) <-chan error {
	return s.send("welcome_email", notify.Message{
		To:      to,
		Subject: "Welcome to BackendKit!",
		HTML: `<h1>Welcome there!</h1>
<p>Thanks for signing up to BackendKit.</p>
<p>You're now ready to start building amazing things.</p>
<p>If you have any questions, just reply to this email.</p>
<p>The BackendKit Team</p>`,
	})
}

func (s *EmailService) SendSubscriptionConfirmation(to, plan string) <-chan error {
	return s.send("subscription_confirmation_email", notify.Message{
		To:      to,
		Subject: "Subscription Confirmed!",
		HTML: fmt.Sprintf(`<h1>Subscription Confirmed</h1>
<p>Your <strong>%s</strong> subscription is now active!</p>
<p>You now have access to all the features of your plan.</p>
<p>The BackendKit Team</p>`, html.EscapeString(plan)),
	})
}

func (s *EmailService) SendPaymentFailed(to string) <-chan error {
	return s.send("payment_failed_email", notify.Message{
		To:      to,
		Subject: "Payment Failed - Action Required",
		HTML: `<h1>Payment Failed</h1>
<p>We couldn't process your payment for your BackendKit subscription.</p>
<p>Please update your payment method to continue using our service.</p>
<p>The BackendKit Team</p>`,
	})
}

// SendSubscriptionCanceledTo resolves the recipient inside the task, so a
// slow lookup never holds the caller. An empty address skips the send.
func (s *EmailService) SendSubscriptionCanceledTo(lookup func(ctx context.Context) (string, error), endDate time.Time) <-chan error {
	return s.dispatcher.Go("subscription_canceled_email", func(ctx context.Context) error {
		to, err := lookup(ctx)
		if err != nil {
			return err
		}
		if to == "" {
			return nil
		}
		return s.mailer.Send(ctx, canceledMessage(to, endDate))
	})
}

func canceledMessage(to string, endDate time.Time) notify.Message {
	return notify.Message{
		To:      to,
		Subject: "Subscription Canceled",
		HTML: fmt.Sprintf(`<h1>Subscription Canceled</h1>
<p>Your subscription has been canceled.</p>
<p>You'll continue to have access until <strong>%s</strong>.</p>
<p>The BackendKit Team</p>`, endDate.UTC().Format("January 2, 2006")),
	}
}

func (s *EmailService) send(kind string, msg notify.Message) <-chan error {
	return s.dispatcher.Go(kind, func(ctx context.Context) error {
		return s.mailer.Send(ctx, msg)
	})
}
