// Package notify sends the rental emails that accompany in-app notifications.
package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
)

// Notifier delivers out-of-band messages about rental requests.
type Notifier interface {
	// RentalRequested tells the owner someone asked to rent their item.
	RentalRequested(ctx context.Context, owner, renter domain.User, item domain.Item, rental domain.Rental) error
	// RentalDecided tells the renter whether the owner confirmed or rejected.
	RentalDecided(ctx context.Context, renter, owner domain.User, item domain.Item, rental domain.Rental) error
}

// New returns a SendGrid notifier when apiKey is set and a log-only one otherwise.
func New(apiKey, fromEmail, fromName string) Notifier {
	if apiKey == "" {
		return LogNotifier{}
	}
	return NewSendGridNotifier(apiKey, fromEmail, fromName)
}

type SendGridNotifier struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
}

func NewSendGridNotifier(apiKey, fromEmail, fromName string) *SendGridNotifier {
	return &SendGridNotifier{
		client:    sendgrid.NewSendClient(apiKey),
		fromEmail: fromEmail,
		fromName:  fromName,
	}
}

func (s *SendGridNotifier) RentalRequested(ctx context.Context, owner, renter domain.User, item domain.Item, rental domain.Rental) error {
	return s.send(ctx, requestedMail(s.from(), owner, renter, item, rental))
}

func (s *SendGridNotifier) RentalDecided(ctx context.Context, renter, owner domain.User, item domain.Item, rental domain.Rental) error {
	return s.send(ctx, decidedMail(s.from(), renter, owner, item, rental))
}

func (s *SendGridNotifier) from() *mail.Email {
	return mail.NewEmail(s.fromName, s.fromEmail)
}

func (s *SendGridNotifier) send(ctx context.Context, message *mail.SGMailV3) error {
	logger.ExternalServiceCall("SendGrid", "Send", "subject", message.Subject)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 400 {
		err = fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
		logger.ExternalServiceResult("SendGrid", "Send", err)
		return err
	}
	logger.ExternalServiceResult("SendGrid", "Send", nil, "status", response.StatusCode)
	return nil
}

func requestedMail(from *mail.Email, owner, renter domain.User, item domain.Item, rental domain.Rental) *mail.SGMailV3 {
	subject := fmt.Sprintf("New rental request for %s", item.Title)
	body := fmt.Sprintf("Hello %s,\n\n%s wants to rent your item '%s' from %s to %s (total %.2f).\n\nOpen your rentals to confirm or reject the request.\n\nThe Rentoo Team",
		owner.Name, renter.Name, item.Title, rental.StartDate, rental.EndDate, rental.TotalPrice)
	return mail.NewSingleEmail(from, subject, mail.NewEmail(owner.Name, owner.Email), body, "")
}

func decidedMail(from *mail.Email, renter, owner domain.User, item domain.Item, rental domain.Rental) *mail.SGMailV3 {
	outcome := "rejected"
	if rental.Status == domain.RentalStatusConfirmed {
		outcome = "confirmed"
	}
	subject := fmt.Sprintf("Your rental of %s was %s", item.Title, outcome)
	body := fmt.Sprintf("Hello %s,\n\n%s %s your request to rent '%s' from %s to %s.\n\nThe Rentoo Team",
		renter.Name, owner.Name, outcome, item.Title, rental.StartDate, rental.EndDate)
	return mail.NewSingleEmail(from, subject, mail.NewEmail(renter.Name, renter.Email), body, "")
}

// LogNotifier records the emails it would have sent.
type LogNotifier struct{}

func (LogNotifier) RentalRequested(_ context.Context, owner, renter domain.User, item domain.Item, rental domain.Rental) error {
	logger.WithService("notify").Info("Rental request email skipped", "to", owner.Email, "renter", renter.Name, "itemID", item.ID, "rentalID", rental.ID)
	return nil
}

func (LogNotifier) RentalDecided(_ context.Context, renter, owner domain.User, item domain.Item, rental domain.Rental) error {
	logger.WithService("notify").Info("Rental decision email skipped", "to", renter.Email, "owner", owner.Name, "itemID", item.ID, "status", rental.Status)
	return nil
}
