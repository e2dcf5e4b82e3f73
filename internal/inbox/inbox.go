// Package inbox wraps the conversation and notification endpoints.
package inbox

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"rentoo/internal/apiclient"
	"rentoo/internal/domain"
	"rentoo/internal/logger"
)

var (
	ErrNotParty     = errors.New("only the renter or owner can message on a rental")
	ErrEmptyMessage = errors.New("message content is empty")
)

type MessagesClient interface {
	ForRental(ctx context.Context, rentalID string) ([]domain.Message, error)
	Send(ctx context.Context, req apiclient.MessageCreate) (*domain.Message, error)
	MarkRead(ctx context.Context, id string) error
}

type NotificationsClient interface {
	List(ctx context.Context, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id string) error
}

type Viewer interface {
	CurrentUser() *domain.User
}

type Inbox struct {
	messages      MessagesClient
	notifications NotificationsClient
	viewer        Viewer
}

func New(messages MessagesClient, notifications NotificationsClient, viewer Viewer) *Inbox {
	return &Inbox{messages: messages, notifications: notifications, viewer: viewer}
}

func (b *Inbox) Conversation(ctx context.Context, rentalID string) ([]domain.Message, error) {
	return b.messages.ForRental(ctx, rentalID)
}

// Send posts a text message to the other party of r.
func (b *Inbox) Send(ctx context.Context, r domain.Rental, content string) (*domain.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyMessage
	}

	user := b.viewer.CurrentUser()
	if user == nil {
		return nil, ErrNotParty
	}
	if _, ok := r.Party(user.ID); !ok {
		return nil, ErrNotParty
	}

	return b.messages.Send(ctx, apiclient.MessageCreate{
		RentalID:    r.ID,
		ReceiverID:  r.Counterparty(user.ID),
		Content:     content,
		MessageType: domain.MessageTypeText,
	})
}

func (b *Inbox) MarkMessageRead(ctx context.Context, id string) error {
	return b.messages.MarkRead(ctx, id)
}

func (b *Inbox) Notifications(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	return b.notifications.List(ctx, unreadOnly)
}

// MarkNotificationRead is idempotent from the caller's side: a notification
// that is already read or gone is not an error.
func (b *Inbox) MarkNotificationRead(ctx context.Context, id string) error {
	err := b.notifications.MarkRead(ctx, id)
	if err != nil && apiclient.StatusCode(err) == http.StatusNotFound {
		logger.Debug("Notification already read or removed", "notification_id", id)
		return nil
	}
	return err
}

// UnreadCount returns the number of unread notifications.
func (b *Inbox) UnreadCount(ctx context.Context) (int, error) {
	list, err := b.notifications.List(ctx, true)
	if err != nil {
		return 0, err
	}
	return len(list), nil
}
