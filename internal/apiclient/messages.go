package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"rentoo/internal/domain"
)

type MessageCreate struct {
	RentalID    string             `json:"rental_id"`
	ReceiverID  string             `json:"receiver_id"`
	Content     string             `json:"content"`
	MessageType domain.MessageType `json:"message_type"`
}

// MessagesAPI covers /api/messages.
type MessagesAPI struct {
	p *Pipeline
}

func (m *MessagesAPI) ForRental(ctx context.Context, rentalID string) ([]domain.Message, error) {
	resp, err := m.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/messages/rental/" + rentalID})
	if err != nil {
		return nil, err
	}
	var out []domain.Message
	if err := decodeEntities(resp.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MessagesAPI) Send(ctx context.Context, req MessageCreate) (*domain.Message, error) {
	if req.MessageType == "" {
		req.MessageType = domain.MessageTypeText
	}
	resp, err := m.p.Do(ctx, Request{Method: http.MethodPost, Path: "/api/messages", Body: req})
	if err != nil {
		return nil, err
	}
	var msg domain.Message
	if err := decodeEntity(resp.Body, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *MessagesAPI) MarkRead(ctx context.Context, id string) error {
	_, err := m.p.Do(ctx, Request{Method: http.MethodPut, Path: "/api/messages/" + id + "/read"})
	return err
}

// NotificationsAPI covers /api/notifications.
type NotificationsAPI struct {
	p *Pipeline
}

func (n *NotificationsAPI) List(ctx context.Context, unreadOnly bool) ([]domain.Notification, error) {
	var query url.Values
	if unreadOnly {
		query = url.Values{"unread_only": {"true"}}
	}
	resp, err := n.p.Do(ctx, Request{Method: http.MethodGet, Path: "/api/notifications", Query: query})
	if err != nil {
		return nil, err
	}
	var out []domain.Notification
	if err := decodeEntities(resp.Body, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *NotificationsAPI) MarkRead(ctx context.Context, id string) error {
	_, err := n.p.Do(ctx, Request{Method: http.MethodPut, Path: "/api/notifications/" + id + "/read"})
	return err
}
