package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/repository"
)

type messageService struct {
	messageRepo repository.MessageRepository
	rentalRepo  repository.RentalRepository
	userRepo    repository.UserRepository
	noteRepo    repository.NotificationRepository
	now         func() time.Time
}

func NewMessageService(
	messageRepo repository.MessageRepository,
	rentalRepo repository.RentalRepository,
	userRepo repository.UserRepository,
	noteRepo repository.NotificationRepository,
) MessageService {
	return &messageService{
		messageRepo: messageRepo,
		rentalRepo:  rentalRepo,
		userRepo:    userRepo,
		noteRepo:    noteRepo,
		now:         time.Now,
	}
}

func (s *messageService) Send(ctx context.Context, senderID string, in MessageInput) (*domain.Message, error) {
	var verr ValidationError
	if strings.TrimSpace(in.Content) == "" {
		verr.Add("content", "Message cannot be empty")
	}
	if in.MessageType == "" {
		in.MessageType = domain.MessageTypeText
	} else if in.MessageType != domain.MessageTypeText && in.MessageType != domain.MessageTypeImage {
		verr.Add("message_type", "Input should be 'text' or 'image'")
	}
	if err := verr.Err(); err != nil {
		return nil, err
	}

	rental, err := s.rentalRepo.GetByID(ctx, in.RentalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Rental not found")
	}
	if err != nil {
		return nil, err
	}
	if _, ok := rental.Party(senderID); !ok {
		return nil, forbidden("Not authorized to send message for this rental")
	}
	if _, ok := rental.Party(in.ReceiverID); !ok {
		return nil, invalid("Invalid receiver")
	}
	if in.ReceiverID == senderID {
		return nil, invalid("Cannot send message to yourself")
	}

	msg := &domain.Message{
		RentalID:    rental.ID,
		SenderID:    senderID,
		ReceiverID:  in.ReceiverID,
		Content:     in.Content,
		MessageType: in.MessageType,
	}
	if err := s.messageRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	name := "a user"
	if sender, err := s.userRepo.GetByID(ctx, senderID); err == nil {
		name = sender.Name
	}
	n := &domain.Notification{
		UserID:  in.ReceiverID,
		Type:    domain.NotificationNewMessage,
		Title:   "New message",
		Content: fmt.Sprintf("New message from %s", name),
	}
	if err := s.noteRepo.Create(ctx, n); err != nil {
		logger.Warn("Failed to create message notification", "messageID", msg.ID, "error", err)
	}
	return msg, nil
}

func (s *messageService) ListForRental(ctx context.Context, userID, rentalID string) ([]domain.Message, error) {
	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Rental not found")
	}
	if err != nil {
		return nil, err
	}
	if _, ok := rental.Party(userID); !ok {
		return nil, forbidden("Not authorized to view messages for this rental")
	}
	return s.messageRepo.ListByRental(ctx, rentalID)
}

// MarkRead is allowed for the receiver only and keeps the first read time.
func (s *messageService) MarkRead(ctx context.Context, userID, id string) error {
	msg, err := s.messageRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && msg.ReceiverID != userID) {
		return notFound("Message not found or not authorized")
	}
	if err != nil {
		return err
	}
	return s.messageRepo.MarkRead(ctx, id, s.now().UTC().Format(time.RFC3339))
}
