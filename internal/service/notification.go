package service

import (
	"context"
	"errors"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
	now      func() time.Time
}

func NewNotificationService(noteRepo repository.NotificationRepository) NotificationService {
	return &notificationService{noteRepo: noteRepo, now: time.Now}
}

func (s *notificationService) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	return s.noteRepo.List(ctx, userID, unreadOnly)
}

// MarkRead succeeds again on an already read notification.
func (s *notificationService) MarkRead(ctx context.Context, userID, id string) error {
	n, err := s.noteRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && n.UserID != userID) {
		return notFound("Notification not found or not authorized")
	}
	if err != nil {
		return err
	}
	if n.IsRead() {
		return nil
	}
	return s.noteRepo.MarkRead(ctx, id, s.now().UTC().Format(time.RFC3339))
}
