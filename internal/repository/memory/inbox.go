package memory

import (
	"context"

	"github.com/google/uuid"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type messageRepository struct{ d *db }

func (r *messageRepository) Create(_ context.Context, m *domain.Message) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = r.d.now()
	m.ReadAt = nil
	r.d.messages[m.ID] = record[domain.Message]{seq: r.d.next(), v: *m}
	return nil
}

func (r *messageRepository) GetByID(_ context.Context, id string) (*domain.Message, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	rec, ok := r.d.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m := rec.v
	return &m, nil
}

func (r *messageRepository) ListByRental(_ context.Context, rentalID string) ([]domain.Message, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var rs []record[domain.Message]
	for _, rec := range r.d.messages {
		if rec.v.RentalID == rentalID {
			rs = append(rs, rec)
		}
	}
	return oldestFirst(rs), nil
}

func (r *messageRepository) MarkRead(_ context.Context, id, readAt string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rec, ok := r.d.messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	if rec.v.ReadAt == nil {
		rec.v.ReadAt = &readAt
		r.d.messages[id] = rec
	}
	return nil
}

type notificationRepository struct{ d *db }

func (r *notificationRepository) Create(_ context.Context, n *domain.Notification) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = r.d.now()
	n.ReadAt = nil
	r.d.notifications[n.ID] = record[domain.Notification]{seq: r.d.next(), v: *n}
	return nil
}

func (r *notificationRepository) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	rec, ok := r.d.notifications[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	n := rec.v
	return &n, nil
}

func (r *notificationRepository) List(_ context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var rs []record[domain.Notification]
	for _, rec := range r.d.notifications {
		if rec.v.UserID != userID || (unreadOnly && rec.v.ReadAt != nil) {
			continue
		}
		rs = append(rs, rec)
	}
	return newestFirst(rs), nil
}

func (r *notificationRepository) MarkRead(_ context.Context, id, readAt string) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rec, ok := r.d.notifications[id]
	if !ok {
		return repository.ErrNotFound
	}
	if rec.v.ReadAt == nil {
		rec.v.ReadAt = &readAt
		r.d.notifications[id] = rec
	}
	return nil
}
