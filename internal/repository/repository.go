package repository

import (
	"context"
	"errors"

	"rentoo/internal/domain"
)

// ErrNotFound is returned by every repository when the row does not exist.
var ErrNotFound = errors.New("record not found")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
}

type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	List(ctx context.Context) ([]domain.Category, error)
}

// ItemSearch filters the public listing. Only active items are returned.
type ItemSearch struct {
	Query     string
	Category  string
	MinPrice  *float64
	MaxPrice  *float64
	Location  string
	SortBy    string // created_at or price
	SortOrder string // asc or desc
	Page      int
	Limit     int
}

type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	Update(ctx context.Context, item *domain.Item) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Item, error)
	Search(ctx context.Context, s ItemSearch) ([]domain.Item, error)
}

type RentalRepository interface {
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id string) (*domain.Rental, error)
	Update(ctx context.Context, rental *domain.Rental) error
	// ListForUser returns rentals where the user is the renter, the owner or
	// either, newest first.
	ListForUser(ctx context.Context, userID string, role domain.Role) ([]domain.Rental, error)
	// HasOverlap reports whether a confirmed or in-progress rental of the item
	// intersects [start, end].
	HasOverlap(ctx context.Context, itemID, start, end string) (bool, error)
	// ListStartable returns confirmed rentals whose start date is on or before date.
	ListStartable(ctx context.Context, date string) ([]domain.Rental, error)
}

type MessageRepository interface {
	Create(ctx context.Context, m *domain.Message) error
	GetByID(ctx context.Context, id string) (*domain.Message, error)
	ListByRental(ctx context.Context, rentalID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, id, readAt string) error
}

type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, readAt string) error
}

// Store groups every repository behind one backend.
type Store struct {
	Users         UserRepository
	Categories    CategoryRepository
	Items         ItemRepository
	Rentals       RentalRepository
	Messages      MessageRepository
	Notifications NotificationRepository

	// Ping checks the backing store; nil means always healthy.
	Ping func(ctx context.Context) error
}
