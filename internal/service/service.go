package service

import (
	"context"
	"io"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type AuthService interface {
	Register(ctx context.Context, email, name, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	// Authenticate resolves an access token to its user.
	Authenticate(ctx context.Context, accessToken string) (*domain.User, error)
}

type LoginResult struct {
	AccessToken  string
	RefreshToken string
	User         *domain.User
}

type UserService interface {
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, actorID, id string, upd UserUpdate) (*domain.User, error)
}

type UserUpdate struct {
	Name      *string
	AvatarURL *string
}

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	// Seed inserts the default categories into an empty catalog and returns
	// how many were created.
	Seed(ctx context.Context) (int, error)
}

type ItemService interface {
	Create(ctx context.Context, ownerID string, in ItemInput) (*domain.Item, error)
	Get(ctx context.Context, id string) (*domain.Item, error)
	ListMine(ctx context.Context, ownerID string) ([]domain.Item, error)
	Search(ctx context.Context, s repository.ItemSearch) ([]domain.Item, error)
	Update(ctx context.Context, actorID, id string, in ItemPatch) (*domain.Item, error)
	Delete(ctx context.Context, actorID, id string) error
	AddImage(ctx context.Context, actorID, id, filename, contentType string, r io.Reader) (*domain.Item, error)
}

// ItemInput is the body of an item creation.
type ItemInput struct {
	Title         string
	Description   string
	Category      string
	PricePerDay   float64
	PricePerWeek  *float64
	PricePerMonth *float64
	Location      *domain.Location
	Parameters    map[string]any
	Images        []string
	Status        domain.ItemStatus
}

// ItemPatch changes only the fields that are set.
type ItemPatch struct {
	Title         *string
	Description   *string
	Category      *string
	PricePerDay   *float64
	PricePerWeek  *float64
	PricePerMonth *float64
	Location      *domain.Location
	Parameters    map[string]any
	Images        []string
	Status        *domain.ItemStatus
}

type RentalService interface {
	Create(ctx context.Context, renterID, itemID, startDate, endDate string) (*domain.Rental, error)
	Get(ctx context.Context, userID, id string) (*domain.Rental, error)
	List(ctx context.Context, userID string, role domain.Role) ([]domain.Rental, error)
	// Confirm accepts (confirm = true) or rejects a pending request.
	Confirm(ctx context.Context, userID, id string, confirm bool) (*domain.Rental, error)
	Complete(ctx context.Context, userID, id string) (*domain.Rental, error)
	// StartDue moves confirmed rentals whose start date has arrived to in_progress.
	StartDue(ctx context.Context, today time.Time) (int, error)
}

type MessageService interface {
	Send(ctx context.Context, senderID string, in MessageInput) (*domain.Message, error)
	ListForRental(ctx context.Context, userID, rentalID string) ([]domain.Message, error)
	MarkRead(ctx context.Context, userID, id string) error
}

type MessageInput struct {
	RentalID    string
	ReceiverID  string
	Content     string
	MessageType domain.MessageType
}

type NotificationService interface {
	List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, userID, id string) error
}

// Services bundles every service the API layer serves.
type Services struct {
	Auth          AuthService
	Users         UserService
	Categories    CategoryService
	Items         ItemService
	Rentals       RentalService
	Messages      MessageService
	Notifications NotificationService
}
