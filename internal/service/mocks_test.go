package service

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

type MockItemRepo struct {
	mock.Mock
}

func (m *MockItemRepo) Create(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockItemRepo) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// copy so callers cannot mutate the fixture
	item := *args.Get(0).(*domain.Item)
	return &item, args.Error(1)
}
func (m *MockItemRepo) Update(ctx context.Context, item *domain.Item) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockItemRepo) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockItemRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Item, error) {
	args := m.Called(ctx, ownerID)
	return args.Get(0).([]domain.Item), args.Error(1)
}
func (m *MockItemRepo) Search(ctx context.Context, s repository.ItemSearch) ([]domain.Item, error) {
	args := m.Called(ctx, s)
	return args.Get(0).([]domain.Item), args.Error(1)
}

type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	rental := *args.Get(0).(*domain.Rental)
	return &rental, args.Error(1)
}
func (m *MockRentalRepo) Update(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) ListForUser(ctx context.Context, userID string, role domain.Role) ([]domain.Rental, error) {
	args := m.Called(ctx, userID, role)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) HasOverlap(ctx context.Context, itemID, start, end string) (bool, error) {
	args := m.Called(ctx, itemID, start, end)
	return args.Bool(0), args.Error(1)
}
func (m *MockRentalRepo) ListStartable(ctx context.Context, date string) ([]domain.Rental, error) {
	args := m.Called(ctx, date)
	return args.Get(0).([]domain.Rental), args.Error(1)
}

type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
func (m *MockNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	args := m.Called(ctx, userID, unreadOnly)
	return args.Get(0).([]domain.Notification), args.Error(1)
}
func (m *MockNotificationRepo) MarkRead(ctx context.Context, id, readAt string) error {
	args := m.Called(ctx, id, readAt)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) RentalRequested(ctx context.Context, owner, renter domain.User, item domain.Item, rental domain.Rental) error {
	args := m.Called(ctx, owner, renter, item, rental)
	return args.Error(0)
}
func (m *MockNotifier) RentalDecided(ctx context.Context, renter, owner domain.User, item domain.Item, rental domain.Rental) error {
	args := m.Called(ctx, renter, owner, item, rental)
	return args.Error(0)
}

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Save(ctx context.Context, subdir, filename, contentType string, r io.Reader) (string, error) {
	args := m.Called(ctx, subdir, filename, contentType, r)
	return args.String(0), args.Error(1)
}
func (m *MockImageStore) Delete(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}
