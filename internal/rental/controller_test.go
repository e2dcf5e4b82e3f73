package rental

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rentoo/internal/apiclient"
	"rentoo/internal/domain"
)

type MockRentalsClient struct {
	mock.Mock
}

func (m *MockRentalsClient) List(ctx context.Context, role domain.Role) ([]domain.Rental, error) {
	args := m.Called(ctx, role)
	return args.Get(0).([]domain.Rental), args.Error(1)
}

func (m *MockRentalsClient) Get(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalsClient) Create(ctx context.Context, req apiclient.RentalCreate) (*domain.Rental, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalsClient) Confirm(ctx context.Context, id string, confirm bool) (*domain.Rental, error) {
	args := m.Called(ctx, id, confirm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

func (m *MockRentalsClient) Complete(ctx context.Context, id string) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}

type viewer struct{ user *domain.User }

func (v viewer) CurrentUser() *domain.User { return v.user }

var (
	owner  = &domain.User{ID: "owner-1"}
	renter = &domain.User{ID: "renter-1"}
)

func rentalWith(status domain.RentalStatus) domain.Rental {
	return domain.Rental{ID: "r1", ItemID: "i1", OwnerID: owner.ID, RenterID: renter.ID, Status: status}
}

func TestActions(t *testing.T) {
	tests := []struct {
		name     string
		status   domain.RentalStatus
		viewer   string
		listRole domain.Role
		want     []Action
	}{
		{"owner sees confirm and reject on pending", domain.RentalStatusPending, owner.ID, domain.RoleOwner, []Action{ActionViewItem, ActionConfirm, ActionReject}},
		{"owner in all view cannot confirm", domain.RentalStatusPending, owner.ID, domain.RoleAll, []Action{ActionViewItem}},
		{"owner in all view completes confirmed", domain.RentalStatusConfirmed, owner.ID, domain.RoleAll, []Action{ActionViewItem, ActionComplete}},
		{"owner in renter view", domain.RentalStatusPending, owner.ID, domain.RoleRenter, []Action{ActionViewItem}},
		{"renter cannot confirm", domain.RentalStatusPending, renter.ID, domain.RoleRenter, []Action{ActionViewItem}},
		{"renter completes confirmed", domain.RentalStatusConfirmed, renter.ID, domain.RoleRenter, []Action{ActionViewItem, ActionComplete}},
		{"owner completes in progress", domain.RentalStatusInProgress, owner.ID, domain.RoleOwner, []Action{ActionViewItem, ActionComplete}},
		{"completed is terminal", domain.RentalStatusCompleted, owner.ID, domain.RoleOwner, []Action{ActionViewItem}},
		{"cancelled is terminal", domain.RentalStatusCancelled, renter.ID, domain.RoleAll, []Action{ActionViewItem}},
		{"stranger only views", domain.RentalStatusConfirmed, "someone", domain.RoleAll, []Action{ActionViewItem}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Actions(rentalWith(tt.status), tt.viewer, tt.listRole))
		})
	}
}

func TestRequestRental(t *testing.T) {
	t.Run("inactive item refused locally", func(t *testing.T) {
		rentals := new(MockRentalsClient)
		c := NewController(rentals, viewer{renter})

		_, err := c.RequestRental(context.Background(), domain.Item{ID: "i1", Status: domain.ItemStatusInactive}, "2030-01-01", "2030-01-03")
		assert.ErrorIs(t, err, ErrItemNotRentable)
		rentals.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("dates passed through unvalidated", func(t *testing.T) {
		rentals := new(MockRentalsClient)
		req := apiclient.RentalCreate{ItemID: "i1", StartDate: "2030-01-05", EndDate: "2030-01-01"}
		rentals.On("Create", mock.Anything, req).
			Return(nil, &apiclient.APIError{StatusCode: http.StatusBadRequest, Detail: "End date must be after start date"})

		c := NewController(rentals, viewer{renter})
		_, err := c.RequestRental(context.Background(), domain.Item{ID: "i1", Status: domain.ItemStatusActive}, "2030-01-05", "2030-01-01")
		require.Error(t, err)
		assert.Equal(t, "End date must be after start date", apiclient.UserMessage(err))
	})

	t.Run("pending rental returned", func(t *testing.T) {
		rentals := new(MockRentalsClient)
		rentals.On("Create", mock.Anything, mock.Anything).Return(&domain.Rental{ID: "r1", Status: domain.RentalStatusPending}, nil)

		c := NewController(rentals, viewer{renter})
		r, err := c.RequestRental(context.Background(), domain.Item{ID: "i1", Status: domain.ItemStatusActive}, "2030-01-01", "2030-01-03")
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusPending, r.Status)
	})
}

func TestConfirm(t *testing.T) {
	t.Run("owner accepts", func(t *testing.T) {
		rentals := new(MockRentalsClient)
		rentals.On("Confirm", mock.Anything, "r1", true).Return(&domain.Rental{ID: "r1", Status: domain.RentalStatusConfirmed}, nil)

		c := NewController(rentals, viewer{owner})
		r, err := c.Confirm(context.Background(), rentalWith(domain.RentalStatusPending), true)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusConfirmed, r.Status)
	})

	t.Run("owner rejects via Apply", func(t *testing.T) {
		rentals := new(MockRentalsClient)
		rentals.On("Confirm", mock.Anything, "r1", false).Return(&domain.Rental{ID: "r1", Status: domain.RentalStatusCancelled}, nil)

		c := NewController(rentals, viewer{owner})
		r, err := c.Apply(context.Background(), rentalWith(domain.RentalStatusPending), ActionReject)
		require.NoError(t, err)
		assert.Equal(t, domain.RentalStatusCancelled, r.Status)
	})

	t.Run("renter not offered", func(t *testing.T) {
		rentals := new(MockRentalsClient)
		c := NewController(rentals, viewer{renter})
		_, err := c.Confirm(context.Background(), rentalWith(domain.RentalStatusPending), true)
		assert.ErrorIs(t, err, ErrActionNotOffered)
		rentals.AssertNotCalled(t, "Confirm", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("confirmed rental not confirmable", func(t *testing.T) {
		c := NewController(new(MockRentalsClient), viewer{owner})
		_, err := c.Confirm(context.Background(), rentalWith(domain.RentalStatusConfirmed), true)
		assert.ErrorIs(t, err, ErrActionNotOffered)
	})

	t.Run("logged out", func(t *testing.T) {
		c := NewController(new(MockRentalsClient), viewer{})
		_, err := c.Confirm(context.Background(), rentalWith(domain.RentalStatusPending), true)
		assert.ErrorIs(t, err, ErrNotLoggedIn)
	})
}

func TestComplete(t *testing.T) {
	for _, status := range []domain.RentalStatus{domain.RentalStatusConfirmed, domain.RentalStatusInProgress} {
		t.Run(string(status), func(t *testing.T) {
			rentals := new(MockRentalsClient)
			rentals.On("Complete", mock.Anything, "r1").Return(&domain.Rental{ID: "r1", Status: domain.RentalStatusCompleted}, nil)

			c := NewController(rentals, viewer{renter})
			r, err := c.Complete(context.Background(), rentalWith(status))
			require.NoError(t, err)
			assert.Equal(t, domain.RentalStatusCompleted, r.Status)
		})
	}

	t.Run("pending not completable", func(t *testing.T) {
		c := NewController(new(MockRentalsClient), viewer{owner})
		_, err := c.Complete(context.Background(), rentalWith(domain.RentalStatusPending))
		assert.ErrorIs(t, err, ErrActionNotOffered)
	})

	t.Run("backend failure surfaces as alert text", func(t *testing.T) {
		rentals := new(MockRentalsClient)
		rentals.On("Complete", mock.Anything, "r1").
			Return(nil, &apiclient.APIError{StatusCode: http.StatusBadRequest, Detail: "Rental cannot be completed"})

		c := NewController(rentals, viewer{owner})
		_, err := c.Complete(context.Background(), rentalWith(domain.RentalStatusConfirmed))
		assert.Equal(t, "Rental cannot be completed", apiclient.UserMessage(err))
	})
}

func TestList(t *testing.T) {
	rentals := new(MockRentalsClient)
	rentals.On("List", mock.Anything, domain.RoleAll).Return([]domain.Rental{rentalWith(domain.RentalStatusPending)}, nil)

	c := NewController(rentals, viewer{owner})
	got, err := c.List(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, err = c.List(context.Background(), domain.Role("admin"))
	assert.Error(t, err)
}
