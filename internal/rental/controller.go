// Package rental drives rental requests through their lifecycle and decides
// which transitions the client may offer.
package rental

import (
	"context"
	"errors"
	"fmt"

	"rentoo/internal/apiclient"
	"rentoo/internal/domain"
	"rentoo/internal/logger"
)

var (
	// ErrItemNotRentable is returned without a request when the item is not active.
	ErrItemNotRentable = errors.New("item is not available for rental")
	// ErrActionNotOffered is returned without a request when the action is not
	// available to the viewer for the rental's current status.
	ErrActionNotOffered = errors.New("action not offered for this rental")
	ErrNotLoggedIn      = errors.New("not logged in")
)

// Action is an affordance the UI can show on a rental.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionReject   Action = "reject"
	ActionComplete Action = "complete"
	ActionViewItem Action = "view_item"
)

// RentalsClient is the slice of the rentals API the controller uses.
type RentalsClient interface {
	List(ctx context.Context, role domain.Role) ([]domain.Rental, error)
	Get(ctx context.Context, id string) (*domain.Rental, error)
	Create(ctx context.Context, req apiclient.RentalCreate) (*domain.Rental, error)
	Confirm(ctx context.Context, id string, confirm bool) (*domain.Rental, error)
	Complete(ctx context.Context, id string) (*domain.Rental, error)
}

// Viewer identifies the current user.
type Viewer interface {
	CurrentUser() *domain.User
}

// Controller mediates every rental transition the client issues.
type Controller struct {
	rentals RentalsClient
	viewer  Viewer
}

func NewController(rentals RentalsClient, viewer Viewer) *Controller {
	return &Controller{rentals: rentals, viewer: viewer}
}

// Actions lists what the viewer may do with r while browsing the rentals
// list filtered by listRole. It mirrors the backend state machine for UI
// gating only; the backend remains authoritative. Confirm and reject are
// offered only in the owner list.
func Actions(r domain.Rental, viewerID string, listRole domain.Role) []Action {
	actions := []Action{ActionViewItem}

	party, ok := r.Party(viewerID)
	if !ok {
		return actions
	}

	if party == domain.RoleOwner && listRole == domain.RoleOwner {
		if domain.CanApply(r.Status, domain.ActionConfirm) {
			actions = append(actions, ActionConfirm)
		}
		if domain.CanApply(r.Status, domain.ActionReject) {
			actions = append(actions, ActionReject)
		}
	}
	if domain.CanApply(r.Status, domain.ActionComplete) {
		actions = append(actions, ActionComplete)
	}
	return actions
}

// Offered reports whether action is among Actions(r, viewerID, listRole).
func Offered(r domain.Rental, viewerID string, listRole domain.Role, action Action) bool {
	for _, a := range Actions(r, viewerID, listRole) {
		if a == action {
			return true
		}
	}
	return false
}

// RequestRental asks for item over [start, end]. Dates go to the backend
// as given; its validation errors are returned verbatim.
func (c *Controller) RequestRental(ctx context.Context, item domain.Item, start, end string) (*domain.Rental, error) {
	if !item.Rentable() {
		return nil, ErrItemNotRentable
	}

	r, err := c.rentals.Create(ctx, apiclient.RentalCreate{ItemID: item.ID, StartDate: start, EndDate: end})
	if err != nil {
		logger.Info("Rental request rejected", "item_id", item.ID, "error", err)
		return nil, err
	}
	logger.Info("Rental requested", "rental_id", r.ID, "item_id", item.ID, "status", r.Status)
	return r, nil
}

// Confirm accepts or rejects a pending rental as its owner.
func (c *Controller) Confirm(ctx context.Context, r domain.Rental, accept bool) (*domain.Rental, error) {
	action := ActionConfirm
	if !accept {
		action = ActionReject
	}
	if err := c.check(r, action); err != nil {
		return nil, err
	}
	return c.rentals.Confirm(ctx, r.ID, accept)
}

// Complete finishes a confirmed or in-progress rental as either party.
func (c *Controller) Complete(ctx context.Context, r domain.Rental) (*domain.Rental, error) {
	if err := c.check(r, ActionComplete); err != nil {
		return nil, err
	}
	return c.rentals.Complete(ctx, r.ID)
}

// Apply dispatches one of the transition actions.
func (c *Controller) Apply(ctx context.Context, r domain.Rental, action Action) (*domain.Rental, error) {
	switch action {
	case ActionConfirm:
		return c.Confirm(ctx, r, true)
	case ActionReject:
		return c.Confirm(ctx, r, false)
	case ActionComplete:
		return c.Complete(ctx, r)
	}
	return nil, fmt.Errorf("%w: %s", ErrActionNotOffered, action)
}

// List returns the viewer's rentals for role; an empty role means all.
func (c *Controller) List(ctx context.Context, role domain.Role) ([]domain.Rental, error) {
	if role == "" {
		role = domain.RoleAll
	}
	if !role.Valid() {
		return nil, fmt.Errorf("unknown rental role %q", role)
	}
	return c.rentals.List(ctx, role)
}

func (c *Controller) Get(ctx context.Context, id string) (*domain.Rental, error) {
	return c.rentals.Get(ctx, id)
}

func (c *Controller) check(r domain.Rental, action Action) error {
	user := c.viewer.CurrentUser()
	if user == nil {
		return ErrNotLoggedIn
	}
	if !Offered(r, user.ID, domain.RoleOwner, action) {
		return fmt.Errorf("%w: %s on %s rental", ErrActionNotOffered, action, r.Status)
	}
	return nil
}
