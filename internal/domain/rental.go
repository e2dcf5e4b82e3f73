package domain

import "errors"

type RentalStatus string

const (
	RentalStatusPending    RentalStatus = "pending"
	RentalStatusConfirmed  RentalStatus = "confirmed"
	RentalStatusInProgress RentalStatus = "in_progress"
	RentalStatusCompleted  RentalStatus = "completed"
	RentalStatusCancelled  RentalStatus = "cancelled"
)

// DateLayout is the calendar date format used on the wire for rental periods.
const DateLayout = "2006-01-02"

type Rental struct {
	ID         string       `json:"id"`
	ItemID     string       `json:"item_id"`
	RenterID   string       `json:"renter_id"`
	OwnerID    string       `json:"owner_id"`
	StartDate  string       `json:"start_date"`
	EndDate    string       `json:"end_date"`
	TotalPrice float64      `json:"total_price"`
	Status     RentalStatus `json:"status"`
	CreatedAt  string       `json:"created_at"`
	UpdatedAt  string       `json:"updated_at"`
	// Item is embedded by the backend on reads; nil on writes.
	Item *Item `json:"item,omitempty"`
}

// Party reports which side of the rental the user occupies.
func (r Rental) Party(userID string) (Role, bool) {
	switch userID {
	case "":
		return "", false
	case r.OwnerID:
		return RoleOwner, true
	case r.RenterID:
		return RoleRenter, true
	}
	return "", false
}

// Counterparty returns the id of the other side of the rental.
func (r Rental) Counterparty(userID string) string {
	if userID == r.OwnerID {
		return r.RenterID
	}
	return r.OwnerID
}

type Role string

const (
	RoleAll    Role = "all"
	RoleRenter Role = "renter"
	RoleOwner  Role = "owner"
)

func (r Role) Valid() bool {
	return r == RoleAll || r == RoleRenter || r == RoleOwner
}

type RentalAction string

const (
	ActionConfirm  RentalAction = "confirm"
	ActionReject   RentalAction = "reject"
	ActionComplete RentalAction = "complete"
	// ActionStart is never issued by a client; the backend scheduler performs it.
	ActionStart RentalAction = "start"
)

var ErrInvalidTransition = errors.New("invalid rental status transition")

var transitions = map[RentalStatus]map[RentalAction]RentalStatus{
	RentalStatusPending: {
		ActionConfirm: RentalStatusConfirmed,
		ActionReject:  RentalStatusCancelled,
	},
	RentalStatusConfirmed: {
		ActionComplete: RentalStatusCompleted,
		ActionStart:    RentalStatusInProgress,
	},
	RentalStatusInProgress: {
		ActionComplete: RentalStatusCompleted,
	},
}

// Transition returns the status reached by applying action to from.
func Transition(from RentalStatus, action RentalAction) (RentalStatus, error) {
	to, ok := transitions[from][action]
	if !ok {
		return from, ErrInvalidTransition
	}
	return to, nil
}

// CanApply reports whether action is a legal move out of status.
func CanApply(status RentalStatus, action RentalAction) bool {
	_, err := Transition(status, action)
	return err == nil
}

func (s RentalStatus) Terminal() bool {
	return s == RentalStatusCompleted || s == RentalStatusCancelled
}

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusConfirmed, RentalStatusInProgress, RentalStatusCompleted, RentalStatusCancelled:
		return true
	}
	return false
}
