package memory

import (
	"context"

	"github.com/google/uuid"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type rentalRepository struct{ d *db }

func (r *rentalRepository) Create(_ context.Context, rt *domain.Rental) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	if rt.ID == "" {
		rt.ID = uuid.NewString()
	}
	rt.CreatedAt = r.d.now()
	rt.UpdatedAt = rt.CreatedAt
	v := *rt
	v.Item = nil
	r.d.rentals[rt.ID] = record[domain.Rental]{seq: r.d.next(), v: v}
	return nil
}

func (r *rentalRepository) GetByID(_ context.Context, id string) (*domain.Rental, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	rec, ok := r.d.rentals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	rt := rec.v
	return &rt, nil
}

func (r *rentalRepository) Update(_ context.Context, rt *domain.Rental) error {
	r.d.mu.Lock()
	defer r.d.mu.Unlock()
	rec, ok := r.d.rentals[rt.ID]
	if !ok {
		return repository.ErrNotFound
	}
	rec.v.Status = rt.Status
	rec.v.UpdatedAt = r.d.now()
	r.d.rentals[rt.ID] = rec
	rt.UpdatedAt = rec.v.UpdatedAt
	return nil
}

func (r *rentalRepository) ListForUser(_ context.Context, userID string, role domain.Role) ([]domain.Rental, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var rs []record[domain.Rental]
	for _, rec := range r.d.rentals {
		renter, owner := rec.v.RenterID == userID, rec.v.OwnerID == userID
		switch {
		case role == domain.RoleRenter && renter,
			role == domain.RoleOwner && owner,
			role != domain.RoleRenter && role != domain.RoleOwner && (renter || owner):
			rs = append(rs, rec)
		}
	}
	return newestFirst(rs), nil
}

// HasOverlap compares YYYY-MM-DD strings, which order lexically.
func (r *rentalRepository) HasOverlap(_ context.Context, itemID, start, end string) (bool, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	for _, rec := range r.d.rentals {
		rt := rec.v
		if rt.ItemID != itemID {
			continue
		}
		if rt.Status != domain.RentalStatusConfirmed && rt.Status != domain.RentalStatusInProgress {
			continue
		}
		if rt.StartDate <= end && rt.EndDate >= start {
			return true, nil
		}
	}
	return false, nil
}

func (r *rentalRepository) ListStartable(_ context.Context, date string) ([]domain.Rental, error) {
	r.d.mu.RLock()
	defer r.d.mu.RUnlock()
	var rs []record[domain.Rental]
	for _, rec := range r.d.rentals {
		if rec.v.Status == domain.RentalStatusConfirmed && rec.v.StartDate <= date {
			rs = append(rs, rec)
		}
	}
	return oldestFirst(rs), nil
}
