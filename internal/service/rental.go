package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/metrics"
	"rentoo/internal/notify"
	"rentoo/internal/repository"
)

type rentalService struct {
	rentalRepo repository.RentalRepository
	itemRepo   repository.ItemRepository
	userRepo   repository.UserRepository
	noteRepo   repository.NotificationRepository
	notifier   notify.Notifier
	metrics    *metrics.Server
	now        func() time.Time

	// serializes the overlap check with the write that depends on it
	bookMu sync.Mutex
}

func NewRentalService(
	rentalRepo repository.RentalRepository,
	itemRepo repository.ItemRepository,
	userRepo repository.UserRepository,
	noteRepo repository.NotificationRepository,
	notifier notify.Notifier,
	m *metrics.Server,
) RentalService {
	return &rentalService{
		rentalRepo: rentalRepo,
		itemRepo:   itemRepo,
		userRepo:   userRepo,
		noteRepo:   noteRepo,
		notifier:   notifier,
		metrics:    m,
		now:        time.Now,
	}
}

func (s *rentalService) Create(ctx context.Context, renterID, itemID, startDate, endDate string) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.Create", "renterID", renterID, "itemID", itemID, "start", startDate, "end", endDate)

	var verr ValidationError
	start, err := time.Parse(domain.DateLayout, startDate)
	if err != nil {
		verr.Add("start_date", "Input should be a valid date")
	}
	end, err := time.Parse(domain.DateLayout, endDate)
	if err != nil {
		verr.Add("end_date", "Input should be a valid date")
	}
	if itemID == "" {
		verr.Add("item_id", "Field required")
	}
	if err := verr.Err(); err != nil {
		logger.ExitMethodWithError("rentalService.Create", err)
		return nil, err
	}

	if !start.Before(end) {
		return nil, invalid("End date must be after start date")
	}
	if start.Before(s.today()) {
		return nil, invalid("Start date cannot be in the past")
	}

	item, err := s.itemRepo.GetByID(ctx, itemID)
	if errors.Is(err, repository.ErrNotFound) {
		logger.Warn("Rental for unknown item", "itemID", itemID)
		return nil, notFound("Item not found")
	}
	if err != nil {
		return nil, err
	}
	if !item.Rentable() {
		return nil, invalid("Item is not available for rental")
	}
	if item.OwnerID == renterID {
		return nil, invalid("Cannot rent your own item")
	}

	days := int(end.Sub(start).Hours()/24) + 1
	rental := &domain.Rental{
		ItemID:     item.ID,
		RenterID:   renterID,
		OwnerID:    item.OwnerID,
		StartDate:  startDate,
		EndDate:    endDate,
		TotalPrice: item.PricePerDay * float64(days),
		Status:     domain.RentalStatusPending,
	}

	s.bookMu.Lock()
	overlap, err := s.rentalRepo.HasOverlap(ctx, item.ID, startDate, endDate)
	if err == nil && !overlap {
		err = s.rentalRepo.Create(ctx, rental)
	}
	s.bookMu.Unlock()
	if err != nil {
		logger.ExitMethodWithError("rentalService.Create", err)
		return nil, err
	}
	if overlap {
		logger.Warn("Item is booked for the requested dates", "itemID", item.ID)
		return nil, invalid("Item is not available for selected dates")
	}

	s.metrics.IncrementTransition(string(rental.Status))

	renter, owner := s.parties(ctx, rental)
	s.notifyUser(ctx, owner.ID, domain.NotificationNewRentalRequest, "New rental request",
		fmt.Sprintf("%s wants to rent your item '%s'", renter.Name, item.Title))
	if err := s.notifier.RentalRequested(ctx, owner, renter, *item, *rental); err != nil {
		logger.Warn("Rental request email failed", "rentalID", rental.ID, "error", err)
	}

	rental.Item = item
	logger.ExitMethod("rentalService.Create", "rentalID", rental.ID, "total", rental.TotalPrice)
	return rental, nil
}

func (s *rentalService) Get(ctx context.Context, userID, id string) (*domain.Rental, error) {
	rental, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := rental.Party(userID); !ok {
		return nil, forbidden("Not authorized to view this rental")
	}
	s.embedItems(ctx, []*domain.Rental{rental})
	return rental, nil
}

func (s *rentalService) List(ctx context.Context, userID string, role domain.Role) ([]domain.Rental, error) {
	if role == "" {
		role = domain.RoleAll
	}
	if !role.Valid() {
		return nil, &ValidationError{Fields: []FieldError{{Field: "role", Msg: "Input should be 'all', 'renter' or 'owner'"}}}
	}
	rentals, err := s.rentalRepo.ListForUser(ctx, userID, role)
	if err != nil {
		return nil, err
	}
	refs := make([]*domain.Rental, len(rentals))
	for i := range rentals {
		refs[i] = &rentals[i]
	}
	s.embedItems(ctx, refs)
	return rentals, nil
}

func (s *rentalService) Confirm(ctx context.Context, userID, id string, confirm bool) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.Confirm", "userID", userID, "rentalID", id, "confirm", confirm)

	rental, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.OwnerID != userID {
		return nil, forbidden("Only owner can confirm rental")
	}
	if rental.Status != domain.RentalStatusPending {
		return nil, invalid("Rental is not in pending status")
	}

	action := domain.ActionReject
	if confirm {
		action = domain.ActionConfirm
	}
	to, err := domain.Transition(rental.Status, action)
	if err != nil {
		return nil, invalid("Rental is not in pending status")
	}
	rental.Status = to

	s.bookMu.Lock()
	overlap := false
	if confirm {
		overlap, err = s.rentalRepo.HasOverlap(ctx, rental.ItemID, rental.StartDate, rental.EndDate)
	}
	if err == nil && !overlap {
		err = s.rentalRepo.Update(ctx, rental)
	}
	s.bookMu.Unlock()
	if err != nil {
		logger.ExitMethodWithError("rentalService.Confirm", err)
		return nil, err
	}
	if overlap {
		return nil, invalid("Item is not available for selected dates")
	}

	s.metrics.IncrementTransition(string(to))

	renter, owner := s.parties(ctx, rental)
	kind, verdict := domain.NotificationRentalRejected, "rejected"
	if confirm {
		kind, verdict = domain.NotificationRentalConfirmed, "confirmed"
	}
	s.notifyUser(ctx, rental.RenterID, kind, "Rental request processed",
		fmt.Sprintf("Your rental request was %s", verdict))

	s.embedItems(ctx, []*domain.Rental{rental})
	item := domain.Item{ID: rental.ItemID}
	if rental.Item != nil {
		item = *rental.Item
	}
	if err := s.notifier.RentalDecided(ctx, renter, owner, item, *rental); err != nil {
		logger.Warn("Rental decision email failed", "rentalID", rental.ID, "error", err)
	}

	logger.ExitMethod("rentalService.Confirm", "status", rental.Status)
	return rental, nil
}

func (s *rentalService) Complete(ctx context.Context, userID, id string) (*domain.Rental, error) {
	rental, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := rental.Party(userID); !ok {
		return nil, forbidden("Not authorized")
	}
	to, err := domain.Transition(rental.Status, domain.ActionComplete)
	if err != nil {
		return nil, invalid("Rental cannot be completed from current status")
	}
	rental.Status = to
	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, err
	}
	s.metrics.IncrementTransition(string(to))

	s.embedItems(ctx, []*domain.Rental{rental})
	title := rental.ItemID
	if rental.Item != nil {
		title = rental.Item.Title
	}
	s.notifyUser(ctx, rental.Counterparty(userID), domain.NotificationRentalCompleted, "Rental completed",
		fmt.Sprintf("The rental of '%s' was marked completed", title))
	return rental, nil
}

func (s *rentalService) StartDue(ctx context.Context, today time.Time) (int, error) {
	date := today.Format(domain.DateLayout)
	due, err := s.rentalRepo.ListStartable(ctx, date)
	if err != nil {
		return 0, err
	}

	started := 0
	var errs []error
	for i := range due {
		rental := &due[i]
		to, err := domain.Transition(rental.Status, domain.ActionStart)
		if err != nil {
			continue
		}
		rental.Status = to
		if err := s.rentalRepo.Update(ctx, rental); err != nil {
			errs = append(errs, fmt.Errorf("rental %s: %w", rental.ID, err))
			continue
		}
		s.metrics.IncrementTransition(string(to))
		started++
	}
	if started > 0 {
		logger.Info("Started due rentals", "date", date, "count", started)
	}
	return started, errors.Join(errs...)
}

func (s *rentalService) load(ctx context.Context, id string) (*domain.Rental, error) {
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("Rental not found")
	}
	return rental, err
}

func (s *rentalService) today() time.Time {
	t := s.now().UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// embedItems attaches each rental's item. Missing items are left nil.
func (s *rentalService) embedItems(ctx context.Context, rentals []*domain.Rental) {
	cache := map[string]*domain.Item{}
	for _, r := range rentals {
		item, seen := cache[r.ItemID]
		if !seen {
			var err error
			item, err = s.itemRepo.GetByID(ctx, r.ItemID)
			if err != nil {
				item = nil
			}
			cache[r.ItemID] = item
		}
		r.Item = item
	}
}

// parties loads both users; a lookup failure yields a user with just the id.
func (s *rentalService) parties(ctx context.Context, r *domain.Rental) (renter, owner domain.User) {
	renter, owner = domain.User{ID: r.RenterID}, domain.User{ID: r.OwnerID}
	if u, err := s.userRepo.GetByID(ctx, r.RenterID); err == nil {
		renter = *u
	}
	if u, err := s.userRepo.GetByID(ctx, r.OwnerID); err == nil {
		owner = *u
	}
	return renter, owner
}

func (s *rentalService) notifyUser(ctx context.Context, userID string, kind domain.NotificationType, title, content string) {
	n := &domain.Notification{UserID: userID, Type: kind, Title: title, Content: content}
	if err := s.noteRepo.Create(ctx, n); err != nil {
		logger.Warn("Failed to create notification", "userID", userID, "type", kind, "error", err)
	}
}
