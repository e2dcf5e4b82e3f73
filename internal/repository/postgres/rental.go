package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/repository"
)

type rentalRepository struct {
	db *sql.DB
}

func NewRentalRepository(db *sql.DB) repository.RentalRepository {
	return &rentalRepository{db: db}
}

const rentalColumns = `id, item_id, renter_id, owner_id, start_date, end_date, total_price, status, created_at, updated_at`

func (r *rentalRepository) Create(ctx context.Context, rt *domain.Rental) error {
	if rt.ID == "" {
		rt.ID = newID()
	}
	t := now()
	query := `INSERT INTO rentals (` + rentalColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	logger.DatabaseCall("INSERT", "rentals", "itemID", rt.ItemID, "renterID", rt.RenterID)
	_, err := r.db.ExecContext(ctx, query, rt.ID, rt.ItemID, rt.RenterID, rt.OwnerID,
		rt.StartDate, rt.EndDate, rt.TotalPrice, rt.Status, t, t)
	logger.DatabaseResult("INSERT", 1, err, "rentalID", rt.ID)
	if err != nil {
		return err
	}
	rt.CreatedAt, rt.UpdatedAt = formatTime(t), formatTime(t)
	return nil
}

func (r *rentalRepository) GetByID(ctx context.Context, id string) (*domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE id = $1`
	rt, err := scanRental(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return rt, nil
}

// Update persists the status; the period and price are fixed at creation.
func (r *rentalRepository) Update(ctx context.Context, rt *domain.Rental) error {
	t := now()
	logger.DatabaseCall("UPDATE", "rentals", "rentalID", rt.ID, "status", rt.Status)
	result, err := r.db.ExecContext(ctx, `UPDATE rentals SET status = $1, updated_at = $2 WHERE id = $3`, rt.Status, t, rt.ID)
	if err != nil {
		logger.DatabaseResult("UPDATE", 0, err, "rentalID", rt.ID)
		return err
	}
	if err := expectOne(result); err != nil {
		return err
	}
	rt.UpdatedAt = formatTime(t)
	return nil
}

func (r *rentalRepository) ListForUser(ctx context.Context, userID string, role domain.Role) ([]domain.Rental, error) {
	var where string
	switch role {
	case domain.RoleRenter:
		where = `renter_id = $1`
	case domain.RoleOwner:
		where = `owner_id = $1`
	default:
		where = `(renter_id = $1 OR owner_id = $1)`
	}
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE ` + where + ` ORDER BY created_at DESC`
	return r.list(ctx, query, userID)
}

func (r *rentalRepository) HasOverlap(ctx context.Context, itemID, start, end string) (bool, error) {
	query := `SELECT EXISTS (
	            SELECT 1 FROM rentals
	            WHERE item_id = $1 AND status IN ($2, $3)
	              AND start_date <= $4 AND end_date >= $5)`
	var exists bool
	err := r.db.QueryRowContext(ctx, query, itemID,
		domain.RentalStatusConfirmed, domain.RentalStatusInProgress, end, start).Scan(&exists)
	return exists, err
}

func (r *rentalRepository) ListStartable(ctx context.Context, date string) ([]domain.Rental, error) {
	query := `SELECT ` + rentalColumns + ` FROM rentals WHERE status = $1 AND start_date <= $2 ORDER BY start_date`
	return r.list(ctx, query, domain.RentalStatusConfirmed, date)
}

func (r *rentalRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Rental, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rentals := []domain.Rental{}
	for rows.Next() {
		rt, err := scanRental(rows)
		if err != nil {
			return nil, err
		}
		rentals = append(rentals, *rt)
	}
	return rentals, rows.Err()
}

func scanRental(row scanner) (*domain.Rental, error) {
	var rt domain.Rental
	var start, end, createdAt, updatedAt time.Time
	err := row.Scan(&rt.ID, &rt.ItemID, &rt.RenterID, &rt.OwnerID, &start, &end,
		&rt.TotalPrice, &rt.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	rt.StartDate = start.Format(domain.DateLayout)
	rt.EndDate = end.Format(domain.DateLayout)
	rt.CreatedAt, rt.UpdatedAt = formatTime(createdAt), formatTime(updatedAt)
	return &rt, nil
}
