package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/repository"
)

type itemRepository struct {
	db *sql.DB
}

func NewItemRepository(db *sql.DB) repository.ItemRepository {
	return &itemRepository{db: db}
}

const itemColumns = `id, owner_id, title, description, category, price_per_day, price_per_week, price_per_month, location, parameters, images, status, created_at, updated_at`

func (r *itemRepository) Create(ctx context.Context, it *domain.Item) error {
	location, parameters, err := itemJSON(it)
	if err != nil {
		return err
	}
	if it.ID == "" {
		it.ID = newID()
	}
	if it.Images == nil {
		it.Images = []string{}
	}
	t := now()

	query := `INSERT INTO items (` + itemColumns + `)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	logger.DatabaseCall("INSERT", "items", "ownerID", it.OwnerID)
	_, err = r.db.ExecContext(ctx, query, it.ID, it.OwnerID, it.Title, it.Description, it.Category,
		it.PricePerDay, it.PricePerWeek, it.PricePerMonth, location, parameters, pq.Array(it.Images), it.Status, t, t)
	logger.DatabaseResult("INSERT", 1, err, "itemID", it.ID)
	if err != nil {
		return err
	}
	it.CreatedAt, it.UpdatedAt = formatTime(t), formatTime(t)
	return nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`
	it, err := scanItem(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err)
	}
	return it, nil
}

func (r *itemRepository) Update(ctx context.Context, it *domain.Item) error {
	location, parameters, err := itemJSON(it)
	if err != nil {
		return err
	}
	t := now()
	query := `UPDATE items SET title=$1, description=$2, category=$3, price_per_day=$4, price_per_week=$5,
	          price_per_month=$6, location=$7, parameters=$8, images=$9, status=$10, updated_at=$11 WHERE id=$12`
	result, err := r.db.ExecContext(ctx, query, it.Title, it.Description, it.Category, it.PricePerDay,
		it.PricePerWeek, it.PricePerMonth, location, parameters, pq.Array(it.Images), it.Status, t, it.ID)
	if err != nil {
		return err
	}
	if err := expectOne(result); err != nil {
		return err
	}
	it.UpdatedAt = formatTime(t)
	return nil
}

func (r *itemRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func (r *itemRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE owner_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, ownerID)
}

func (r *itemRepository) Search(ctx context.Context, s repository.ItemSearch) ([]domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE status = $1`
	args := []interface{}{domain.ItemStatusActive}
	argIdx := 2

	if s.Query != "" {
		query += fmt.Sprintf(" AND (title ILIKE $%d OR description ILIKE $%d)", argIdx, argIdx)
		args = append(args, "%"+s.Query+"%")
		argIdx++
	}
	if s.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argIdx)
		args = append(args, s.Category)
		argIdx++
	}
	if s.MinPrice != nil {
		query += fmt.Sprintf(" AND price_per_day >= $%d", argIdx)
		args = append(args, *s.MinPrice)
		argIdx++
	}
	if s.MaxPrice != nil {
		query += fmt.Sprintf(" AND price_per_day <= $%d", argIdx)
		args = append(args, *s.MaxPrice)
		argIdx++
	}
	if s.Location != "" {
		query += fmt.Sprintf(" AND location->>'address' ILIKE $%d", argIdx)
		args = append(args, "%"+s.Location+"%")
		argIdx++
	}

	sortColumn := "created_at"
	if s.SortBy == "price" {
		sortColumn = "price_per_day"
	}
	direction := "DESC"
	if s.SortOrder == "asc" {
		direction = "ASC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s, id LIMIT $%d OFFSET $%d", sortColumn, direction, argIdx, argIdx+1)
	args = append(args, s.Limit, (s.Page-1)*s.Limit)

	return r.list(ctx, query, args...)
}

func (r *itemRepository) list(ctx context.Context, query string, args ...interface{}) ([]domain.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []domain.Item{}
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *it)
	}
	return items, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row scanner) (*domain.Item, error) {
	var it domain.Item
	var week, month sql.NullFloat64
	var location, parameters []byte
	var createdAt, updatedAt time.Time

	err := row.Scan(&it.ID, &it.OwnerID, &it.Title, &it.Description, &it.Category, &it.PricePerDay,
		&week, &month, &location, &parameters, pq.Array(&it.Images), &it.Status, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if week.Valid {
		it.PricePerWeek = &week.Float64
	}
	if month.Valid {
		it.PricePerMonth = &month.Float64
	}
	if len(location) > 0 {
		if err := json.Unmarshal(location, &it.Location); err != nil {
			return nil, err
		}
	}
	if len(parameters) > 0 {
		if err := json.Unmarshal(parameters, &it.Parameters); err != nil {
			return nil, err
		}
	}
	if it.Images == nil {
		it.Images = []string{}
	}
	it.CreatedAt, it.UpdatedAt = formatTime(createdAt), formatTime(updatedAt)
	return &it, nil
}

// itemJSON encodes the JSONB columns; nil values stay NULL.
func itemJSON(it *domain.Item) (location, parameters []byte, err error) {
	if it.Location != nil {
		if location, err = json.Marshal(it.Location); err != nil {
			return nil, nil, err
		}
	}
	if it.Parameters != nil {
		if parameters, err = json.Marshal(it.Parameters); err != nil {
			return nil, nil, err
		}
	}
	return location, parameters, nil
}
