package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type categoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, c *domain.Category) error {
	query := `INSERT INTO categories (id, name, slug, description, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6)`
	t := now()
	if c.ID == "" {
		c.ID = newID()
	}
	if _, err := r.db.ExecContext(ctx, query, c.ID, c.Name, c.Slug, nullString(c.Description), t, t); err != nil {
		return err
	}
	c.CreatedAt, c.UpdatedAt = formatTime(t), formatTime(t)
	return nil
}

func (r *categoryRepository) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `SELECT id, name, slug, COALESCE(description, ''), created_at, updated_at FROM categories WHERE slug = $1`
	var c domain.Category
	var createdAt, updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, slug).Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	c.CreatedAt, c.UpdatedAt = formatTime(createdAt), formatTime(updatedAt)
	return &c, nil
}

func (r *categoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	query := `SELECT id, name, slug, COALESCE(description, ''), created_at, updated_at FROM categories ORDER BY name`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []domain.Category{}
	for rows.Next() {
		var c domain.Category
		var createdAt, updatedAt time.Time
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		c.CreatedAt, c.UpdatedAt = formatTime(createdAt), formatTime(updatedAt)
		categories = append(categories, c)
	}
	return categories, rows.Err()
}
