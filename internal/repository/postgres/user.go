package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, name, password_hash, COALESCE(avatar_url, ''), created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, u *domain.User) error {
	query := `INSERT INTO users (id, email, name, password_hash, avatar_url, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)`
	t := now()
	if u.ID == "" {
		u.ID = newID()
	}
	logger.DatabaseCall("INSERT", "users", "email", u.Email)
	_, err := r.db.ExecContext(ctx, query, u.ID, u.Email, u.Name, u.PasswordHash, nullString(u.AvatarURL), t, t)
	logger.DatabaseResult("INSERT", 1, err, "userID", u.ID)
	if err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = formatTime(t), formatTime(t)
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE LOWER(email) = LOWER($1)`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) Update(ctx context.Context, u *domain.User) error {
	query := `UPDATE users SET name=$1, avatar_url=$2, updated_at=$3 WHERE id=$4`
	t := now()
	result, err := r.db.ExecContext(ctx, query, u.Name, nullString(u.AvatarURL), t, u.ID)
	if err != nil {
		return err
	}
	if err := expectOne(result); err != nil {
		return err
	}
	u.UpdatedAt = formatTime(t)
	return nil
}

func scanUser(row *sql.Row) (*domain.User, error) {
	u := &domain.User{}
	var createdAt, updatedAt time.Time
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.AvatarURL, &createdAt, &updatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	u.CreatedAt = formatTime(createdAt)
	u.UpdatedAt = formatTime(updatedAt)
	return u, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
