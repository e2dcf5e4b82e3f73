package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/logger"
	"rentoo/internal/repository"
)

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, user_id, type, title, content, read_at, created_at`

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = newID()
	}
	t := now()
	query := `INSERT INTO notifications (` + notificationColumns + `) VALUES ($1, $2, $3, $4, $5, NULL, $6)`
	logger.DatabaseCall("INSERT", "notifications", "userID", n.UserID, "type", n.Type)
	_, err := r.db.ExecContext(ctx, query, n.ID, n.UserID, n.Type, n.Title, n.Content, t)
	logger.DatabaseResult("INSERT", 1, err, "notificationID", n.ID)
	if err != nil {
		return err
	}
	n.CreatedAt = formatTime(t)
	return nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return n, nil
}

func (r *notificationRepository) List(ctx context.Context, userID string, unreadOnly bool) ([]domain.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ns := []domain.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		ns = append(ns, *n)
	}
	return ns, rows.Err()
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, readAt string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, $1) WHERE id = $2`, readAt, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func scanNotification(row scanner) (*domain.Notification, error) {
	var n domain.Notification
	var readAt sql.NullTime
	var createdAt time.Time
	if err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Content, &readAt, &createdAt); err != nil {
		return nil, err
	}
	n.ReadAt = formatNullTime(readAt)
	n.CreatedAt = formatTime(createdAt)
	return &n, nil
}
