package postgres

import (
	"context"
	"database/sql"
	"time"

	"rentoo/internal/domain"
	"rentoo/internal/repository"
)

type messageRepository struct {
	db *sql.DB
}

func NewMessageRepository(db *sql.DB) repository.MessageRepository {
	return &messageRepository{db: db}
}

const messageColumns = `id, rental_id, sender_id, receiver_id, content, message_type, read_at, created_at`

func (r *messageRepository) Create(ctx context.Context, m *domain.Message) error {
	if m.ID == "" {
		m.ID = newID()
	}
	t := now()
	query := `INSERT INTO messages (` + messageColumns + `) VALUES ($1, $2, $3, $4, $5, $6, NULL, $7)`
	_, err := r.db.ExecContext(ctx, query, m.ID, m.RentalID, m.SenderID, m.ReceiverID, m.Content, m.MessageType, t)
	if err != nil {
		return err
	}
	m.CreatedAt = formatTime(t)
	return nil
}

func (r *messageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	m, err := scanMessage(r.db.QueryRowContext(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

// ListByRental returns the conversation oldest first.
func (r *messageRepository) ListByRental(ctx context.Context, rentalID string) ([]domain.Message, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+messageColumns+` FROM messages WHERE rental_id = $1 ORDER BY created_at, id`, rentalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *m)
	}
	return msgs, rows.Err()
}

// MarkRead keeps the first read time.
func (r *messageRepository) MarkRead(ctx context.Context, id, readAt string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE messages SET read_at = COALESCE(read_at, $1) WHERE id = $2`, readAt, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func scanMessage(row scanner) (*domain.Message, error) {
	var m domain.Message
	var readAt sql.NullTime
	var createdAt time.Time
	if err := row.Scan(&m.ID, &m.RentalID, &m.SenderID, &m.ReceiverID, &m.Content, &m.MessageType, &readAt, &createdAt); err != nil {
		return nil, err
	}
	m.ReadAt = formatNullTime(readAt)
	m.CreatedAt = formatTime(createdAt)
	return &m, nil
}
