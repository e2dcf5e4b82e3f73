package domain

type NotificationType string

const (
	NotificationNewRentalRequest NotificationType = "new_rental_request"
	NotificationRentalConfirmed  NotificationType = "rental_confirmed"
	NotificationRentalRejected   NotificationType = "rental_rejected"
	NotificationRentalCompleted  NotificationType = "rental_completed"
	NotificationNewMessage       NotificationType = "new_message"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Content   string           `json:"content"`
	ReadAt    *string          `json:"read_at,omitempty"`
	CreatedAt string           `json:"created_at"`
}

func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}

type MessageType string

const (
	MessageTypeText  MessageType = "text"
	MessageTypeImage MessageType = "image"
)

type Message struct {
	ID          string      `json:"id"`
	RentalID    string      `json:"rental_id"`
	SenderID    string      `json:"sender_id"`
	ReceiverID  string      `json:"receiver_id"`
	Content     string      `json:"content"`
	MessageType MessageType `json:"message_type"`
	ReadAt      *string     `json:"read_at,omitempty"`
	CreatedAt   string      `json:"created_at"`
}
