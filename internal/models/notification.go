package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы уведомлений.
const (
	NotificationOrderPlaced     = "order_placed"
	NotificationOrderDelivered  = "order_delivered"
	NotificationOrderCompleted  = "order_completed"
	NotificationOrderCancelled  = "order_cancelled"
	NotificationPaymentReceived = "payment_received"
	NotificationMessageReceived = "message_received"
	NotificationReviewReceived  = "review_received"
	NotificationGigApproved     = "gig_approved"
	NotificationSystem          = "system"
)

// ValidNotificationTypes список допустимых типов уведомлений.
var ValidNotificationTypes = map[string]struct{}{
	NotificationOrderPlaced:     {},
	NotificationOrderDelivered:  {},
	NotificationOrderCompleted:  {},
	NotificationOrderCancelled:  {},
	NotificationPaymentReceived: {},
	NotificationMessageReceived: {},
	NotificationReviewReceived:  {},
	NotificationGigApproved:     {},
	NotificationSystem:          {},
}

// Notification хранит уведомление пользователя.
type Notification struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	UserID     uuid.UUID  `db:"user_id" json:"user_id"`
	Title      string     `db:"title" json:"title"`
	Message    string     `db:"message" json:"message"`
	Type       string     `db:"type" json:"type"`
	OrderID    *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	GigID      *uuid.UUID `db:"gig_id" json:"gig_id,omitempty"`
	FromUserID *uuid.UUID `db:"from_user_id" json:"from_user_id,omitempty"`
	IsRead     bool       `db:"is_read" json:"is_read"`
	ReadAt     *time.Time `db:"read_at" json:"read_at,omitempty"`
	ActionURL  *string    `db:"action_url" json:"action_url,omitempty"`
	Metadata   RawJSON    `db:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// NotificationPage: страница уведомлений со счётчиком непрочитанных.
type NotificationPage struct {
	Notifications []Notification `json:"notifications"`
	TotalPages    int            `json:"total_pages"`
	CurrentPage   int            `json:"current_page"`
	Total         int            `json:"total"`
	UnreadCount   int            `json:"unread_count"`
}
