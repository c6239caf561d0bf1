package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderMessage: сообщение в ленте заказа.
type OrderMessage struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	OrderID   uuid.UUID  `db:"order_id" json:"order_id"`
	SenderID  *uuid.UUID `db:"sender_id" json:"sender_id,omitempty"`
	Message   string     `db:"message" json:"message"`
	IsSystem  bool       `db:"is_system" json:"is_system"`
	CreatedAt time.Time  `db:"created_at" json:"timestamp"`
}

// OrderStatusHistory: запись журнала статусов заказа.
type OrderStatusHistory struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	Status    string    `db:"status" json:"status"`
	Note      string    `db:"note" json:"note"`
	CreatedAt time.Time `db:"created_at" json:"timestamp"`
}
