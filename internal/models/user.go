package models

import (
	"time"

	"github.com/google/uuid"
)

// Роли пользователей.
const (
	RoleClient     = "client"
	RoleFreelancer = "freelancer"
	RoleAdmin      = "admin"
)

// User описывает сущность пользователя платформы.
type User struct {
	ID                   uuid.UUID `db:"id" json:"id"`
	Name                 string    `db:"name" json:"name"`
	Email                string    `db:"email" json:"email"`
	PasswordHash         *string   `db:"password_hash" json:"-"`
	IsOAuth              bool      `db:"is_oauth" json:"is_oauth"`
	GoogleID             *string   `db:"google_id" json:"-"`
	Role                 string    `db:"role" json:"role"`
	Avatar               *string   `db:"avatar" json:"avatar,omitempty"`
	Bio                  *string   `db:"bio" json:"bio,omitempty"`
	Location             *string   `db:"location" json:"location,omitempty"`
	AvgResponseTime      *string   `db:"avg_response_time" json:"avg_response_time,omitempty"`
	PaymentAccountID     *string   `db:"payment_account_id" json:"-"`
	PaymentCustomerID    *string   `db:"payment_customer_id" json:"-"`
	PaymentSetupComplete bool      `db:"payment_setup_complete" json:"payment_setup_complete"`
	IsActive             bool      `db:"is_active" json:"is_active"`
	CreatedAt            time.Time `db:"created_at" json:"member_since"`
	UpdatedAt            time.Time `db:"updated_at" json:"updated_at"`
}

// UserShort: минимальные данные собеседника или участника заказа.
type UserShort struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Email  string    `db:"email" json:"email,omitempty"`
	Avatar *string   `db:"avatar" json:"avatar,omitempty"`
	Role   string    `db:"role" json:"role,omitempty"`
}

// ActivityItem: запись в ленте активности пользователя.
type ActivityItem struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
	Status      string    `json:"status,omitempty"`
	Amount      *float64  `json:"amount,omitempty"`
	Rating      *int      `json:"rating,omitempty"`
	Price       *float64  `json:"price,omitempty"`
}
