package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы способов выплаты
const (
	PayoutTypeBank   = "bank"
	PayoutTypePayPal = "paypal"
)

// Статусы способов выплаты
const (
	PayoutStatusActive              = "active"
	PayoutStatusInactive            = "inactive"
	PayoutStatusPendingVerification = "pending_verification"
)

// PaymentIntent: ответ на создание платёжного намерения.
type PaymentIntent struct {
	ClientSecret    string `json:"client_secret"`
	PaymentIntentID string `json:"payment_intent_id"`
}

// PayoutMethod: реквизиты продавца для вывода средств.
type PayoutMethod struct {
	ID            uuid.UUID `db:"id" json:"id"`
	UserID        uuid.UUID `db:"user_id" json:"user_id"`
	Type          string    `db:"type" json:"type"`
	AccountName   *string   `db:"account_name" json:"account_name,omitempty"`
	AccountNumber *string   `db:"account_number" json:"account_number,omitempty"`
	RoutingNumber *string   `db:"routing_number" json:"routing_number,omitempty"`
	BankName      *string   `db:"bank_name" json:"bank_name,omitempty"`
	Email         *string   `db:"email" json:"email,omitempty"`
	IsPrimary     bool      `db:"is_primary" json:"is_primary"`
	IsVerified    bool      `db:"is_verified" json:"is_verified"`
	Status        string    `db:"status" json:"status"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// EarningsOrder: заказ в сводке заработка с суммой к получению.
type EarningsOrder struct {
	Order
	NetAmount float64 `json:"net_amount"`
}

// Earnings: сводка заработка продавца.
type Earnings struct {
	TotalEarnings          float64         `json:"total_earnings"`
	MonthlyEarnings        float64         `json:"monthly_earnings"`
	PendingEarnings        float64         `json:"pending_earnings"`
	AvailableForWithdrawal float64         `json:"available_for_withdrawal"`
	CompletedOrders        int             `json:"completed_orders"`
	PendingOrders          int             `json:"pending_orders"`
	RecentOrders           []EarningsOrder `json:"recent_orders"`
}

// PlatformStats: агрегаты платформы для администратора.
type PlatformStats struct {
	TotalOrders     int     `json:"total_orders"`
	CompletedOrders int     `json:"completed_orders"`
	TotalRevenue    float64 `json:"total_revenue"`
	PlatformFees    float64 `json:"platform_fees"`
	CompletionRate  float64 `json:"completion_rate"`
}

// PaymentNotification: событие оплаты за последние сутки.
type PaymentNotification struct {
	ID            uuid.UUID `json:"id"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Message       string    `json:"message"`
	Amount        float64   `json:"amount"`
	GigTitle      string    `json:"gig_title"`
	PaymentStatus string    `json:"payment_status"`
	Timestamp     time.Time `json:"timestamp"`
	IsRead        bool      `json:"is_read"`
}
