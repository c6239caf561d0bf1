package models

import (
	"time"

	"github.com/google/uuid"
)

// Order: покупка услуги клиентом.
type Order struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	GigID           uuid.UUID  `db:"gig_id" json:"gig_id"`
	BuyerID         uuid.UUID  `db:"buyer_id" json:"buyer_id"`
	SellerID        uuid.UUID  `db:"seller_id" json:"seller_id"`
	GigTitle        string     `db:"gig_title" json:"gig_title"`
	GigImage        *string    `db:"gig_image" json:"gig_image,omitempty"`
	PackageType     string     `db:"package_type" json:"package_type"`
	Amount          float64    `db:"amount" json:"amount"`
	ServiceFee      float64    `db:"service_fee" json:"service_fee"`
	TotalAmount     float64    `db:"total_amount" json:"total_amount"`
	DeliveryTime    int        `db:"delivery_time" json:"delivery_time"`
	DeliveryDate    time.Time  `db:"delivery_date" json:"delivery_date"`
	Status          string     `db:"status" json:"status"`
	Requirements    *string    `db:"requirements" json:"requirements,omitempty"`
	DeliveryNote    *string    `db:"delivery_note" json:"delivery_note,omitempty"`
	RevisionCount   int        `db:"revision_count" json:"revision_count"`
	MaxRevisions    int        `db:"max_revisions" json:"max_revisions"`
	PaymentStatus   string     `db:"payment_status" json:"payment_status"`
	PaymentMethod   string     `db:"payment_method" json:"payment_method"`
	PaymentIntentID *string    `db:"payment_intent_id" json:"payment_intent_id,omitempty"`
	ChargeID        *string    `db:"charge_id" json:"-"`
	IsReviewed      bool       `db:"is_reviewed" json:"is_reviewed"`
	BuyerRating     *int       `db:"buyer_rating" json:"buyer_rating,omitempty"`
	BuyerReview     *string    `db:"buyer_review" json:"buyer_review,omitempty"`
	DeliveredAt     *time.Time `db:"delivered_at" json:"delivered_at,omitempty"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`

	// HasOpenDispute заполняется только при блокировке строки в OrderRepository.Mutate.
	HasOpenDispute bool `db:"has_open_dispute" json:"-"`

	Buyer         *UserShort           `db:"-" json:"buyer,omitempty"`
	Seller        *UserShort           `db:"-" json:"seller,omitempty"`
	DeliveryFiles []DeliveryFile       `db:"-" json:"delivery_files,omitempty"`
	Messages      []OrderMessage       `db:"-" json:"messages,omitempty"`
	StatusHistory []OrderStatusHistory `db:"-" json:"status_history,omitempty"`
	Dispute       *Dispute             `db:"-" json:"dispute,omitempty"`
}

// IsParticipant проверяет, что пользователь является покупателем или продавцом заказа.
func (o *Order) IsParticipant(userID uuid.UUID) bool {
	return o.BuyerID == userID || o.SellerID == userID
}

// Counterparty возвращает вторую сторону заказа.
func (o *Order) Counterparty(userID uuid.UUID) uuid.UUID {
	if o.BuyerID == userID {
		return o.SellerID
	}
	return o.BuyerID
}

// DeliveryFile: файл, приложенный исполнителем к сдаче работы.
type DeliveryFile struct {
	ID        uuid.UUID `db:"id" json:"id"`
	OrderID   uuid.UUID `db:"order_id" json:"order_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FileURL   string    `db:"file_url" json:"file_url"`
	FileType  string    `db:"file_type" json:"file_type"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	PublicID  string    `db:"public_id" json:"public_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// OrderFilter: параметры выборки заказов покупателя или продавца.
type OrderFilter struct {
	BuyerID       *uuid.UUID
	SellerID      *uuid.UUID
	Status        string
	PaymentStatus string
	Limit         int
	Offset        int
}

// OrderPage: страница заказов с общим количеством.
type OrderPage struct {
	Orders      []Order `json:"orders"`
	TotalPages  int     `json:"total_pages"`
	CurrentPage int     `json:"current_page"`
	Total       int     `json:"total"`
}

// BuyerStats: сводка по заказам покупателя.
type BuyerStats struct {
	Total        int     `json:"total"`
	Active       int     `json:"active"`
	Completed    int     `json:"completed"`
	Cancelled    int     `json:"cancelled"`
	TotalSpent   float64 `json:"total_spent"`
	RecentOrders []Order `json:"recent_orders"`
}

// SellerStats: сводка по заказам продавца.
type SellerStats struct {
	Total           int     `json:"total"`
	Active          int     `json:"active"`
	Completed       int     `json:"completed"`
	Cancelled       int     `json:"cancelled"`
	TotalEarnings   float64 `json:"total_earnings"`
	PendingEarnings float64 `json:"pending_earnings"`
	RecentOrders    []Order `json:"recent_orders"`
}
