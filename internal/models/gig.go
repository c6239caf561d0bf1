package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Gig: услуга, опубликованная фрилансером.
type Gig struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	SellerID      uuid.UUID      `db:"seller_id" json:"seller_id"`
	Title         string         `db:"title" json:"title"`
	Description   string         `db:"description" json:"description"`
	Category      *string        `db:"category" json:"category,omitempty"`
	Price         float64        `db:"price" json:"price"`
	DeliveryTime  int            `db:"delivery_time" json:"delivery_time"`
	Image         *string        `db:"image" json:"image,omitempty"`
	Images        pq.StringArray `db:"images" json:"images"`
	AverageRating float64        `db:"average_rating" json:"average_rating"`
	TotalReviews  int            `db:"total_reviews" json:"total_reviews"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`

	BasicPackage *GigPackage `db:"basic_package" json:"basic_package,omitempty"`
	Seller       *UserShort  `db:"-" json:"seller,omitempty"`
}

// GigPackage описывает базовый пакет услуги.
type GigPackage struct {
	Title        string  `json:"title"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	DeliveryTime int     `json:"delivery_time"`
}

// Value сохраняет пакет в JSONB.
func (p GigPackage) Value() (driver.Value, error) {
	return json.Marshal(p)
}

// Scan читает пакет из JSONB.
func (p *GigPackage) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	default:
		return fmt.Errorf("models: неожиданный тип пакета %T", src)
	}
}

// GigReview: отзыв покупателя о услуге.
type GigReview struct {
	ID        uuid.UUID `db:"id" json:"id"`
	GigID     uuid.UUID `db:"gig_id" json:"gig_id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	UserName  string    `db:"user_name" json:"user_name"`
	Rating    int       `db:"rating" json:"rating"`
	Comment   string    `db:"comment" json:"comment"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// SavedGig: услуга в избранном у пользователя.
type SavedGig struct {
	ID        uuid.UUID `db:"id" json:"id"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	GigID     uuid.UUID `db:"gig_id" json:"gig_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	Gig       *Gig      `db:"-" json:"gig,omitempty"`
}

// GigFilter: параметры выборки каталога услуг.
type GigFilter struct {
	Category string
	Search   string
	SellerID *uuid.UUID
	Limit    int
	Offset   int
}

// ReviewWithGig: отзыв вместе с названием услуги для ленты активности.
type ReviewWithGig struct {
	GigReview
	GigTitle string `db:"gig_title" json:"gig_title"`
}
