package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

// PaymentRepository собирает денежные агрегаты по заказам.
type PaymentRepository struct {
	db *sqlx.DB
}

func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// EarningsTotals: суммы заказов продавца до вычета комиссии.
type EarningsTotals struct {
	Released        float64 `db:"released"`
	ReleasedMonthly float64 `db:"released_monthly"`
	Paid            float64 `db:"paid"`
	CompletedOrders int     `db:"completed_orders"`
	PendingOrders   int     `db:"pending_orders"`
}

// SellerEarnings считает освобождённые и удерживаемые суммы продавца.
func (r *PaymentRepository) SellerEarnings(ctx context.Context, sellerID uuid.UUID, monthStart time.Time) (*EarningsTotals, error) {
	var t EarningsTotals
	err := r.db.GetContext(ctx, &t, `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE payment_status = 'released'), 0) AS released,
			COALESCE(SUM(amount) FILTER (WHERE payment_status = 'released' AND completed_at >= $2), 0) AS released_monthly,
			COALESCE(SUM(amount) FILTER (WHERE payment_status = 'paid'), 0) AS paid,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_orders,
			COUNT(*) FILTER (WHERE status IN ('active', 'delivered', 'revision')) AS pending_orders
		FROM orders
		WHERE seller_id = $1
	`, sellerID, monthStart)
	if err != nil {
		return nil, fmt.Errorf("payment repository: seller earnings %w", err)
	}
	return &t, nil
}

// RecentSellerOrders возвращает последние оплаченные или освобождённые заказы продавца.
func (r *PaymentRepository) RecentSellerOrders(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE seller_id = $1 AND payment_status IN ('paid', 'released')
		ORDER BY updated_at DESC
		LIMIT $2
	`, sellerID, limit)
	if err != nil {
		return nil, fmt.Errorf("payment repository: recent seller orders %w", err)
	}
	return orders, nil
}

// PlatformTotals: агрегаты по всем заказам платформы.
type PlatformTotals struct {
	TotalOrders     int     `db:"total_orders"`
	CompletedOrders int     `db:"completed_orders"`
	ReleasedTotal   float64 `db:"released_total"`
	ReleasedAmount  float64 `db:"released_amount"`
}

// PlatformTotals считает количество заказов и оборот освобождённых платежей.
func (r *PaymentRepository) PlatformTotals(ctx context.Context) (*PlatformTotals, error) {
	var t PlatformTotals
	err := r.db.GetContext(ctx, &t, `
		SELECT
			COUNT(*) AS total_orders,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed_orders,
			COALESCE(SUM(total_amount) FILTER (WHERE payment_status = 'released'), 0) AS released_total,
			COALESCE(SUM(amount) FILTER (WHERE payment_status = 'released'), 0) AS released_amount
		FROM orders
	`)
	if err != nil {
		return nil, fmt.Errorf("payment repository: platform totals %w", err)
	}
	return &t, nil
}

// RecentPayments возвращает заказы пользователя с оплатой после since.
func (r *PaymentRepository) RecentPayments(ctx context.Context, userID uuid.UUID, asSeller bool, since time.Time, limit int) ([]models.Order, error) {
	column := "buyer_id"
	if asSeller {
		column = "seller_id"
	}
	orders := make([]models.Order, 0)
	err := r.db.SelectContext(ctx, &orders, `
		SELECT * FROM orders
		WHERE `+column+` = $1 AND payment_status IN ('paid', 'released') AND updated_at >= $2
		ORDER BY updated_at DESC
		LIMIT $3
	`, userID, since, limit)
	if err != nil {
		return nil, fmt.Errorf("payment repository: recent payments %w", err)
	}
	return orders, nil
}
