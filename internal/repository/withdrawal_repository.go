package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/repository/common"
)

// ErrInsufficientFunds возвращается, если сумма вывода превышает доступный остаток.
var ErrInsufficientFunds = errors.New("insufficient funds")

type WithdrawalRepository struct {
	db *sqlx.DB
}

func NewWithdrawalRepository(db *sqlx.DB) *WithdrawalRepository {
	return &WithdrawalRepository{db: db}
}

// Available возвращает сумму, доступную продавцу к выводу:
// доля продавца в освобождённых заказах минус завершённые выводы.
func (r *WithdrawalRepository) Available(ctx context.Context, sellerID uuid.UUID, sellerShare float64) (float64, error) {
	return availableBalance(ctx, r.db, sellerID, sellerShare)
}

// Create проверяет остаток под блокировкой продавца и сохраняет вывод.
func (r *WithdrawalRepository) Create(ctx context.Context, w *models.Withdrawal, sellerShare float64) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		// Блокировка строки продавца сериализует параллельные выводы.
		var locked uuid.UUID
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, w.SellerID); err != nil {
			return fmt.Errorf("withdrawal repository: lock seller %w", err)
		}

		available, err := availableBalance(ctx, tx, w.SellerID, sellerShare)
		if err != nil {
			return err
		}
		if w.Amount > available {
			return ErrInsufficientFunds
		}

		err = tx.QueryRowxContext(ctx, `
			INSERT INTO withdrawals (seller_id, reference, amount, method, payout_method_id, status, processed_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id, requested_at
		`, w.SellerID, w.Reference, w.Amount, w.Method, w.PayoutMethodID, w.Status, w.ProcessedAt,
		).Scan(&w.ID, &w.RequestedAt)
		if err != nil {
			return fmt.Errorf("withdrawal repository: create %w", err)
		}
		return nil
	})
}

// ListBySeller возвращает выводы продавца, новые первыми.
func (r *WithdrawalRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]models.Withdrawal, error) {
	withdrawals := make([]models.Withdrawal, 0)
	err := r.db.SelectContext(ctx, &withdrawals, `
		SELECT * FROM withdrawals WHERE seller_id = $1 ORDER BY requested_at DESC
	`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("withdrawal repository: list %w", err)
	}
	return withdrawals, nil
}

func availableBalance(ctx context.Context, q common.Querier, sellerID uuid.UUID, sellerShare float64) (float64, error) {
	var available float64
	err := q.GetContext(ctx, &available, `
		SELECT
			COALESCE((SELECT SUM(amount) FROM orders WHERE seller_id = $1 AND payment_status = 'released'), 0) * $2
			- COALESCE((SELECT SUM(amount) FROM withdrawals WHERE seller_id = $1 AND status = 'completed'), 0)
	`, sellerID, sellerShare)
	if err != nil {
		return 0, fmt.Errorf("withdrawal repository: available balance %w", err)
	}
	return available, nil
}
