package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/repository/common"
)

// ErrDisputeAlreadyOpen возвращается при попытке открыть второй спор по заказу.
var ErrDisputeAlreadyOpen = errors.New("dispute already open")

type DisputeRepository struct {
	db *sqlx.DB
}

func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create открывает спор и пишет запись журнала и системное сообщение заказа.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute, history *models.OrderStatusHistory, msg *models.OrderMessage) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		// Та же блокировка, что в OrderRepository.Mutate: автовыплата не проскочит мимо нового спора.
		var locked uuid.UUID
		if err := tx.GetContext(ctx, &locked, `SELECT id FROM orders WHERE id = $1 FOR UPDATE`, d.OrderID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("dispute repository: lock order %w", err)
		}

		err := tx.QueryRowxContext(ctx, `
			INSERT INTO disputes (order_id, initiator_id, reason, description, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at
		`, d.OrderID, d.InitiatorID, d.Reason, d.Description, d.Status).Scan(&d.ID, &d.CreatedAt)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return ErrDisputeAlreadyOpen
			}
			return fmt.Errorf("dispute repository: create %w", err)
		}

		if history != nil {
			history.OrderID = d.OrderID
			if err := insertHistory(ctx, tx, history); err != nil {
				return err
			}
		}
		if msg != nil {
			msg.OrderID = d.OrderID
			if err := insertOrderMessage(ctx, tx, msg); err != nil {
				return err
			}
		}
		return nil
	})
}

// HasOpen проверяет наличие открытого спора по заказу.
func (r *DisputeRepository) HasOpen(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM disputes WHERE order_id = $1 AND status = 'open')
	`, orderID)
	if err != nil {
		return false, fmt.Errorf("dispute repository: has open %w", err)
	}
	return exists, nil
}
