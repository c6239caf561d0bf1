package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

// ErrPayoutMethodNotFound возвращается, когда способ выплаты не найден у пользователя.
var ErrPayoutMethodNotFound = errors.New("payout method not found")

// PayoutMethodRepository отвечает за реквизиты для вывода средств.
type PayoutMethodRepository struct {
	db *sqlx.DB
}

func NewPayoutMethodRepository(db *sqlx.DB) *PayoutMethodRepository {
	return &PayoutMethodRepository{db: db}
}

// Create сохраняет способ выплаты. Первый активный способ пользователя становится основным.
func (r *PayoutMethodRepository) Create(ctx context.Context, m *models.PayoutMethod) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("payout method repository: begin %w", err)
	}
	defer tx.Rollback()

	var active int
	if err := tx.GetContext(ctx, &active, `
		SELECT COUNT(*) FROM payout_methods WHERE user_id = $1 AND status = 'active'
	`, m.UserID); err != nil {
		return fmt.Errorf("payout method repository: count %w", err)
	}
	m.IsPrimary = active == 0

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO payout_methods (user_id, type, account_name, account_number, routing_number, bank_name, email, is_primary, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, is_verified, created_at, updated_at
	`, m.UserID, m.Type, m.AccountName, m.AccountNumber, m.RoutingNumber, m.BankName, m.Email, m.IsPrimary, m.Status,
	).Scan(&m.ID, &m.IsVerified, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("payout method repository: create %w", err)
	}

	return tx.Commit()
}

// GetByID возвращает способ выплаты владельца.
func (r *PayoutMethodRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.PayoutMethod, error) {
	var m models.PayoutMethod
	err := r.db.GetContext(ctx, &m, `SELECT * FROM payout_methods WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPayoutMethodNotFound
		}
		return nil, fmt.Errorf("payout method repository: get %w", err)
	}
	return &m, nil
}

// ListActive возвращает активные способы: сначала основной, затем новые.
func (r *PayoutMethodRepository) ListActive(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error) {
	methods := make([]models.PayoutMethod, 0)
	err := r.db.SelectContext(ctx, &methods, `
		SELECT * FROM payout_methods
		WHERE user_id = $1 AND status = 'active'
		ORDER BY is_primary DESC, created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("payout method repository: list %w", err)
	}
	return methods, nil
}

// CountActive возвращает число активных способов пользователя.
func (r *PayoutMethodRepository) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `
		SELECT COUNT(*) FROM payout_methods WHERE user_id = $1 AND status = 'active'
	`, userID); err != nil {
		return 0, fmt.Errorf("payout method repository: count active %w", err)
	}
	return n, nil
}

// Update сохраняет реквизиты способа выплаты.
func (r *PayoutMethodRepository) Update(ctx context.Context, m *models.PayoutMethod) error {
	err := r.db.QueryRowxContext(ctx, `
		UPDATE payout_methods
		SET account_name = $3, account_number = $4, routing_number = $5, bank_name = $6, email = $7, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at
	`, m.ID, m.UserID, m.AccountName, m.AccountNumber, m.RoutingNumber, m.BankName, m.Email).Scan(&m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrPayoutMethodNotFound
		}
		return fmt.Errorf("payout method repository: update %w", err)
	}
	return nil
}

// Delete удаляет способ выплаты владельца.
func (r *PayoutMethodRepository) Delete(ctx context.Context, id, userID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM payout_methods WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("payout method repository: delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPayoutMethodNotFound
	}
	return nil
}

// SetPrimary делает способ основным и снимает признак с остальных.
func (r *PayoutMethodRepository) SetPrimary(ctx context.Context, id, userID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("payout method repository: begin %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		UPDATE payout_methods SET is_primary = FALSE, updated_at = NOW()
		WHERE user_id = $1 AND is_primary = TRUE
	`, userID); err != nil {
		return fmt.Errorf("payout method repository: clear primary %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE payout_methods SET is_primary = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND status = 'active'
	`, id, userID)
	if err != nil {
		return fmt.Errorf("payout method repository: set primary %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPayoutMethodNotFound
	}

	return tx.Commit()
}
