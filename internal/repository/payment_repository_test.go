package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

func TestWithdrawalRepository_Create_InsufficientFunds(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWithdrawalRepository(db)
	sellerID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id FROM users WHERE id = \$1 FOR UPDATE`).WithArgs(sellerID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(sellerID))
	mock.ExpectQuery(`SELECT\s+COALESCE`).WithArgs(sellerID, 0.95).
		WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(50.0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Withdrawal{
		SellerID:  sellerID,
		Reference: "WD-abc",
		Amount:    80,
		Method:    models.WithdrawalMethodBankTransfer,
		Status:    models.WithdrawalStatusCompleted,
	}, 0.95)
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithdrawalRepository_Create_Success(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewWithdrawalRepository(db)
	sellerID := uuid.New()
	id := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(sellerID))
	mock.ExpectQuery(`SELECT\s+COALESCE`).WillReturnRows(sqlmock.NewRows([]string{"available"}).AddRow(100.0))
	mock.ExpectQuery(`INSERT INTO withdrawals`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "requested_at"}).AddRow(id, now))
	mock.ExpectCommit()

	w := &models.Withdrawal{SellerID: sellerID, Reference: "WD-xyz", Amount: 100, Method: models.WithdrawalMethodBankTransfer, Status: models.WithdrawalStatusCompleted}
	require.NoError(t, repo.Create(context.Background(), w, 0.95))
	assert.Equal(t, id, w.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutMethodRepository_Create_FirstBecomesPrimary(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayoutMethodRepository(db)
	userID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM payout_methods`).WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`INSERT INTO payout_methods`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_verified", "created_at", "updated_at"}).
			AddRow(uuid.New(), false, now, now))
	mock.ExpectCommit()

	email := "seller@example.com"
	m := &models.PayoutMethod{UserID: userID, Type: models.PayoutTypePayPal, Email: &email, Status: models.PayoutStatusActive}
	require.NoError(t, repo.Create(context.Background(), m))
	assert.True(t, m.IsPrimary)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayoutMethodRepository_SetPrimary_UnknownMethod(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPayoutMethodRepository(db)
	userID := uuid.New()
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`SET is_primary = FALSE`).WithArgs(userID).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`SET is_primary = TRUE`).WithArgs(id, userID).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	assert.ErrorIs(t, repo.SetPrimary(context.Background(), id, userID), ErrPayoutMethodNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPaymentRepository_SellerEarnings(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	sellerID := uuid.New()
	monthStart := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`FROM orders\s+WHERE seller_id = \$1`).WithArgs(sellerID, monthStart).
		WillReturnRows(sqlmock.NewRows([]string{"released", "released_monthly", "paid", "completed_orders", "pending_orders"}).
			AddRow(200.0, 60.0, 40.0, 4, 1))

	totals, err := repo.SellerEarnings(context.Background(), sellerID, monthStart)
	require.NoError(t, err)
	assert.Equal(t, 200.0, totals.Released)
	assert.Equal(t, 4, totals.CompletedOrders)
}
