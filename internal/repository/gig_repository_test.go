package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

func TestGigRepository_List_SearchAndCategory(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewGigRepository(db)
	gigID, sellerID := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM gigs g WHERE g.category = \$1 AND \(g.title ILIKE \$2 OR g.description ILIKE \$2\)`).
		WithArgs("design", "%лого%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`ORDER BY g.created_at DESC LIMIT \$3 OFFSET \$4`).
		WithArgs("design", "%лого%", 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "seller_id", "title", "price", "seller_name", "seller_email", "seller_avatar"}).
			AddRow(gigID, sellerID, "Логотип", 5000.0, "Иван", "ivan@example.com", nil))

	gigs, total, err := repo.List(context.Background(), models.GigFilter{Category: "design", Search: "лого"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, gigs, 1)
	require.NotNil(t, gigs[0].Seller)
	assert.Equal(t, "Иван", gigs[0].Seller.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_RecalculatesRating(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)
	gigID := uuid.New()
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO gig_reviews`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(uuid.New(), now, now))
	mock.ExpectExec(`UPDATE gigs SET\s+average_rating`).WithArgs(gigID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), &models.GigReview{GigID: gigID, UserID: uuid.New(), UserName: "Анна", Rating: 5, Comment: "Отлично"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepository_Create_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO gig_reviews`).WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.GigReview{GigID: uuid.New(), Rating: 4, Comment: "ok"})
	assert.ErrorIs(t, err, ErrReviewExists)
}

func TestSavedGigRepository_Add_Duplicate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSavedGigRepository(db)

	mock.ExpectQuery(`INSERT INTO saved_gigs`).WillReturnError(&pq.Error{Code: "23505"})

	_, err := repo.Add(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, ErrGigAlreadySaved)
}

func TestSavedGigRepository_Remove_NotSaved(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSavedGigRepository(db)

	mock.ExpectExec(`DELETE FROM saved_gigs`).WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Remove(context.Background(), uuid.New(), uuid.New()), ErrSavedGigNotFound)
}
