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

// ErrReviewExists возвращается, если пользователь уже оставил отзыв на услугу.
var ErrReviewExists = errors.New("review already exists")

// ReviewRepository отвечает за отзывы об услугах.
type ReviewRepository struct {
	db *sqlx.DB
}

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв и пересчитывает рейтинг услуги в той же транзакции.
func (r *ReviewRepository) Create(ctx context.Context, review *models.GigReview) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO gig_reviews (gig_id, user_id, user_name, rating, comment)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id, created_at, updated_at
		`, review.GigID, review.UserID, review.UserName, review.Rating, review.Comment,
		).Scan(&review.ID, &review.CreatedAt, &review.UpdatedAt)
		if err != nil {
			if common.IsUniqueViolation(err) {
				return ErrReviewExists
			}
			return fmt.Errorf("review repository: create %w", err)
		}

		if _, err := tx.ExecContext(ctx, `
			UPDATE gigs SET
				average_rating = (SELECT COALESCE(ROUND(AVG(rating)::numeric, 2), 0) FROM gig_reviews WHERE gig_id = $1),
				total_reviews = (SELECT COUNT(*) FROM gig_reviews WHERE gig_id = $1),
				updated_at = NOW()
			WHERE id = $1
		`, review.GigID); err != nil {
			return fmt.Errorf("review repository: recalculate rating %w", err)
		}
		return nil
	})
}

// ListByGig возвращает отзывы услуги, новые первыми.
func (r *ReviewRepository) ListByGig(ctx context.Context, gigID uuid.UUID) ([]models.GigReview, error) {
	reviews := make([]models.GigReview, 0)
	if err := r.db.SelectContext(ctx, &reviews, `
		SELECT * FROM gig_reviews WHERE gig_id = $1 ORDER BY created_at DESC
	`, gigID); err != nil {
		return nil, fmt.Errorf("review repository: list by gig %w", err)
	}
	return reviews, nil
}

// ListByUser возвращает последние отзывы, оставленные пользователем.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]models.ReviewWithGig, error) {
	reviews := make([]models.ReviewWithGig, 0)
	if err := r.db.SelectContext(ctx, &reviews, `
		SELECT rv.*, g.title AS gig_title
		FROM gig_reviews rv
		JOIN gigs g ON g.id = rv.gig_id
		WHERE rv.user_id = $1
		ORDER BY rv.created_at DESC
		LIMIT $2
	`, userID, limit); err != nil {
		return nil, fmt.Errorf("review repository: list by user %w", err)
	}
	return reviews, nil
}
