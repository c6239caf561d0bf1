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

var (
	ErrSavedGigNotFound = errors.New("saved gig not found")
	ErrGigAlreadySaved  = errors.New("gig already saved")
)

// SavedGigRepository отвечает за избранные услуги пользователей.
type SavedGigRepository struct {
	db *sqlx.DB
}

func NewSavedGigRepository(db *sqlx.DB) *SavedGigRepository {
	return &SavedGigRepository{db: db}
}

func (r *SavedGigRepository) Add(ctx context.Context, userID, gigID uuid.UUID) (*models.SavedGig, error) {
	var saved models.SavedGig
	err := r.db.GetContext(ctx, &saved, `
		INSERT INTO saved_gigs (user_id, gig_id)
		VALUES ($1, $2)
		RETURNING *
	`, userID, gigID)
	if err != nil {
		switch {
		case common.IsUniqueViolation(err):
			return nil, ErrGigAlreadySaved
		case common.IsForeignKeyViolation(err):
			return nil, ErrGigNotFound
		}
		return nil, fmt.Errorf("saved gig repository: add %w", err)
	}
	return &saved, nil
}

func (r *SavedGigRepository) Remove(ctx context.Context, userID, gigID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_gigs WHERE user_id = $1 AND gig_id = $2`, userID, gigID)
	if err != nil {
		return fmt.Errorf("saved gig repository: remove %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return ErrSavedGigNotFound
	}
	return nil
}

// ListGigs возвращает сохранённые услуги, последние добавленные первыми.
func (r *SavedGigRepository) ListGigs(ctx context.Context, userID uuid.UUID) ([]models.Gig, error) {
	var rows []gigRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT g.*, u.name AS seller_name, u.email AS seller_email, u.avatar AS seller_avatar
		FROM saved_gigs s
		JOIN gigs g ON g.id = s.gig_id
		LEFT JOIN users u ON u.id = g.seller_id
		WHERE s.user_id = $1
		ORDER BY s.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("saved gig repository: list %w", err)
	}
	gigs := make([]models.Gig, 0, len(rows))
	for _, row := range rows {
		gigs = append(gigs, row.toModel())
	}
	return gigs, nil
}

func (r *SavedGigRepository) Exists(ctx context.Context, userID, gigID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `
		SELECT EXISTS(SELECT 1 FROM saved_gigs WHERE user_id = $1 AND gig_id = $2)
	`, userID, gigID)
	if err != nil {
		return false, fmt.Errorf("saved gig repository: exists %w", err)
	}
	return exists, nil
}
