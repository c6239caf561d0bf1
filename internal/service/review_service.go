package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/validation"
)

type ReviewRepository interface {
	Create(ctx context.Context, review *models.GigReview) error
	ListByGig(ctx context.Context, gigID uuid.UUID) ([]models.GigReview, error)
}

type ReviewAuthors interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// ReviewNotifier сообщает продавцу о новом отзыве.
type ReviewNotifier interface {
	ReviewReceived(ctx context.Context, gig *models.Gig, review *models.GigReview)
}

type ReviewService struct {
	repo     ReviewRepository
	gigs     GigLookup
	users    ReviewAuthors
	notifier ReviewNotifier
	cache    *CacheService
}

func NewReviewService(repo ReviewRepository, gigs GigLookup, users ReviewAuthors, notifier ReviewNotifier, cache *CacheService) *ReviewService {
	return &ReviewService{repo: repo, gigs: gigs, users: users, notifier: notifier, cache: cache}
}

// Create сохраняет отзыв пользователя об услуге. Один пользователь оставляет
// не больше одного отзыва на услугу, рейтинг услуги пересчитывается в репозитории.
func (s *ReviewService) Create(ctx context.Context, gigID, userID uuid.UUID, rating int, comment string) (*models.GigReview, error) {
	if err := validation.ValidateRating(rating); err != nil {
		return nil, validationError(err.Error())
	}
	comment = strings.TrimSpace(comment)
	if err := validation.ValidateReviewComment(comment); err != nil {
		return nil, validationError(err.Error())
	}

	gig, err := s.gigs.GetByID(ctx, gigID)
	if err != nil {
		return nil, mapError(err)
	}
	if gig.SellerID == userID {
		return nil, validationError("нельзя оставить отзыв на собственную услугу")
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}

	review := &models.GigReview{
		GigID:    gigID,
		UserID:   userID,
		UserName: author.Name,
		Rating:   rating,
		Comment:  comment,
	}
	if err := s.repo.Create(ctx, review); err != nil {
		return nil, mapError(err)
	}

	if s.cache != nil {
		s.cache.InvalidateGig(gigID)
	}
	if s.notifier != nil {
		s.notifier.ReviewReceived(ctx, gig, review)
	}
	return review, nil
}

// ListByGig возвращает отзывы услуги, новые первыми.
func (s *ReviewService) ListByGig(ctx context.Context, gigID uuid.UUID) ([]models.GigReview, error) {
	if _, err := s.gigs.GetByID(ctx, gigID); err != nil {
		return nil, mapError(err)
	}
	reviews, err := s.repo.ListByGig(ctx, gigID)
	if err != nil {
		return nil, mapError(err)
	}
	return reviews, nil
}
