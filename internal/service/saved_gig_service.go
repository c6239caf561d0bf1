package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

type SavedGigRepository interface {
	Add(ctx context.Context, userID, gigID uuid.UUID) (*models.SavedGig, error)
	Remove(ctx context.Context, userID, gigID uuid.UUID) error
	ListGigs(ctx context.Context, userID uuid.UUID) ([]models.Gig, error)
	Exists(ctx context.Context, userID, gigID uuid.UUID) (bool, error)
}

type GigLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error)
}

type SavedGigService struct {
	repo SavedGigRepository
	gigs GigLookup
}

func NewSavedGigService(repo SavedGigRepository, gigs GigLookup) *SavedGigService {
	return &SavedGigService{repo: repo, gigs: gigs}
}

func (s *SavedGigService) Save(ctx context.Context, userID, gigID uuid.UUID) (*models.SavedGig, error) {
	gig, err := s.gigs.GetByID(ctx, gigID)
	if err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Add(ctx, userID, gigID)
	if err != nil {
		return nil, mapError(err)
	}
	saved.Gig = gig
	return saved, nil
}

func (s *SavedGigService) Remove(ctx context.Context, userID, gigID uuid.UUID) error {
	return mapError(s.repo.Remove(ctx, userID, gigID))
}

func (s *SavedGigService) List(ctx context.Context, userID uuid.UUID) ([]models.Gig, error) {
	gigs, err := s.repo.ListGigs(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return gigs, nil
}

func (s *SavedGigService) IsSaved(ctx context.Context, userID, gigID uuid.UUID) (bool, error) {
	ok, err := s.repo.Exists(ctx, userID, gigID)
	if err != nil {
		return false, mapError(err)
	}
	return ok, nil
}
