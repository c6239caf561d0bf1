package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/validation"
)

type PayoutMethodStore interface {
	Create(ctx context.Context, m *models.PayoutMethod) error
	GetByID(ctx context.Context, id, userID uuid.UUID) (*models.PayoutMethod, error)
	ListActive(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error)
	CountActive(ctx context.Context, userID uuid.UUID) (int, error)
	Update(ctx context.Context, m *models.PayoutMethod) error
	Delete(ctx context.Context, id, userID uuid.UUID) error
	SetPrimary(ctx context.Context, id, userID uuid.UUID) error
}

// PayoutInput: реквизиты способа выплаты. При обновлении nil-поля не меняются.
type PayoutInput struct {
	Type          string
	AccountName   *string
	AccountNumber *string
	RoutingNumber *string
	BankName      *string
	Email         *string
}

type PayoutService struct {
	repo PayoutMethodStore
}

func NewPayoutService(repo PayoutMethodStore) *PayoutService {
	return &PayoutService{repo: repo}
}

func (s *PayoutService) List(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error) {
	methods, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, mapError(err)
	}
	return methods, nil
}

// Add сохраняет новый способ выплаты. Первый способ становится основным.
func (s *PayoutService) Add(ctx context.Context, userID uuid.UUID, in PayoutInput) (*models.PayoutMethod, error) {
	m := &models.PayoutMethod{
		UserID: userID,
		Type:   strings.TrimSpace(in.Type),
		Status: models.PayoutStatusActive,
	}
	applyPayoutInput(m, in)
	if err := validatePayout(m); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

func (s *PayoutService) Update(ctx context.Context, userID, id uuid.UUID, in PayoutInput) (*models.PayoutMethod, error) {
	m, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return nil, mapError(err)
	}
	applyPayoutInput(m, in)
	if err := validatePayout(m); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, m); err != nil {
		return nil, mapError(err)
	}
	return m, nil
}

// Delete удаляет способ выплаты. Основной способ нельзя удалить, пока есть другие активные.
func (s *PayoutService) Delete(ctx context.Context, userID, id uuid.UUID) error {
	m, err := s.repo.GetByID(ctx, id, userID)
	if err != nil {
		return mapError(err)
	}
	if m.IsPrimary {
		active, err := s.repo.CountActive(ctx, userID)
		if err != nil {
			return mapError(err)
		}
		if active > 1 {
			return validationError("сначала назначьте основным другой способ выплаты")
		}
	}
	return mapError(s.repo.Delete(ctx, id, userID))
}

func (s *PayoutService) SetPrimary(ctx context.Context, userID, id uuid.UUID) error {
	return mapError(s.repo.SetPrimary(ctx, id, userID))
}

func applyPayoutInput(m *models.PayoutMethod, in PayoutInput) {
	set := func(dst **string, v *string) {
		if v != nil {
			*dst = optionalString(*v)
		}
	}
	set(&m.AccountName, in.AccountName)
	set(&m.AccountNumber, in.AccountNumber)
	set(&m.RoutingNumber, in.RoutingNumber)
	set(&m.BankName, in.BankName)
	set(&m.Email, in.Email)
}

func validatePayout(m *models.PayoutMethod) error {
	switch m.Type {
	case models.PayoutTypeBank:
		if m.AccountName == nil || m.AccountNumber == nil || m.RoutingNumber == nil || m.BankName == nil {
			return validationError("для банковского счёта нужны владелец, номер счёта, routing number и название банка")
		}
	case models.PayoutTypePayPal:
		if m.Email == nil {
			return validationError("для PayPal нужен email")
		}
		if err := validation.ValidateEmail(*m.Email); err != nil {
			return validationError(err.Error())
		}
	default:
		return validationError("тип способа выплаты должен быть bank или paypal")
	}
	return nil
}
