package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
)

type mockPayoutStore struct {
	mock.Mock
}

func (m *mockPayoutStore) Create(ctx context.Context, pm *models.PayoutMethod) error {
	args := m.Called(ctx, pm)
	if args.Error(0) == nil {
		pm.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockPayoutStore) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.PayoutMethod, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PayoutMethod), args.Error(1)
}

func (m *mockPayoutStore) ListActive(ctx context.Context, userID uuid.UUID) ([]models.PayoutMethod, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]models.PayoutMethod), args.Error(1)
}

func (m *mockPayoutStore) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *mockPayoutStore) Update(ctx context.Context, pm *models.PayoutMethod) error {
	return m.Called(ctx, pm).Error(0)
}

func (m *mockPayoutStore) Delete(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func (m *mockPayoutStore) SetPrimary(ctx context.Context, id, userID uuid.UUID) error {
	return m.Called(ctx, id, userID).Error(0)
}

func TestPayoutService_Add_Bank(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)
	userID := uuid.New()

	store.On("Create", mock.Anything, mock.MatchedBy(func(pm *models.PayoutMethod) bool {
		return pm.UserID == userID && pm.Type == models.PayoutTypeBank &&
			pm.Status == models.PayoutStatusActive && *pm.AccountName == "Anna Petrova"
	})).Return(nil)

	pm, err := svc.Add(context.Background(), userID, PayoutInput{
		Type:          "bank",
		AccountName:   strPtr(" Anna Petrova "),
		AccountNumber: strPtr("40817810"),
		RoutingNumber: strPtr("044525225"),
		BankName:      strPtr("Sber"),
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, pm.ID)
	assert.Nil(t, pm.Email)
	store.AssertExpectations(t)
}

func TestPayoutService_Add_Validation(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)
	ctx := context.Background()

	_, err := svc.Add(ctx, uuid.New(), PayoutInput{Type: "bank", AccountName: strPtr("Anna")})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Add(ctx, uuid.New(), PayoutInput{Type: "paypal"})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Add(ctx, uuid.New(), PayoutInput{Type: "paypal", Email: strPtr("not-an-email")})
	assert.True(t, apperror.IsValidation(err))

	_, err = svc.Add(ctx, uuid.New(), PayoutInput{Type: "crypto", Email: strPtr("a@b.io")})
	assert.True(t, apperror.IsValidation(err))

	store.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestPayoutService_Add_PayPal(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)

	store.On("Create", mock.Anything, mock.Anything).Return(nil)

	pm, err := svc.Add(context.Background(), uuid.New(), PayoutInput{Type: "paypal", Email: strPtr("seller@example.com")})
	require.NoError(t, err)
	assert.Equal(t, "seller@example.com", *pm.Email)
}

func TestPayoutService_Update_Partial(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)
	userID, id := uuid.New(), uuid.New()

	existing := &models.PayoutMethod{
		ID: id, UserID: userID, Type: models.PayoutTypeBank,
		AccountName: strPtr("Anna"), AccountNumber: strPtr("111"),
		RoutingNumber: strPtr("222"), BankName: strPtr("Old Bank"),
	}
	store.On("GetByID", mock.Anything, id, userID).Return(existing, nil)
	store.On("Update", mock.Anything, existing).Return(nil)

	pm, err := svc.Update(context.Background(), userID, id, PayoutInput{BankName: strPtr("New Bank")})
	require.NoError(t, err)
	assert.Equal(t, "New Bank", *pm.BankName)
	assert.Equal(t, "111", *pm.AccountNumber)
}

func TestPayoutService_Update_ClearingRequiredField(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)
	userID, id := uuid.New(), uuid.New()

	store.On("GetByID", mock.Anything, id, userID).Return(&models.PayoutMethod{
		ID: id, UserID: userID, Type: models.PayoutTypePayPal, Email: strPtr("a@b.io"),
	}, nil)

	_, err := svc.Update(context.Background(), userID, id, PayoutInput{Email: strPtr("  ")})
	assert.True(t, apperror.IsValidation(err))
	store.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPayoutService_Update_NotFound(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)

	store.On("GetByID", mock.Anything, mock.Anything, mock.Anything).Return(nil, repository.ErrPayoutMethodNotFound)

	_, err := svc.Update(context.Background(), uuid.New(), uuid.New(), PayoutInput{})
	assert.True(t, apperror.IsNotFound(err))
}

func TestPayoutService_Delete_PrimaryGuard(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)
	userID, id := uuid.New(), uuid.New()

	store.On("GetByID", mock.Anything, id, userID).Return(&models.PayoutMethod{ID: id, UserID: userID, IsPrimary: true}, nil)
	store.On("CountActive", mock.Anything, userID).Return(2, nil).Once()

	err := svc.Delete(context.Background(), userID, id)
	assert.True(t, apperror.IsValidation(err))
	store.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything, mock.Anything)

	store.On("CountActive", mock.Anything, userID).Return(1, nil).Once()
	store.On("Delete", mock.Anything, id, userID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), userID, id))
	store.AssertExpectations(t)
}

func TestPayoutService_Delete_Secondary(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)
	userID, id := uuid.New(), uuid.New()

	store.On("GetByID", mock.Anything, id, userID).Return(&models.PayoutMethod{ID: id, UserID: userID}, nil)
	store.On("Delete", mock.Anything, id, userID).Return(nil)

	require.NoError(t, svc.Delete(context.Background(), userID, id))
	store.AssertNotCalled(t, "CountActive", mock.Anything, mock.Anything)
}

func TestPayoutService_ListAndSetPrimary(t *testing.T) {
	store := new(mockPayoutStore)
	svc := NewPayoutService(store)
	userID, id := uuid.New(), uuid.New()

	store.On("ListActive", mock.Anything, userID).Return([]models.PayoutMethod{{ID: id, IsPrimary: true}}, nil)
	store.On("SetPrimary", mock.Anything, id, userID).Return(nil).Once()
	store.On("SetPrimary", mock.Anything, mock.Anything, userID).Return(repository.ErrPayoutMethodNotFound)

	methods, err := svc.List(context.Background(), userID)
	require.NoError(t, err)
	assert.Len(t, methods, 1)

	require.NoError(t, svc.SetPrimary(context.Background(), userID, id))
	assert.True(t, apperror.IsNotFound(svc.SetPrimary(context.Background(), userID, uuid.New())))
}
