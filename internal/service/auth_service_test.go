package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/pkg/apperror"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
)

// mockAuthRepository реализует AuthRepository для тестов.
type mockAuthRepository struct {
	usersByEmail map[string]*models.User
	usersByID    map[uuid.UUID]*models.User
}

func newMockAuthRepository() *mockAuthRepository {
	return &mockAuthRepository{
		usersByEmail: make(map[string]*models.User),
		usersByID:    make(map[uuid.UUID]*models.User),
	}
}

func (m *mockAuthRepository) Create(ctx context.Context, user *models.User) error {
	if _, ok := m.usersByEmail[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = uuid.New()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	user.IsActive = true
	m.usersByEmail[user.Email] = user
	m.usersByID[user.ID] = user
	return nil
}

func (m *mockAuthRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := m.usersByEmail[email]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockAuthRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := m.usersByID[id]; ok {
		return user, nil
	}
	return nil, repository.ErrUserNotFound
}

func newTestAuthService() (*AuthService, *mockAuthRepository, *TokenManager) {
	repo := newMockAuthRepository()
	tokens := NewTokenManager("test-secret", time.Hour)
	return NewAuthService(repo, tokens), repo, tokens
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	svc, _, tokens := newTestAuthService()
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{
		Name:     "Anna Petrova",
		Email:    "  Anna@Example.com ",
		Password: "Secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, "anna@example.com", res.User.Email)
	assert.Equal(t, models.RoleClient, res.User.Role)
	require.NotNil(t, res.User.PasswordHash)
	assert.NotEqual(t, "Secret123", *res.User.PasswordHash)

	claims, err := tokens.Parse(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleClient, claims.Role)
	assert.Equal(t, "Anna Petrova", claims.Name)

	login, err := svc.Login(ctx, LoginInput{Email: "anna@example.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"bad role", RegisterInput{Name: "Ivan", Email: "ivan@example.com", Password: "Secret123", Role: "admin"}},
		{"bad email", RegisterInput{Name: "Ivan", Email: "ivan.example.com", Password: "Secret123"}},
		{"weak password", RegisterInput{Name: "Ivan", Email: "ivan@example.com", Password: "short"}},
		{"empty name", RegisterInput{Name: " ", Email: "ivan@example.com", Password: "Secret123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			assert.True(t, apperror.IsValidation(err), "got %v", err)
		})
	}
}

func TestAuthService_RegisterDuplicateEmail(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()
	in := RegisterInput{Name: "Ivan", Email: "ivan@example.com", Password: "Secret123", Role: models.RoleFreelancer}

	_, err := svc.Register(ctx, in)
	require.NoError(t, err)

	_, err = svc.Register(ctx, in)
	appErr, ok := apperror.As(err)
	require.True(t, ok)
	assert.Equal(t, 400, appErr.HTTPStatus)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, repo, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterInput{Name: "Ivan", Email: "ivan@example.com", Password: "Secret123"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, LoginInput{Email: "ivan@example.com", Password: "Wrong1234"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "Secret123"})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	oauth := &models.User{Name: "G", Email: "g@example.com", IsOAuth: true, Role: models.RoleClient}
	require.NoError(t, repo.Create(ctx, oauth))
	_, err = svc.Login(ctx, LoginInput{Email: "g@example.com", Password: "Secret123"})
	assert.True(t, apperror.IsValidation(err))
}

func TestTokenManager_RejectsExpiredAndForeignTokens(t *testing.T) {
	tokens := NewTokenManager("secret", time.Minute)
	user := &models.User{ID: uuid.New(), Role: models.RoleFreelancer, Name: "Ivan"}

	token, _, err := tokens.Issue(user)
	require.NoError(t, err)

	other := NewTokenManager("another-secret", time.Minute)
	_, _, err = other.ParseAccess(token)
	assert.Error(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = tokens.Parse(token)
	assert.Error(t, err)
}
