package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/dto"
	"github.com/ignatzorin/gig-marketplace/internal/http/middleware"
	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/repository"
	"github.com/ignatzorin/gig-marketplace/internal/service"
)

// memoryUsers хранит пользователей в памяти вместо Postgres.
type memoryUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{users: make(map[string]*models.User)}
}

func (m *memoryUsers) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.Email]; ok {
		return repository.ErrEmailTaken
	}
	user.ID = uuid.New()
	user.IsActive = true
	m.users[user.Email] = user
	return nil
}

func (m *memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[email]; ok {
		return u, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *memoryUsers) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func setupAuthRouter() (*gin.Engine, *service.TokenManager) {
	gin.SetMode(gin.TestMode)
	tokens := service.NewTokenManager("handler-test-secret", time.Hour)
	handler := NewAuthHandler(service.NewAuthService(newMemoryUsers(), tokens))

	r := gin.New()
	r.POST("/auth/register", handler.Register)
	r.POST("/auth/login", handler.Login)
	r.GET("/auth/me", middleware.AuthMiddleware(tokens), handler.Me)
	return r, tokens
}

func doJSON(r http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthHandler_RegisterLoginMe(t *testing.T) {
	r, _ := setupAuthRouter()

	w := doJSON(r, "POST", "/auth/register",
		`{"name":"Anna","email":"Anna@Example.com","password":"Secret123","role":"freelancer"}`, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var registered dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered.Token)
	assert.Equal(t, "anna@example.com", registered.User.Email)
	assert.Equal(t, models.RoleFreelancer, registered.User.Role)

	w = doJSON(r, "POST", "/auth/login", `{"email":"anna@example.com","password":"Secret123"}`, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var loggedIn dto.AuthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loggedIn))

	w = doJSON(r, "GET", "/auth/me", "", loggedIn.Token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), "anna@example.com")
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	r, _ := setupAuthRouter()
	body := `{"name":"Anna","email":"anna@example.com","password":"Secret123"}`

	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/auth/register", body, "").Code)

	w := doJSON(r, "POST", "/auth/register", body, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "email")
}

func TestAuthHandler_Register_AdminRoleRejected(t *testing.T) {
	r, _ := setupAuthRouter()

	w := doJSON(r, "POST", "/auth/register",
		`{"name":"Mallory","email":"m@example.com","password":"Secret123","role":"admin"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Login_WrongPassword(t *testing.T) {
	r, _ := setupAuthRouter()
	require.Equal(t, http.StatusCreated, doJSON(r, "POST", "/auth/register",
		`{"name":"Anna","email":"anna@example.com","password":"Secret123"}`, "").Code)

	w := doJSON(r, "POST", "/auth/login", `{"email":"anna@example.com","password":"Wrong1234"}`, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_Login_MissingFields(t *testing.T) {
	r, _ := setupAuthRouter()

	w := doJSON(r, "POST", "/auth/login", `{"email":"anna@example.com"}`, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthHandler_Me_WithoutToken(t *testing.T) {
	r, _ := setupAuthRouter()

	w := doJSON(r, "GET", "/auth/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
