package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gig-marketplace/internal/models"
)

func TestUserRepository_Create(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	hash := "hash"
	user := &models.User{Name: "Анна", Email: "anna@example.com", PasswordHash: &hash, Role: models.RoleClient}
	id := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("Анна", "anna@example.com", "hash", false, models.RoleClient).
		WillReturnRows(sqlmock.NewRows([]string{"id", "is_active", "created_at", "updated_at"}).
			AddRow(id, true, now, now))

	require.NoError(t, repo.Create(context.Background(), user))
	assert.Equal(t, id, user.ID)
	assert.True(t, user.IsActive)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.User{Email: "dup@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery(`SELECT \* FROM users WHERE email = \$1`).
		WithArgs("none@example.com").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetByEmail(context.Background(), "none@example.com")
	assert.Nil(t, user)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserRepository_Search_WithRole(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	self := uuid.New()
	other := uuid.New()

	mock.ExpectQuery(`(?s)SELECT id, name, email, avatar, role\s+FROM users\s+WHERE id <> \$1 .* AND role = \$3 ORDER BY name LIMIT 10`).
		WithArgs(self, "%ann%", models.RoleFreelancer).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "avatar", "role"}).
			AddRow(other, "Анна", "anna@example.com", nil, models.RoleFreelancer))

	users, err := repo.Search(context.Background(), "ann", models.RoleFreelancer, self, 10)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, other, users[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ListShort_Empty(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	users, err := repo.ListShort(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}
