package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/repository/common"
)

var (
	// ErrUserNotFound возвращается, когда запись пользователя не найдена.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken возвращается при попытке зарегистрировать занятый email.
	ErrEmailTaken = errors.New("email already registered")
)

// UserRepository отвечает за работу с таблицей users.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository создаёт экземпляр репозитория.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create создаёт нового пользователя.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (name, email, password_hash, is_oauth, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, is_active, created_at, updated_at
	`

	if err := r.db.QueryRowxContext(
		ctx, query,
		user.Name, user.Email, user.PasswordHash, user.IsOAuth, user.Role,
	).Scan(&user.ID, &user.IsActive, &user.CreatedAt, &user.UpdatedAt); err != nil {
		if common.IsUniqueViolation(err) {
			return ErrEmailTaken
		}
		return fmt.Errorf("user repository: create %w", err)
	}

	return nil
}

// GetByEmail возвращает пользователя по email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user, err := common.GetByField[models.User](ctx, r.db, "users", "email", email, ErrUserNotFound)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user repository: %w", err)
	}
	return user, err
}

// GetByID возвращает пользователя по идентификатору.
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := common.GetByID[models.User](ctx, r.db, "users", id, ErrUserNotFound)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, fmt.Errorf("user repository: %w", err)
	}
	return user, err
}

// UpdateProfile сохраняет редактируемые поля профиля.
func (r *UserRepository) UpdateProfile(ctx context.Context, user *models.User) error {
	query := `
		UPDATE users
		SET name = $2, avatar = $3, bio = $4, location = $5, payment_account_id = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.ID, user.Name, user.Avatar, user.Bio, user.Location, user.PaymentAccountID,
	).Scan(&user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return fmt.Errorf("user repository: update profile %w", err)
	}
	return nil
}

// Search ищет пользователей по имени или email без учёта регистра.
func (r *UserRepository) Search(ctx context.Context, q, role string, excludeID uuid.UUID, limit int) ([]models.UserShort, error) {
	query := `
		SELECT id, name, email, avatar, role
		FROM users
		WHERE id <> $1 AND is_active = TRUE AND (name ILIKE $2 OR email ILIKE $2)
	`
	args := []interface{}{excludeID, "%" + q + "%"}
	if role != "" {
		query += ` AND role = $3`
		args = append(args, role)
	}
	query += fmt.Sprintf(` ORDER BY name LIMIT %d`, limit)

	users := make([]models.UserShort, 0)
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("user repository: search %w", err)
	}
	return users, nil
}

// GetShort возвращает краткие данные пользователя.
func (r *UserRepository) GetShort(ctx context.Context, id uuid.UUID) (*models.UserShort, error) {
	users, err := r.ListShort(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

// ListShort возвращает краткие данные набора пользователей.
func (r *UserRepository) ListShort(ctx context.Context, ids []uuid.UUID) ([]models.UserShort, error) {
	return listUserShort(ctx, r.db, ids)
}

func listUserShort(ctx context.Context, q common.Querier, ids []uuid.UUID) ([]models.UserShort, error) {
	users := make([]models.UserShort, 0, len(ids))
	if len(ids) == 0 {
		return users, nil
	}
	if err := q.SelectContext(ctx, &users,
		`SELECT id, name, email, avatar, role FROM users WHERE id = ANY($1)`, uuidArray(ids),
	); err != nil {
		return nil, fmt.Errorf("user repository: list short %w", err)
	}
	return users, nil
}
