package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/repository/common"
)

// ErrGigNotFound возвращается, когда услуга не найдена.
var ErrGigNotFound = errors.New("gig not found")

// GigRepository отвечает за таблицу gigs.
type GigRepository struct {
	db *sqlx.DB
}

// NewGigRepository создаёт экземпляр репозитория.
func NewGigRepository(db *sqlx.DB) *GigRepository {
	return &GigRepository{db: db}
}

type gigRow struct {
	models.Gig
	SellerName   sql.NullString `db:"seller_name"`
	SellerEmail  sql.NullString `db:"seller_email"`
	SellerAvatar *string        `db:"seller_avatar"`
}

func (r gigRow) toModel() models.Gig {
	g := r.Gig
	if r.SellerName.Valid {
		g.Seller = &models.UserShort{
			ID:     g.SellerID,
			Name:   r.SellerName.String,
			Email:  r.SellerEmail.String,
			Avatar: r.SellerAvatar,
			Role:   models.RoleFreelancer,
		}
	}
	return g
}

const gigSelect = `
	SELECT g.*, u.name AS seller_name, u.email AS seller_email, u.avatar AS seller_avatar
	FROM gigs g
	LEFT JOIN users u ON u.id = g.seller_id
`

// Create сохраняет новую услугу.
func (r *GigRepository) Create(ctx context.Context, gig *models.Gig) error {
	query := `
		INSERT INTO gigs (seller_id, title, description, category, price, delivery_time, image, images, basic_package)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, average_rating, total_reviews, created_at, updated_at
	`
	if gig.Images == nil {
		gig.Images = []string{}
	}
	err := r.db.QueryRowxContext(ctx, query,
		gig.SellerID, gig.Title, gig.Description, gig.Category, gig.Price,
		gig.DeliveryTime, gig.Image, gig.Images, gig.BasicPackage,
	).Scan(&gig.ID, &gig.AverageRating, &gig.TotalReviews, &gig.CreatedAt, &gig.UpdatedAt)
	if err != nil {
		return fmt.Errorf("gig repository: create %w", err)
	}
	return nil
}

// GetByID возвращает услугу вместе с данными продавца.
func (r *GigRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Gig, error) {
	var row gigRow
	if err := r.db.GetContext(ctx, &row, gigSelect+` WHERE g.id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrGigNotFound
		}
		return nil, fmt.Errorf("gig repository: get by id %w", err)
	}
	gig := row.toModel()
	return &gig, nil
}

// List возвращает страницу каталога и общее количество подходящих услуг.
func (r *GigRepository) List(ctx context.Context, filter models.GigFilter) ([]models.Gig, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.Category != "" {
		args = append(args, filter.Category)
		conds = append(conds, fmt.Sprintf("g.category = $%d", len(args)))
	}
	if q := strings.TrimSpace(filter.Search); q != "" {
		args = append(args, "%"+q+"%")
		conds = append(conds, fmt.Sprintf("(g.title ILIKE $%d OR g.description ILIKE $%d)", len(args), len(args)))
	}
	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		conds = append(conds, fmt.Sprintf("g.seller_id = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM gigs g`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("gig repository: count %w", err)
	}

	limit, offset := pageArgs(filter.Limit, filter.Offset, 20)
	args = append(args, limit, offset)
	query := gigSelect + where + fmt.Sprintf(" ORDER BY g.created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	var rows []gigRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("gig repository: list %w", err)
	}

	gigs := make([]models.Gig, 0, len(rows))
	for _, row := range rows {
		gigs = append(gigs, row.toModel())
	}
	return gigs, total, nil
}

// ListBySeller возвращает последние услуги продавца.
func (r *GigRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID, limit int) ([]models.Gig, error) {
	gigs, _, err := r.List(ctx, models.GigFilter{SellerID: &sellerID, Limit: limit})
	return gigs, err
}

// Update сохраняет изменённые поля услуги.
func (r *GigRepository) Update(ctx context.Context, gig *models.Gig) error {
	query := `
		UPDATE gigs
		SET title = $2, description = $3, category = $4, price = $5, delivery_time = $6,
			image = $7, images = $8, basic_package = $9, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		gig.ID, gig.Title, gig.Description, gig.Category, gig.Price, gig.DeliveryTime,
		gig.Image, gig.Images, gig.BasicPackage,
	).Scan(&gig.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrGigNotFound
		}
		return fmt.Errorf("gig repository: update %w", err)
	}
	return nil
}

// Delete удаляет услугу.
func (r *GigRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM gigs WHERE id = $1`, id)
	if err != nil {
		if common.IsForeignKeyViolation(err) {
			return ErrGigHasOrders
		}
		return fmt.Errorf("gig repository: delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrGigNotFound
	}
	return nil
}

// ErrGigHasOrders возвращается при удалении услуги, на которую есть заказы.
var ErrGigHasOrders = errors.New("gig has orders")
