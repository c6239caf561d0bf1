package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gig-marketplace/internal/models"
	"github.com/ignatzorin/gig-marketplace/internal/repository/common"
)

// ErrOrderNotFound возвращается, когда заказ не найден.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository отвечает за заказы, журнал статусов, сообщения заказа и файлы сдачи.
type OrderRepository struct {
	db *sqlx.DB
}

// NewOrderRepository создаёт новый экземпляр.
func NewOrderRepository(db *sqlx.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// OrderChange описывает побочные записи, которые сохраняются вместе с изменением заказа.
type OrderChange struct {
	History *models.OrderStatusHistory
	Message *models.OrderMessage
	Files   []models.DeliveryFile
}

// Create сохраняет заказ и первую запись журнала в одной транзакции.
func (r *OrderRepository) Create(ctx context.Context, order *models.Order, note string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO orders (
				gig_id, buyer_id, seller_id, gig_title, gig_image, package_type,
				amount, service_fee, total_amount, delivery_time, delivery_date,
				status, requirements, max_revisions, payment_status, payment_method
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
			RETURNING id, created_at, updated_at
		`
		if err := tx.QueryRowxContext(ctx, query,
			order.GigID, order.BuyerID, order.SellerID, order.GigTitle, order.GigImage, order.PackageType,
			order.Amount, order.ServiceFee, order.TotalAmount, order.DeliveryTime, order.DeliveryDate,
			order.Status, order.Requirements, order.MaxRevisions, order.PaymentStatus, order.PaymentMethod,
		).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt); err != nil {
			return fmt.Errorf("order repository: create %w", err)
		}

		return insertHistory(ctx, tx, &models.OrderStatusHistory{
			OrderID: order.ID,
			Status:  order.Status,
			Note:    note,
		})
	})
}

// GetByID возвращает заказ по идентификатору.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := common.GetByID[models.Order](ctx, r.db, "orders", id, ErrOrderNotFound)
	if err != nil && !errors.Is(err, ErrOrderNotFound) {
		return nil, fmt.Errorf("order repository: %w", err)
	}
	return order, err
}

// LoadDetails дозагружает журнал, сообщения, файлы, участников и открытый спор.
func (r *OrderRepository) LoadDetails(ctx context.Context, order *models.Order) error {
	order.StatusHistory = make([]models.OrderStatusHistory, 0)
	if err := r.db.SelectContext(ctx, &order.StatusHistory,
		`SELECT * FROM order_status_history WHERE order_id = $1 ORDER BY created_at`, order.ID,
	); err != nil {
		return fmt.Errorf("order repository: load history %w", err)
	}

	messages, err := r.ListMessages(ctx, order.ID)
	if err != nil {
		return err
	}
	order.Messages = messages

	files, err := r.ListFiles(ctx, order.ID)
	if err != nil {
		return err
	}
	order.DeliveryFiles = files

	parties, err := listUserShort(ctx, r.db, []uuid.UUID{order.BuyerID, order.SellerID})
	if err != nil {
		return err
	}
	for i := range parties {
		switch parties[i].ID {
		case order.BuyerID:
			order.Buyer = &parties[i]
		case order.SellerID:
			order.Seller = &parties[i]
		}
	}

	var dispute models.Dispute
	err = r.db.GetContext(ctx, &dispute,
		`SELECT * FROM disputes WHERE order_id = $1 AND status = $2`, order.ID, models.DisputeStatusOpen)
	switch {
	case err == nil:
		order.Dispute = &dispute
	case !errors.Is(err, sql.ErrNoRows):
		return fmt.Errorf("order repository: load dispute %w", err)
	}
	return nil
}

// List возвращает страницу заказов по фильтру и общее количество.
func (r *OrderRepository) List(ctx context.Context, filter models.OrderFilter) ([]models.Order, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filter.BuyerID != nil {
		args = append(args, *filter.BuyerID)
		conds = append(conds, fmt.Sprintf("buyer_id = $%d", len(args)))
	}
	if filter.SellerID != nil {
		args = append(args, *filter.SellerID)
		conds = append(conds, fmt.Sprintf("seller_id = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		conds = append(conds, fmt.Sprintf("payment_status = $%d", len(args)))
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM orders`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("order repository: count %w", err)
	}

	limit, offset := pageArgs(filter.Limit, filter.Offset, 10)
	args = append(args, limit, offset)
	query := `SELECT * FROM orders` + where +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	orders := make([]models.Order, 0)
	if err := r.db.SelectContext(ctx, &orders, query, args...); err != nil {
		return nil, 0, fmt.Errorf("order repository: list %w", err)
	}
	return orders, total, nil
}

// ListAll возвращает все заказы, новые первыми.
func (r *OrderRepository) ListAll(ctx context.Context) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.db.SelectContext(ctx, &orders, `SELECT * FROM orders ORDER BY created_at DESC`); err != nil {
		return nil, fmt.Errorf("order repository: list all %w", err)
	}
	return orders, nil
}

// OrderCounters: агрегаты заказов одной стороны сделки.
type OrderCounters struct {
	Total         int     `db:"total"`
	Active        int     `db:"active"`
	Completed     int     `db:"completed"`
	Cancelled     int     `db:"cancelled"`
	CompletedSum  float64 `db:"completed_sum"`
	InProgressSum float64 `db:"in_progress_sum"`
}

// BuyerCounters считает заказы покупателя и потраченную сумму.
func (r *OrderRepository) BuyerCounters(ctx context.Context, buyerID uuid.UUID) (*OrderCounters, error) {
	var c OrderCounters
	err := r.db.GetContext(ctx, &c, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status IN ('pending', 'active', 'delivered')) AS active,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
			COALESCE(SUM(total_amount) FILTER (WHERE status = 'completed'), 0) AS completed_sum,
			0 AS in_progress_sum
		FROM orders
		WHERE buyer_id = $1
	`, buyerID)
	if err != nil {
		return nil, fmt.Errorf("order repository: buyer counters %w", err)
	}
	return &c, nil
}

// SellerCounters считает заказы продавца, заработанное и ожидаемое.
func (r *OrderRepository) SellerCounters(ctx context.Context, sellerID uuid.UUID) (*OrderCounters, error) {
	var c OrderCounters
	err := r.db.GetContext(ctx, &c, `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status IN ('pending', 'active', 'delivered')) AS active,
			COUNT(*) FILTER (WHERE status = 'completed') AS completed,
			COUNT(*) FILTER (WHERE status = 'cancelled') AS cancelled,
			COALESCE(SUM(amount) FILTER (WHERE status = 'completed'), 0) AS completed_sum,
			COALESCE(SUM(amount) FILTER (WHERE status IN ('active', 'delivered')), 0) AS in_progress_sum
		FROM orders
		WHERE seller_id = $1
	`, sellerID)
	if err != nil {
		return nil, fmt.Errorf("order repository: seller counters %w", err)
	}
	return &c, nil
}

// lockOrderQuery блокирует строку заказа и заодно читает, есть ли по нему открытый спор.
// DisputeRepository.Create берёт ту же блокировку, поэтому флаг не устаревает до коммита.
const lockOrderQuery = `
	SELECT o.*, EXISTS(
		SELECT 1 FROM disputes d WHERE d.order_id = o.id AND d.status = 'open'
	) AS has_open_dispute
	FROM orders o WHERE o.id = $1
	FOR UPDATE OF o
`

// Mutate блокирует строку заказа, передаёт её в fn и сохраняет результат.
// Если fn вернул ошибку, транзакция откатывается и ошибка возвращается без обёртки.
func (r *OrderRepository) Mutate(ctx context.Context, id uuid.UUID, fn func(order *models.Order) (*OrderChange, error)) (*models.Order, error) {
	var order models.Order
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &order, lockOrderQuery, id); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("order repository: lock %w", err)
		}

		change, err := fn(&order)
		if err != nil {
			return err
		}

		query := `
			UPDATE orders SET
				status = $2, payment_status = $3, payment_intent_id = $4, charge_id = $5,
				delivery_note = $6, revision_count = $7, is_reviewed = $8, buyer_rating = $9,
				buyer_review = $10, delivered_at = $11, completed_at = $12, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`
		if err := tx.QueryRowxContext(ctx, query,
			order.ID, order.Status, order.PaymentStatus, order.PaymentIntentID, order.ChargeID,
			order.DeliveryNote, order.RevisionCount, order.IsReviewed, order.BuyerRating,
			order.BuyerReview, order.DeliveredAt, order.CompletedAt,
		).Scan(&order.UpdatedAt); err != nil {
			if common.IsUniqueViolation(err) {
				return ErrPaymentIntentInUse
			}
			return fmt.Errorf("order repository: update %w", err)
		}

		if change == nil {
			return nil
		}
		if change.History != nil {
			change.History.OrderID = order.ID
			if err := insertHistory(ctx, tx, change.History); err != nil {
				return err
			}
		}
		if change.Message != nil {
			change.Message.OrderID = order.ID
			if err := insertOrderMessage(ctx, tx, change.Message); err != nil {
				return err
			}
		}
		for i := range change.Files {
			change.Files[i].OrderID = order.ID
			if err := insertDeliveryFile(ctx, tx, &change.Files[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ErrPaymentIntentInUse возвращается, если платёжное намерение уже привязано к другому заказу.
var ErrPaymentIntentInUse = errors.New("payment intent already attached to another order")

// AddMessage добавляет сообщение в ленту заказа.
func (r *OrderRepository) AddMessage(ctx context.Context, msg *models.OrderMessage) error {
	return insertOrderMessage(ctx, r.db, msg)
}

// ListMessages возвращает ленту сообщений заказа в хронологическом порядке.
func (r *OrderRepository) ListMessages(ctx context.Context, orderID uuid.UUID) ([]models.OrderMessage, error) {
	messages := make([]models.OrderMessage, 0)
	if err := r.db.SelectContext(ctx, &messages,
		`SELECT * FROM order_messages WHERE order_id = $1 ORDER BY created_at`, orderID,
	); err != nil {
		return nil, fmt.Errorf("order repository: list messages %w", err)
	}
	return messages, nil
}

// ListFiles возвращает файлы сдачи заказа.
func (r *OrderRepository) ListFiles(ctx context.Context, orderID uuid.UUID) ([]models.DeliveryFile, error) {
	files := make([]models.DeliveryFile, 0)
	if err := r.db.SelectContext(ctx, &files,
		`SELECT * FROM delivery_files WHERE order_id = $1 ORDER BY created_at`, orderID,
	); err != nil {
		return nil, fmt.Errorf("order repository: list files %w", err)
	}
	return files, nil
}

// ListReleasable возвращает сданные и оплаченные заказы без открытого спора,
// сданные не позже deliveredBefore.
func (r *OrderRepository) ListReleasable(ctx context.Context, deliveredBefore time.Time) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := r.db.SelectContext(ctx, &orders, `
		SELECT o.* FROM orders o
		WHERE o.status = 'delivered'
			AND o.payment_status = 'paid'
			AND o.delivered_at <= $1
			AND NOT EXISTS (
				SELECT 1 FROM disputes d WHERE d.order_id = o.id AND d.status = 'open'
			)
		ORDER BY o.delivered_at
	`, deliveredBefore)
	if err != nil {
		return nil, fmt.Errorf("order repository: list releasable %w", err)
	}
	return orders, nil
}

// ListWithoutConversation возвращает заказы с сообщениями, для которых ещё нет диалога.
func (r *OrderRepository) ListWithoutConversation(ctx context.Context) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := r.db.SelectContext(ctx, &orders, `
		SELECT o.* FROM orders o
		WHERE EXISTS (SELECT 1 FROM order_messages m WHERE m.order_id = o.id)
			AND NOT EXISTS (SELECT 1 FROM conversations c WHERE c.order_id = o.id)
		ORDER BY o.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("order repository: list without conversation %w", err)
	}
	return orders, nil
}

func insertHistory(ctx context.Context, q common.Querier, h *models.OrderStatusHistory) error {
	if err := q.QueryRowxContext(ctx, `
		INSERT INTO order_status_history (order_id, status, note)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, h.OrderID, h.Status, h.Note).Scan(&h.ID, &h.CreatedAt); err != nil {
		return fmt.Errorf("order repository: insert history %w", err)
	}
	return nil
}

func insertOrderMessage(ctx context.Context, q common.Querier, m *models.OrderMessage) error {
	if err := q.QueryRowxContext(ctx, `
		INSERT INTO order_messages (order_id, sender_id, message, is_system)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`, m.OrderID, m.SenderID, m.Message, m.IsSystem).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("order repository: insert message %w", err)
	}
	return nil
}

func insertDeliveryFile(ctx context.Context, q common.Querier, f *models.DeliveryFile) error {
	if err := q.QueryRowxContext(ctx, `
		INSERT INTO delivery_files (order_id, file_name, file_url, file_type, file_size, public_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`, f.OrderID, f.FileName, f.FileURL, f.FileType, f.FileSize, f.PublicID).Scan(&f.ID, &f.CreatedAt); err != nil {
		return fmt.Errorf("order repository: insert delivery file %w", err)
	}
	return nil
}
