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
	// ErrConversationNotFound возвращается, когда диалог не найден.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrConversationExists возвращается, если у заказа уже есть диалог.
	ErrConversationExists = errors.New("conversation already exists")
)

// ConversationRepository отвечает за диалоги и их участников.
type ConversationRepository struct {
	db *sqlx.DB
}

// NewConversationRepository создаёт экземпляр репозитория.
func NewConversationRepository(db *sqlx.DB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

type conversationRow struct {
	models.Conversation
	Unread int `db:"unread_count"`
}

// Create сохраняет диалог вместе с участниками.
func (r *ConversationRepository) Create(ctx context.Context, conv *models.Conversation) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		return insertConversation(ctx, tx, conv)
	})
}

// CreateWithMessages сохраняет диалог, участников и пачку уже существующих сообщений.
// Последнее сообщение пачки становится last_message диалога.
func (r *ConversationRepository) CreateWithMessages(ctx context.Context, conv *models.Conversation, messages []models.Message) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := insertConversation(ctx, tx, conv); err != nil {
			return err
		}
		if len(messages) == 0 {
			return nil
		}

		inserter := common.NewBatchInserter(tx,
			`INSERT INTO messages (conversation_id, sender_id, content, message_type, status, created_at, updated_at)`,
			7, 100)
		for _, m := range messages {
			if err := inserter.Add(ctx, conv.ID, m.SenderID, m.Content, m.MessageType, m.Status, m.CreatedAt, m.CreatedAt); err != nil {
				return fmt.Errorf("conversation repository: import messages %w", err)
			}
		}
		if err := inserter.Flush(ctx); err != nil {
			return fmt.Errorf("conversation repository: import messages %w", err)
		}

		last := messages[len(messages)-1]
		return touchLastMessage(ctx, tx, conv.ID, &last)
	})
}

func insertConversation(ctx context.Context, tx *sqlx.Tx, conv *models.Conversation) error {
	if conv.Status == "" {
		conv.Status = models.ConversationStatusActive
	}
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO conversations (order_id, gig_id, type, title, status, is_group)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`, conv.OrderID, conv.GigID, conv.Type, conv.Title, conv.Status, conv.IsGroup,
	).Scan(&conv.ID, &conv.CreatedAt, &conv.UpdatedAt)
	if err != nil {
		if common.IsUniqueViolation(err) {
			return ErrConversationExists
		}
		return fmt.Errorf("conversation repository: create %w", err)
	}

	for _, userID := range conv.Participants {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conversation_participants (conversation_id, user_id)
			VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, conv.ID, userID); err != nil {
			return fmt.Errorf("conversation repository: add participant %w", err)
		}
	}
	return nil
}

// GetByID возвращает диалог с участниками.
func (r *ConversationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.db.GetContext(ctx, &conv, `SELECT * FROM conversations WHERE id = $1`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation repository: get by id %w", err)
	}
	if err := r.loadParticipants(ctx, []*models.Conversation{&conv}); err != nil {
		return nil, err
	}
	conv.FillLastMessage()
	return &conv, nil
}

// FindByOrder возвращает диалог заказа.
func (r *ConversationRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) (*models.Conversation, error) {
	var id uuid.UUID
	err := r.db.GetContext(ctx, &id, `
		SELECT id FROM conversations WHERE order_id = $1 ORDER BY created_at LIMIT 1
	`, orderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation repository: find by order %w", err)
	}
	return r.GetByID(ctx, id)
}

// FindBetween ищет диалог двух пользователей заданного типа.
// Для типа inquiry дополнительно совпадает услуга.
func (r *ConversationRepository) FindBetween(ctx context.Context, a, b uuid.UUID, convType string, gigID *uuid.UUID) (*models.Conversation, error) {
	query := `
		SELECT c.id FROM conversations c
		JOIN conversation_participants p1 ON p1.conversation_id = c.id AND p1.user_id = $1
		JOIN conversation_participants p2 ON p2.conversation_id = c.id AND p2.user_id = $2
		WHERE c.type = $3 AND c.is_group = FALSE
	`
	args := []interface{}{a, b, convType}
	if gigID != nil {
		query += ` AND c.gig_id = $4`
		args = append(args, *gigID)
	}
	query += ` ORDER BY c.created_at LIMIT 1`

	var id uuid.UUID
	if err := r.db.GetContext(ctx, &id, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("conversation repository: find between %w", err)
	}
	return r.GetByID(ctx, id)
}

// ListForUser возвращает неархивные диалоги пользователя, последние активные первыми.
// Непустой search фильтрует по названию или тексту последнего сообщения.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID uuid.UUID, search string) ([]models.Conversation, error) {
	query := `
		SELECT c.*, p.unread_count
		FROM conversations c
		JOIN conversation_participants p ON p.conversation_id = c.id AND p.user_id = $1
		WHERE c.status <> 'archived'
	`
	args := []interface{}{userID}
	if search != "" {
		query += ` AND (c.title ILIKE $2 OR c.last_message_content ILIKE $2)`
		args = append(args, "%"+search+"%")
	}
	query += ` ORDER BY c.last_message_at DESC NULLS LAST, c.updated_at DESC`

	var rows []conversationRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("conversation repository: list for user %w", err)
	}

	convs := make([]models.Conversation, len(rows))
	ptrs := make([]*models.Conversation, len(rows))
	for i, row := range rows {
		convs[i] = row.Conversation
		convs[i].UnreadCount = row.Unread
		convs[i].FillLastMessage()
		ptrs[i] = &convs[i]
	}
	if err := r.loadParticipants(ctx, ptrs); err != nil {
		return nil, err
	}
	return convs, nil
}

// UnreadCount возвращает счётчик непрочитанных участника.
func (r *ConversationRepository) UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n, `
		SELECT unread_count FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2
	`, conversationID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("conversation repository: unread count %w", err)
	}
	return n, nil
}

func (r *ConversationRepository) loadParticipants(ctx context.Context, convs []*models.Conversation) error {
	if len(convs) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(convs))
	byID := make(map[uuid.UUID]*models.Conversation, len(convs))
	for i, c := range convs {
		ids[i] = c.ID
		c.Participants = make([]uuid.UUID, 0, 2)
		byID[c.ID] = c
	}

	var rows []struct {
		ConversationID uuid.UUID `db:"conversation_id"`
		UserID         uuid.UUID `db:"user_id"`
	}
	if err := r.db.SelectContext(ctx, &rows, `
		SELECT conversation_id, user_id FROM conversation_participants
		WHERE conversation_id = ANY($1)
		ORDER BY joined_at, user_id
	`, uuidArray(ids)); err != nil {
		return fmt.Errorf("conversation repository: load participants %w", err)
	}
	for _, row := range rows {
		if c, ok := byID[row.ConversationID]; ok {
			c.Participants = append(c.Participants, row.UserID)
		}
	}
	return nil
}

func touchLastMessage(ctx context.Context, q common.Querier, conversationID uuid.UUID, m *models.Message) error {
	if _, err := q.ExecContext(ctx, `
		UPDATE conversations
		SET last_message_content = $2, last_message_sender_id = $3, last_message_type = $4,
			last_message_at = $5, updated_at = NOW()
		WHERE id = $1
	`, conversationID, m.Content, m.SenderID, m.MessageType, m.CreatedAt); err != nil {
		return fmt.Errorf("conversation repository: update last message %w", err)
	}
	return nil
}
