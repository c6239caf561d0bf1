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

// ErrMessageNotFound возвращается, когда сообщение не найдено или удалено.
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository отвечает за сообщения чата, прочтения, реакции и правки.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository создаёт экземпляр репозитория.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create сохраняет сообщение, обновляет last_message диалога и увеличивает
// счётчики непрочитанных остальных участников. Возвращает новые счётчики по участникам.
func (r *MessageRepository) Create(ctx context.Context, msg *models.Message) (map[uuid.UUID]int, error) {
	unread := make(map[uuid.UUID]int)
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if msg.Status == "" {
			msg.Status = models.MessageStatusSent
		}
		if msg.Attachments == nil {
			msg.Attachments = models.Attachments{}
		}
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO messages (conversation_id, sender_id, content, message_type, attachments, status, reply_to, system_data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id, created_at, updated_at
		`, msg.ConversationID, msg.SenderID, msg.Content, msg.MessageType, msg.Attachments,
			msg.Status, msg.ReplyTo, msg.SystemData,
		).Scan(&msg.ID, &msg.CreatedAt, &msg.UpdatedAt)
		if err != nil {
			return fmt.Errorf("message repository: create %w", err)
		}

		if err := touchLastMessage(ctx, tx, msg.ConversationID, msg); err != nil {
			return err
		}

		rows, err := tx.QueryxContext(ctx, `
			UPDATE conversation_participants SET unread_count = unread_count + 1
			WHERE conversation_id = $1 AND user_id <> $2
			RETURNING user_id, unread_count
		`, msg.ConversationID, msg.SenderID)
		if err != nil {
			return fmt.Errorf("message repository: increment unread %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			var (
				userID uuid.UUID
				count  int
			)
			if err := rows.Scan(&userID, &count); err != nil {
				return fmt.Errorf("message repository: scan unread %w", err)
			}
			unread[userID] = count
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	msg.Reactions = []models.MessageReaction{}
	msg.ReadBy = []models.MessageRead{}
	return unread, nil
}

// GetByID возвращает неудалённое сообщение.
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT * FROM messages WHERE id = $1 AND is_deleted = FALSE`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("message repository: get by id %w", err)
	}
	return &msg, nil
}

// ListPage возвращает страницу неудалённых сообщений, новые первыми, и общее количество.
func (r *MessageRepository) ListPage(ctx context.Context, conversationID uuid.UUID, limit, offset int) ([]models.Message, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `
		SELECT COUNT(*) FROM messages WHERE conversation_id = $1 AND is_deleted = FALSE
	`, conversationID); err != nil {
		return nil, 0, fmt.Errorf("message repository: count %w", err)
	}

	limit, offset = pageArgs(limit, offset, 50)
	messages := make([]models.Message, 0)
	if err := r.db.SelectContext(ctx, &messages, `
		SELECT * FROM messages
		WHERE conversation_id = $1 AND is_deleted = FALSE
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, conversationID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("message repository: list %w", err)
	}

	if err := r.loadExtras(ctx, messages); err != nil {
		return nil, 0, err
	}
	return messages, total, nil
}

func (r *MessageRepository) loadExtras(ctx context.Context, messages []models.Message) error {
	if len(messages) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(messages))
	index := make(map[uuid.UUID]*models.Message, len(messages))
	for i := range messages {
		ids[i] = messages[i].ID
		messages[i].Reactions = []models.MessageReaction{}
		messages[i].ReadBy = []models.MessageRead{}
		index[messages[i].ID] = &messages[i]
	}

	var reactions []models.MessageReaction
	if err := r.db.SelectContext(ctx, &reactions, `
		SELECT * FROM message_reactions WHERE message_id = ANY($1) ORDER BY created_at
	`, uuidArray(ids)); err != nil {
		return fmt.Errorf("message repository: load reactions %w", err)
	}
	for _, rc := range reactions {
		index[rc.MessageID].Reactions = append(index[rc.MessageID].Reactions, rc)
	}

	var reads []models.MessageRead
	if err := r.db.SelectContext(ctx, &reads, `
		SELECT * FROM message_reads WHERE message_id = ANY($1) ORDER BY read_at
	`, uuidArray(ids)); err != nil {
		return fmt.Errorf("message repository: load reads %w", err)
	}
	for _, rd := range reads {
		index[rd.MessageID].ReadBy = append(index[rd.MessageID].ReadBy, rd)
	}

	var edits []models.MessageEdit
	if err := r.db.SelectContext(ctx, &edits, `
		SELECT message_id, content, edited_at FROM message_edits WHERE message_id = ANY($1) ORDER BY edited_at
	`, uuidArray(ids)); err != nil {
		return fmt.Errorf("message repository: load edits %w", err)
	}
	for _, e := range edits {
		index[e.MessageID].EditHistory = append(index[e.MessageID].EditHistory, e)
	}
	return nil
}

// MarkConversationRead отмечает чужие сообщения прочитанными и обнуляет счётчик участника.
func (r *MessageRepository) MarkConversationRead(ctx context.Context, conversationID, userID uuid.UUID) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO message_reads (message_id, user_id)
			SELECT id, $2 FROM messages
			WHERE conversation_id = $1 AND sender_id <> $2 AND is_deleted = FALSE
			ON CONFLICT DO NOTHING
		`, conversationID, userID); err != nil {
			return fmt.Errorf("message repository: insert reads %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE messages SET status = 'read'
			WHERE conversation_id = $1 AND sender_id <> $2 AND status <> 'read'
		`, conversationID, userID); err != nil {
			return fmt.Errorf("message repository: mark read %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE conversation_participants SET unread_count = 0
			WHERE conversation_id = $1 AND user_id = $2
		`, conversationID, userID); err != nil {
			return fmt.Errorf("message repository: reset unread %w", err)
		}
		return nil
	})
}

// Edit сохраняет прежний текст в истории правок и обновляет сообщение.
func (r *MessageRepository) Edit(ctx context.Context, msg *models.Message, content string) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var edit models.MessageEdit
		if err := tx.QueryRowxContext(ctx, `
			INSERT INTO message_edits (message_id, content)
			VALUES ($1, $2)
			RETURNING message_id, content, edited_at
		`, msg.ID, msg.Content).StructScan(&edit); err != nil {
			return fmt.Errorf("message repository: save edit %w", err)
		}
		if err := tx.QueryRowxContext(ctx, `
			UPDATE messages SET content = $2, is_edited = TRUE, updated_at = NOW()
			WHERE id = $1
			RETURNING updated_at
		`, msg.ID, content).Scan(&msg.UpdatedAt); err != nil {
			return fmt.Errorf("message repository: edit %w", err)
		}
		msg.Content = content
		msg.IsEdited = true
		msg.EditHistory = append(msg.EditHistory, edit)
		return nil
	})
}

// SoftDelete помечает сообщение удалённым и заменяет текст.
func (r *MessageRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE messages
		SET is_deleted = TRUE, deleted_at = NOW(), content = $2, updated_at = NOW()
		WHERE id = $1 AND is_deleted = FALSE
	`, id, models.DeletedMessageContent)
	if err != nil {
		return fmt.Errorf("message repository: soft delete %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// ToggleReaction снимает реакцию пользователя, если она была, иначе добавляет.
// Возвращает актуальный список реакций сообщения.
func (r *MessageRepository) ToggleReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) ([]models.MessageReaction, error) {
	reactions := make([]models.MessageReaction, 0)
	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			DELETE FROM message_reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3
		`, messageID, userID, emoji)
		if err != nil {
			return fmt.Errorf("message repository: remove reaction %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO message_reactions (message_id, user_id, emoji) VALUES ($1, $2, $3)
			`, messageID, userID, emoji); err != nil {
				return fmt.Errorf("message repository: add reaction %w", err)
			}
		}
		if err := tx.SelectContext(ctx, &reactions, `
			SELECT * FROM message_reactions WHERE message_id = $1 ORDER BY created_at
		`, messageID); err != nil {
			return fmt.Errorf("message repository: list reactions %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reactions, nil
}
