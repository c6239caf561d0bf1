package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы диалогов.
const (
	ConversationTypeOrder   = "order"
	ConversationTypeInquiry = "inquiry"
	ConversationTypeGeneral = "general"
	ConversationTypeDirect  = "direct"
)

// Статусы диалогов.
const (
	ConversationStatusActive   = "active"
	ConversationStatusArchived = "archived"
	ConversationStatusBlocked  = "blocked"
)

// Типы сообщений.
const (
	MessageTypeText        = "text"
	MessageTypeFile        = "file"
	MessageTypeImage       = "image"
	MessageTypeSystem      = "system"
	MessageTypeOrderUpdate = "order_update"
)

// Статусы доставки сообщений.
const (
	MessageStatusSent      = "sent"
	MessageStatusDelivered = "delivered"
	MessageStatusRead      = "read"
)

// DeletedMessageContent подставляется вместо текста удалённого сообщения.
const DeletedMessageContent = "This message was deleted"

// Conversation описывает чат между участниками, опционально привязанный к заказу или услуге.
type Conversation struct {
	ID                  uuid.UUID  `db:"id" json:"id"`
	OrderID             *uuid.UUID `db:"order_id" json:"order_id,omitempty"`
	GigID               *uuid.UUID `db:"gig_id" json:"gig_id,omitempty"`
	Type                string     `db:"type" json:"type"`
	Title               *string    `db:"title" json:"title,omitempty"`
	Status              string     `db:"status" json:"status"`
	IsGroup             bool       `db:"is_group" json:"is_group"`
	LastMessageContent  *string    `db:"last_message_content" json:"-"`
	LastMessageSenderID *uuid.UUID `db:"last_message_sender_id" json:"-"`
	LastMessageType     *string    `db:"last_message_type" json:"-"`
	LastMessageAt       *time.Time `db:"last_message_at" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`

	Participants     []uuid.UUID  `db:"-" json:"participants"`
	LastMessage      *LastMessage `db:"-" json:"last_message,omitempty"`
	OtherParticipant *UserShort   `db:"-" json:"other_participant,omitempty"`
	UnreadCount      int          `db:"-" json:"unread_count"`
}

// LastMessage: краткие данные о последнем сообщении диалога.
type LastMessage struct {
	Content     string    `json:"content"`
	Sender      uuid.UUID `json:"sender"`
	Timestamp   time.Time `json:"timestamp"`
	MessageType string    `json:"message_type"`
}

// FillLastMessage собирает LastMessage из плоских колонок.
func (c *Conversation) FillLastMessage() {
	if c.LastMessageContent == nil || c.LastMessageSenderID == nil || c.LastMessageAt == nil {
		c.LastMessage = nil
		return
	}
	msgType := MessageTypeText
	if c.LastMessageType != nil {
		msgType = *c.LastMessageType
	}
	c.LastMessage = &LastMessage{
		Content:     *c.LastMessageContent,
		Sender:      *c.LastMessageSenderID,
		Timestamp:   *c.LastMessageAt,
		MessageType: msgType,
	}
}

// HasParticipant проверяет участие пользователя в диалоге.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Message описывает сообщение в чате.
type Message struct {
	ID             uuid.UUID   `db:"id" json:"id"`
	ConversationID uuid.UUID   `db:"conversation_id" json:"conversation_id"`
	SenderID       uuid.UUID   `db:"sender_id" json:"sender_id"`
	Content        string      `db:"content" json:"content"`
	MessageType    string      `db:"message_type" json:"message_type"`
	Attachments    Attachments `db:"attachments" json:"attachments"`
	Status         string      `db:"status" json:"status"`
	ReplyTo        *uuid.UUID  `db:"reply_to" json:"reply_to,omitempty"`
	SystemData     RawJSON     `db:"system_data" json:"system_data,omitempty"`
	IsDeleted      bool        `db:"is_deleted" json:"is_deleted"`
	DeletedAt      *time.Time  `db:"deleted_at" json:"deleted_at,omitempty"`
	IsEdited       bool        `db:"is_edited" json:"is_edited"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`

	Sender      *UserShort        `db:"-" json:"sender,omitempty"`
	Reactions   []MessageReaction `db:"-" json:"reactions"`
	ReadBy      []MessageRead     `db:"-" json:"read_by"`
	EditHistory []MessageEdit     `db:"-" json:"edit_history,omitempty"`
}

// MessageReaction описывает реакцию на сообщение.
type MessageReaction struct {
	MessageID uuid.UUID `db:"message_id" json:"-"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Emoji     string    `db:"emoji" json:"emoji"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// MessageRead: отметка о прочтении.
type MessageRead struct {
	MessageID uuid.UUID `db:"message_id" json:"-"`
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ReadAt    time.Time `db:"read_at" json:"read_at"`
}

// MessageEdit: предыдущая версия отредактированного сообщения.
type MessageEdit struct {
	MessageID uuid.UUID `db:"message_id" json:"-"`
	Content   string    `db:"content" json:"content"`
	EditedAt  time.Time `db:"edited_at" json:"edited_at"`
}
