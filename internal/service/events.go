package service

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/logger"
)

// События, которые сервисы рассылают через WebSocket.
const (
	EventNotification        = "notification"
	EventOrderStatusUpdate   = "order_status_update"
	EventOrderActivated      = "order_activated"
	EventOrderDelivered      = "order_delivered"
	EventOrderCompleted      = "order_completed"
	EventOrderCancelled      = "order_cancelled"
	EventRevisionRequested   = "revision_requested"
	EventNewOrderMessage     = "new_order_message"
	EventNewMessage          = "new_message"
	EventConversationUpdated = "conversation_updated"
	EventMessageNotification = "message_notification"
	EventMessageEdited       = "message_edited"
	EventMessageDeleted      = "message_deleted"
	EventMessageReaction     = "message_reaction"
	EventMessagesRead        = "messages_read"
	EventPaymentReceived     = "payment_received"
	EventPaymentConfirmed    = "payment_confirmed"
	EventPaymentReleased     = "payment_released"
	EventPaymentRefunded     = "payment_refunded"
	EventDisputeOpened       = "dispute_opened"
)

// Broadcaster рассылает события в комнаты WebSocket.
type Broadcaster interface {
	EmitToRoom(room, event string, data interface{}) error
	EmitToUser(userID uuid.UUID, event string, data interface{}) error
}

// noopBroadcaster используется, когда хаб не подключён.
type noopBroadcaster struct{}

func (noopBroadcaster) EmitToRoom(string, string, interface{}) error    { return nil }
func (noopBroadcaster) EmitToUser(uuid.UUID, string, interface{}) error { return nil }

func broadcasterOrNoop(b Broadcaster) Broadcaster {
	if b == nil {
		return noopBroadcaster{}
	}
	return b
}

// emitToRoom и emitToUser не прерывают операцию при ошибке рассылки.
func emitToRoom(b Broadcaster, room, event string, data interface{}) {
	if err := b.EmitToRoom(room, event, data); err != nil {
		logger.Component("realtime").WithError(err).WithField("room", room).WithField("event", event).Warn("emit failed")
	}
}

func emitToUser(b Broadcaster, userID uuid.UUID, event string, data interface{}) {
	if err := b.EmitToUser(userID, event, data); err != nil {
		logger.Component("realtime").WithError(err).WithField("user_id", userID).WithField("event", event).Warn("emit failed")
	}
}
