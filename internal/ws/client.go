package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/ignatzorin/gig-marketplace/internal/goroutine"
	"github.com/ignatzorin/gig-marketplace/internal/logger"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	inboundRate  = 10
	inboundBurst = 20
)

// Входящие события клиента.
const (
	EventJoinUserRoom      = "join_user_room"
	EventJoinOrder         = "join_order"
	EventLeaveOrder        = "leave_order"
	EventJoinConversation  = "join_conversation"
	EventLeaveConversation = "leave_conversation"
	EventTypingStart       = "typing_start"
	EventTypingStop        = "typing_stop"
)

// Исходящие события, которые формирует сам хаб.
const (
	EventUserTyping        = "user_typing"
	EventUserStoppedTyping = "user_stopped_typing"
	EventError             = "error"
)

// Client представляет одно подключение WebSocket.
type Client struct {
	conn      *websocket.Conn
	hub       *Hub
	userID    uuid.UUID
	send      chan []byte
	limiter   *rate.Limiter
	closeOnce sync.Once
}

// NewClient создаёт нового клиента.
func NewClient(conn *websocket.Conn, hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		conn:    conn,
		hub:     hub,
		userID:  userID,
		send:    make(chan []byte, 32),
		limiter: rate.NewLimiter(rate.Limit(inboundRate), inboundBurst),
	}
}

// Run запускает обработку входящих и исходящих сообщений.
func (c *Client) Run(ctx context.Context) {
	goroutine.SafeGo(c.writePump)
	c.readPump(ctx)
}

// Close закрывает соединение.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.hub.Unregister(c)
		if c.conn != nil {
			c.conn.Close()
		}
	})
}

type inboundEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type roomPayload struct {
	UserID         uuid.UUID `json:"userId"`
	OrderID        uuid.UUID `json:"orderId"`
	ConversationID uuid.UUID `json:"conversationId"`
}

type typingPayload struct {
	UserID         uuid.UUID `json:"userId"`
	ConversationID uuid.UUID `json:"conversationId"`
}

func (c *Client) readPump(ctx context.Context) {
	defer c.Close()

	c.conn.SetReadLimit(512 * 1024)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if ctx.Err() != nil {
			return
		}
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Component("ws").WithError(err).WithField("user_id", c.userID).Debug("connection closed unexpectedly")
			}
			return
		}
		if goroutine.DefaultRecoveryHandler.Recover(func() { c.handle(ctx, raw) }) {
			return
		}
	}
}

// handle разбирает входящий кадр и применяет его к комнатам хаба.
func (c *Client) handle(ctx context.Context, raw []byte) {
	if !c.limiter.Allow() {
		c.reply(EventError, map[string]string{"message": "слишком много событий, повторите позже"})
		return
	}

	var ev inboundEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		c.reply(EventError, map[string]string{"message": "некорректный формат события"})
		return
	}

	var p roomPayload
	if len(ev.Data) > 0 {
		if err := json.Unmarshal(ev.Data, &p); err != nil {
			c.reply(EventError, map[string]string{"message": "некорректные данные события"})
			return
		}
	}

	switch ev.Type {
	case EventJoinUserRoom:
		// В комнату пользователя можно войти только под своим id.
		if p.UserID == c.userID {
			c.hub.Join(c, RoomUser(c.userID))
		}
	case EventJoinOrder:
		if p.OrderID != uuid.Nil && c.hub.authorizeOrder(ctx, c.userID, p.OrderID) {
			c.hub.Join(c, RoomOrder(p.OrderID))
		}
	case EventLeaveOrder:
		if p.OrderID != uuid.Nil {
			c.hub.Leave(c, RoomOrder(p.OrderID))
		}
	case EventJoinConversation:
		if p.ConversationID != uuid.Nil && c.hub.authorizeConversation(ctx, c.userID, p.ConversationID) {
			c.hub.Join(c, RoomConversation(p.ConversationID))
		}
	case EventLeaveConversation:
		if p.ConversationID != uuid.Nil {
			c.hub.Leave(c, RoomConversation(p.ConversationID))
		}
	case EventTypingStart, EventTypingStop:
		c.relayTyping(ev.Type, p.ConversationID)
	default:
		logger.Component("ws").WithField("type", ev.Type).Debug("unknown client event")
	}
}

func (c *Client) relayTyping(eventType string, conversationID uuid.UUID) {
	room := RoomConversation(conversationID)
	if conversationID == uuid.Nil || !c.hub.inRoom(c, room) {
		return
	}
	out := EventUserTyping
	if eventType == EventTypingStop {
		out = EventUserStoppedTyping
	}
	if err := c.hub.emit(room, c.userID, out, typingPayload{UserID: c.userID, ConversationID: conversationID}); err != nil {
		logger.Component("ws").WithError(err).Warn("typing relay failed")
	}
}

// reply отправляет кадр только этому подключению.
func (c *Client) reply(event string, data interface{}) {
	raw, err := json.Marshal(Frame{Type: event, Data: data})
	if err != nil {
		return
	}
	// send закрывается хабом под h.mu, поэтому проверяем регистрацию под тем же мьютексом.
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; !ok {
		return
	}
	select {
	case c.send <- raw:
	default:
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
