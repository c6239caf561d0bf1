package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ignatzorin/gig-marketplace/internal/goroutine"
	"github.com/ignatzorin/gig-marketplace/internal/logger"
	"github.com/ignatzorin/gig-marketplace/internal/metrics"
)

// RoomUser, RoomOrder и RoomConversation строят имена комнат.
func RoomUser(id uuid.UUID) string         { return "user_" + id.String() }
func RoomOrder(id uuid.UUID) string        { return "order_" + id.String() }
func RoomConversation(id uuid.UUID) string { return "conversation_" + id.String() }

// Frame кадр, отправляемый клиенту: имя события и полезная нагрузка.
type Frame struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Envelope адресует готовый кадр комнате. ExcludeUser не получает кадр.
type Envelope struct {
	Room        string          `json:"room"`
	ExcludeUser uuid.UUID       `json:"exclude_user"`
	Payload     json.RawMessage `json:"payload"`
}

// Publisher рассылает конверты всем экземплярам сервиса.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// RoomAuthorizer решает, может ли пользователь войти в комнату заказа или диалога.
type RoomAuthorizer interface {
	CanJoinOrder(ctx context.Context, userID, orderID uuid.UUID) (bool, error)
	CanJoinConversation(ctx context.Context, userID, conversationID uuid.UUID) (bool, error)
}

type membership struct {
	client *Client
	room   string
	join   bool
}

// Hub управляет всеми WebSocket клиентами и их комнатами.
type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]map[*Client]struct{}
	clients    map[*Client]map[string]struct{}
	register   chan *Client
	unregister chan *Client
	members    chan membership
	broadcast  chan Envelope
	done       chan struct{}
	stopOnce   sync.Once

	publisher  Publisher
	authorizer RoomAuthorizer
	ctx        context.Context
}

// NewHub создаёт новый хаб.
func NewHub(ctx context.Context) *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]struct{}),
		clients:    make(map[*Client]map[string]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		members:    make(chan membership, 16),
		broadcast:  make(chan Envelope, 64),
		done:       make(chan struct{}),
		ctx:        ctx,
	}
}

// SetPublisher включает межсерверную рассылку.
func (h *Hub) SetPublisher(p Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publisher = p
}

// SetAuthorizer устанавливает проверку доступа к комнатам заказов и диалогов.
func (h *Hub) SetAuthorizer(a RoomAuthorizer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.authorizer = a
}

// Run запускает главный цикл хаба до отмены контекста или вызова Stop.
func (h *Hub) Run() {
	for {
		select {
		case <-h.ctx.Done():
			h.Stop()
			h.closeAll()
			return
		case <-h.done:
			h.closeAll()
			return
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case m := <-h.members:
			if m.join {
				h.join(m.client, m.room)
			} else {
				h.leave(m.client, m.room)
			}
		case env := <-h.broadcast:
			h.deliver(env)
		}
	}
}

// Stop останавливает цикл хаба и закрывает подключения.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.done) })
}

// Register добавляет клиента и сразу включает его в комнату пользователя.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// Unregister удаляет клиента из всех комнат.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Join добавляет клиента в комнату.
func (h *Hub) Join(client *Client, room string) {
	select {
	case h.members <- membership{client: client, room: room, join: true}:
	case <-h.done:
	}
}

// Leave убирает клиента из комнаты.
func (h *Hub) Leave(client *Client, room string) {
	select {
	case h.members <- membership{client: client, room: room}:
	case <-h.done:
	}
}

// EmitToRoom отправляет событие всем участникам комнаты.
func (h *Hub) EmitToRoom(room, event string, data interface{}) error {
	return h.emit(room, uuid.Nil, event, data)
}

// EmitToUser отправляет событие во все подключения пользователя.
func (h *Hub) EmitToUser(userID uuid.UUID, event string, data interface{}) error {
	return h.emit(RoomUser(userID), uuid.Nil, event, data)
}

func (h *Hub) emit(room string, exclude uuid.UUID, event string, data interface{}) error {
	raw, err := json.Marshal(Frame{Type: event, Data: data})
	if err != nil {
		return fmt.Errorf("ws: не удалось сериализовать сообщение: %w", err)
	}
	env := Envelope{Room: room, ExcludeUser: exclude, Payload: raw}

	h.mu.RLock()
	publisher := h.publisher
	h.mu.RUnlock()

	if publisher != nil {
		err := publisher.Publish(h.ctx, env)
		if err == nil {
			return nil
		}
		logger.Component("ws").WithError(err).WithField("room", room).
			Warn("publish failed, delivering locally")
	}
	h.DeliverLocal(env)
	return nil
}

// DeliverLocal передаёт конверт клиентам этого экземпляра.
func (h *Hub) DeliverLocal(env Envelope) {
	select {
	case h.broadcast <- env:
	case <-h.done:
	}
}

// RoomSize возвращает число локальных подключений в комнате.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = make(map[string]struct{})
	h.mu.Unlock()

	h.join(client, RoomUser(client.userID))
	metrics.WSConnected()
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[client]
	if !ok {
		return
	}
	for room := range rooms {
		h.dropFromRoom(client, room)
	}
	delete(h.clients, client)
	close(client.send)
	metrics.WSDisconnected()
}

func (h *Hub) join(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	rooms, ok := h.clients[client]
	if !ok {
		return
	}
	if _, ok := h.rooms[room]; !ok {
		h.rooms[room] = make(map[*Client]struct{})
	}
	h.rooms[room][client] = struct{}{}
	rooms[room] = struct{}{}
}

func (h *Hub) leave(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if rooms, ok := h.clients[client]; ok {
		delete(rooms, room)
		h.dropFromRoom(client, room)
	}
}

// dropFromRoom вызывается под h.mu.
func (h *Hub) dropFromRoom(client *Client, room string) {
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

func (h *Hub) inRoom(client *Client, room string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[client][room]
	return ok
}

func (h *Hub) deliver(env Envelope) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[env.Room] {
		if env.ExcludeUser != uuid.Nil && client.userID == env.ExcludeUser {
			continue
		}
		select {
		case client.send <- env.Payload:
		default:
			// Буфер переполнен: клиент не успевает читать.
			goroutine.SafeGo(client.Close)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
		close(c.send)
		metrics.WSDisconnected()
	}
	h.clients = make(map[*Client]map[string]struct{})
	h.rooms = make(map[string]map[*Client]struct{})
	h.mu.Unlock()

	for _, c := range clients {
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

func (h *Hub) authorizeOrder(ctx context.Context, userID, orderID uuid.UUID) bool {
	h.mu.RLock()
	a := h.authorizer
	h.mu.RUnlock()
	if a == nil {
		return true
	}
	ok, err := a.CanJoinOrder(ctx, userID, orderID)
	if err != nil {
		logger.Component("ws").WithError(err).Warn("order room authorization failed")
		return false
	}
	return ok
}

func (h *Hub) authorizeConversation(ctx context.Context, userID, conversationID uuid.UUID) bool {
	h.mu.RLock()
	a := h.authorizer
	h.mu.RUnlock()
	if a == nil {
		return true
	}
	ok, err := a.CanJoinConversation(ctx, userID, conversationID)
	if err != nil {
		logger.Component("ws").WithError(err).Warn("conversation room authorization failed")
		return false
	}
	return ok
}
