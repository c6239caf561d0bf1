package ws

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(ctx)
	go hub.Run()
	t.Cleanup(cancel)
	return hub
}

func newTestClient(hub *Hub, userID uuid.UUID) *Client {
	return &Client{
		hub:     hub,
		userID:  userID,
		send:    make(chan []byte, 8),
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
}

func waitRoomSize(t *testing.T, hub *Hub, room string, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.RoomSize(room) == n }, time.Second, 5*time.Millisecond)
}

func readFrame(t *testing.T, c *Client) map[string]interface{} {
	t.Helper()
	select {
	case raw := <-c.send:
		var frame map[string]interface{}
		require.NoError(t, json.Unmarshal(raw, &frame))
		return frame
	case <-time.After(time.Second):
		t.Fatal("frame not received")
		return nil
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.send:
		t.Fatalf("unexpected frame %s", raw)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_RegisterJoinsUserRoom(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	c := newTestClient(hub, userID)

	hub.Register(c)
	waitRoomSize(t, hub, RoomUser(userID), 1)

	require.NoError(t, hub.EmitToUser(userID, "notification", map[string]string{"title": "hi"}))
	frame := readFrame(t, c)
	assert.Equal(t, "notification", frame["type"])
}

func TestHub_RoomIsolation(t *testing.T) {
	hub := startHub(t)
	orderID := uuid.New()
	inRoom := newTestClient(hub, uuid.New())
	outside := newTestClient(hub, uuid.New())
	hub.Register(inRoom)
	hub.Register(outside)
	hub.Join(inRoom, RoomOrder(orderID))
	waitRoomSize(t, hub, RoomOrder(orderID), 1)

	require.NoError(t, hub.EmitToRoom(RoomOrder(orderID), "order_delivered", nil))

	assert.Equal(t, "order_delivered", readFrame(t, inRoom)["type"])
	assertNoFrame(t, outside)
}

func TestHub_UnregisterLeavesRooms(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	c := newTestClient(hub, userID)
	hub.Register(c)
	hub.Join(c, RoomConversation(uuid.Nil))
	waitRoomSize(t, hub, RoomUser(userID), 1)

	hub.Unregister(c)
	waitRoomSize(t, hub, RoomUser(userID), 0)
	_, open := <-c.send
	assert.False(t, open)
}

func TestClient_JoinUserRoomOnlyOwnID(t *testing.T) {
	hub := startHub(t)
	userID := uuid.New()
	c := newTestClient(hub, userID)
	hub.Register(c)
	waitRoomSize(t, hub, RoomUser(userID), 1)

	other := uuid.New()
	c.handle(context.Background(), []byte(`{"type":"join_user_room","data":{"userId":"`+other.String()+`"}}`))

	assert.Never(t, func() bool { return hub.RoomSize(RoomUser(other)) > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

type stubAuthorizer struct {
	allowOrder bool
	err        error
}

func (s stubAuthorizer) CanJoinOrder(ctx context.Context, userID, orderID uuid.UUID) (bool, error) {
	return s.allowOrder, s.err
}

func (s stubAuthorizer) CanJoinConversation(ctx context.Context, userID, conversationID uuid.UUID) (bool, error) {
	return true, nil
}

func TestClient_JoinOrderRequiresAuthorization(t *testing.T) {
	hub := startHub(t)
	hub.SetAuthorizer(stubAuthorizer{allowOrder: false})
	c := newTestClient(hub, uuid.New())
	hub.Register(c)

	orderID := uuid.New()
	c.handle(context.Background(), []byte(`{"type":"join_order","data":{"orderId":"`+orderID.String()+`"}}`))
	assert.Never(t, func() bool { return hub.RoomSize(RoomOrder(orderID)) > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	hub.SetAuthorizer(stubAuthorizer{allowOrder: true})
	c.handle(context.Background(), []byte(`{"type":"join_order","data":{"orderId":"`+orderID.String()+`"}}`))
	waitRoomSize(t, hub, RoomOrder(orderID), 1)
}

func TestClient_TypingRelayedToOthersOnly(t *testing.T) {
	hub := startHub(t)
	convID := uuid.New()
	room := RoomConversation(convID)

	typist := newTestClient(hub, uuid.New())
	peer := newTestClient(hub, uuid.New())
	for _, c := range []*Client{typist, peer} {
		hub.Register(c)
		hub.Join(c, room)
	}
	waitRoomSize(t, hub, room, 2)

	typist.handle(context.Background(), []byte(`{"type":"typing_start","data":{"conversationId":"`+convID.String()+`"}}`))

	frame := readFrame(t, peer)
	assert.Equal(t, EventUserTyping, frame["type"])
	data := frame["data"].(map[string]interface{})
	assert.Equal(t, typist.userID.String(), data["userId"])
	assertNoFrame(t, typist)
}

func TestClient_RateLimited(t *testing.T) {
	hub := startHub(t)
	c := newTestClient(hub, uuid.New())
	c.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	hub.Register(c)
	waitRoomSize(t, hub, RoomUser(c.userID), 1)

	c.handle(context.Background(), []byte(`{"type":"leave_order","data":{}}`))
	c.handle(context.Background(), []byte(`{"type":"leave_order","data":{}}`))

	assert.Equal(t, EventError, readFrame(t, c)["type"])
}

type failingPublisher struct{ calls int }

func (p *failingPublisher) Publish(ctx context.Context, env Envelope) error {
	p.calls++
	return errors.New("redis down")
}

func TestHub_PublishFailureFallsBackToLocal(t *testing.T) {
	hub := startHub(t)
	pub := &failingPublisher{}
	hub.SetPublisher(pub)

	userID := uuid.New()
	c := newTestClient(hub, userID)
	hub.Register(c)
	waitRoomSize(t, hub, RoomUser(userID), 1)

	require.NoError(t, hub.EmitToUser(userID, "payment_released", nil))
	assert.Equal(t, "payment_released", readFrame(t, c)["type"])
	assert.Equal(t, 1, pub.calls)
}
