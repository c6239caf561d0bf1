package ws

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/ignatzorin/gig-marketplace/internal/logger"
)

// DefaultBridgeChannel канал Redis для событий комнат.
const DefaultBridgeChannel = "gig-marketplace:ws"

// RedisBridge публикует события комнат в Redis и доставляет
// полученные из канала события локальным клиентам хаба.
type RedisBridge struct {
	client  *redis.Client
	channel string
	hub     *Hub
	pubsub  *redis.PubSub
}

// NewRedisBridge подключается к Redis по URL и проверяет соединение.
func NewRedisBridge(ctx context.Context, redisURL, channel string, hub *Hub) (*RedisBridge, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("ws: некорректный REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ws: redis недоступен: %w", err)
	}
	return newRedisBridge(client, channel, hub), nil
}

func newRedisBridge(client *redis.Client, channel string, hub *Hub) *RedisBridge {
	if channel == "" {
		channel = DefaultBridgeChannel
	}
	return &RedisBridge{client: client, channel: channel, hub: hub}
}

// Publish реализует Publisher.
func (b *RedisBridge) Publish(ctx context.Context, env Envelope) error {
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("ws: encode envelope: %w", err)
	}
	if err := b.client.Publish(ctx, b.channel, raw).Err(); err != nil {
		return fmt.Errorf("ws: redis publish: %w", err)
	}
	return nil
}

// Start подписывается на канал. После успешной подписки хаб начинает
// публиковать события через мост.
func (b *RedisBridge) Start(ctx context.Context) error {
	b.pubsub = b.client.Subscribe(ctx, b.channel)
	if _, err := b.pubsub.Receive(ctx); err != nil {
		_ = b.pubsub.Close()
		return fmt.Errorf("ws: redis subscribe: %w", err)
	}
	b.hub.SetPublisher(b)
	return nil
}

// Run доставляет события из канала, пока подписка открыта.
func (b *RedisBridge) Run() {
	log := logger.Component("ws.redis")
	for msg := range b.pubsub.Channel() {
		var env Envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			log.WithError(err).Warn("skip malformed envelope")
			continue
		}
		b.hub.DeliverLocal(env)
	}
	log.Info("redis bridge stopped")
}

// Close отключает хаб от моста и закрывает подписку и клиент.
func (b *RedisBridge) Close() error {
	b.hub.SetPublisher(nil)
	if b.pubsub != nil {
		_ = b.pubsub.Close()
	}
	return b.client.Close()
}

// PingContext проверяет соединение с Redis для health check.
func (b *RedisBridge) PingContext(ctx context.Context) error {
	return b.client.Ping(ctx).Err()
}
