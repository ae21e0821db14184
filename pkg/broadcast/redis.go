package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "tradepost:broadcast:"

// RedisChannel publishes through Redis pub/sub so every API replica sees every
// event, and delivers what it receives to its local Hub.
type RedisChannel struct {
	client *redis.Client
	hub    *Hub
	logger *slog.Logger
}

// NewRedisClient accepts either a redis:// URL or a bare host:port address.
func NewRedisClient(url string) (*redis.Client, error) {
	if !strings.Contains(url, "://") {
		return redis.NewClient(&redis.Options{Addr: url}), nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	return redis.NewClient(opts), nil
}

func NewRedisChannel(client *redis.Client, logger *slog.Logger) *RedisChannel {
	return &RedisChannel{
		client: client,
		hub:    NewHub(),
		logger: logger,
	}
}

func (c *RedisChannel) Publish(ctx context.Context, topic, eventType string, payload any) error {
	event, err := NewEvent(topic, eventType, payload)
	if err != nil {
		return err
	}
	msg, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := c.client.Publish(ctx, channelPrefix+topic, msg).Err(); err != nil {
		return fmt.Errorf("failed to publish to redis: %w", err)
	}
	return nil
}

func (c *RedisChannel) Subscribe(topic string) (<-chan Event, func()) {
	return c.hub.Subscribe(topic)
}

// Run relays messages from Redis to local subscribers until ctx is cancelled.
// ready, when not nil, is closed once the Redis subscription is confirmed.
func (c *RedisChannel) Run(ctx context.Context, ready chan<- struct{}) error {
	pubsub := c.client.PSubscribe(ctx, channelPrefix+"*")
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to redis: %w", err)
	}
	if ready != nil {
		close(ready)
	}

	messages := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				c.logger.Error("Dropping malformed broadcast message", "channel", msg.Channel, "error", err)
				continue
			}
			if event.Topic == "" {
				event.Topic = strings.TrimPrefix(msg.Channel, channelPrefix)
			}
			c.hub.Deliver(event)
		}
	}
}
