package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// redisClient is the subset of *redis.Client used for publishing.
type redisClient interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisPublisher forwards events as JSON to a Redis pub/sub channel so other
// services can react to ticket changes.
type RedisPublisher struct {
	client  redisClient
	channel string
	logger  *zap.Logger
}

// NewRedisPublisher builds a publisher for channel.
func NewRedisPublisher(client redisClient, channel string, logger *zap.Logger) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel, logger: logger}
}

// Register subscribes the publisher to every event type.
func (p *RedisPublisher) Register(d Dispatcher) {
	for _, eventType := range AllEventTypes {
		d.Subscribe(eventType, p.Handle)
	}
}

// Handle publishes a single event.
func (p *RedisPublisher) Handle(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	receivers, err := p.client.Publish(ctx, p.channel, data).Result()
	if err != nil {
		p.logger.Warn("failed to publish event",
			zap.String("channel", p.channel),
			zap.String("event_type", string(event.Type)),
			zap.Error(err))
		return err
	}
	p.logger.Debug("event published",
		zap.String("channel", p.channel),
		zap.String("event_type", string(event.Type)),
		zap.Int64("receivers", receivers))
	return nil
}
