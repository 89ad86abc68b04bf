package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// EventRunCompleted is the envelope type of a published run summary.
const EventRunCompleted = "sync.run.completed"

// Publisher announces finished runs.
type Publisher interface {
	Publish(ctx context.Context, summary *Summary) error
}

// Envelope wraps a published summary.
type Envelope struct {
	Event     string   `json:"event"`
	EventID   string   `json:"event_id"`
	Timestamp int64    `json:"timestamp"`
	Data      *Summary `json:"data"`
}

// RedisPublisher publishes run summaries to a Redis channel.
type RedisPublisher struct {
	client  redis.Cmdable
	channel string
}

// NewRedisPublisher creates a publisher on channel.
func NewRedisPublisher(client redis.Cmdable, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, summary *Summary) error {
	payload, err := json.Marshal(Envelope{
		Event:     EventRunCompleted,
		EventID:   uuid.NewString(),
		Timestamp: time.Now().Unix(),
		Data:      summary,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish run summary: %w", err)
	}
	return nil
}
