package streams

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Publisher publishes auth events to Redis Streams
type Publisher struct {
	rdb    *redis.Client
	stream string
}

// NewPublisher creates a new Publisher instance
func NewPublisher(redisURL string) (*Publisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	return NewPublisherWithClient(redis.NewClient(opts)), nil
}

// NewPublisherWithClient wraps an existing client.
func NewPublisherWithClient(rdb *redis.Client) *Publisher {
	return &Publisher{rdb: rdb, stream: StreamAuthEvents}
}

// Publish appends ev to the auth event stream and returns the message id.
func (p *Publisher) Publish(ctx context.Context, ev AuthEvent) (string, error) {
	result := p.rdb.XAdd(ctx, xaddArgs(p.stream, ev))
	if result.Err() != nil {
		return "", fmt.Errorf("failed to publish to stream: %w", result.Err())
	}

	return result.Val(), nil
}

// Close closes the Redis client connection
func (p *Publisher) Close() error {
	return p.rdb.Close()
}

func xaddArgs(stream string, ev AuthEvent) *redis.XAddArgs {
	return &redis.XAddArgs{
		Stream: stream,
		MaxLen: 10000,
		Approx: true,
		ID:     "*", // auto-generate ID
		Values: map[string]interface{}{
			"event_id":       ev.EventID,
			"type":           string(ev.Type),
			"user_id":        ev.UserID,
			"provider":       ev.Provider,
			"occurred_at":    ev.OccurredAt.Unix(),
			"schema_version": SchemaVersionV1,
			"payload":        mustJSON(ev),
		},
	}
}

func mustJSON(ev AuthEvent) string {
	// AuthEvent holds only strings, integers and a time; Marshal cannot fail.
	b, _ := json.Marshal(ev)
	return string(b)
}
