// Package redis publishes marketplace events to Redis Streams.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ericfisherdev/agentmarket/internal/domain/model"
	"github.com/ericfisherdev/agentmarket/internal/domain/port/driven"
)

// DefaultStream is the stream key AccessRequested events are appended to.
const DefaultStream = "marketplace:access_requested"

// Compile-time interface satisfaction check.
var _ driven.EventPublisher = (*Publisher)(nil)

// streamClient is the subset of *redis.Client the publisher uses.
type streamClient interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
	Close() error
}

// Publisher appends events to a Redis Stream with XADD.
type Publisher struct {
	client streamClient
	stream string
}

// NewPublisher connects to the Redis server at url and verifies it with PING.
func NewPublisher(ctx context.Context, url, stream string) (*Publisher, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	if stream == "" {
		stream = DefaultStream
	}
	return &Publisher{client: client, stream: stream}, nil
}

// Stream returns the stream key events are written to.
func (p *Publisher) Stream() string {
	return p.stream
}

// PublishAccessRequested appends evt to the stream.
func (p *Publisher) PublishAccessRequested(ctx context.Context, evt model.AccessRequested) error {
	_, err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: eventValues(evt),
	}).Result()
	if err != nil {
		return fmt.Errorf("xadd %s: %w", p.stream, err)
	}
	return nil
}

// Close closes the underlying client.
func (p *Publisher) Close() error {
	return p.client.Close()
}

// eventValues flattens evt into stream entry fields.
func eventValues(evt model.AccessRequested) map[string]any {
	return map[string]any{
		"service_name": evt.ServiceName,
		"service_id":   evt.ServiceID.String(),
		"requester":    evt.Requester.String(),
		"key_id":       evt.KeyID.String(),
		"price":        strconv.FormatUint(evt.Price, 10),
		"requested_at": evt.RequestedAt.UTC().Format(time.RFC3339Nano),
	}
}
