// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
)

// Change describes one committed mutation to a poll's data. Viewers
// re-fetch on receipt; the payload carries no row data on purpose.
type Change struct {
	PollID string `json:"poll_id"`
	Table  string `json:"table"`  // "poll", "option", or "vote"
	Action string `json:"action"` // "insert", "update", or "delete"
}

// Notifier fans out change events to connected viewers of a poll.
// Publish is fire-and-forget: failures are logged by callers, never
// surfaced, and a viewer that misses an event self-heals on reload.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
	Subscribe(ctx context.Context, pollID string) (<-chan Change, func(), error)
	Close() error
}

// RedisNotifier broadcasts changes over Redis pub/sub, one channel per
// poll. Multiple server instances sharing a Redis all see each other's
// mutations.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier connects to Redis and verifies the connection.
func NewRedisNotifier(addr string) (*RedisNotifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection test failed: %w", err)
	}

	return &RedisNotifier{client: client}, nil
}

func channelName(pollID string) string {
	return "poll:" + pollID
}

// Publish sends a change event to the poll's channel.
func (n *RedisNotifier) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change event: %w", err)
	}
	if err := n.client.Publish(ctx, channelName(change.PollID), payload).Err(); err != nil {
		return fmt.Errorf("publish change event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of change events for one poll and a
// cancel function that tears the subscription down.
func (n *RedisNotifier) Subscribe(ctx context.Context, pollID string) (<-chan Change, func(), error) {
	pubsub := n.client.Subscribe(ctx, channelName(pollID))

	// Force the subscription to be established before returning, so a
	// publish immediately after Subscribe is not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe to poll channel: %w", err)
	}

	out := make(chan Change)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				slog.Warn("dropping malformed change event", "error", err)
				continue
			}
			select {
			case out <- change:
			case <-ctx.Done():
				return
			}
		}
	}()

	cancel := func() { pubsub.Close() }
	return out, cancel, nil
}

// Close shuts down the Redis connection.
func (n *RedisNotifier) Close() error {
	return n.client.Close()
}

// NopNotifier is used when no Redis address is configured: publishes
// vanish and subscriptions never fire. Single-instance deployments
// that rely on manual refresh work fine without realtime updates.
type NopNotifier struct{}

func (NopNotifier) Publish(ctx context.Context, change Change) error { return nil }

func (NopNotifier) Subscribe(ctx context.Context, pollID string) (<-chan Change, func(), error) {
	ch := make(chan Change)
	return ch, func() {}, nil
}

func (NopNotifier) Close() error { return nil }
