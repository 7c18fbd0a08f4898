package relay

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"rfid-asset-tracker/internal/model"

	"github.com/redis/go-redis/v9"
)

// RedisRelay republishes movement events on a Redis pub/sub channel so
// other processes (notification workers, secondary dashboards) can consume
// them without holding a WebSocket to this service.
type RedisRelay struct {
	client  *redis.Client
	channel string
}

// NewRedisRelay creates a relay and verifies the connection. Returns an
// error if Redis is unreachable; the caller decides whether to run without
// the relay.
func NewRedisRelay(client *redis.Client, channel string) (*RedisRelay, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	log.Printf("[RedisRelay] Publishing to channel %q", channel)
	return &RedisRelay{client: client, channel: channel}, nil
}

// Publish sends the event to the channel. Fire-and-forget: failures are
// logged and dropped, matching the hub's best-effort delivery.
func (r *RedisRelay) Publish(event model.AssetMovementEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[RedisRelay] Failed to marshal event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		log.Printf("[RedisRelay] Publish failed: %v", err)
	}
}

// Close releases the Redis client.
func (r *RedisRelay) Close() error {
	return r.client.Close()
}
