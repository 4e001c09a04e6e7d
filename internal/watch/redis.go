package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel shared by all instances.
const DefaultRedisChannel = "burgerhub:changes"

// publisher is the subset of *redis.Client used to forward changes.
type publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisRelay bridges the local bus with other service instances through a
// redis channel, so a write on one instance reaches watchers on every other.
// Changes that arrived from redis are republished locally with their Origin
// set and are never forwarded back.
type RedisRelay struct {
	client     *redis.Client
	pub        publisher
	bus        *Bus
	channel    string
	instanceID string
}

// NewRedisRelay creates a relay for client and bus. An empty channel uses
// DefaultRedisChannel.
func NewRedisRelay(client *redis.Client, bus *Bus, channel string) *RedisRelay {
	if channel == "" {
		channel = DefaultRedisChannel
	}
	return &RedisRelay{
		client:     client,
		pub:        client,
		bus:        bus,
		channel:    channel,
		instanceID: uuid.NewString(),
	}
}

// InstanceID identifies this relay's messages on the shared channel.
func (r *RedisRelay) InstanceID() string {
	return r.instanceID
}

// Run relays in both directions until ctx is done.
func (r *RedisRelay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	remote := pubsub.Channel()

	local := r.bus.Subscribe("")
	defer local.Close()

	slog.Info("redis change relay started", "channel", r.channel, "instance", r.instanceID)

	for {
		select {
		case <-ctx.Done():
			return nil
		case c, ok := <-local.C():
			if !ok {
				return nil
			}
			if err := r.forward(ctx, c); err != nil {
				slog.Warn("redis relay publish failed", "key", c.Key, "error", err)
			}
		case msg, ok := <-remote:
			if !ok {
				return nil
			}
			r.receive(msg.Payload)
		}
	}
}

// forward publishes a locally originated change to redis.
func (r *RedisRelay) forward(ctx context.Context, c Change) error {
	if c.Origin != "" {
		return nil
	}
	c.Origin = r.instanceID
	payload, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	return r.pub.Publish(ctx, r.channel, payload).Err()
}

// receive republishes a change from another instance on the local bus.
func (r *RedisRelay) receive(payload string) {
	var c Change
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		slog.Warn("redis relay dropped malformed message", "error", err)
		return
	}
	if c.Origin == "" || c.Origin == r.instanceID {
		return
	}
	r.bus.Publish(c)
}
