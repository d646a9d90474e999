package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Channel is the Redis pub/sub channel carrying change events.
const Channel = "v-meet-rooms-updated"

// Redis publishes change events over Redis pub/sub so every process sharing
// the Redis instance sees every mutation. Received events, including this
// process's own, are fanned out to local subscribers.
type Redis struct {
	client *redis.Client
	local  *Local
	logger zerolog.Logger
	pubsub *redis.PubSub
	done   chan struct{}
}

// NewRedis subscribes to Channel and starts relaying events.
func NewRedis(ctx context.Context, client *redis.Client, logger zerolog.Logger) (*Redis, error) {
	pubsub := client.Subscribe(ctx, Channel)

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, err
	}

	r := &Redis{
		client: client,
		local:  NewLocal(),
		logger: logger,
		pubsub: pubsub,
		done:   make(chan struct{}),
	}
	go r.relay()
	return r, nil
}

func (r *Redis) relay() {
	defer close(r.done)
	for msg := range r.pubsub.Channel() {
		var evt Event
		if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
			r.logger.Warn().Err(err).Str("payload", msg.Payload).Msg("ignoring malformed change event")
			continue
		}
		r.local.Publish(context.Background(), evt)
	}
}

// Publish sends evt to every process subscribed to Channel.
func (r *Redis) Publish(ctx context.Context, evt Event) error {
	data, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, Channel, data).Err()
}

// Subscribe registers a local subscriber for relayed events.
func (r *Redis) Subscribe() (<-chan Event, func()) {
	return r.local.Subscribe()
}

// Close stops relaying. The Redis client itself is owned by the caller.
func (r *Redis) Close() error {
	err := r.pubsub.Close()
	<-r.done
	return err
}
