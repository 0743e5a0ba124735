package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"socket-chat/internal/logging"
)

// RedisRelay is a PublicFeed that publishes public room frames to a Redis
// channel and fans out whatever arrives on that channel to the local
// transport. Every server instance subscribed to the channel delivers the
// same public room, in the order Redis saw the publishes.
type RedisRelay struct {
	redis     *redis.Client
	channel   string
	transport *Transport
	outbound  chan []byte
	log       logging.Logger
}

func NewRedisRelay(client *redis.Client, channel string, transport *Transport, buffer int, log logging.Logger) *RedisRelay {
	return &RedisRelay{
		redis:     client,
		channel:   channel,
		transport: transport,
		outbound:  make(chan []byte, buffer),
		log:       log.With("channel", channel),
	}
}

// Publish queues frame for Redis. It is called under the hub lock, so it
// never waits; when the queue is full the frame is dropped.
func (r *RedisRelay) Publish(ctx context.Context, frame []byte) {
	select {
	case r.outbound <- frame:
	default:
		r.log.Warn(ctx, "relay queue full, public message dropped")
	}
}

// Run subscribes to the channel and pumps frames both ways until ctx ends.
// Any other return means the public room is down; callers should stop
// serving rather than keep accepting messages nobody will receive.
func (r *RedisRelay) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pubsub := r.redis.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for the subscription so our own first publish is not missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}

	go r.publishLoop(ctx)

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return errors.New("redis subscription closed")
			}
			r.transport.DeliverFrame(ctx, Everyone(), []byte(msg.Payload))
		}
	}
}

func (r *RedisRelay) publishLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-r.outbound:
			if err := r.redis.Publish(ctx, r.channel, frame).Err(); err != nil {
				r.log.Error(ctx, "redis publish failed", "error", err)
			}
		}
	}
}
