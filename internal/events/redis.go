package events

import (
	"context"
	"log/slog"
	"runtime/debug"

	"encore/internal/middleware"

	"github.com/redis/go-redis/v9"
)

// ChannelPrefix namespaces event subjects on Redis pub/sub.
const ChannelPrefix = "events:"

// RedisPublisher publishes events on Redis pub/sub channels named events:<subject>.
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a publisher over rdb. A nil client drops events.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, subject string, payload []byte) error {
	if p.rdb == nil {
		return nil
	}
	return p.rdb.Publish(ctx, ChannelPrefix+subject, payload).Err()
}

// Close is a no-op: the client is shared with the cache and closed by its owner.
func (p *RedisPublisher) Close() error { return nil }

// Subscribe listens on events:* and calls onEvent for every message until ctx is done.
func (p *RedisPublisher) Subscribe(ctx context.Context, onEvent func(subject string, payload []byte)) error {
	if p.rdb == nil {
		return nil
	}
	sub := p.rdb.PSubscribe(ctx, ChannelPrefix+"*")
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							middleware.Logger.Error("panic in event subscriber",
								slog.Any("panic", r),
								slog.String("stack", string(debug.Stack())),
							)
						}
					}()
					onEvent(msg.Channel[len(ChannelPrefix):], []byte(msg.Payload))
				}()
			}
		}
	}()
	return nil
}
