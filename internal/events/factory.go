package events

import (
	"fmt"

	"encore/internal/config"

	"github.com/redis/go-redis/v9"
)

// New builds the publisher selected by EVENTS_BACKEND.
func New(cfg *config.Config, rdb *redis.Client) (Publisher, error) {
	switch cfg.EventsBackend {
	case "", "redis":
		return NewRedisPublisher(rdb), nil
	case "nats":
		return NewNATSPublisher(cfg.NATSURL)
	case "none":
		return Noop{}, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}
