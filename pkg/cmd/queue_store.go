package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dukex/notiair/pkg/queue"
	"github.com/dukex/notiair/pkg/queue/redisstore"
	"github.com/redis/go-redis/v9"
)

const redisPingTimeout = 5 * time.Second

// NewRedisClient accepts a redis:// URL or a plain host:port address and
// checks the connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts := &redis.Options{Addr: redisURL}

	if strings.Contains(redisURL, "://") {
		parsed, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}

		opts = parsed
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, redisPingTimeout)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	return client, nil
}

// NewQueueStore builds the queue store for provider, "memory" or "redis".
// The redis store needs client.
func NewQueueStore(provider string, client redis.UniversalClient, logger *slog.Logger) queue.Store {
	switch provider {
	case "", "memory":
		return queue.NewMemoryStore()
	case "redis":
		if client == nil {
			panic("redis queue store requires a redis client")
		}

		return redisstore.New(client, logger)
	default:
		panic("Unsupported queue store provider: " + provider)
	}
}
