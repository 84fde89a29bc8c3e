package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spaceyvirtualera/spacey/internal/config"
)

// redisPingTimeout bounds the startup check of the rate-limit store.
const redisPingTimeout = 5 * time.Second

// NewRedis connects to the rate-limit store named by REDIS_URL. Redis holds
// only the per-IP login and signup counters; sessions are stateless tokens
// and never touch it. Callers skip this entirely when cfg is not Enabled,
// and the limiter then counts in process memory instead.
func NewRedis(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("redis rate-limit store: REDIS_URL is empty")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis rate-limit store at %s: %w", opts.Addr, err)
	}

	return client, nil
}
