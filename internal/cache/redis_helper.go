package cache

import (
	"cmp"
	"context"
	"fmt"
	"net"
	"time"

	"github.com/andresuchdata/restock/internal/config"
	"github.com/redis/go-redis/v9"
)

// lockRoundTrip bounds every redis call the locker makes, so a slow server
// fails a commit instead of stalling it past the lock TTL.
const lockRoundTrip = 2 * time.Second

// newLockClient connects to redis and checks it answers within lockRoundTrip.
func newLockClient(ctx context.Context, cfg config.CacheConfig) (*redis.Client, error) {
	opts, err := lockClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, lockRoundTrip)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis %s unreachable: %w", opts.Addr, err)
	}
	return client, nil
}

// lockClientOptions prefers REDIS_URL and falls back to host/port, defaulting
// to a local instance.
func lockClientOptions(cfg config.CacheConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.RedisURL != "" {
		parsed, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     net.JoinHostPort(cmp.Or(cfg.RedisHost, "127.0.0.1"), cmp.Or(cfg.RedisPort, "6379")),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}
	}

	opts.DialTimeout = lockRoundTrip
	opts.ReadTimeout = lockRoundTrip
	opts.WriteTimeout = lockRoundTrip
	return opts, nil
}
