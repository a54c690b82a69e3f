package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/andresuchdata/restock/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	commitLockKeyPrefix = "restock:lock:"
	lockRetryInterval   = 50 * time.Millisecond
)

// KeyLocker serializes work per key. Lock blocks until the key is free or
// ctx is done; the returned func releases the key and is safe to call twice.
type KeyLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// NewKeyLocker returns a redis-backed locker when the cache is enabled so
// that several server instances share one lock space. Otherwise locks are
// process-local.
func NewKeyLocker(cfg config.CacheConfig, ttl time.Duration) (KeyLocker, error) {
	if !cfg.Enabled {
		return NewLocalKeyLocker(), nil
	}

	client, err := newLockClient(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return NewRedisKeyLocker(client, ttl), nil
}

type localLock struct {
	ch   chan struct{}
	refs int
}

type localKeyLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

func NewLocalKeyLocker() KeyLocker {
	return &localKeyLocker{locks: make(map[string]*localLock)}
}

func (l *localKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	lk, ok := l.locks[key]
	if !ok {
		lk = &localLock{ch: make(chan struct{}, 1)}
		l.locks[key] = lk
	}
	lk.refs++
	l.mu.Unlock()

	select {
	case lk.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, lk, false)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() { l.release(key, lk, true) })
	}, nil
}

func (l *localKeyLocker) release(key string, lk *localLock, held bool) {
	if held {
		<-lk.ch
	}
	l.mu.Lock()
	lk.refs--
	if lk.refs == 0 {
		delete(l.locks, key)
	}
	l.mu.Unlock()
}

// Compare-and-delete so an expired holder cannot release a lock that has
// since been taken by someone else.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisKeyLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisKeyLocker(client *redis.Client, ttl time.Duration) KeyLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &redisKeyLocker{client: client, ttl: ttl}
}

func (l *redisKeyLocker) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := commitLockKeyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(lockRetryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock failed: %w", err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := unlockScript.Run(releaseCtx, l.client, []string{redisKey}, token).Err(); err != nil {
				log.Warn().Err(err).Str("key", redisKey).Msg("failed to release commit lock")
			}
		})
	}, nil
}
