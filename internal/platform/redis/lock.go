package redis

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/studyden/studyden-backend/internal/platform/logger"
)

// Locker serializes ingestion and generation runs across processes. The DB
// claim is the primary serializer; this is the cross-process guard when
// several backend replicas share one database.
type Locker interface {
	// Acquire returns a release func, or false when the key is held elsewhere.
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error)
	Close() error
}

type locker struct {
	log *logger.Logger
	rdb *goredis.Client
}

// NewLocker returns nil when REDIS_ADDR is unset; callers treat a nil Locker
// as "single process, DB claim is enough".
func NewLocker(log *logger.Logger) (Locker, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, nil
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &locker{log: log.With("service", "RedisLocker"), rdb: rdb}, nil
}

func (l *locker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	ok, err := l.rdb.SetNX(ctx, "lock:"+key, "1", ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("setnx %q: %w", key, err)
	}
	if !ok {
		return nil, false, nil
	}
	release := func() {
		if err := l.rdb.Del(context.Background(), "lock:"+key).Err(); err != nil {
			l.log.Warn("lock release failed", "key", key, "error", err)
		}
	}
	return release, true, nil
}

func (l *locker) Close() error {
	return l.rdb.Close()
}
