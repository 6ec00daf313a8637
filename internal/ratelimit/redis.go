package ratelimit

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// per-call Redis deadline
const redisTimeout = 2 * time.Second

// RedisLimiter is a RateLimiter shared by every instance using the same Redis.
type RedisLimiter struct {
	client      *redis.Client
	prefix      string
	minInterval time.Duration
}

// NewRedis creates a Redis-backed limiter. An empty prefix defaults to
// "iconclass:ratelimit:".
func NewRedis(client *redis.Client, prefix string, minInterval time.Duration) *RedisLimiter {
	if prefix == "" {
		prefix = "iconclass:ratelimit:"
	}
	return &RedisLimiter{
		client:      client,
		prefix:      prefix,
		minInterval: minInterval,
	}
}

func (l *RedisLimiter) key(client string) string {
	return l.prefix + client
}

// Allow claims the key with SET NX and an expiry of minInterval. Redis
// errors admit the request.
func (l *RedisLimiter) Allow(key string) bool {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	set, err := l.client.SetNX(ctx, l.key(key), time.Now().Unix(), l.minInterval).Result()
	if err != nil {
		slog.Warn("rate limiter unavailable, allowing request", "error", err)
		return true
	}
	return set
}

// TimeUntilAllowed returns how long key must wait before its next request.
func (l *RedisLimiter) TimeUntilAllowed(key string) time.Duration {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()

	ttl, err := l.client.TTL(ctx, l.key(key)).Result()
	if err != nil || ttl < 0 {
		return 0
	}
	return ttl
}

func (l *RedisLimiter) Reset(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	l.client.Del(ctx, l.key(key))
}

var _ RateLimiter = (*RedisLimiter)(nil)
