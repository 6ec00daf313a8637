// Package ratelimit enforces a minimum interval between requests from the
// same client.
package ratelimit

// RateLimiter decides whether a request from key may proceed.
// Implementations exist for a single instance (Limiter) and for a fleet
// sharing Redis (RedisLimiter).
type RateLimiter interface {
	// Allow reports whether a request from key is allowed now.
	Allow(key string) bool
}
